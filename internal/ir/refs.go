package ir

// NextRef says where a choice leads. At most one of Node and Graph is set;
// both empty means the choice ends the graph.
type NextRef struct {
	Node  string `json:"node,omitempty" yaml:"node,omitempty"`
	Graph string `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// ToNode returns a NextRef pointing at a node in the same graph.
func ToNode(id string) NextRef { return NextRef{Node: id} }

// ToGraph returns a NextRef chaining into another graph.
func ToGraph(id string) NextRef { return NextRef{Graph: id} }

func (r NextRef) IsEnd() bool   { return r.Node == "" && r.Graph == "" }
func (r NextRef) IsNode() bool  { return r.Node != "" }
func (r NextRef) IsGraph() bool { return r.Graph != "" }
