package engine

import "github.com/roach88/lodestar/internal/ir"

// ChoiceView is a choice as offered to the player.
type ChoiceView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BlockedChoice is a choice the player cannot take yet, with the reasons.
type BlockedChoice struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Reasons []string `json:"reasons"`
}

// Presentable is what a UI needs to render the active node of a graph.
// Choices keep their authored order within each list.
type Presentable struct {
	GraphID string          `json:"graph_id"`
	NodeID  string          `json:"node_id"`
	Title   string          `json:"title,omitempty"`
	Speaker string          `json:"speaker,omitempty"`
	Text    string          `json:"text"`
	Legal   []ChoiceView    `json:"legal"`
	Blocked []BlockedChoice `json:"blocked"`
}

// Present renders the active node of an InProgress graph, splitting its
// choices into legal and blocked against the current world state.
func (e *Engine) Present(graphID string) (*Presentable, error) {
	g, ok := e.graphs[graphID]
	if !ok {
		return nil, newError(ErrCodeUnknownGraph, graphID, "no graph %q", graphID)
	}
	inst := e.instances[graphID]
	if inst.state != ir.StateInProgress {
		return nil, newError(ErrCodeNotInProgress, graphID, "graph is %s", e.effectiveState(graphID))
	}

	node := g.Nodes[inst.active]
	p := &Presentable{
		GraphID: graphID,
		NodeID:  node.ID,
		Title:   node.Title,
		Speaker: node.Speaker,
		Text:    node.Body,
		Legal:   []ChoiceView{},
		Blocked: []BlockedChoice{},
	}
	for _, c := range node.Choices {
		if legal, reasons := choiceLegal(node, c, e.ledger, e.host); legal {
			p.Legal = append(p.Legal, ChoiceView{ID: c.ID, Text: c.Text})
		} else {
			p.Blocked = append(p.Blocked, BlockedChoice{ID: c.ID, Text: c.Text, Reasons: reasons})
		}
	}
	return p, nil
}
