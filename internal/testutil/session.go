package testutil

// FixedSessionGenerator returns the same session id on every call, so
// repeated runs of a scenario produce byte-identical logs.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id. An empty id
// becomes "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed id. It satisfies engine.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
