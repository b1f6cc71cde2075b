package store

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ir"
	fixtures "github.com/roach88/lodestar/internal/testutil"
)

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newSession returns an engine with the prologue content registered.
func newSession(t *testing.T, sessionID string) (*engine.Engine, *collab.World) {
	t.Helper()
	world := collab.NewWorld()
	t.Cleanup(world.Close)
	e := engine.New(world,
		engine.WithLogger(slog.New(slog.DiscardHandler)),
		engine.WithSessionGenerator(fixtures.NewFixedSessionGenerator(sessionID)))
	require.NoError(t, e.Register(fixtures.Prologue()))
	return e, world
}

func capture(e *engine.Engine, w *collab.World) Save {
	return Save{Snapshot: e.Serialize(), World: w.State()}
}

func entryIDs(entries []ir.EventLogEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
