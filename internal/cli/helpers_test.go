package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/config"
)

const contentDir = "../../content"

// testConfig points the CLI at the shipped content and a fresh database.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBPath:     filepath.Join(t.TempDir(), "lodestar.db"),
		ContentDir: contentDir,
		Slot:       "default",
		LogLevel:   "error",
		LogFormat:  "text",
	}
}

// runCLI executes one command line on a fresh root command.
func runCLI(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(cfg)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun executes a command line that must succeed.
func mustRun(t *testing.T, cfg config.Config, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfg, args...)
	require.NoError(t, err, "lodestar %v\n%s", args, out)
	return out
}

// decode parses a JSON envelope, decoding its data into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data), out)
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
