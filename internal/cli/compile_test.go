package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/compiler"
	"github.com/roach88/lodestar/internal/ir"
)

func TestCompile_Text(t *testing.T) {
	out := mustRun(t, testConfig(t), "compile")

	assert.Contains(t, out, "✓ Compiled 4 graph(s) from 4 file(s)")
	assert.Contains(t, out, "quest_main_prologue (quest, main): 3 node(s)")
	assert.Contains(t, out, "quest_side_salvage (quest, side, locked)")
	assert.Contains(t, out, "Content hash: ")
}

func TestCompile_WritesCanonicalIR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	out := mustRun(t, testConfig(t), "compile", contentDir, "-o", path)
	assert.Contains(t, out, "Wrote canonical IR to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var bundle CompilationResult
	require.NoError(t, json.Unmarshal(data, &bundle))
	assert.Equal(t, ir.SchemaVersion, bundle.Version)
	require.Len(t, bundle.Graphs, 4)

	content, errs := compiler.LoadDir(contentDir, compiler.LoadModeCollectAll)
	require.Empty(t, errs)
	hash, err := content.Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, bundle.ContentHash)

	again, err := ir.MarshalCanonical(bundle)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "output is canonical")
}

func TestCompile_JSON(t *testing.T) {
	out := mustRun(t, testConfig(t), "compile", "--format", "json")

	var bundle CompilationResult
	resp := decode(t, out, &bundle)
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, bundle.Graphs, 4)
	assert.NotEmpty(t, bundle.ContentHash)
}

func TestCompile_InvalidContent(t *testing.T) {
	dir := writeContent(t, "broken.yaml", brokenGraph)
	path := filepath.Join(t.TempDir(), "content.json")

	_, err := runCLI(t, testConfig(t), "compile", dir, "-o", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NoFileExists(t, path)
}
