package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLayout(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "catalog"), ws.CatalogDir)
	assert.Equal(t, filepath.Join(root, "states", "current.yml"), ws.StatePath)
	assert.Equal(t, filepath.Join(root, "artifacts", "plans"), ws.PlansDir)
	assert.Equal(t, filepath.Join(root, "artifacts", "runs"), ws.RunsDir)
	assert.Equal(t, filepath.Join(root, "planner.yaml"), ws.ConfigPath)

	require.NoError(t, ws.EnsureDirs())
	for _, dir := range []string{ws.CatalogDir, ws.StatesDir, ws.PlansDir, ws.RunsDir, ws.AuditDir} {
		assert.DirExists(t, dir)
	}
}

func TestResolveRejectsFilesAndMissing(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Resolve(file)
	require.Error(t, err)
	_, err = Resolve(filepath.Join(root, "missing"))
	require.Error(t, err)
	_, err = Resolve("  ")
	require.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	got, err := ws.ResolvePath("states/next.yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "states", "next.yml"), got)

	got, err = ws.ResolvePath("/tmp/../tmp/x.yml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.yml", got)

	got, err = ws.ResolvePath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ws.ResolvePath("~other/x")
	require.Error(t, err)
}
