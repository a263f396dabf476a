package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()

	dir := filepath.Join(root, m.Name)
	require.NoError(t, os.MkdirAll(dir, 0755))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644))
	return dir
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Sends key presses",
		Executable:  "keyboard",
		Actions:     []string{"press", "keystroke"},
	})

	manager := NewManager(root, hclog.NewNullLogger())
	require.NoError(t, manager.Discover())

	plugins := manager.List()
	require.Len(t, plugins, 1)

	plugin := plugins[0]
	assert.Equal(t, "keyboard", plugin.Manifest.Name)
	assert.Equal(t, "1.0.0", plugin.Manifest.Version)
	assert.Len(t, plugin.Manifest.Actions, 2)
	assert.Equal(t, dir, plugin.Path)
	assert.Equal(t, filepath.Join(dir, "keyboard"), plugin.Executable)
}

func TestManager_Discover_MultiplePluginsSorted(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, root, Manifest{Name: name, Executable: name})
	}
	// Stray files next to plugin dirs are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0644))

	manager := NewManager(root, nil)
	require.NoError(t, manager.Discover())

	var names []string
	for _, p := range manager.List() {
		names = append(names, p.Manifest.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()

	bad := filepath.Join(root, "bad")
	require.NoError(t, os.MkdirAll(bad, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, ManifestFile), []byte("{nope"), 0644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-manifest"), 0755))
	writeManifest(t, root, Manifest{Name: "incomplete"})
	writeManifest(t, root, Manifest{Name: "good", Executable: "good"})

	manager := NewManager(root, nil)
	require.NoError(t, manager.Discover())

	plugins := manager.List()
	require.Len(t, plugins, 1)
	assert.Equal(t, "good", plugins[0].Manifest.Name)
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, manager.Discover())
	assert.Empty(t, manager.List())
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "keyboard", Executable: "keyboard"})

	manager := NewManager(root, nil)
	require.NoError(t, manager.Discover())

	plugin, err := manager.Get("keyboard")
	require.NoError(t, err)
	assert.Equal(t, "keyboard", plugin.Manifest.Name)

	_, err = manager.Get("mouse")
	assert.True(t, errors.Is(err, ErrPluginNotFound))
}

func TestManager_PluginDir(t *testing.T) {
	assert.Equal(t, "/opt/plugins", NewManager("/opt/plugins", nil).PluginDir())
}

func TestManifest_Supports(t *testing.T) {
	assert.True(t, Manifest{}.Supports("anything"))

	m := Manifest{Actions: []string{"press"}}
	assert.True(t, m.Supports("press"))
	assert.False(t, m.Supports("scroll"))
}
