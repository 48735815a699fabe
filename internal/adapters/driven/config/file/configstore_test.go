package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".dsbulk", "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("test_key", "test_value"))

	val, ok := store.Get("test_key")
	assert.True(t, ok)
	assert.Equal(t, "test_value", val)
}

func TestConfigStore_GetString_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("bool_key", true))

	assert.Empty(t, store.GetString("bool_key"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("bool_true", true))
	require.NoError(t, store.Set("string_key", "true"))

	assert.True(t, store.GetBool("bool_true"))
	assert.False(t, store.GetBool("string_key"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_Persistence_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("default_profile", "prod"))
	require.NoError(t, store1.Set("profiles.prod.host", "https://ds.example.com"))
	require.NoError(t, store1.Set("profiles.prod.verify_ssl", false))

	raw, err := os.ReadFile(store1.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[profiles.prod]")
	assert.NotContains(t, string(raw), "'profiles.prod.host'")

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "prod", store2.GetString("default_profile"))
	assert.Equal(t, "https://ds.example.com", store2.GetString("profiles.prod.host"))
	val, ok := store2.Get("profiles.prod.verify_ssl")
	assert.True(t, ok)
	assert.Equal(t, false, val)
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := strings.Join([]string{
		`default_profile = "staging"`,
		``,
		`[profiles.staging]`,
		`host = "https://staging.example.com"`,
		`username = "bob"`,
		`api_key = "k"`,
		``,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "staging", store.GetString("default_profile"))
	assert.Equal(t, "bob", store.GetString("profiles.staging.username"))
	assert.Equal(t, []string{
		"profiles.staging.api_key",
		"profiles.staging.host",
		"profiles.staging.username",
	}, store.Keys("profiles."))
}

func TestConfigStore_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("profiles.prod.host", "a"))
	require.NoError(t, store.Set("profiles.prod.username", "b"))
	require.NoError(t, store.Set("profiles.production.host", "c"))

	require.NoError(t, store.Delete("profiles.prod"))

	assert.Equal(t, []string{"profiles.production.host"}, store.Keys("profiles."))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"profiles.production.host"}, reloaded.Keys("profiles."))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()

	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# Just a comment\n\n"), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "profiles.p" + string(rune('0'+id)) + ".host"
			_ = store.Set(key, "h")
			_ = store.GetString(key)
			_ = store.Keys("profiles.")
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys("profiles."), 10)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()

	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Load_ReadFileError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	require.NoError(t, os.Chmod(store.Path(), 0000))
	t.Cleanup(func() { _ = os.Chmod(store.Path(), 0600) })

	err = store.Load()
	assert.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// Channels cannot be marshaled to TOML
	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "deep", "path")

	store, err := NewConfigStore(nestedPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nestedPath, "config.toml"), store.Path())

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	flat := map[string]any{
		"a":       "1",
		"b.c":     true,
		"b.d.e":   "x",
		"b.d.f":   "y",
		"other.z": "z",
	}

	nested := unflattenMap(flat)
	assert.Equal(t, "1", nested["a"])
	b, ok := nested["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, b["c"])

	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestUnflattenMap_TableWinsOverLeaf(t *testing.T) {
	nested := unflattenMap(map[string]any{
		"p":   "leaf",
		"p.q": "child",
	})

	p, ok := nested["p"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "child", p["q"])
}
