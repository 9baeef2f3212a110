package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, InitConfig(path, false))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Compiler, cfg.Compiler)
	assert.Equal(t, Default().Store, cfg.Store)
	assert.Equal(t, Default().Log, cfg.Log)
	assert.Empty(t, cfg.Library.Macros)

	err = InitConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, InitConfig(path, true))
	assert.FileExists(t, path+".back1")
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, InitConfig(path, false))

	require.NoError(t, SetValue(path, "compiler.proofs", false))
	require.NoError(t, SetValue(path, "library.macros", []string{"blocks.ldcs"}))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Compiler.Proofs)
	assert.Equal(t, []string{"blocks.ldcs"}, cfg.Library.Macros)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
}

func TestSetValue_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	require.NoError(t, SetValue(path, "log.theme", "gruvbox"))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gruvbox", cfg.Log.Theme)
	assert.True(t, cfg.Compiler.Proofs)
}

func TestCreateBackup_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	for _, content := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, writeWithBackup(path, []byte(content)))
	}

	read := func(p string) string {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "five", read(path))
	assert.Equal(t, "four", read(path+".back1"))
	assert.Equal(t, "three", read(path+".back2"))
	assert.Equal(t, "two", read(path+".back3"))
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/x/am.toml.back2"))
	assert.False(t, isBackupFile("/x/am.toml"))
	assert.False(t, isBackupFile("/x/other.toml.back1"))
}
