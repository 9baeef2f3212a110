package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ldcs/errors"
)

// isolate points HOME and the working directory at fresh temp dirs
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	root := t.TempDir()
	home = filepath.Join(root, "home")
	project = filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(home, UserDirName), DefaultDirPermissions))
	require.NoError(t, os.MkdirAll(project, DefaultDirPermissions))

	t.Setenv("HOME", home)
	t.Chdir(project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.Compiler.Proofs)
	assert.True(t, cfg.Compiler.PersistCounters)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, DefaultLogTheme, cfg.Log.Theme)
	assert.Empty(t, cfg.Library.Macros)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "zero config is valid", config: Config{}},
		{name: "defaults are valid", config: Default()},
		{
			name:    "enabled store needs a path",
			config:  Config{Store: StoreConfig{Enabled: true}},
			wantErr: true,
		},
		{
			name:   "disabled store may omit the path",
			config: Config{Store: StoreConfig{Enabled: false}},
		},
		{
			name:    "unknown theme",
			config:  Config{Log: LogConfig{Theme: "solarized"}},
			wantErr: true,
		},
		{
			name:    "empty library path",
			config:  Config{Library: LibraryConfig{Preludes: []string{"base.ldcs", ""}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	_, project := isolate(t)
	assert.Empty(t, FindProjectConfig())

	writeFile(t, filepath.Join(project, ConfigFileName), "")
	sub := filepath.Join(project, "rules", "blocks")
	require.NoError(t, os.MkdirAll(sub, DefaultDirPermissions))
	t.Chdir(sub)

	found := FindProjectConfig()
	require.NotEmpty(t, found)
	assert.True(t, filepath.IsAbs(found))
	assert.Equal(t, ConfigFileName, filepath.Base(found))
}

func TestLoad_Precedence(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, UserDirName, ConfigFileName), `
[store]
path = "user.db"

[compiler]
proofs = false
`)
	writeFile(t, filepath.Join(project, ConfigFileName), `
[compiler]
proofs = true
persist_counters = false

[library]
macros = ["blocks.ldcs"]
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "user.db", cfg.Store.Path)
	assert.True(t, cfg.Compiler.Proofs)
	assert.False(t, cfg.Compiler.PersistCounters)
	assert.Equal(t, []string{"blocks.ldcs"}, cfg.Library.Macros)

	assert.Equal(t, SourceUser, ConfigSources["store.path"].Source)
	assert.Equal(t, SourceProject, ConfigSources["compiler.proofs"].Source)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ConfigFileName), "[compiler]\nproofs = true\n")
	t.Setenv("LDCS_COMPILER_PROOFS", "false")
	t.Setenv("LDCS_DB", "/tmp/env.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Compiler.Proofs)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
}

func TestLoad_Cached(t *testing.T) {
	isolate(t)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)

	Reset()
	third, err := Load()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestGetConfigIntrospection(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ConfigFileName), "[log]\ntheme = \"gruvbox\"\n")
	t.Setenv("LDCS_STORE_ENABLED", "false")

	info, err := GetConfigIntrospection()
	require.NoError(t, err)

	byKey := make(map[string]SettingInfo)
	for _, s := range info.Settings {
		byKey[s.Key] = s
	}

	assert.Equal(t, SourceProject, byKey["log.theme"].Source)
	assert.Equal(t, "gruvbox", byKey["log.theme"].Value)
	assert.Equal(t, SourceEnvironment, byKey["store.enabled"].Source)
	assert.Equal(t, "LDCS_STORE_ENABLED", byKey["store.enabled"].SourcePath)
	assert.Equal(t, SourceDefault, byKey["compiler.proofs"].Source)
}

func TestMarkSettingsFromSource(t *testing.T) {
	settings := map[string]interface{}{
		"compiler": map[string]interface{}{"proofs": true},
		"store": map[string]interface{}{
			"path": "ldcs.db",
		},
	}

	sourceMap := make(map[string]SourceInfo)
	markSettingsFromSource(settings, "", SourceUser, "/home/user/.ldcs/am.toml", sourceMap)

	assert.Len(t, sourceMap, 2)
	assert.Equal(t, SourceUser, sourceMap["compiler.proofs"].Source)
	assert.Equal(t, "/home/user/.ldcs/am.toml", sourceMap["store.path"].Path)
	assert.Empty(t, sourceMap["store.path"].Shadows)

	project := map[string]interface{}{"store": map[string]interface{}{"path": "project.db"}}
	markSettingsFromSource(project, "", SourceProject, "/work/am.toml", sourceMap)

	assert.Equal(t, SourceInfo{
		Source:  SourceProject,
		Path:    "/work/am.toml",
		Shadows: []string{"/home/user/.ldcs/am.toml"},
	}, sourceMap["store.path"])
	assert.Empty(t, sourceMap["compiler.proofs"].Shadows)
}

func TestGetConfigIntrospection_Shadows(t *testing.T) {
	home, project := isolate(t)
	userPath := filepath.Join(home, UserDirName, ConfigFileName)
	projectPath := filepath.Join(project, ConfigFileName)
	writeFile(t, userPath, "[compiler]\nproofs = false\n")
	writeFile(t, projectPath, "[compiler]\nproofs = true\n")
	t.Setenv("LDCS_COMPILER_PROOFS", "false")

	info, err := GetConfigIntrospection()
	require.NoError(t, err)

	for _, s := range info.Settings {
		if s.Key == "compiler.proofs" {
			assert.Equal(t, SourceEnvironment, s.Source)
			assert.Equal(t, []string{userPath, projectPath}, s.Shadows)
			return
		}
	}
	t.Fatal("compiler.proofs missing from introspection")
}
