package am

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startWatcher(t *testing.T, path string) (*ConfigWatcher, <-chan *Config) {
	t.Helper()
	cw, err := NewConfigWatcher(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	cw.debounce = 20 * time.Millisecond

	reloaded := make(chan *Config, 8)
	cw.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cw.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cw, reloaded
}

func TestConfigWatcherReloadsOnExternalWrite(t *testing.T) {
	_, project := isolate(t)
	path := filepath.Join(project, ConfigFileName)
	writeFile(t, path, "[compiler]\nproofs = true\n")

	_, reloaded := startWatcher(t, path)
	writeFile(t, path, "[compiler]\nproofs = false\n")

	select {
	case cfg := <-reloaded:
		assert.False(t, cfg.Compiler.Proofs)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after external write")
	}
}

func TestConfigWatcherSkipsInvalidConfig(t *testing.T) {
	_, project := isolate(t)
	path := filepath.Join(project, ConfigFileName)
	writeFile(t, path, "[log]\ntheme = \"gruvbox\"\n")

	_, reloaded := startWatcher(t, path)
	writeFile(t, path, "[log]\ntheme = \"neon\"\n")

	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config delivered: %+v", cfg.Log)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherIgnoresOwnWrites(t *testing.T) {
	_, project := isolate(t)
	path := filepath.Join(project, ConfigFileName)
	writeFile(t, path, "[compiler]\nproofs = true\n")

	cw, reloaded := startWatcher(t, path)
	SetGlobalWatcher(cw)
	defer SetGlobalWatcher(nil)

	require.NoError(t, SetValue(path, "compiler.proofs", false))

	select {
	case <-reloaded:
		t.Fatal("own write triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
