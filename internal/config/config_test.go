package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, "empty")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Runtime.MaxPasses)
	assert.Equal(t, 3, cfg.Runtime.Ticks)
	assert.False(t, cfg.Runtime.InitiallyValid)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Scripting.Dir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txdemo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[runtime]
workers = 4
tick_rate = "50ms"
initially_valid = true

[logging]
level = "debug"
format = "json"

[scripting]
dir = "scripts"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Runtime.Workers)
	assert.Equal(t, 50*time.Millisecond, cfg.Runtime.TickRate)
	assert.True(t, cfg.Runtime.InitiallyValid)
	assert.Equal(t, 64, cfg.Runtime.MaxPasses, "untouched keys keep defaults")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "scripts", cfg.Scripting.Dir)
	assert.Equal(t, "data/scene.yaml", cfg.Scene.Path)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse([]byte("[runtime\n"), "broken")
	assert.ErrorContains(t, err, "parse config broken")

	_, err = Parse([]byte("[runtime]\nmax_passes = 0\n"), "zero")
	assert.ErrorContains(t, err, "max_passes")

	_, err = Parse([]byte("[profile]\nmode = \"block\"\n"), "profile")
	assert.ErrorContains(t, err, "profile.mode")
}
