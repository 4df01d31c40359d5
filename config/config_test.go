package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "qrs", cfg.OutputDir)
	assert.Equal(t, 10, cfg.ModuleSize)
	assert.Equal(t, 4, cfg.Border)
	assert.Equal(t, "M", cfg.Level)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8590, cfg.Server.Port)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
output_dir: out
module_size: 6
border: 2
level: H
log_level: debug
history:
  enabled: true
server:
  port: 9000
  max_data_len: 500
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 6, cfg.ModuleSize)
	assert.Equal(t, 2, cfg.Border)
	assert.Equal(t, "H", cfg.Level)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.MaxDataLen)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("module_size: 6\nlevel: L\n"), 0o644))

	t.Setenv("QRF_MODULE_SIZE", "12")
	t.Setenv("QRF_LEVEL", "Q")
	t.Setenv("QRF_PORT", "7777")
	t.Setenv("QRF_HISTORY", "yes")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.ModuleSize)
	assert.Equal(t, "Q", cfg.Level)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.True(t, cfg.History.Enabled)
}

func TestEnvOverrideIgnoresBadNumbers(t *testing.T) {
	t.Setenv("QRF_MODULE_SIZE", "many")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ModuleSize)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		OutputDir: filepath.Join(base, "out"),
		DataDir:   filepath.Join(base, "data"),
	}
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.OutputDir, cfg.DataDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(base, "data", "history.db"), cfg.HistoryDBPath())
}
