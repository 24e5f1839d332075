package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing config file is not an error")

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "local", cfg.Remote.Kind)
	assert.Equal(t, "quality-reports", cfg.Remote.PlantFolder)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, []string{"L1", "L2", "L3"}, cfg.Sync.Lines)
	assert.Equal(t, 8.0, cfg.Quality.BRRateHighThreshold)
	assert.Equal(t, 0.8, cfg.Quality.CostRates.UnitInspectionCost)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
remote:
  kind: http
  base_url: https://files.example.com
sync:
  interval: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Remote.Kind)
	assert.Equal(t, "https://files.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("TIREPULSE_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "drive without credentials",
			mutate:  func(c *Config) { c.Remote.Kind = "drive" },
			wantErr: "requires credentials_file",
		},
		{
			name:    "http without base url",
			mutate:  func(c *Config) { c.Remote.Kind = "http" },
			wantErr: "requires base_url",
		},
		{
			name:    "unknown remote kind",
			mutate:  func(c *Config) { c.Remote.Kind = "ftp" },
			wantErr: "unknown remote kind",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Sync.Concurrency = 0 },
			wantErr: "concurrency must be at least 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
