package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopark/rma-engine/config"
	"github.com/innopark/rma-engine/rma"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: ":memory:"
scheduler:
  check_interval: 1h
  cantons: [GE]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Report.Concurrency)
	assert.Equal(t, time.Hour, cfg.Scheduler.CheckInterval)
	assert.Equal(t, []rma.Canton{rma.CantonGeneva}, cfg.SchedulerCantons())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("RMA_SERVER_PORT", "7070")
	t.Setenv("RMA_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidCanton(t *testing.T) {
	path := writeConfig(t, "scheduler:\n  cantons: [ZH]\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZH")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Server:    config.ServerConfig{Port: 8080},
			Database:  config.DatabaseConfig{Path: "rma.db"},
			Log:       config.LogConfig{Level: "info"},
			Report:    config.ReportConfig{Concurrency: 4},
			Scheduler: config.SchedulerConfig{Enabled: true, CheckInterval: time.Hour},
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.Server.Port = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Log.Level = "verbose"
	assert.Error(t, c.Validate())

	c = valid()
	c.Report.Concurrency = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Scheduler.CheckInterval = 0
	assert.Error(t, c.Validate())

	c.Scheduler.Enabled = false
	assert.NoError(t, c.Validate())
}
