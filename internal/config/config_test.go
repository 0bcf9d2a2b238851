package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "HTTP_ADDR", "STORE_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"SQLITE_PATH", "SEED_FILE", "SEED_WATCH", "RECALIBRATION_CRON", "RECALIBRATION_DRY_RUN", "LOG_LEVEL", "LOG_FORMAT", "REQUEST_TIMEOUT",
}

// clearEnv обнуляет переменные на время теста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "0 0 3 * * *", cfg.RecalibrationCron)
	assert.False(t, cfg.RecalibrationDryRun)
	assert.False(t, cfg.SeedWatch)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=postgres sslmode=disable", cfg.DSN())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	yamlPath := writeFile(t, "gymcoach.yaml", `
http_addr: ":9000"
store_driver: sqlite
sqlite_path: /var/lib/gymcoach/state.db
seed_watch: "1"
database:
  host: db.internal
recalibration:
  cron: "0 30 2 * * *"
  dry_run: "true"
log:
  level: debug
  format: json
request_timeout: 5s
`)
	envPath := writeFile(t, ".env", "# local overrides\nCONFIG_FILE="+yamlPath+"\nDB_HOST='env-file-host'\nLOG_LEVEL=warn\n")
	t.Setenv("HTTP_ADDR", ":7000")

	cfg, err := load(envPath)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr, "environment beats everything")
	assert.Equal(t, "env-file-host", cfg.DBHost, ".env beats YAML")
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver, "YAML beats defaults")
	assert.Equal(t, "/var/lib/gymcoach/state.db", cfg.SQLitePath)
	assert.Equal(t, "0 30 2 * * *", cfg.RecalibrationCron)
	assert.True(t, cfg.RecalibrationDryRun)
	assert.True(t, cfg.SeedWatch)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"bad seed watch", map[string]string{"SEED_WATCH": "often"}},
		{"bad dry run", map[string]string{"RECALIBRATION_DRY_RUN": "maybe"}},
		{"bad timeout", map[string]string{"REQUEST_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"REQUEST_TIMEOUT": "-1s"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/nonexistent/gymcoach.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: DriverPostgres, LogFormat: "json", RequestTimeout: time.Second}
	assert.Error(t, cfg.Validate(), "postgres needs a database name")

	cfg.DBName = "gymcoach"
	assert.NoError(t, cfg.Validate())

	cfg.StoreDriver = DriverMemory
	cfg.DBName = ""
	assert.NoError(t, cfg.Validate())
}
