package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/basilgregory/onam/internal/blog"
	"github.com/basilgregory/onam/logger"
	"github.com/basilgregory/onam/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "onam.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// clearEnv unsets the onam variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "ONAM_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "blog_db", cfg.Database.Name)
	assert.Equal(t, 1, cfg.Database.Version)
	assert.Equal(t, "sqlite3", cfg.Database.Dialect)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 200*time.Millisecond, cfg.Log.SlowThreshold)
	assert.Equal(t, schema.NamingStrategy{}, cfg.NamingStrategy())
	assert.Empty(t, cfg.StorageOptions())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  name: shop
  dialect: postgres
  dsn: postgres://localhost/shop
  prepared_statements: 16
log:
  level: info
  format: zap
  slow_threshold: 1s
naming:
  table_prefix: app_
  singular_table: true
`)
	t.Setenv("ONAM_DB_NAME", "shop_test")
	t.Setenv("ONAM_LOG_FORMAT", "zerolog")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shop_test", cfg.Database.Name)
	assert.Equal(t, "postgres://localhost/shop", cfg.Database.DSN)
	assert.Equal(t, "zerolog", cfg.Log.Format)
	assert.Equal(t, time.Second, cfg.Log.SlowThreshold)
	assert.Len(t, cfg.StorageOptions(), 1)

	dialect, err := cfg.Dialect()
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialect.Name())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logger.Info, level)

	assert.Equal(t, schema.NamingStrategy{TablePrefix: "app_", SingularTable: true}, cfg.NamingStrategy())
	assert.Equal(t, "app_post_user", cfg.NamingStrategy().JoinTableName("User", "Post"))
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	for name, content := range map[string]string{
		"dialect": "database:\n  dialect: oracle\n",
		"level":   "log:\n  level: loud\n",
		"format":  "log:\n  format: syslog\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorContains(t, err, "invalid config")
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, format := range logFormats {
		t.Run(format, func(t *testing.T) {
			cfg := &Settings{Log: LogConfig{Level: "info", Format: format}}
			var buf bytes.Buffer
			l, err := cfg.NewLogger(&buf)
			require.NoError(t, err)

			l.Info(context.Background(), "hello %s", format)
			assert.Contains(t, buf.String(), "hello "+format)
		})
	}

	cfg := &Settings{Log: LogConfig{Level: "info", Format: "syslog"}}
	_, err := cfg.NewLogger(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestYAML(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "dialect: sqlite3"), string(out))
	assert.Contains(t, string(out), "slow_threshold: 200ms")

	var back Settings
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, *cfg, back)
}

func TestConnect(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Database.DSN = ":memory:"
	cfg.Log.Level = "silent"

	db, err := cfg.Connect(&bytes.Buffer{}, blog.Entities()...)
	require.NoError(t, err)
	defer db.Close()

	created, err := blog.RegisterUser(db)
	require.NoError(t, err)
	assert.True(t, created)

	user, err := db.Find("User", 1)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", user.(*blog.User).Name)
}
