package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "library.db", cfg.Path)
	assert.Equal(t, "meu_projeto", cfg.Name)
	assert.Equal(t, 3306, cfg.DatabaseConfig.Port)
	assert.Equal(t, "127.0.0.1:5000", cfg.Addr())
	assert.False(t, cfg.Debug)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_PORT=6000\nDB_NAME=from_file\nDB_DRIVER=mysql\n"), 0o644))
	t.Setenv("API_PORT", "7000")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.APIConfig.Port)
	assert.Equal(t, "from_file", cfg.Name)
	assert.Equal(t, DriverMySQL, cfg.Driver)
	assert.True(t, cfg.Debug)

	opts := cfg.MySQLOptions()
	assert.Equal(t, "localhost", opts.Host)
	assert.Equal(t, 3306, opts.Port)
	assert.Equal(t, "from_file", opts.Name)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load("")
	assert.Error(t, err)
}

func TestOpenDatabaseSQLite(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "lib.db"))
	cfg, err := Load("")
	require.NoError(t, err)

	db, err := cfg.OpenDatabase(context.Background())
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping(context.Background()))
}
