package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "stock.sqlite3", cfg.Database.Path)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenExpiry())
	assert.Equal(t, 15*time.Minute, cfg.ThrottleWindow())
	assert.Equal(t, 5, cfg.Throttle.MaxAttempts)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "stock.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  addr: ":9000"
  frontend_url: "https://shop.example.com"
database:
  path: "from-file.sqlite3"
smtp:
  host: "smtp.example.com"
`), 0o644))

	t.Setenv("STOCK_SMTP_HOST", "smtp.env.example.com")
	t.Setenv("STOCK_JWT_EXPIRY_HOURS", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "from-flag.sqlite3"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr, "unset flags must not override the file")
	assert.Equal(t, "from-flag.sqlite3", cfg.Database.Path)
	assert.Equal(t, "https://shop.example.com", cfg.Server.FrontendURL)
	assert.Equal(t, "smtp.env.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpiry())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadRejectsBadExpiry(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCK_JWT_EXPIRY_HOURS", "0")

	_, err := Load("", nil)
	assert.Error(t, err)
}
