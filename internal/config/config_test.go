package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envKeys {
		if v, ok := os.LookupEnv(env); ok {
			os.Unsetenv(env)
			t.Cleanup(func() { os.Setenv(env, v) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "ecommerce", cfg.Store.Database)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORSOrigins())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
port: 9000
store:
  driver: sqlite
  sqlite_path: /tmp/shop.db
auth:
  project_id: shop-123
`), 0o644))

	t.Setenv("PORT", "9100")
	t.Setenv("AUTH_HMAC_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/shop.db", cfg.Store.SQLitePath)
	assert.Equal(t, "s3cret", cfg.Auth.HMACSecret)
	assert.Equal(t, "https://securetoken.google.com/shop-123", cfg.Auth.TokenIssuer())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: 8080, Store: Store{Driver: "sqlite"}, Auth: Auth{HMACSecret: "x"}}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Store.Driver = "postgres"
	assert.ErrorContains(t, c.Validate(), "store.driver")

	c = valid()
	c.Port = 70000
	assert.ErrorContains(t, c.Validate(), "out of range")

	c = valid()
	c.Auth.HMACSecret = ""
	assert.ErrorContains(t, c.Validate(), "auth")
}

func TestCORSOriginsTrimsBlanks(t *testing.T) {
	c := &Config{CORSOrigin: " https://shop.example.com , ,https://admin.example.com"}
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, c.CORSOrigins())
}

func TestTokenIssuerExplicitWins(t *testing.T) {
	a := Auth{ProjectID: "p", Issuer: "https://issuer.example.com"}
	assert.Equal(t, "https://issuer.example.com", a.TokenIssuer())
	assert.Empty(t, Auth{}.TokenIssuer())
}
