package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "sqlite", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Driver)
	require.Equal(t, "subject", c.Hello.Policy)
	require.Equal(t, 10*time.Second, c.Hello.PictureTimeout)
	require.Equal(t, "http://localhost:8080/files", c.Files.BaseURL)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  base_url: "https://example.com/"
hello:
  account_policy: email
  picture_fetch_timeout: 5s
`), 0o600))

	t.Setenv("HELLO_ACCOUNT_POLICY", "hybrid")
	t.Setenv("SESSION_TTL", "2h")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", c.Server.Addr)
	require.Equal(t, "https://example.com", c.Server.BaseURL)
	require.Equal(t, "hybrid", c.Hello.Policy)
	require.Equal(t, 5*time.Second, c.Hello.PictureTimeout)
	require.Equal(t, 2*time.Hour, c.Session.TTL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"storage driver":         {"STORAGE_DRIVER": "mongo"},
		"postgres without dsn":   {"STORAGE_DRIVER": "postgres"},
		"cache driver":           {"CACHE_DRIVER": "memcached"},
		"policy":                 {"HELLO_ACCOUNT_POLICY": "whatever"},
		"prod without admin key": {"APP_ENV": "prod"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
