package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "SECRET_KEY", "STORE_DRIVER", "PURGE_SCHEDULE", "LOG_LEVEL"} {
		t.Setenv(key, "")
		req.NoError(os.Unsetenv(key))
	}

	cfg, err := Load()
	req.NoError(err)
	req.Equal("8080", cfg.Port)
	req.Equal(":8080", cfg.Addr())
	req.Equal("memory", cfg.StoreDriver)
	req.Equal("0 */2 * * *", cfg.PurgeSchedule)
	req.True(cfg.UsesDefaultSecret())
}

func TestLoad_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	req.NoError(err)
	req.Equal("9090", cfg.Port)
	req.Equal("redis", cfg.StoreDriver)
	req.False(cfg.UsesDefaultSecret())
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: "memory", PurgeSchedule: "0 */2 * * *", SecretKey: "k"}

	cases := map[string]func(c *Config){
		"redis without url":    func(c *Config) { c.StoreDriver = "redis" },
		"postgres without dsn": func(c *Config) { c.StoreDriver = "postgres" },
		"badger without path":  func(c *Config) { c.StoreDriver = "badger" },
		"unknown driver":       func(c *Config) { c.StoreDriver = "mongo" },
		"bad schedule":         func(c *Config) { c.PurgeSchedule = "soon" },
		"empty secret":         func(c *Config) { c.SecretKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, base.Validate())
}
