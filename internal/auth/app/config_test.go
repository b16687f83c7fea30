package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-access-secret-0123456789"
	testRefreshSecret = "refresh-secret-refresh-secret-0123456789"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
}

// unsetenv removes key for the test and restores it afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	setSecrets(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "memoauth", cfg.Issuer)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry.Std())
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry.Std())
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "auth.db", cfg.Database.File)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.EqualValues(t, 19456, cfg.Password.Argon2MemoryKiB)
	require.False(t, cfg.Bootstrap.Enabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("JWT_REFRESH_EXPIRY", "30d")
	t.Setenv("HOUSEKEEPING_INTERVAL", "0")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/memoauth")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "Correct1!")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry.Std())
	require.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshExpiry.Std())
	require.Zero(t, cfg.HousekeepingInterval)
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.True(t, cfg.Bootstrap.Enabled())
}

func TestLoadConfigMissingSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	unsetenv(t, "JWT_REFRESH_SECRET")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrConfiguration)
	require.Contains(t, err.Error(), "RefreshSecret")
}

func TestLoadConfigBadDuration(t *testing.T) {
	setSecrets(t)
	t.Setenv("JWT_ACCESS_EXPIRY", "15 minutes")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memoauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
jwt:
  access_secret: `+testAccessSecret+`
  refresh_secret: `+testRefreshSecret+`
  access_expiry: 10m
database:
  driver: sqlite
  file: /tmp/memoauth.db
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	unsetenv(t, "JWT_ACCESS_SECRET")
	unsetenv(t, "JWT_REFRESH_SECRET")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 10*time.Minute, cfg.JWT.AccessExpiry.Std())
	require.Equal(t, "/tmp/memoauth.db", cfg.Database.File)
}

func validConfig(t *testing.T) Config {
	t.Helper()
	setSecrets(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"short access secret":  func(c *Config) { c.JWT.AccessSecret = "short" },
		"short refresh secret": func(c *Config) { c.JWT.RefreshSecret = "short" },
		"shared secret":        func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret },
		"zero access ttl":      func(c *Config) { c.JWT.AccessExpiry = 0 },
		"zero refresh ttl":     func(c *Config) { c.JWT.RefreshExpiry = 0 },
		"unknown driver":       func(c *Config) { c.Database.Driver = "redis" },
		"postgres without url": func(c *Config) { c.Database.Driver = DriverPostgres },
		"mongodb without url":  func(c *Config) { c.Database.Driver = DriverMongoDB },
		"bad log format":       func(c *Config) { c.LogFormat = "xml" },
		"port out of range":    func(c *Config) { c.Port = 70000 },
		"zero store timeout":   func(c *Config) { c.StoreTimeout = 0 },
		"negative interval":    func(c *Config) { c.HousekeepingInterval = -time.Second },
		"bcrypt cost too low":  func(c *Config) { c.Password.BcryptCost = 1 },
		"half bootstrap":       func(c *Config) { c.Bootstrap.AdminEmail = "root@example.com" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}
}

func TestValidateJoinsProblems(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	require.Contains(t, err.Error(), "PORT")
	require.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestUsage(t *testing.T) {
	u := Usage()
	require.Contains(t, u, "JWT_ACCESS_SECRET")
	require.Contains(t, u, "HOUSEKEEPING_INTERVAL")
}
