package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aussiebroadwan/memoauth/pkg/cryptox"
	"github.com/aussiebroadwan/memoauth/pkg/durationx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

// ErrConfiguration wraps every problem found while loading or validating
// the configuration. The process exits non-zero on it.
var ErrConfiguration = errors.New("configuration error")

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

type Config struct {
	Env       string `yaml:"env" env:"ENV" env-default:"dev" env-description:"Environment name (dev, staging, prod)"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"Log level (debug, info, warn, error)"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json" env-description:"Log format (json, text, pretty)"`
	Port      int    `yaml:"port" env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	Issuer    string `yaml:"issuer" env:"AUTH_ISSUER" env-default:"memoauth" env-description:"Issuer claim of minted tokens"`

	JWT       JWTConfig       `yaml:"jwt"`
	Database  DatabaseConfig  `yaml:"database"`
	Password  PasswordConfig  `yaml:"password"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	StoreTimeout         time.Duration `yaml:"store_timeout" env:"STORE_TIMEOUT" env-default:"5s" env-description:"Timeout of each storage operation"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s" env-description:"Graceful shutdown timeout"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL" env-default:"1h" env-description:"Expired refresh token sweep interval, 0 disables it"`
}

type JWTConfig struct {
	AccessSecret  string             `yaml:"access_secret" env:"JWT_ACCESS_SECRET" env-required:"true" env-description:"HS256 secret for access tokens, at least 32 characters"`
	AccessExpiry  durationx.Duration `yaml:"access_expiry" env:"JWT_ACCESS_EXPIRY" env-default:"15m" env-description:"Access token lifetime, e.g. 15m"`
	RefreshSecret string             `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true" env-description:"HS256 secret for refresh tokens, at least 32 characters, distinct from the access secret"`
	RefreshExpiry durationx.Duration `yaml:"refresh_expiry" env:"JWT_REFRESH_EXPIRY" env-default:"7d" env-description:"Refresh token lifetime, e.g. 7d"`
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite" env-description:"Store driver (sqlite, postgres, mongodb)"`
	File          string `yaml:"file" env:"AUTH_DATABASE_FILE" env-default:"auth.db" env-description:"SQLite database file"`
	URL           string `yaml:"url" env:"DATABASE_URL" env-description:"Postgres DSN or MongoDB URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"memoauth" env-description:"MongoDB database name"`
}

type PasswordConfig struct {
	Argon2MemoryKiB   uint32 `yaml:"argon2_memory_kib" env:"PASSWORD_ARGON2_MEMORY_KIB" env-default:"19456" env-description:"argon2id memory in KiB"`
	Argon2Iterations  uint32 `yaml:"argon2_iterations" env:"PASSWORD_ARGON2_ITERATIONS" env-default:"2" env-description:"argon2id iterations"`
	Argon2Parallelism uint8  `yaml:"argon2_parallelism" env:"PASSWORD_ARGON2_PARALLELISM" env-default:"1" env-description:"argon2id parallelism"`
	BcryptCost        int    `yaml:"bcrypt_cost" env:"PASSWORD_BCRYPT_COST" env-default:"10" env-description:"bcrypt cost for legacy hashes"`
	PepperFile        string `yaml:"pepper_file" env:"AUTH_PEPPER_FILE" env-description:"Optional pepper file, generated when missing"`
}

type BootstrapConfig struct {
	AdminEmail    string `yaml:"admin_email" env:"BOOTSTRAP_ADMIN_EMAIL" env-description:"ADMIN account created when no account exists"`
	AdminPassword string `yaml:"admin_password" env:"BOOTSTRAP_ADMIN_PASSWORD" env-description:"Password of the bootstrap ADMIN account"`
}

// Enabled reports whether a bootstrap admin is configured.
func (b BootstrapConfig) Enabled() bool { return b.AdminEmail != "" }

// Argon2Params returns the argon2id parameters with the package defaults for
// salt and key length.
func (p PasswordConfig) Argon2Params() cryptox.Argon2Params {
	params := cryptox.DefaultArgon2Params()
	params.MemoryKiB = p.Argon2MemoryKiB
	params.Iterations = p.Argon2Iterations
	params.Parallelism = p.Argon2Parallelism
	return params
}

// LoadConfig reads the YAML file named by CONFIG_PATH when set, then the
// environment, and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config

	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage describes every variable LoadConfig reads.
func Usage() string {
	header := "memoauth is configured through the environment:"
	desc, err := cleanenv.GetDescription(&Config{}, &header)
	if err != nil {
		return header
	}
	return desc
}

// Validate returns every problem at once, joined, each wrapping
// ErrConfiguration.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	if len(c.JWT.AccessSecret) < jwtx.MinSecretLength {
		fail("JWT_ACCESS_SECRET must be at least %d characters", jwtx.MinSecretLength)
	}
	if len(c.JWT.RefreshSecret) < jwtx.MinSecretLength {
		fail("JWT_REFRESH_SECRET must be at least %d characters", jwtx.MinSecretLength)
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		fail("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessExpiry.Std() <= 0 {
		fail("JWT_ACCESS_EXPIRY must be positive")
	}
	if c.JWT.RefreshExpiry.Std() <= 0 {
		fail("JWT_REFRESH_EXPIRY must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.File == "" {
			fail("AUTH_DATABASE_FILE is required for the sqlite driver")
		}
	case DriverPostgres, DriverMongoDB:
		if c.Database.URL == "" {
			fail("DATABASE_URL is required for the %s driver", c.Database.Driver)
		}
	default:
		fail("DATABASE_DRIVER %q is not one of sqlite, postgres, mongodb", c.Database.Driver)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text", "pretty":
	default:
		fail("LOG_FORMAT %q is not one of json, text, pretty", c.LogFormat)
	}

	if c.Port < 1 || c.Port > 65535 {
		fail("PORT %d is out of range", c.Port)
	}
	if c.StoreTimeout <= 0 {
		fail("STORE_TIMEOUT must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		fail("SHUTDOWN_GRACE_PERIOD must be positive")
	}
	if c.HousekeepingInterval < 0 {
		fail("HOUSEKEEPING_INTERVAL must not be negative")
	}

	if _, err := cryptox.NewPasswordHasher(c.Password.Argon2Params(), c.Password.BcryptCost, ""); err != nil {
		fail("password hashing: %v", err)
	}

	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		fail("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	return errors.Join(errs...)
}
