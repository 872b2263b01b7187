package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	ExtSource ExtSourceConfig
	BioStar   BioStarConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for hosted-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// ExtSourceConfig describes the external read-only MSSQL database that holds
// raw turnstile movements. Disabled deployments leave EXTLOG_ENABLED unset.
type ExtSourceConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Table    string

	DefaultLimit int
	PollInterval time.Duration
}

// BioStarConfig describes the vendor device-management API.
type BioStarConfig struct {
	BaseURL       string
	Username      string
	Password      string
	VerifyTLS     bool
	Timeout       time.Duration
	SessionMaxAge time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.ExtSource.Enabled = boolEnv("EXTLOG_ENABLED")
	c.ExtSource.Host = strings.TrimSpace(os.Getenv("EXTLOG_HOST"))
	c.ExtSource.Port = optionalInt("EXTLOG_PORT")
	c.ExtSource.Database = strings.TrimSpace(os.Getenv("EXTLOG_DATABASE"))
	c.ExtSource.User = strings.TrimSpace(os.Getenv("EXTLOG_USER"))
	c.ExtSource.Password = os.Getenv("EXTLOG_PASSWORD")
	c.ExtSource.Table = strings.TrimSpace(os.Getenv("EXTLOG_TABLE"))
	c.ExtSource.DefaultLimit = optionalInt("EXTLOG_DEFAULT_LIMIT")
	c.ExtSource.PollInterval = mustDuration("EXTLOG_POLL_INTERVAL")

	c.BioStar.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BIOSTAR_BASE_URL")), "/")
	c.BioStar.Username = strings.TrimSpace(os.Getenv("BIOSTAR_USERNAME"))
	c.BioStar.Password = os.Getenv("BIOSTAR_PASSWORD")
	c.BioStar.VerifyTLS = boolEnv("BIOSTAR_VERIFY_TLS")
	c.BioStar.Timeout = mustDuration("BIOSTAR_TIMEOUT")
	c.BioStar.SessionMaxAge = mustDuration("BIOSTAR_SESSION_MAX_AGE")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.ExtSource.Enabled {
		for _, req := range []struct {
			key, val string
		}{
			{"EXTLOG_HOST", c.ExtSource.Host},
			{"EXTLOG_DATABASE", c.ExtSource.Database},
			{"EXTLOG_USER", c.ExtSource.User},
			{"EXTLOG_PASSWORD", c.ExtSource.Password},
			{"EXTLOG_TABLE", c.ExtSource.Table},
		} {
			if req.val == "" {
				errs = append(errs, fmt.Errorf("%s is required when EXTLOG_ENABLED is set", req.key))
			}
		}
	}
	if c.ExtSource.DefaultLimit <= 0 {
		c.ExtSource.DefaultLimit = 10
	}
	if c.ExtSource.PollInterval <= 0 {
		c.ExtSource.PollInterval = 30 * time.Second
	}

	if c.BioStar.BaseURL != "" {
		if c.BioStar.Username == "" {
			errs = append(errs, errors.New("BIOSTAR_USERNAME is required when BIOSTAR_BASE_URL is set"))
		}
		if c.BioStar.Password == "" {
			errs = append(errs, errors.New("BIOSTAR_PASSWORD is required when BIOSTAR_BASE_URL is set"))
		}
	}
	if c.BioStar.Timeout <= 0 {
		c.BioStar.Timeout = 15 * time.Second
	}
	if c.BioStar.SessionMaxAge <= 0 {
		c.BioStar.SessionMaxAge = 30 * time.Minute
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func boolEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
