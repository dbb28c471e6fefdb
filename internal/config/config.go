package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the audio daemon.
// Values come from env; the device description may come from an INI profile
// named by AUDIO_DEVICE_PROFILE, with env taking precedence.
type Config struct {
	App     AppConfig
	Auth    AuthConfig
	Device  DeviceConfig
	Journal JournalConfig
	Redis   RedisConfig
	Log     LogConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// DeviceConfig describes the audio hardware the daemon drives.
type DeviceConfig struct {
	ProfilePath string

	HasEarpiece         bool
	WiredHeadsetPresent bool
	BluetoothAvailable  bool

	// BluetoothConfirmDelay is how long the simulated headset takes to confirm
	// an audio connection. Negative means it never confirms.
	BluetoothConfirmDelay time.Duration
	ConnectTimeout        time.Duration
}

// JournalConfig enables the Postgres journal when DSN is set.
type JournalConfig struct {
	DSN string
}

// RedisConfig enables pub/sub notifications when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func Load() (Config, error) {
	c := Config{Device: DefaultDevice()}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	if path := strings.TrimSpace(os.Getenv("AUDIO_DEVICE_PROFILE")); path != "" {
		d, err := LoadDeviceProfile(path)
		if err != nil {
			parseErrs = append(parseErrs, err)
		} else {
			c.Device = d
		}
	}
	if d := mustDuration("BT_CONNECT_TIMEOUT"); d > 0 {
		c.Device.ConnectTimeout = d
	}

	c.Journal.DSN = os.Getenv("JOURNAL_DSN")
	c.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.Channel = strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))

	c.Log.File = strings.TrimSpace(os.Getenv("LOG_FILE"))
	c.Log.MaxSizeMB = optionalInt("LOG_MAX_SIZE_MB", &parseErrs)
	c.Log.MaxBackups = optionalInt("LOG_MAX_BACKUPS", &parseErrs)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration and fills defaults in place.
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

	if c.Device.ConnectTimeout <= 0 {
		c.Device.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Device.ConnectTimeout > time.Minute {
		errs = append(errs, fmt.Errorf("BT_CONNECT_TIMEOUT must be at most 1m, got %s", c.Device.ConnectTimeout))
	}
	if c.Device.BluetoothConfirmDelay >= c.Device.ConnectTimeout {
		errs = append(errs, fmt.Errorf("bluetooth_confirm_delay %s never beats connect_timeout %s", c.Device.BluetoothConfirmDelay, c.Device.ConnectTimeout))
	}

	if c.Redis.Channel == "" {
		c.Redis.Channel = "callaudio.events"
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		errs = append(errs, errors.New("LOG_MAX_SIZE_MB and LOG_MAX_BACKUPS must not be negative"))
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
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

func optionalInt(key string, errs *[]error) int {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0
	}
	n, err := mustInt(key)
	if err != nil {
		*errs = append(*errs, err)
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
