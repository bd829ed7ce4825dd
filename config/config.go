package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSecretKeyLength is the shortest accepted HS256 signing secret, in bytes.
const MinSecretKeyLength = 32

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Server struct {
		Port        string   `mapstructure:"port"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey        string `mapstructure:"secret_key"`
		Issuer           string `mapstructure:"issuer"`
		AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
	} `mapstructure:"jwt"`
	Cookie struct {
		Secure      bool   `mapstructure:"secure"`
		SameSite    string `mapstructure:"same_site"`
		Domain      string `mapstructure:"domain"`
		RefreshPath string `mapstructure:"refresh_path"`
	} `mapstructure:"cookie"`
	Security struct {
		LoginMaxAttempts     int `mapstructure:"login_max_attempts"`
		LoginWindowMinutes   int `mapstructure:"login_window_minutes"`
		PurgeIntervalMinutes int `mapstructure:"purge_interval_minutes"`
	} `mapstructure:"security"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var AppConfig Config

// AccessTTL returns the lifetime of an access token.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the lifetime of a single refresh token record.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLDays) * 24 * time.Hour
}

// LoginWindow returns the sliding window used by the login attempt limiter.
func (c Config) LoginWindow() time.Duration {
	return time.Duration(c.Security.LoginWindowMinutes) * time.Minute
}

// PurgeInterval returns how often expired refresh tokens are deleted.
func (c Config) PurgeInterval() time.Duration {
	return time.Duration(c.Security.PurgeIntervalMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "maison_manager")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("jwt.issuer", "maison-auth-api")
	v.SetDefault("jwt.access_ttl_minutes", 15)
	v.SetDefault("jwt.refresh_ttl_days", 7)
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.same_site", "lax")
	v.SetDefault("cookie.refresh_path", "/auth")
	v.SetDefault("security.login_max_attempts", 5)
	v.SetDefault("security.login_window_minutes", 15)
	v.SetDefault("security.purge_interval_minutes", 60)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yml from path, applies environment overrides
// (JWT_SECRET_KEY, DATABASE_HOST, ...) and stores the result in AppConfig.
// A missing config file is tolerated; an invalid configuration is not.
func LoadConfig(path string) error {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// AutomaticEnv only covers keys viper already knows about.
	_ = v.BindEnv("jwt.secret_key")
	_ = v.BindEnv("database.password")
	_ = v.BindEnv("redis.password")
	_ = v.BindEnv("cookie.domain")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

// Validate rejects configurations the token subsystem cannot run safely with.
func (c Config) Validate() error {
	if len(c.JWT.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("jwt.secret_key must be at least %d bytes", MinSecretKeyLength)
	}
	if c.JWT.AccessTTLMinutes <= 0 {
		return errors.New("jwt.access_ttl_minutes must be positive")
	}
	if c.JWT.RefreshTTLDays <= 0 {
		return errors.New("jwt.refresh_ttl_days must be positive")
	}
	if c.AccessTTL() >= c.RefreshTTL() {
		return errors.New("access token lifetime must be shorter than refresh token lifetime")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("cookie.same_site %q is not one of lax, strict, none", c.Cookie.SameSite)
	}
	if strings.EqualFold(c.Cookie.SameSite, "none") && !c.Cookie.Secure {
		return errors.New("cookie.same_site=none requires cookie.secure=true")
	}
	if !strings.HasPrefix(c.Cookie.RefreshPath, "/") {
		return errors.New("cookie.refresh_path must start with /")
	}
	if c.Security.LoginMaxAttempts < 0 || c.Security.LoginWindowMinutes < 0 {
		return errors.New("security limits must not be negative")
	}
	return nil
}
