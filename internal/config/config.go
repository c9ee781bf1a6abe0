package config

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	SerialTimezone  string        `mapstructure:"SERIAL_TIMEZONE"`
	PresenceWindow  time.Duration `mapstructure:"PRESENCE_WINDOW"`
	ImportBatchSize int           `mapstructure:"IMPORT_BATCH_SIZE"`
	BootstrapAdmin  string        `mapstructure:"BOOTSTRAP_ADMIN_ID"`
	BootstrapPass   string        `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SERIAL_TIMEZONE", "UTC")
	v.SetDefault("PRESENCE_WINDOW", "5m")
	v.SetDefault("IMPORT_BATCH_SIZE", 100)
	v.SetDefault("BOOTSTRAP_ADMIN_ID", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case "memory":
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the zone used for the date part of ticket serials.
func (c Config) Location() (*time.Location, error) {
	if c.SerialTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.SerialTimezone)
}
