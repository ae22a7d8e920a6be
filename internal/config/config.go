package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Verbose bool         `mapstructure:"verbose"`
	DataDir string       `mapstructure:"dataDir"`
	Server  ServerConfig `mapstructure:"server" validate:"required"`
	Store   StoreConfig  `mapstructure:"store" validate:"required"`
	Client  ClientConfig `mapstructure:"client" validate:"required"`
	Log     LogConfig    `mapstructure:"log" validate:"required"`
}

// ServerConfig holds settings for `tod serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required,hostname_port"`
	BasePath        string        `mapstructure:"basePath" validate:"required,startswith=/"`
	MaxBodyBytes    int64         `mapstructure:"maxBodyBytes" validate:"min=1024"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" validate:"min=0s"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Driver string       `mapstructure:"driver" validate:"required,oneof=memory sqlite file s3"`
	Key    string       `mapstructure:"key" validate:"required,max=512"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	File   FileConfig   `mapstructure:"file"`
	S3     S3Config     `mapstructure:"s3"`
}

// SQLiteConfig holds the database location for the sqlite driver.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// FileConfig holds the directory for the file driver.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// S3Config holds object storage settings for the s3 driver.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"useSSL"`
}

// ClientConfig holds settings for the synchronizer used by CLI commands.
type ClientConfig struct {
	URL           string        `mapstructure:"url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"min=1ms"`
	LocalDir      string        `mapstructure:"localDir" validate:"required"`
	RetryInterval time.Duration `mapstructure:"retryInterval" validate:"min=0s"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// validate is a single instance of Validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(storeConfigLevel, StoreConfig{})
}

// storeConfigLevel requires the settings each driver needs.
func storeConfigLevel(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(StoreConfig)
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			sl.ReportError(cfg.SQLite.Path, "SQLite.Path", "Path", "required_for_driver", DriverSQLite)
		}
	case DriverFile:
		if cfg.File.Dir == "" {
			sl.ReportError(cfg.File.Dir, "File.Dir", "Dir", "required_for_driver", DriverFile)
		}
	case DriverS3:
		if cfg.S3.Endpoint == "" {
			sl.ReportError(cfg.S3.Endpoint, "S3.Endpoint", "Endpoint", "required_for_driver", DriverS3)
		}
		if cfg.S3.Bucket == "" {
			sl.ReportError(cfg.S3.Bucket, "S3.Bucket", "Bucket", "required_for_driver", DriverS3)
		}
	}
}

// Validate checks cfg against its struct tags and driver rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = GetDataDir(v)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
