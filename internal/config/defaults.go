// Package config provides centralized configuration for tod.
// All default values should be defined here to ensure a single source of truth.
package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Store driver constants
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverS3     = "s3"

	// DefaultDriver keeps state in a local SQLite database.
	DefaultDriver = DriverSQLite
)

// Server defaults
const (
	DefaultAddr            = ":8787"
	DefaultBasePath        = "/api/tod/state"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultStateKey is the single key the whole AppState lives under.
const DefaultStateKey = "tod-state"

// Client defaults
const (
	DefaultClientURL     = "http://localhost:8787" + DefaultBasePath
	DefaultClientTimeout = 10 * time.Second
	DefaultRetryInterval = 30 * time.Second
)

// Log defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// SetDefaults registers every default on v. Paths are resolved against dataDir.
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.basePath", DefaultBasePath)
	v.SetDefault("server.maxBodyBytes", DefaultMaxBodyBytes)
	v.SetDefault("server.shutdownTimeout", DefaultShutdownTimeout)

	v.SetDefault("store.driver", DefaultDriver)
	v.SetDefault("store.key", DefaultStateKey)
	v.SetDefault("store.sqlite.path", filepath.Join(dataDir, "tod.db"))
	v.SetDefault("store.file.dir", filepath.Join(dataDir, "kv"))
	v.SetDefault("store.s3.region", "us-east-1")
	v.SetDefault("store.s3.useSSL", true)

	v.SetDefault("client.url", DefaultClientURL)
	v.SetDefault("client.timeout", DefaultClientTimeout)
	v.SetDefault("client.localDir", filepath.Join(dataDir, "local"))
	v.SetDefault("client.retryInterval", DefaultRetryInterval)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}
