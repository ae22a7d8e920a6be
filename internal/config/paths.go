package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalDirName is the per-project directory checked before the global one.
const LocalDirName = ".tod"

// GetGlobalConfigDir returns the path to the global configuration directory (~/.tod).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDirName), nil
}

// GetDataDir returns the directory holding databases, fallback files and crash logs.
// Resolution order (first match wins):
// 1. Explicit config via "dataDir" (Viper/env/flag)
// 2. Local project directory: ./.tod (if exists)
// 3. XDG_DATA_HOME/tod (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.tod
func GetDataDir(v *viper.Viper) string {
	if path := v.GetString("dataDir"); path != "" {
		return path
	}

	if info, err := os.Stat(LocalDirName); err == nil && info.IsDir() {
		return LocalDirName
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tod")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./" + LocalDirName
	}
	return dir
}
