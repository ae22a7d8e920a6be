package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tod/internal/config"
	"github.com/josephgoksu/tod/internal/logger"
)

const (
	configName = ".tod"
	envPrefix  = "TOD"
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// It's okay if .env file doesn't exist.
	_ = godotenv.Load()

	// Environment variable handling must be set up before the config file is located.
	viper.SetEnvPrefix(envPrefix)                          // e.g., TOD_STORE_DRIVER
	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		if _, err := os.Stat(config.LocalDirName); err == nil {
			viper.AddConfigPath(config.LocalDirName) // ./.tod/.tod.yaml
		}
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home) // $HOME/.tod.yaml
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	dir := config.GetDataDir(viper.GetViper())
	config.SetDefaults(viper.GetViper(), dir)
	logger.SetBasePath(dir)
}

// GetConfig unmarshals and validates the current configuration.
func GetConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}
