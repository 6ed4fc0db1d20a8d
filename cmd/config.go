/*
Copyright © 2025 The TaskTide Authors
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tasktide/tasktide/internal/logger"
	"github.com/tasktide/tasktide/types"
)

const (
	configName = ".tasktide"
	envPrefix  = "TASKTIDE"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate caches struct info across validations.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

func validateAppConfig(config *types.AppConfig) error {
	return validate.Struct(config)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	// Environment handling must be set up before reading the config file so
	// env vars can influence where the file is looked up.
	viper.SetEnvPrefix(envPrefix) // e.g. TASKTIDE_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")

	// The data directory doubles as the config search path. Its configured
	// value is only known after loading, so use the default name to find the
	// file itself.
	potentialConfigDir := viper.GetString("project.rootDir")
	if potentialConfigDir == "" {
		potentialConfigDir = ".tasktide"
	}

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		if _, err := os.Stat(potentialConfigDir); !os.IsNotExist(err) {
			// Project-local data dir exists; prefer a config inside it.
			viper.AddConfigPath(potentialConfigDir)
			viper.SetConfigName(configName)
		} else {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigName(configName)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	viper.SetDefault("project.rootDir", ".tasktide")
	viper.SetDefault("data.file", "tasks.json")
	viper.SetDefault("data.format", "json")

	viper.SetDefault("calendar.syncEnabled", true)
	viper.SetDefault("calendar.dbFile", "calendar.db")
	viper.SetDefault("calendar.busyOnly", false)
	viper.SetDefault("calendar.completionPolicy", "keep")

	viper.SetDefault("suggestions.topPicks", 3)
	viper.SetDefault("notifications.enabled", true)

	viper.SetDefault("watch.debounceMs", 500)
	viper.SetDefault("watch.snoozeSweepSeconds", 60)

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.baseUrl", "https://api.openai.com/v1")
	viper.SetDefault("ai.modelName", "gpt-4o-mini")
	viper.SetDefault("ai.requestTimeoutSeconds", 30)

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	// A config file may exist but omit these nested keys.
	if GlobalAppConfig.Project.RootDir == "" {
		GlobalAppConfig.Project.RootDir = viper.GetString("project.rootDir")
	}
	if GlobalAppConfig.Data.File == "" {
		GlobalAppConfig.Data.File = viper.GetString("data.file")
	}
	if GlobalAppConfig.Data.Format == "" {
		GlobalAppConfig.Data.Format = viper.GetString("data.format")
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}

	logger.SetBasePath(GlobalAppConfig.Project.RootDir)
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
