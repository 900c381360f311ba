// Config loading for the freeform CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyDBPath = "db_path"

	defaultConfigDirName = ".freeform"
	defaultDBFileName    = "freeform.db"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# freeform CLI configuration

# Database file (optional; overridable by --db flag)
# db_path:
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDBPath, defaultDBFileName)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// resolveConfigDir applies flag > default precedence.
func resolveConfigDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, defaultConfigDirName), nil
}

// resolveDBPath applies flag > config > default precedence.
func resolveDBPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	if configDBPath != "" {
		return configDBPath
	}
	return defaultDBFileName
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes a default config.yaml on first run.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileName+"."+configFileType)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
