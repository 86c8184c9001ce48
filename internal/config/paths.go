package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/taskflow/internal/errors"
)

// HomeDirName is the name of the taskflow directory under the user's home
// and under a project root.
const HomeDirName = ".taskflow"

// GlobalConfigDir returns the path to the global taskflow directory (~/.taskflow).
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, HomeDirName), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(HomeDirName, "config.yaml")
}

// LogFilePath returns ~/.taskflow/logs/taskflow.log.
func LogFilePath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "taskflow.log"), nil
}
