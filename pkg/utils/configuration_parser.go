package utils

import (
	"os"
	"path/filepath"

	"github.com/velomon/tpms-monitor-golang/pkg/entities"
	"gopkg.in/yaml.v2"
)

type config interface {
	entities.MonitorConfig | entities.TelemetryConfig
}

func readTextFile(filepathName string) ([]byte, error) {
	fileContent, err := os.ReadFile(filepath.Clean(filepathName))
	return fileContent, err
}

// ConfigurationParser loads one of the yaml configuration files into its
// entity type.
func ConfigurationParser[T config](filepathName string, configEntity T) (T, error) {
	fileContent, err := readTextFile(filepath.Clean(filepathName))
	if err != nil {
		return configEntity, err
	}

	err = yaml.Unmarshal(fileContent, &configEntity)
	return configEntity, err
}

// GetEnvOrDefault reads an environment variable, falling back to the
// provided default when unset.
func GetEnvOrDefault(variableName, defaultValue string) string {
	value := os.Getenv(variableName)
	if value != "" {
		return value
	}
	return defaultValue
}
