// Package config loads the application configuration from a yaml file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultCryptTimeout is the request timeout used when crypttimeout is not set.
const DefaultCryptTimeout = 30 * time.Second

// Config is the struct for the configuration.
type Config struct {
	// SessionFile is the path of the persisted session (JSON).
	SessionFile string `yaml:"sessionfile"`
	// CryptEndpoint is the base URL of the out-of-process decrypt service.
	CryptEndpoint string `yaml:"cryptendpoint"`
	// CryptTimeoutSeconds bounds one decrypt service round-trip.
	CryptTimeoutSeconds int `yaml:"crypttimeout"`
	// DownloadDir is where decrypted downloads are exported.
	DownloadDir string `yaml:"downloaddir"`
	// EnableAutoRefresh turns the scheduled re-listing on.
	EnableAutoRefresh bool `yaml:"enableautorefresh"`
	// RefreshCronSchedule is the cron expression for the re-listing job.
	RefreshCronSchedule string `yaml:"refreshcronschedule"`
	LogFile             string `yaml:"logfile"`
	LogLevel            string `yaml:"loglevel"`
}

// CryptTimeout returns the decrypt service timeout as a duration.
func (c Config) CryptTimeout() time.Duration {
	if c.CryptTimeoutSeconds <= 0 {
		return DefaultCryptTimeout
	}
	return time.Duration(c.CryptTimeoutSeconds) * time.Second
}

// ReadYamlCnxFile reads a yaml file and returns a Config struct.
func ReadYamlCnxFile(filename string) (Config, error) {
	var config Config

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("ReadYamlCnxFile: error reading %s: %w", filename, err)
	}

	err = yaml.Unmarshal(yamlFile, &config)
	if err != nil {
		return config, fmt.Errorf("ReadYamlCnxFile: error parsing %s: %w", filename, err)
	}
	return config, nil
}
