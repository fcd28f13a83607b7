package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/scanio-correlator/pkg/pathcleaner"
)

// DefaultConfigPath is read when no --config flag is given. Its absence is not an error.
const DefaultConfigPath = "config.yml"

type Config struct {
	Logger      Logger      `yaml:"logger"`
	Correlation Correlation `yaml:"correlation"`
}

type Logger struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// Correlation describes the analysed project and how its paths relate to the deployed URLs.
type Correlation struct {
	Framework       string                       `yaml:"framework"`
	ProjectRoot     string                       `yaml:"project_root"`
	StaticRoot      string                       `yaml:"static_root"`
	DynamicRoot     string                       `yaml:"dynamic_root"`
	PartialMappings []pathcleaner.PartialMapping `yaml:"partial_mappings"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig returns a configuration holding only defaults.
func NewConfig() *Config {
	return &Config{
		Logger:      Logger{Level: "INFO"},
		Correlation: Correlation{Framework: "DETECT"},
	}
}

// LoadConfig reads configPath over the defaults. An empty path, or a missing
// DefaultConfigPath, yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := NewConfig()
	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) && configPath == DefaultConfigPath {
		return cfg, nil
	}

	if err := LoadYAML(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return cfg, nil
}
