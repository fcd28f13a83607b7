package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/files"
)

var logLevels = map[string]bool{
	"TRACE": true,
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// ValidateConfig checks if the global configurations have valid values and normalises them.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := validateLogger(&cfg.Logger); err != nil {
		return fmt.Errorf("YAML global config: logger directive is invalid: %w", err)
	}
	if err := ValidateCorrelationConfig(&cfg.Correlation); err != nil {
		return fmt.Errorf("YAML global config: correlation directive is invalid: %w", err)
	}
	return nil
}

func validateLogger(l *Logger) error {
	level := strings.ToUpper(strings.TrimSpace(l.Level))
	if level == "" {
		level = "INFO"
	}
	if !logLevels[level] {
		return fmt.Errorf("unknown log level %q", l.Level)
	}
	l.Level = level
	return nil
}

// ValidateCorrelationConfig checks the framework name, expands the project root and
// requires both sides of every partial mapping.
func ValidateCorrelationConfig(c *Correlation) error {
	if c == nil {
		return fmt.Errorf("correlation configuration is nil")
	}

	t, err := parseFramework(c.Framework)
	if err != nil {
		return err
	}
	c.Framework = string(t)

	if root := strings.TrimSpace(c.ProjectRoot); root != "" {
		expanded, err := files.ExpandPath(root)
		if err != nil {
			return fmt.Errorf("failed to expand project_root: %w", err)
		}
		if err := files.ValidateDir(expanded); err != nil {
			return fmt.Errorf("project_root is invalid: %w", err)
		}
		if abs, err := filepath.Abs(expanded); err == nil {
			expanded = abs
		}
		c.ProjectRoot = expanded
	}

	for i, m := range c.PartialMappings {
		if strings.TrimSpace(m.StaticPath) == "" || strings.TrimSpace(m.DynamicPath) == "" {
			return fmt.Errorf("partial_mappings[%d] needs both static_path and dynamic_path", i)
		}
	}
	return nil
}

// parseFramework accepts enum and display names. Unlike framework.Parse it rejects unknown names.
func parseFramework(name string) (framework.Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return framework.Default, nil
	}
	t := framework.Parse(name)
	if t == framework.Default && !strings.EqualFold(name, string(framework.Default)) && !strings.EqualFold(name, framework.Default.DisplayName()) {
		return "", fmt.Errorf("unknown framework %q, expected one of %v", name, framework.Types())
	}
	return t, nil
}
