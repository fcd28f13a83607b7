package logger

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
)

// NewLogger builds a named logger writing to stderr, so that stdout stays free for results.
// The level comes from the config, then from SCANIO_LOG_LEVEL, and defaults to INFO.
func NewLogger(config *config.Config, name string) hclog.Logger {
	var logLevel hclog.Level
	jsonFormat := false

	if config != nil && config.Logger.Level != "" {
		logLevel = getLogLevel(strings.ToUpper(config.Logger.Level))
	} else {
		// env variables has the second priority
		logLevelEnv := os.Getenv("SCANIO_LOG_LEVEL")
		logLevel = getLogLevel(strings.ToUpper(logLevelEnv))
	}
	if config != nil {
		jsonFormat = config.Logger.JSONFormat
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      os.Stderr,
		Level:       logLevel,
		JSONFormat:  jsonFormat,
	})
}

func getLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Info
	}
}
