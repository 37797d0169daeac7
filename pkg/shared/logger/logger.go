package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/pkg/shared/config"
)

// NewLogger builds an hclog logger from the config, with the
// REPOTRIAGE_LOG_LEVEL environment variable as a fallback.
func NewLogger(cfg *config.Config, name string) hclog.Logger {
	var logLevel hclog.Level

	if cfg != nil && cfg.Logger.Level != "" {
		logLevel = getLogLevel(strings.ToUpper(cfg.Logger.Level))
	} else {
		// env variables has the second priority
		logLevelEnv := os.Getenv("REPOTRIAGE_LOG_LEVEL")
		logLevel = getLogLevel(strings.ToUpper(logLevelEnv))
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      os.Stdout,
		Level:       logLevel,
	})

	return logger
}

// GetLoggerOutput returns a writer that only emits when debug logging is enabled.
func GetLoggerOutput(logger hclog.Logger) io.Writer {
	if logger.IsDebug() {
		return os.Stdout
	}
	return io.Discard
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
