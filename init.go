package coinwatch

import (
	"os"
	"strconv"

	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/logger/zerolog"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const (
	// Default configuration values
	defaultLogLevel      = "debug"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "COINWATCH_LOG_LEVEL"
	envLogTimeFormat = "COINWATCH_LOG_TIME_FORMAT"
	envLogColor      = "COINWATCH_LOG_COLOR"
	envLogJSON       = "COINWATCH_LOG_JSON"
)

func init() {
	// Initialize the logger with configuration from environment variables
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// initLogger creates a new logger instance configured from environment variables
func initLogger() (logger.Logger, error) {
	// Get configuration from environment variables with defaults
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	// Parse boolean configurations
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	log, err := zerolog.New(logLevel, logTimeFormat, logColored, logJSON)
	if err != nil {
		return nil, err
	}

	return zerolog.NewAdapter(log), nil
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
