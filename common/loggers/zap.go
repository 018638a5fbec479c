package loggers

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ceramicnetwork/go-sqs-flow"
	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/common/config"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

// NewLogger builds the service logger from the loaded settings. Every line carries the service name and environment
// so that runs against different environments can be told apart in a shared sink.
func NewLogger(settings *config.Settings) (models.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if len(settings.LogLevel) > 0 {
		if parsedLevel, err := zap.ParseAtomicLevel(settings.LogLevel); err != nil {
			return nil, fmt.Errorf("newLogger: error parsing log level %s: %w", settings.LogLevel, err)
		} else {
			level = parsedLevel
		}
	}

	cfg := zap.NewProductionConfig()
	if settings.Env == sqsflow.EnvTag_Dev {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.Level = level
	cfg.InitialFields = map[string]interface{}{
		"service": common.ServiceName,
		"env":     settings.Env,
	}
	baseLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("newLogger: error building logger: %w", err)
	}
	return baseLogger.Sugar(), nil
}

func NewTestLogger() models.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	return zap.Must(cfg.Build()).Sugar()
}
