// File: utils/logger.go
package utils

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide zap instance.
var Logger *zap.Logger

// InitializeLogger builds the logger for the current profile: JSON at info
// level in production, colored console output at debug level otherwise.
func InitializeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if IsProduction() {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	Logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
}

// GetLogger returns the process logger, building it on first use.
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
