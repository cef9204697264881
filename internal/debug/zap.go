package debug

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects how the base zap logger is built.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Build creates the zap logger described by cfg. Unknown levels fall back
// to info.
func Build(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableStacktrace = level > zapcore.DebugLevel
	if cfg.Output != "" {
		config.OutputPaths = []string{cfg.Output}
		config.ErrorOutputPaths = []string{cfg.Output}
	} else {
		config.OutputPaths = []string{"stderr"}
	}

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}
