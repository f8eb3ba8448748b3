package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

func Init(env string) {
	once.Do(func() {
		var config zap.Config
		if env == "production" {
			config = zap.NewProductionConfig()
		} else {
			config = zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		config.OutputPaths = []string{"stdout"}

		l, err := config.Build(zap.AddCallerSkip(1))
		if err != nil {
			panic("failed to create logger: " + err.Error())
		}
		sugar = l.Sugar()
	})
}

func get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Info logs a message with alternating key/value pairs.
func Info(msg string, args ...any) {
	get().Infow(msg, args...)
}

func Warn(msg string, args ...any) {
	get().Warnw(msg, args...)
}

func Debug(msg string, args ...any) {
	get().Debugw(msg, args...)
}

// Error accepts either key/value pairs or a bare error as the first argument,
// matching how call sites pass `logger.Error("Component:Method:Error:", err)`.
func Error(msg string, args ...any) {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			get().Errorw(msg, "error", err)
			return
		}
	}
	get().Errorw(msg, args...)
}

func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
