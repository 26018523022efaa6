package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

func get() *zap.Logger {
	once.Do(func() {
		if logger == nil {
			l, err := zap.NewProduction(zap.AddCallerSkip(1))
			if err != nil {
				panic(err)
			}
			logger = l
		}
	})
	return logger
}

// Init replaces the package logger. Must be called before the first log call
// to take effect.
func Init(l *zap.Logger) {
	logger = l
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	get().Fatal(msg, fields...)
}
