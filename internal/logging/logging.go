// Package logging provides the process-wide structured logger.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global sugared logger based on STT_GATEWAY_LOG_LEVEL
// and redirects the standard library logger to zap. It's safe to call
// multiple times.
func Init() *zap.SugaredLogger {
	once.Do(func() {
		level := strings.ToLower(os.Getenv("STT_GATEWAY_LOG_LEVEL"))
		var logger *zap.Logger
		if level == "debug" {
			l, _ := zap.NewDevelopment()
			logger = l
		} else {
			l, _ := zap.NewProduction()
			logger = l
		}
		// Redirect standard library logs into zap so all logs are unified.
		_ = zap.RedirectStdLog(logger)
		sugar = logger.Sugar()
	})
	return sugar
}

// Sugar returns the initialized sugared logger. Call Init first.
func Sugar() *zap.SugaredLogger { return sugar }

func init() {
	Init()
}

func Debugw(msg string, kv ...interface{}) { Sugar().Debugw(msg, kv...) }
func Infow(msg string, kv ...interface{})  { Sugar().Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { Sugar().Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { Sugar().Errorw(msg, kv...) }
