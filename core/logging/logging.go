package logging

import (
	"go.uber.org/zap"
)

// Logger is the package-wide logger used by the SDK. It defaults to a
// production zap logger and can be replaced by the host application.
var Logger *zap.Logger

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Logger = logger
}

// SetLogger replaces the SDK logger. Passing nil installs a no-op logger.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		Logger = zap.NewNop()
		return
	}
	Logger = logger
}
