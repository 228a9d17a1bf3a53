package logger

import "go.uber.org/zap"

// New returns a JSON logger in production and a console logger everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
