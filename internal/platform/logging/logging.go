package logging

import "go.uber.org/zap"

// New builds the process logger: JSON in production, console otherwise.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
