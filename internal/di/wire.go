//go:build wireinject
// +build wireinject

package di

import (
	"rategate/pkg/config"
	"rategate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideRecorder,
		ProvideConnector,
		ProvideLimiter,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
