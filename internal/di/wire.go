//go:build wireinject
// +build wireinject

package di

import (
	"FinInfer/pkg/config"
	"FinInfer/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCacheService,
		ProvideSignalCache,
		ProvideAuditor,
		ProvidePublisher,

		// Backends
		ProvideRemoteAnalyzer,
		ProvideLocalModel,
		ProvideEnsemble,
		ProvideRiskManager,

		// Core
		ProvideOrchestrator,
		ProvideHub,
		ProvidePipeline,
		ProvideRateLimiter,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
