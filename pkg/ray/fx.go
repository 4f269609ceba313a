package ray

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a *Registry, its *Metrics and the prometheus registry
// they report to. The application must supply a *zap.Logger.
var Module = fx.Module("ray",
	fx.Provide(
		fx.Annotate(
			prometheus.NewRegistry,
			fx.As(new(prometheus.Registerer)),
			fx.As(new(prometheus.Gatherer)),
		),
		NewMetrics,
		NewRegistryFromLogger,
	),
)

// NewRegistryFromLogger is the fx constructor for *Registry.
func NewRegistryFromLogger(logger *zap.Logger, metrics *Metrics) *Registry {
	return NewRegistry(
		WithRegistryLogger(logger.Named("ray")),
		WithRegistryMetrics(metrics),
	)
}
