package ray

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModule_ProcessesManagedObjects(t *testing.T) {
	logger, logs := newObservedLogger()

	var (
		g        greeter
		registry *Registry
		gatherer prometheus.Gatherer
	)
	app := fxtest.New(t,
		Module,
		fx.Supply(logger),
		fx.Decorate(func(reg *Registry) *Registry {
			reg.Mark(greetingsType, "English")
			reg.RegisterProxy(greetingsType, newGreetingsProxy, TypeOf[greeter]())
			return reg
		}),
		fx.Provide(func(reg *Registry) (greeter, error) {
			return Process[greeter](reg, "greetings", &greetings{})
		}),
		fx.Populate(&g, &registry, &gatherer),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, g)
	assert.True(t, IsProxy(g))
	assert.Equal(t, "yo", g.English())
	assert.Equal(t, 1, logs.FilterMessage("start [English]").Len())
	assert.Equal(t, 1, logs.FilterMessage("stop [English]").Len())
	assert.Len(t, registry.Definitions(), 1)

	families, err := gatherer.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ray_intercepted_calls_total")
}

func TestNewRegistryFromLogger(t *testing.T) {
	reg := NewRegistryFromLogger(zap.NewNop(), nil)
	require.NotNil(t, reg)
	assert.NotNil(t, reg.Logger())
	assert.Nil(t, reg.Metrics())
}
