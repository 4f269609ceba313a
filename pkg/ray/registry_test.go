package ray

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	built BuildInfo
}

func newRegistryWithGreetings(opts ...RegistryOption) *Registry {
	reg := NewRegistry(opts...)
	reg.Mark(greetingsType, "English")
	reg.RegisterProxy(greetingsType, newGreetingsProxy, TypeOf[greeter](), TypeOf[failer]())
	return reg
}

func TestRegistry_PostProcess_NoMarksReturnsSameObject(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.RegisterProxy(greetingsType, func(target any, ic *Interceptor) (any, error) {
		called = true
		return target, nil
	})

	obj := &greetings{}
	out, err := reg.PostProcess("greetings", obj)
	require.NoError(t, err)
	assert.Same(t, obj, out)
	assert.False(t, called, "factory must not be called for an empty marked set")
	assert.Zero(t, reg.Hints().Len())
}

func TestRegistry_PostProcess_WrapsMarkedObject(t *testing.T) {
	logger, logs := newObservedLogger()
	reg := newRegistryWithGreetings(WithRegistryLogger(logger))

	obj := &greetings{}
	out, err := reg.PostProcess("greetingsService", obj)
	require.NoError(t, err)
	require.NotSame(t, obj, out)

	assert.Implements(t, (*greeter)(nil), out)
	assert.Implements(t, (*failer)(nil), out)
	assert.True(t, IsProxy(out))
	assert.Same(t, obj, Unwrap(out))
	assert.Equal(t, greetingsType, out.(Decorating).DecoratedType())
	assert.Equal(t, []string{"English"}, out.(Advised).Interceptor().Marked().Names())
	assert.Equal(t, "creating a proxy for greetingsService", logs.All()[0].Message)

	logs.TakeAll()
	g := out.(greeter)
	assert.Equal(t, "ni hao", g.Chinese())
	assert.Zero(t, logs.Len())

	assert.Equal(t, "yo", g.English())
	assert.Equal(t, []string{"start [English]", "stop [English]"}, messages(logs))
	assert.Equal(t, []string{"chinese", "english"}, obj.calls)
}

func TestRegistry_PostProcess_RegistersHints(t *testing.T) {
	reg := newRegistryWithGreetings()

	_, err := reg.PostProcess("a", &greetings{})
	require.NoError(t, err)
	first := reg.Hints().Types()

	_, err = reg.PostProcess("b", &greetings{})
	require.NoError(t, err)

	assert.Equal(t, first, reg.Hints().Types())
	assert.True(t, reg.Hints().HasType("*ray.greetings"))
	assert.True(t, reg.Hints().HasType("ray.greeter"))
	assert.Equal(t, []ProxyHint{{Interfaces: []string{"ray.greeter", "ray.failer", "ray.Proxy", "ray.Advised", "ray.Decorating"}}}, reg.Hints().Proxies())
}

func TestRegistry_PostProcess_MissingFactory(t *testing.T) {
	reg := NewRegistry()
	reg.Mark(greetingsType, "English")

	_, err := reg.PostProcess("greetings", &greetings{})
	assert.ErrorIs(t, err, ErrNoProxyFactory)
}

func TestRegistry_PostProcess_FactoryError(t *testing.T) {
	reg := NewRegistry()
	reg.Mark(greetingsType, "English")
	reg.RegisterProxy(greetingsType, func(any, *Interceptor) (any, error) {
		return nil, errors.New("cannot build")
	})

	_, err := reg.PostProcess("greetings", &greetings{})
	assert.ErrorContains(t, err, "cannot build")
}

func TestRegistry_PostProcess_NullCollaborator(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.PostProcess("nil", nil)
	assert.ErrorIs(t, err, ErrNullCollaborator)

	var typed *greetings
	_, err = reg.PostProcess("typed-nil", typed)
	assert.ErrorIs(t, err, ErrNullCollaborator)
}

func TestRegistry_PostProcess_IntrospectionFailure(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.PostProcess("number", 42)
	assert.ErrorIs(t, err, ErrIntrospection)
}

func TestRegistry_PostProcess_SubstituteSkipsScan(t *testing.T) {
	reg := newRegistryWithGreetings()
	stamp := time.UnixMilli(1700000000000)

	var handle *Registration
	reg.Substitute(reflect.TypeOf(&report{}), func(r *Registration, prev any) any {
		handle = r
		return &report{built: BuildInfo{Timestamp: stamp, Directory: "/build"}}
	})

	out, err := reg.PostProcess("report", &report{})
	require.NoError(t, err)
	assert.Equal(t, stamp, out.(*report).built.Timestamp)
	assert.Equal(t, "/build", out.(*report).built.Directory)
	require.NotNil(t, handle)
	assert.Equal(t, "report", handle.Name)
	assert.Equal(t, reflect.TypeOf(&report{}), handle.Type)

	// a substitute wins even over marked methods
	reg.Substitute(greetingsType, func(_ *Registration, prev any) any { return prev })
	obj := &greetings{}
	out, err = reg.PostProcess("greetings", obj)
	require.NoError(t, err)
	assert.Same(t, obj, out)
}

func TestRegistry_Definitions(t *testing.T) {
	reg := newRegistryWithGreetings()
	_, _ = reg.PostProcess("zeta", &greetings{})
	_, _ = reg.PostProcess("alpha", &report{})

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
	assert.Equal(t, greetingsType, defs[1].Type)
}

func TestRegistry_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	reg := newRegistryWithGreetings(WithRegistryMetrics(metrics))

	out, err := reg.PostProcess("greetings", &greetings{})
	require.NoError(t, err)
	out.(greeter).English()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.proxies))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues("English", "stopped")))
}

func TestProcess(t *testing.T) {
	reg := newRegistryWithGreetings()

	g, err := Process[greeter](reg, "greetings", &greetings{})
	require.NoError(t, err)
	assert.True(t, IsProxy(g))

	var none greeter
	_, err = Process(reg, "none", none)
	assert.ErrorIs(t, err, ErrNullCollaborator)
}

func TestProcess_ShapeMismatch(t *testing.T) {
	reg := newRegistryWithGreetings()

	// the proxy does not keep the concrete pointer type
	_, err := Process(reg, "greetings", &greetings{})
	assert.ErrorIs(t, err, ErrProxyShape)
}

func TestRequireNonNil(t *testing.T) {
	assert.NoError(t, RequireNonNil("value", 1))
	assert.NoError(t, RequireNonNil("ptr", &greetings{}))

	var g greeter
	assert.ErrorIs(t, RequireNonNil("iface", g), ErrNullCollaborator)

	var p *greetings
	err := RequireNonNil("messageService", p)
	assert.ErrorIs(t, err, ErrNullCollaborator)
	assert.ErrorContains(t, err, "messageService")
}

func TestUnwrap_NonProxy(t *testing.T) {
	obj := &greetings{}
	assert.Same(t, obj, Unwrap(obj))
	assert.False(t, IsProxy(obj))
}
