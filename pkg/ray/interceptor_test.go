package ray

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, entry := range logs.All() {
		out = append(out, entry.Message)
	}
	return out
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "intercept", Intercept.String())
	assert.Equal(t, "pass-through", PassThrough.String())
}

func TestInterceptor_Decide(t *testing.T) {
	ic := NewInterceptor(NewMethodSet(greetingsEnglish))

	assert.Equal(t, Intercept, ic.Decide(greetingsEnglish))
	assert.Equal(t, PassThrough, ic.Decide(greetingsChinese))
	assert.Equal(t, PassThrough, ic.Decide(MethodDescriptor{Name: "English"}))
}

func TestInterceptor_MarkedMethodLogsStartAndStop(t *testing.T) {
	logger, logs := newObservedLogger()
	target := &greetings{}
	proxy, err := newGreetingsProxy(target, NewInterceptor(NewMethodSet(greetingsEnglish), WithLogger(logger)))
	require.NoError(t, err)

	var order []string
	got := proxy.(greeter).English()
	order = append(order, messages(logs)...)

	assert.Equal(t, "yo", got)
	assert.Equal(t, []string{"english"}, target.calls)
	assert.Equal(t, []string{"start [English]", "stop [English]"}, order)
	assert.Equal(t, greetingsEnglish.Key(), logs.All()[0].ContextMap()["method"])
}

func TestInterceptor_UnmarkedMethodPassesThrough(t *testing.T) {
	logger, logs := newObservedLogger()
	target := &greetings{}
	proxy, err := newGreetingsProxy(target, NewInterceptor(NewMethodSet(greetingsEnglish), WithLogger(logger)))
	require.NoError(t, err)

	direct := (&greetings{}).Chinese()
	got := proxy.(greeter).Chinese()

	assert.Equal(t, direct, got)
	assert.Equal(t, []string{"chinese"}, target.calls)
	assert.Zero(t, logs.Len())
}

// A faulting call logs start but never stop.
func TestInterceptor_ErrorSkipsStop(t *testing.T) {
	logger, logs := newObservedLogger()
	proxy, err := newGreetingsProxy(&greetings{}, NewInterceptor(NewMethodSet(greetingsFail), WithLogger(logger)))
	require.NoError(t, err)

	n, err := proxy.(failer).Fail("nope")
	require.EqualError(t, err, "nope")
	assert.Zero(t, n)
	assert.Equal(t, []string{"start [Fail]"}, messages(logs))

	logs.TakeAll()
	n, err = proxy.(failer).Fail("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"start [Fail]", "stop [Fail]"}, messages(logs))
}

func TestInterceptor_PanicPropagatesAndSkipsStop(t *testing.T) {
	logger, logs := newObservedLogger()
	proxy, err := newGreetingsProxy(&greetings{}, NewInterceptor(NewMethodSet(greetingsExplode), WithLogger(logger)))
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() {
		proxy.(failer).Explode()
	})
	assert.Equal(t, []string{"start [Explode]"}, messages(logs))
}

func TestInterceptor_ErrorIsNotWrapped(t *testing.T) {
	sentinel := errors.New("sentinel")
	ic := NewInterceptor(NewMethodSet(greetingsFail))

	err := ic.Invoke(greetingsFail, func() error { return sentinel })
	assert.Same(t, sentinel, err)

	err = ic.Invoke(greetingsChinese, func() error { return sentinel })
	assert.Same(t, sentinel, err)
}

func TestInterceptor_MarkedSetIsImmutable(t *testing.T) {
	ds := []MethodDescriptor{greetingsEnglish}
	set := NewMethodSet(ds...)
	ic := NewInterceptor(set)
	ds[0].Name = "Changed"

	assert.Equal(t, []string{"English"}, ic.Marked().Names())
}

func TestInterceptor_ConcurrentCalls(t *testing.T) {
	logger, logs := newObservedLogger()
	ic := NewInterceptor(NewMethodSet(greetingsEnglish), WithLogger(logger))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ic.Invoke(greetingsEnglish, func() error { return nil })
			_ = ic.Invoke(greetingsChinese, func() error { return nil })
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, logs.FilterMessage("start [English]").Len())
	assert.Equal(t, workers, logs.FilterMessage("stop [English]").Len())
	assert.Equal(t, 2*workers, logs.Len())
}

func TestInterceptor_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	ic := NewInterceptor(NewMethodSet(greetingsEnglish, greetingsFail), WithMetrics(metrics))

	_ = ic.Invoke(greetingsEnglish, func() error { return nil })
	_ = ic.Invoke(greetingsFail, func() error { return errors.New("x") })
	_ = ic.Invoke(greetingsChinese, func() error { return nil })

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues("English", "started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues("English", "stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues("Fail", "started")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.calls.WithLabelValues("Fail", "stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.faults.WithLabelValues("Fail")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.calls.WithLabelValues("Chinese", "started")))
}
