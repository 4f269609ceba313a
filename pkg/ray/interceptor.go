package ray

import (
	"go.uber.org/zap"
)

// Decision is the per-call outcome of matching an invoked method against
// the marked set.
type Decision int

const (
	PassThrough Decision = iota
	Intercept
)

func (d Decision) String() string {
	if d == Intercept {
		return "intercept"
	}
	return "pass-through"
}

// Interceptor routes proxied calls. Its marked set is fixed at construction,
// so a single Interceptor can serve concurrent calls without locking.
type Interceptor struct {
	marked  MethodSet
	logger  *zap.Logger
	metrics *Metrics
}

type InterceptorOption func(*Interceptor)

func WithLogger(logger *zap.Logger) InterceptorOption {
	return func(ic *Interceptor) {
		if logger != nil {
			ic.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) InterceptorOption {
	return func(ic *Interceptor) {
		ic.metrics = metrics
	}
}

func NewInterceptor(marked MethodSet, opts ...InterceptorOption) *Interceptor {
	ic := &Interceptor{
		marked: NewMethodSet(marked.Descriptors()...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// Marked returns the set captured at construction.
func (ic *Interceptor) Marked() MethodSet {
	return ic.marked
}

func (ic *Interceptor) Decide(m MethodDescriptor) Decision {
	if ic.marked.Contains(m) {
		return Intercept
	}
	return PassThrough
}

// Invoke runs call on behalf of the proxied method m.
//
// For a marked method it logs "start [name]" before the call and
// "stop [name]" after it. When the call returns an error or panics, the
// fault reaches the caller unchanged and no stop entry is written.
// Unmarked methods run with no side effects.
func (ic *Interceptor) Invoke(m MethodDescriptor, call func() error) error {
	if ic.Decide(m) == PassThrough {
		return call()
	}

	method := zap.String("method", m.Key())
	ic.logger.Info("start ["+m.Name+"]", method)
	ic.metrics.started(m)

	if err := call(); err != nil {
		ic.metrics.faulted(m)
		return err
	}

	ic.logger.Info("stop ["+m.Name+"]", method)
	ic.metrics.stopped(m)
	return nil
}
