package ray

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registration is the per-object handle passed to initializers.
type Registration struct {
	Name string
	Type reflect.Type
}

// BuildInfo is what an ahead-of-time build knows about itself.
type BuildInfo struct {
	Timestamp time.Time
	Directory string
}

// Initializer replaces the post-construction step for one type. It receives
// the registration handle and the constructed value and returns the value
// callers should use.
type Initializer func(reg *Registration, prev any) any

type proxyEntry struct {
	factory    ProxyFactory
	interfaces []reflect.Type
}

// Registry holds everything post-processing needs: marks, proxy factories,
// ahead-of-time substitutes and the hint store. Create one per container.
type Registry struct {
	mu          sync.RWMutex
	marks       *Marks
	scanner     *Scanner
	proxies     map[reflect.Type]proxyEntry
	substitutes map[reflect.Type]Initializer
	processed   map[string]reflect.Type
	hints       *HintStore
	logger      *zap.Logger
	metrics     *Metrics
}

type RegistryOption func(*Registry)

func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithRegistryMetrics(metrics *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

func WithHintStore(store *HintStore) RegistryOption {
	return func(r *Registry) {
		if store != nil {
			r.hints = store
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	marks := NewMarks()
	r := &Registry{
		marks:       marks,
		scanner:     NewScanner(marks),
		proxies:     make(map[reflect.Type]proxyEntry),
		substitutes: make(map[reflect.Type]Initializer),
		processed:   make(map[string]reflect.Type),
		hints:       NewHintStore(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Marks() *Marks       { return r.marks }
func (r *Registry) Hints() *HintStore   { return r.hints }
func (r *Registry) Logger() *zap.Logger { return r.logger }
func (r *Registry) Scanner() *Scanner   { return r.scanner }
func (r *Registry) Metrics() *Metrics   { return r.metrics }

// Mark is shorthand for r.Marks().Mark.
func (r *Registry) Mark(t reflect.Type, names ...string) {
	r.marks.Mark(t, names...)
}

// RegisterProxy installs the factory used for t and the interfaces its
// proxies implement. A later call for the same type replaces the earlier one.
func (r *Registry) RegisterProxy(t reflect.Type, f ProxyFactory, interfaces ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxies[t] = proxyEntry{factory: f, interfaces: interfaces}
}

// Substitute makes init run instead of the reflective scan for t.
func (r *Registry) Substitute(t reflect.Type, init Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.substitutes[t] = init
}

func (r *Registry) substitute(t reflect.Type) (Initializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	init, ok := r.substitutes[t]
	return init, ok
}

func (r *Registry) proxy(t reflect.Type) (proxyEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.proxies[t]
	return entry, ok
}

// PostProcess runs once per managed object after construction and returns
// the value callers must use from then on. Objects without marked methods
// come back unchanged.
func (r *Registry) PostProcess(name string, obj any) (any, error) {
	if isNil(obj) {
		return nil, fmt.Errorf("%w: managed object %q", ErrNullCollaborator, name)
	}
	t := reflect.TypeOf(obj)
	r.recordProcessed(name, t)

	if init, ok := r.substitute(t); ok {
		r.logger.Debug("applying ahead-of-time initializer", zap.String("name", name), zap.Stringer("type", t))
		return init(&Registration{Name: name, Type: t}, obj), nil
	}

	marked, err := r.scanner.Scan(t)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q: %w", name, err)
	}
	if marked.IsEmpty() {
		return obj, nil
	}

	entry, ok := r.proxy(t)
	if !ok {
		return nil, fmt.Errorf("%w: %v has marked methods %v", ErrNoProxyFactory, t, marked.Names())
	}

	ifaceNames := make([]string, 0, len(entry.interfaces))
	for _, iface := range entry.interfaces {
		ifaceNames = append(ifaceNames, iface.String())
	}
	RegisterHints(r.hints, t.String(), ifaceNames)

	r.logger.Info("creating a proxy for "+name, zap.Stringer("type", t), zap.Strings("marked", marked.Names()))
	ic := NewInterceptor(marked, WithLogger(r.logger), WithMetrics(r.metrics))
	proxied, err := entry.factory(obj, ic)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy for %q: %w", name, err)
	}
	r.metrics.proxyCreated()
	return proxied, nil
}

func (r *Registry) recordProcessed(name string, t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[name] = t
}

// Definitions returns the names of every object seen by PostProcess with
// their concrete types, sorted by name.
func (r *Registry) Definitions() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration, 0, len(r.processed))
	for name, t := range r.processed {
		out = append(out, Registration{Name: name, Type: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Process is the typed form of PostProcess for constructors that return T.
func Process[T any](r *Registry, name string, obj T) (T, error) {
	var zero T
	out, err := r.PostProcess(name, obj)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %v", ErrProxyShape, name, out, TypeOf[T]())
	}
	return typed, nil
}
