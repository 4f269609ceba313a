package ray

import (
	"reflect"
	"sort"
	"sync"
)

// Marker is the annotation name that selects a method for interception.
// In source it is written as a comment directly above the method:
//
//	//ray::intercept
//	func (s *Service) English() { ... }
const Marker = "intercept"

// Marks is the runtime side table of marked method names per type. Generated
// Register functions populate it; it can also be filled by hand.
type Marks struct {
	mu    sync.RWMutex
	names map[reflect.Type]map[string]struct{}
}

func NewMarks() *Marks {
	return &Marks{names: make(map[reflect.Type]map[string]struct{})}
}

// Mark tags the named methods of t. Marking the same name twice is a no-op.
func (m *Marks) Mark(t reflect.Type, names ...string) {
	if t == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.names[t]
	if !ok {
		set = make(map[string]struct{}, len(names))
		m.names[t] = set
	}
	for _, name := range names {
		set[name] = struct{}{}
	}
}

// IsMarked reports whether name was marked on exactly t.
func (m *Marks) IsMarked(t reflect.Type, name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.names[t][name]
	return ok
}

// MarkedOn returns the sorted names marked on exactly t.
func (m *Marks) MarkedOn(t reflect.Type) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.names[t]))
	for name := range m.names[t] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns every type with at least one mark.
func (m *Marks) Types() []reflect.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]reflect.Type, 0, len(m.names))
	for t := range m.names {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
