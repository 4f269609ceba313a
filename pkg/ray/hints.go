package ray

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemberCategory names a group of members that must stay introspectable.
type MemberCategory string

const (
	Fields       MemberCategory = "fields"
	Methods      MemberCategory = "methods"
	Constructors MemberCategory = "constructors"
)

// AllMemberCategories returns every category in a stable order.
func AllMemberCategories() []MemberCategory {
	return []MemberCategory{Fields, Methods, Constructors}
}

type TypeHint struct {
	Type       string           `yaml:"type"`
	Categories []MemberCategory `yaml:"categories"`
}

// ProxyHint declares a proxy shape: the interfaces a generated proxy
// implements, marker interfaces last.
type ProxyHint struct {
	Interfaces []string `yaml:"interfaces"`
}

func (p ProxyHint) key() string {
	return strings.Join(p.Interfaces, "+")
}

// HintStore records which types and proxy shapes must survive ahead-of-time
// builds. It is an explicit value so independent runs never share state.
type HintStore struct {
	mu      sync.RWMutex
	types   map[string]map[MemberCategory]struct{}
	proxies map[string]ProxyHint
}

func NewHintStore() *HintStore {
	return &HintStore{
		types:   make(map[string]map[MemberCategory]struct{}),
		proxies: make(map[string]ProxyHint),
	}
}

// RegisterType records typeName with the given categories, merging with any
// earlier registration.
func (h *HintStore) RegisterType(typeName string, categories ...MemberCategory) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.types[typeName]
	if !ok {
		set = make(map[MemberCategory]struct{}, len(categories))
		h.types[typeName] = set
	}
	for _, c := range categories {
		set[c] = struct{}{}
	}
}

func (h *HintStore) RegisterProxy(interfaces ...string) {
	hint := ProxyHint{Interfaces: append([]string(nil), interfaces...)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.proxies[hint.key()] = hint
}

// Types returns a snapshot sorted by type name.
func (h *HintStore) Types() []TypeHint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]TypeHint, 0, len(h.types))
	for name, set := range h.types {
		hint := TypeHint{Type: name}
		for _, c := range AllMemberCategories() {
			if _, ok := set[c]; ok {
				hint.Categories = append(hint.Categories, c)
			}
		}
		out = append(out, hint)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Proxies returns a snapshot sorted by shape.
func (h *HintStore) Proxies() []ProxyHint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.proxies))
	for k := range h.proxies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ProxyHint, 0, len(keys))
	for _, k := range keys {
		out = append(out, h.proxies[k])
	}
	return out
}

func (h *HintStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.types)
}

// HasType reports whether typeName was registered.
func (h *HintStore) HasType(typeName string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.types[typeName]
	return ok
}

type hintDocument struct {
	Types   []TypeHint  `yaml:"types"`
	Proxies []ProxyHint `yaml:"proxies"`
}

func (h *HintStore) MarshalYAML() (interface{}, error) {
	return hintDocument{Types: h.Types(), Proxies: h.Proxies()}, nil
}

// WriteFile writes the store as YAML to path.
func (h *HintStore) WriteFile(path string) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode hints: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write hints to %s: %w", path, err)
	}
	return nil
}

// ReadHintFile loads a store previously written by WriteFile.
func ReadHintFile(path string) (*HintStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hints from %s: %w", path, err)
	}

	var doc hintDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode hints: %w", err)
	}

	store := NewHintStore()
	for _, t := range doc.Types {
		store.RegisterType(t.Type, t.Categories...)
	}
	for _, p := range doc.Proxies {
		store.RegisterProxy(p.Interfaces...)
	}
	return store, nil
}

// ProxyMarkerNames returns the names of the three proxy marker interfaces.
func ProxyMarkerNames() []string {
	markers := ProxyMarkers()
	names := make([]string, 0, len(markers))
	for _, m := range markers {
		names = append(names, m.String())
	}
	return names
}

// RegisterHints records typeName, each of its interfaces and the proxy
// marker interfaces as fully introspectable, plus the proxy shape
// interfaces+markers. Registering the same type again changes nothing.
func RegisterHints(store *HintStore, typeName string, interfaces []string) {
	all := AllMemberCategories()
	store.RegisterType(typeName, all...)
	for _, iface := range interfaces {
		store.RegisterType(iface, all...)
	}

	markers := ProxyMarkerNames()
	for _, m := range markers {
		store.RegisterType(m, all...)
	}

	shape := make([]string, 0, len(interfaces)+len(markers))
	shape = append(shape, interfaces...)
	shape = append(shape, markers...)
	store.RegisterProxy(shape...)
}
