package ray

import (
	"fmt"
	"reflect"
	"strings"
)

// MethodDescriptor identifies a method by name, ordered parameter types and
// ordered return types. Receivers are never part of a descriptor.
type MethodDescriptor struct {
	Name    string
	Params  []string
	Returns []string
}

// Key returns the canonical form used for equality and set membership.
func (d MethodDescriptor) Key() string {
	return d.Name + "(" + strings.Join(d.Params, ",") + ")(" + strings.Join(d.Returns, ",") + ")"
}

func (d MethodDescriptor) String() string {
	s := d.Name + "(" + strings.Join(d.Params, ", ") + ")"
	switch len(d.Returns) {
	case 0:
		return s
	case 1:
		return s + " " + d.Returns[0]
	default:
		return s + " (" + strings.Join(d.Returns, ", ") + ")"
	}
}

// Matches reports whether a and b describe the same logical operation.
// Name, parameter types and return types must all be identical; no
// covariance or variadic normalization is applied.
func Matches(a, b MethodDescriptor) bool {
	if a.Name != b.Name {
		return false
	}
	return equalTypes(a.Params, b.Params) && equalTypes(a.Returns, b.Returns)
}

func equalTypes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Describe builds the descriptor of the named method in t's method set.
func Describe(t reflect.Type, name string) (MethodDescriptor, bool) {
	if t == nil {
		return MethodDescriptor{}, false
	}
	m, ok := t.MethodByName(name)
	if !ok {
		return MethodDescriptor{}, false
	}
	return describeMethod(m, t.Kind() != reflect.Interface), true
}

// MustDescribe is Describe for package-level initialization in generated code.
func MustDescribe(t reflect.Type, name string) MethodDescriptor {
	d, ok := Describe(t, name)
	if !ok {
		panic(fmt.Sprintf("ray: %v has no method %q", t, name))
	}
	return d
}

// describeMethod converts a reflect.Method; concrete method types carry the
// receiver as their first input, interface method types do not.
func describeMethod(m reflect.Method, hasReceiver bool) MethodDescriptor {
	ft := m.Type
	start := 0
	if hasReceiver {
		start = 1
	}

	d := MethodDescriptor{Name: m.Name}
	for i := start; i < ft.NumIn(); i++ {
		in := ft.In(i)
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			d.Params = append(d.Params, "..."+in.Elem().String())
			continue
		}
		d.Params = append(d.Params, in.String())
	}
	for i := 0; i < ft.NumOut(); i++ {
		d.Returns = append(d.Returns, ft.Out(i).String())
	}
	return d
}

// MethodSet is an immutable, de-duplicated set of descriptors that keeps
// insertion order.
type MethodSet struct {
	descriptors []MethodDescriptor
	index       map[string]struct{}
}

// NewMethodSet builds a set, dropping descriptors whose key was already seen.
func NewMethodSet(ds ...MethodDescriptor) MethodSet {
	set := MethodSet{index: make(map[string]struct{}, len(ds))}
	for _, d := range ds {
		key := d.Key()
		if _, seen := set.index[key]; seen {
			continue
		}
		set.index[key] = struct{}{}
		set.descriptors = append(set.descriptors, d)
	}
	return set
}

// Contains reports whether any member matches d.
func (s MethodSet) Contains(d MethodDescriptor) bool {
	for _, m := range s.descriptors {
		if Matches(m, d) {
			return true
		}
	}
	return false
}

func (s MethodSet) Len() int {
	return len(s.descriptors)
}

func (s MethodSet) IsEmpty() bool {
	return len(s.descriptors) == 0
}

// Descriptors returns a copy of the members in insertion order.
func (s MethodSet) Descriptors() []MethodDescriptor {
	out := make([]MethodDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

func (s MethodSet) Names() []string {
	names := make([]string, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		names = append(names, d.Name)
	}
	return names
}
