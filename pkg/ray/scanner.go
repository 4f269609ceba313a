package ray

import (
	"fmt"
	"reflect"
)

// Scanner finds the marked methods of a type using the Marks side table.
type Scanner struct {
	marks *Marks
}

func NewScanner(marks *Marks) *Scanner {
	if marks == nil {
		marks = NewMarks()
	}
	return &Scanner{marks: marks}
}

// Scan returns the marked methods in t's method set. A method counts as
// marked when its name is marked on t or on any type embedded in t, at any
// depth. Descriptors always come from t, so an override and the method it
// shadows collapse into one entry.
//
// t must be a struct or a pointer to a struct. The result is not cached.
func (s *Scanner) Scan(t reflect.Type) (MethodSet, error) {
	if t == nil {
		return MethodSet{}, fmt.Errorf("%w: nil type", ErrIntrospection)
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return MethodSet{}, fmt.Errorf("%w: %v is a %s, not a struct", ErrIntrospection, t, base.Kind())
	}

	marked := make(map[string]struct{})
	s.collect(base, marked, make(map[reflect.Type]bool))

	// the pointer method set is a superset of the value one
	full := reflect.PointerTo(base)
	if t.Kind() != reflect.Pointer {
		full = t
	}

	var found []MethodDescriptor
	for i := 0; i < full.NumMethod(); i++ {
		m := full.Method(i)
		if _, ok := marked[m.Name]; ok {
			found = append(found, describeMethod(m, true))
		}
	}
	return NewMethodSet(found...), nil
}

func (s *Scanner) collect(t reflect.Type, marked map[string]struct{}, seen map[reflect.Type]bool) {
	if seen[t] {
		return
	}
	seen[t] = true

	for _, candidate := range []reflect.Type{t, reflect.PointerTo(t)} {
		for _, name := range s.marks.MarkedOn(candidate) {
			marked[name] = struct{}{}
		}
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			s.collect(ft, marked, seen)
		}
	}
}
