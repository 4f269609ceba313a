package ray

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNullCollaborator is returned when a required dependency or managed
	// object is nil.
	ErrNullCollaborator = errors.New("ray: required collaborator is nil")

	// ErrIntrospection is returned when a type cannot be scanned for marks.
	ErrIntrospection = errors.New("ray: type cannot be introspected")

	// ErrNoProxyFactory is returned when a type has marked methods but no
	// proxy factory was registered for it.
	ErrNoProxyFactory = errors.New("ray: no proxy factory registered")

	// ErrProxyShape is returned when a processed object no longer satisfies
	// the type it was requested as.
	ErrProxyShape = errors.New("ray: processed object does not satisfy requested type")
)

// RequireNonNil fails with ErrNullCollaborator when v is nil, including a
// typed nil pointer, map, slice, func, chan or interface.
func RequireNonNil(name string, v any) error {
	if isNil(v) {
		return fmt.Errorf("%w: %s", ErrNullCollaborator, name)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
