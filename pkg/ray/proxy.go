package ray

import "reflect"

// Proxy tags every generated proxy.
type Proxy interface {
	RayProxy()
}

// Advised exposes the interceptor a proxy routes through.
type Advised interface {
	Interceptor() *Interceptor
}

// Decorating exposes the object a proxy stands in for.
type Decorating interface {
	DecoratedType() reflect.Type
	Unwrap() any
}

// ProxyMarkers returns the three interfaces every proxy implements on top
// of its target's interfaces, in a fixed order.
func ProxyMarkers() []reflect.Type {
	return []reflect.Type{
		TypeOf[Proxy](),
		TypeOf[Advised](),
		TypeOf[Decorating](),
	}
}

// ProxyFactory wraps target in a forwarding proxy that routes through ic.
type ProxyFactory func(target any, ic *Interceptor) (any, error)

// Unwrap follows Decorating proxies down to the innermost target.
func Unwrap(v any) any {
	for {
		d, ok := v.(Decorating)
		if !ok {
			return v
		}
		inner := d.Unwrap()
		if inner == nil || (reflect.TypeOf(inner).Comparable() && reflect.TypeOf(v).Comparable() && inner == v) {
			return v
		}
		v = inner
	}
}

// IsProxy reports whether v was produced by a ProxyFactory.
func IsProxy(v any) bool {
	_, ok := v.(Proxy)
	return ok
}
