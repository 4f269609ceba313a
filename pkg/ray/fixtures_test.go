package ray

import (
	"errors"
	"fmt"
	"reflect"
)

type greeter interface {
	English() string
	Chinese() string
}

type failer interface {
	Fail(reason string) (int, error)
	Explode()
}

type greetings struct {
	calls []string
}

func (g *greetings) English() string {
	g.calls = append(g.calls, "english")
	return "yo"
}

func (g *greetings) Chinese() string {
	g.calls = append(g.calls, "chinese")
	return "ni hao"
}

func (g *greetings) Fail(reason string) (int, error) {
	if reason == "" {
		return 1, nil
	}
	return 0, errors.New(reason)
}

func (g *greetings) Explode() {
	panic("boom")
}

type loudGreetings struct {
	*greetings
}

func (l *loudGreetings) English() string {
	return "YO"
}

type plain struct{}

func (plain) Hello() string { return "hello" }

var (
	greetingsType    = reflect.TypeOf((*greetings)(nil))
	greetingsEnglish = MustDescribe(greetingsType, "English")
	greetingsChinese = MustDescribe(greetingsType, "Chinese")
	greetingsFail    = MustDescribe(greetingsType, "Fail")
	greetingsExplode = MustDescribe(greetingsType, "Explode")
)

// greetingsProxy has the shape the generator emits.
type greetingsProxy struct {
	target *greetings
	ic     *Interceptor
}

func newGreetingsProxy(target any, ic *Interceptor) (any, error) {
	t, ok := target.(*greetings)
	if !ok {
		return nil, fmt.Errorf("ray: expected *greetings, got %T", target)
	}
	return &greetingsProxy{target: t, ic: ic}, nil
}

func (p *greetingsProxy) English() string {
	var r0 string
	_ = p.ic.Invoke(greetingsEnglish, func() error {
		r0 = p.target.English()
		return nil
	})
	return r0
}

func (p *greetingsProxy) Chinese() string {
	var r0 string
	_ = p.ic.Invoke(greetingsChinese, func() error {
		r0 = p.target.Chinese()
		return nil
	})
	return r0
}

func (p *greetingsProxy) Fail(reason string) (int, error) {
	var r0 int
	var r1 error
	_ = p.ic.Invoke(greetingsFail, func() error {
		r0, r1 = p.target.Fail(reason)
		return r1
	})
	return r0, r1
}

func (p *greetingsProxy) Explode() {
	_ = p.ic.Invoke(greetingsExplode, func() error {
		p.target.Explode()
		return nil
	})
}

func (p *greetingsProxy) RayProxy()                   {}
func (p *greetingsProxy) Interceptor() *Interceptor   { return p.ic }
func (p *greetingsProxy) DecoratedType() reflect.Type { return greetingsType }
func (p *greetingsProxy) Unwrap() any                 { return p.target }
