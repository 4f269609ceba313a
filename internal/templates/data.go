package templates

import (
	"fmt"
	"strings"
)

// Param is a named parameter of a generated function
type Param struct {
	Name string
	Type string
}

// MethodData describes one forwarding method of a proxy
type MethodData struct {
	Name     string
	Desc     string // descriptor variable the interceptor decides on
	Params   []Param
	Returns  []string
	Variadic bool
}

// ParamList renders "a0 string, a1 ...int"
func (m MethodData) ParamList() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = p.Name + " " + p.Type
	}
	return strings.Join(parts, ", ")
}

// Args renders the call arguments, spreading a trailing variadic parameter
func (m MethodData) Args() string {
	return callArgs(m.Params, m.Variadic)
}

// ResultList renders the result clause including its leading space
func (m MethodData) ResultList() string {
	switch len(m.Returns) {
	case 0:
		return ""
	case 1:
		return " " + m.Returns[0]
	}
	return " (" + strings.Join(m.Returns, ", ") + ")"
}

// Results names every result r0, r1, ...
func (m MethodData) Results() []Param {
	out := make([]Param, len(m.Returns))
	for i, r := range m.Returns {
		out[i] = Param{Name: fmt.Sprintf("r%d", i), Type: r}
	}
	return out
}

func (m MethodData) HasResults() bool {
	return len(m.Returns) > 0
}

// ResultVars renders "r0, r1"
func (m MethodData) ResultVars() string {
	results := m.Results()
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

// ErrorVar is what the interceptor callback returns: the trailing error
// result when there is one, nil otherwise
func (m MethodData) ErrorVar() string {
	if n := len(m.Returns); n > 0 && m.Returns[n-1] == "error" {
		return fmt.Sprintf("r%d", n-1)
	}
	return "nil"
}

// ProxyData describes the proxy of one managed type
type ProxyData struct {
	TypeName    string
	ProxyName   string
	FactoryName string
	TypeVar     string
	Methods     []MethodData
}

// TypeVar is a package-level reflect.Type variable
type TypeVar struct {
	Name     string
	TypeName string
}

// DescriptorVar is a package-level ray.MethodDescriptor variable
type DescriptorVar struct {
	Name    string
	TypeVar string
	Method  string
}

// MarkData lists the names marked directly on one type
type MarkData struct {
	TypeVar string
	Names   []string
}

// ProxyRegistration binds a proxy factory to the type it wraps
type ProxyRegistration struct {
	TypeVar     string
	FactoryName string
	Interfaces  []string
}

// SubstituteData binds an ahead-of-time initializer to its type
type SubstituteData struct {
	TypeVar  string
	InitName string
}

// RegisterData is the input of the Register function template
type RegisterData struct {
	PackageName string
	Marks       []MarkData
	Proxies     []ProxyRegistration
	Substitutes []SubstituteData
}

// AotData is the input of the ahead-of-time initializer template
type AotData struct {
	FunctionName    string
	TypeName        string
	Constructor     string
	TimestampMillis int64
	Directory       string
}

// ProviderData describes the fx constructor generated for one managed type
type ProviderData struct {
	FuncName     string
	TypeName     string
	BeanName     string
	Constructor  string
	Params       []Param
	Variadic     bool
	ReturnsError bool
	ProvidedType string
	Proxy        string // proxy struct name when the type is proxied
	AotOnly      bool   // built with new(T) and replaced by its initializer
}

// ParamList renders the provider parameters after the registry
func (p ProviderData) ParamList() string {
	var b strings.Builder
	for _, param := range p.Params {
		b.WriteString(", " + param.Name + " " + param.Type)
	}
	return b.String()
}

// Args renders the constructor call arguments
func (p ProviderData) Args() string {
	return callArgs(p.Params, p.Variadic)
}

// Binding is one entry of the fx.Provide list of the generated module
type Binding struct {
	Provider   string
	Self       bool     // keep the provider's own result type
	Interfaces []string // types exposed through fx.As
}

// Expression renders the provider, annotated when it is exposed as other types
func (b Binding) Expression() string {
	if len(b.Interfaces) == 0 {
		return b.Provider
	}
	parts := []string{b.Provider}
	if b.Self {
		parts = append(parts, "fx.As(fx.Self())")
	}
	for _, iface := range b.Interfaces {
		parts = append(parts, "fx.As(new("+iface+"))")
	}
	return "fx.Annotate(" + strings.Join(parts, ", ") + ")"
}

// ModuleData is the input of the fx module template
type ModuleData struct {
	PackageName string
	Bindings    []Binding
}

// HeaderData is the input of the file header template
type HeaderData struct {
	PackageName string
	Imports     string
	TypeVars    []TypeVar
	Descriptors []DescriptorVar
}

// SubclassData is the input of the subclass template
type SubclassData struct {
	PackageName string
	Imports     string
	TypeName    string // embedded type
	Name        string // synthesized type
	Methods     []MethodData
}

func callArgs(params []Param, variadic bool) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	if variadic && len(names) > 0 {
		names[len(names)-1] += "..."
	}
	return strings.Join(names, ", ")
}
