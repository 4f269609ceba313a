package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template names
const (
	HeaderTemplate         = "header"
	ProxyTemplate          = "proxy"
	RegisterTemplate       = "register"
	AotInitializerTemplate = "aot-initializer"
	ProviderTemplate       = "provider"
	ModuleTemplate         = "module"
	SubclassTemplate       = "subclass"
)

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]*template.Template
}

// NewTemplateRegistry parses every template once
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{templates: make(map[string]*template.Template)}

	registry.register(HeaderTemplate, headerTemplate)
	registry.register(ProxyTemplate, proxyTemplate)
	registry.register(RegisterTemplate, registerTemplate)
	registry.register(AotInitializerTemplate, aotInitializerTemplate)
	registry.register(ProviderTemplate, providerTemplate)
	registry.register(ModuleTemplate, moduleTemplate)
	registry.register(SubclassTemplate, subclassTemplate)

	return registry
}

func (tr *TemplateRegistry) register(name, text string) {
	tr.templates[name] = template.Must(template.New(name).Funcs(template.FuncMap{
		"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	}).Parse(text))
}

// Has reports whether a template with the given name exists
func (tr *TemplateRegistry) Has(name string) bool {
	_, ok := tr.templates[name]
	return ok
}

// Execute renders the named template with data
func (tr *TemplateRegistry) Execute(name string, data interface{}) (string, error) {
	tmpl, ok := tr.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

const headerTemplate = `// Code generated by ray. DO NOT EDIT.

package {{.PackageName}}

{{.Imports}}
{{- if or .TypeVars .Descriptors}}
var (
{{- range .TypeVars}}
	{{.Name}} = reflect.TypeOf((*{{.TypeName}})(nil))
{{- end}}
{{- range .Descriptors}}
	{{.Name}} = ray.MustDescribe({{.TypeVar}}, {{quote .Method}})
{{- end}}
)
{{- end}}
`

const proxyTemplate = `
// {{.ProxyName}} routes every exported method of *{{.TypeName}} through its interceptor.
type {{.ProxyName}} struct {
	target *{{.TypeName}}
	ic     *ray.Interceptor
}

func {{.FactoryName}}(target any, ic *ray.Interceptor) (any, error) {
	t, ok := target.(*{{.TypeName}})
	if !ok {
		return nil, fmt.Errorf("ray: expected *{{.TypeName}}, got %T", target)
	}
	return &{{.ProxyName}}{target: t, ic: ic}, nil
}
{{range .Methods}}
func (p *{{$.ProxyName}}) {{.Name}}({{.ParamList}}){{.ResultList}} {
{{- range .Results}}
	var {{.Name}} {{.Type}}
{{- end}}
	_ = p.ic.Invoke({{.Desc}}, func() error {
		{{if .HasResults}}{{.ResultVars}} = {{end}}p.target.{{.Name}}({{.Args}})
		return {{.ErrorVar}}
	})
{{- if .HasResults}}
	return {{.ResultVars}}
{{- end}}
}
{{end}}
func (p *{{.ProxyName}}) RayProxy() {}

func (p *{{.ProxyName}}) Interceptor() *ray.Interceptor { return p.ic }

func (p *{{.ProxyName}}) DecoratedType() reflect.Type { return {{.TypeVar}} }

func (p *{{.ProxyName}}) Unwrap() any { return p.target }
`

const registerTemplate = `
// Register records the marked methods, proxy factories and ahead-of-time
// initializers of package {{.PackageName}} in reg.
func Register(reg *ray.Registry) {
{{- range .Marks}}
	reg.Mark({{.TypeVar}}{{range .Names}}, {{quote .}}{{end}})
{{- end}}
{{- range .Proxies}}
	reg.RegisterProxy({{.TypeVar}}, {{.FactoryName}}{{range .Interfaces}}, ray.TypeOf[{{.}}](){{end}})
{{- end}}
{{- range .Substitutes}}
	reg.Substitute({{.TypeVar}}, {{.InitName}})
{{- end}}
}
`

const aotInitializerTemplate = `
// {{.FunctionName}} builds {{.TypeName}} from what was known when this file was generated.
func {{.FunctionName}}(reg *ray.Registration, prev any) any {
	return {{.Constructor}}(ray.BuildInfo{
		Timestamp: time.UnixMilli({{.TimestampMillis}}),
		Directory: {{quote .Directory}},
	})
}
`

const providerTemplate = `
func {{.FuncName}}(reg *ray.Registry{{.ParamList}}) ({{.ProvidedType}}, error) {
{{- if .AotOnly}}
	return ray.Process(reg, {{quote .BeanName}}, new({{.TypeName}}))
{{- else}}
{{- if .ReturnsError}}
	obj, err := {{.Constructor}}({{.Args}})
	if err != nil {
		return nil, err
	}
{{- else}}
	obj := {{.Constructor}}({{.Args}})
{{- end}}
{{- if .Proxy}}
	processed, err := reg.PostProcess({{quote .BeanName}}, obj)
	if err != nil {
		return nil, err
	}
	proxy, ok := processed.(*{{.Proxy}})
	if !ok {
		return nil, fmt.Errorf("ray: %s was processed into %T, want *{{.Proxy}}", {{quote .BeanName}}, processed)
	}
	return proxy, nil
{{- else}}
	return ray.Process(reg, {{quote .BeanName}}, obj)
{{- end}}
{{- end}}
}
`

const moduleTemplate = `
// AutogenModule provides the managed objects of package {{.PackageName}} to fx.
var AutogenModule = fx.Module({{quote .PackageName}},
{{- if .Bindings}}
	fx.Decorate(func(reg *ray.Registry) *ray.Registry {
		Register(reg)
		return reg
	}),
	fx.Provide(
{{- range .Bindings}}
		{{.Expression}},
{{- end}}
	),
{{- else}}
	fx.Invoke(Register),
{{- end}}
)
`

const subclassTemplate = `// Code generated by ray synth. DO NOT EDIT.

package {{.PackageName}}
{{if .Imports}}
{{.Imports}}{{end}}
// {{.Name}} embeds *{{.TypeName}} and overrides each of its exported methods.
type {{.Name}} struct {
	*{{.TypeName}}
}
{{range .Methods}}
func (s *{{$.Name}}) {{.Name}}({{.ParamList}}){{.ResultList}} {
	{{if .HasResults}}return {{end}}s.{{$.TypeName}}.{{.Name}}({{.Args}})
}
{{end}}`
