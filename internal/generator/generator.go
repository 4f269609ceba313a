package generator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/scanner"
	"github.com/toyz/ray/internal/templates"
	"github.com/toyz/ray/internal/utils"
)

// markerMethods are implemented by every proxy and cannot be forwarded
var markerMethods = map[string]bool{
	"RayProxy":      true,
	"Interceptor":   true,
	"DecoratedType": true,
	"Unwrap":        true,
}

// Generator implements the CodeGenerator interface
type Generator struct {
	templates *templates.TemplateRegistry
	aot       InitializerGenerator
	methods   MethodResolver
}

// NewGenerator creates a generator whose initializers capture the current
// time and working directory
func NewGenerator() *Generator {
	return NewGeneratorWithAot(NewAotGenerator())
}

// NewGeneratorWithAot creates a generator with a custom initializer generator
func NewGeneratorWithAot(aot InitializerGenerator) *Generator {
	return &Generator{templates: templates.NewTemplateRegistry(), aot: aot}
}

// WithMethodResolver lets proxies forward methods promoted by types embedded
// from other packages. Without one, proxying such a type fails.
func (g *Generator) WithMethodResolver(r MethodResolver) *Generator {
	g.methods = r
	return g
}

// build accumulates everything one generated file needs
type build struct {
	pkg      *models.PackageMetadata
	imports  *templates.ImportManager
	names    map[string]string // generated identifier -> what it was generated for
	header   templates.HeaderData
	register templates.RegisterData
	module   templates.ModuleData
	proxies  []templates.ProxyData
	inits    []models.GeneratedInitializer
	provides []templates.ProviderData
	typeVars map[string]string // type name -> variable name

	intercepted int
	proxied     []string
}

// GenerateModule renders autogen_ray.go for a package. Packages without any
// //ray:: annotation yield nil.
func (g *Generator) GenerateModule(pkg *models.PackageMetadata) (*models.GeneratedModule, error) {
	if pkg == nil {
		return nil, errors.New(errors.GenerationErrorCode, "package metadata cannot be nil")
	}
	if !pkg.HasAnnotations() {
		return nil, nil
	}

	b := &build{
		pkg:      pkg,
		imports:  templates.NewImportManager(),
		names:    make(map[string]string),
		typeVars: make(map[string]string),
		header:   templates.HeaderData{PackageName: pkg.PackageName},
		register: templates.RegisterData{PackageName: pkg.PackageName},
		module:   templates.ModuleData{PackageName: pkg.PackageName},
	}
	for _, reserved := range []string{"Register", ModuleVariable} {
		if err := b.claim(reserved, "the generated module"); err != nil {
			return nil, err
		}
	}
	if err := b.imports.AddNamed("ray", RayImportPath); err != nil {
		return nil, g.importConflict(pkg, err)
	}
	if err := b.imports.Add("go.uber.org/fx"); err != nil {
		return nil, g.importConflict(pkg, err)
	}

	if err := g.collectMarks(b); err != nil {
		return nil, err
	}

	failures := errors.NewMultipleErrors()
	for _, t := range pkg.ManagedTypes() {
		if err := g.collectManaged(b, t); err != nil {
			if re, ok := err.(errors.RayError); ok {
				failures.Add(re)
				continue
			}
			return nil, err
		}
	}
	if err := failures.ErrOrNil(); err != nil {
		return nil, err
	}

	source, err := g.render(b)
	if err != nil {
		return nil, err
	}

	filePath := filepath.Join(pkg.PackagePath, utils.GeneratedSourceFile)
	formatted, err := utils.FormatSource(filePath, []byte(source))
	if err != nil {
		return nil, err
	}

	return &models.GeneratedModule{
		PackageName:  pkg.PackageName,
		FilePath:     filePath,
		Content:      string(formatted),
		Proxies:      b.proxied,
		Interfaces:   b.proxyInterfaces(),
		Initializers: b.inits,
		Intercepted:  b.intercepted,
	}, nil
}

// collectMarks records every struct type that declares marked methods
func (g *Generator) collectMarks(b *build) error {
	for _, t := range b.pkg.Types {
		if !t.IsStruct() {
			continue
		}
		marked := t.MarkedMethods()
		if len(marked) == 0 {
			continue
		}
		names := make([]string, len(marked))
		for i, m := range marked {
			names[i] = m.Name
		}
		sort.Strings(names)

		typeVar, err := b.typeVar(t.Name)
		if err != nil {
			return err
		}
		b.register.Marks = append(b.register.Marks, templates.MarkData{TypeVar: typeVar, Names: names})
	}
	sort.Slice(b.register.Marks, func(i, j int) bool { return b.register.Marks[i].TypeVar < b.register.Marks[j].TypeVar })
	return nil
}

func (g *Generator) collectManaged(b *build, t models.TypeMetadata) error {
	if t.Aot {
		if err := g.aot.Validate(b.pkg, t); err != nil {
			return err
		}
		initializer, err := g.aot.Generate(t)
		if err != nil {
			return err
		}
		if err := b.claim(initializer.FunctionName, t.Name); err != nil {
			return err
		}
		typeVar, err := b.typeVar(t.Name)
		if err != nil {
			return err
		}
		if err := b.imports.Add("time"); err != nil {
			return g.importConflict(b.pkg, err)
		}
		b.inits = append(b.inits, *initializer)
		b.register.Substitutes = append(b.register.Substitutes, templates.SubstituteData{TypeVar: typeVar, InitName: initializer.FunctionName})
	}

	var proxy *templates.ProxyData
	var exposed []string
	if t.Managed && !t.Aot {
		var err error
		proxy, exposed, err = g.collectProxy(b, t)
		if err != nil {
			return err
		}
	}

	if !t.Managed {
		return g.collectAotProvider(b, t)
	}
	return g.collectProvider(b, t, proxy, exposed)
}

// collectProxy builds the forwarding wrapper of a managed type with marked
// methods. It returns nil when nothing in the type is marked.
func (g *Generator) collectProxy(b *build, t models.TypeMetadata) (*templates.ProxyData, []string, error) {
	res, err := scanner.Resolve(b.pkg, t.Name)
	if err != nil {
		return nil, nil, err
	}
	if scanner.Marked(res).IsEmpty() {
		return nil, nil, nil
	}
	if len(res.Foreign) > 0 && g.methods != nil {
		res, err = scanner.ResolveWith(b.pkg, t.Name, g.foreignLookup(b.pkg, t))
		if err != nil {
			return nil, nil, err
		}
	}
	marked := scanner.Marked(res)
	if len(res.Foreign) > 0 {
		names := make([]string, len(res.Foreign))
		for i, e := range res.Foreign {
			names[i] = embeddedName(e)
		}
		return nil, nil, errors.Newf(errors.GenerationErrorCode,
			"cannot proxy %s: methods promoted by embedded %s are unknown", t.Name, strings.Join(names, ", ")).
			WithLocation(locationOf(t.LocationTrait)).
			WithContext("embedded", strings.Join(names, ", ")).
			WithSuggestions(
				"Run the generator through the ray CLI, which type-checks embedded packages",
				"Or replace the embedded field with a named field",
			)
	}

	typeVar, err := b.typeVar(t.Name)
	if err != nil {
		return nil, nil, err
	}
	proxy := templates.ProxyData{
		TypeName:    t.Name,
		ProxyName:   unexportedName(t.Name) + "Proxy",
		FactoryName: "new" + exportedName(t.Name) + "Proxy",
		TypeVar:     typeVar,
	}
	if err := b.claim(proxy.ProxyName, t.Name); err != nil {
		return nil, nil, err
	}
	if err := b.claim(proxy.FactoryName, t.Name); err != nil {
		return nil, nil, err
	}

	var forwarded []models.Method
	for _, m := range res.Exported() {
		if markerMethods[m.Name] {
			return nil, nil, errors.Newf(errors.GenerationErrorCode,
				"%s.%s collides with a method every proxy implements", t.Name, m.Name).
				WithLocation(locationOf(m.LocationTrait)).
				WithSuggestion("Rename the method; RayProxy, Interceptor, DecoratedType and Unwrap are reserved on managed types")
		}
		if err := b.importsFor(m.Method); err != nil {
			return nil, nil, err
		}

		desc := "desc" + exportedName(t.Name) + m.Name
		if err := b.claim(desc, t.Name+"."+m.Name); err != nil {
			return nil, nil, err
		}
		b.header.Descriptors = append(b.header.Descriptors, templates.DescriptorVar{Name: desc, TypeVar: typeVar, Method: m.Name})

		params := make([]templates.Param, len(m.Params))
		for i, p := range m.Params {
			params[i] = templates.Param{Name: fmt.Sprintf("a%d", i), Type: p.Type}
		}
		proxy.Methods = append(proxy.Methods, templates.MethodData{
			Name:     m.Name,
			Desc:     desc,
			Params:   params,
			Returns:  m.Returns,
			Variadic: m.Variadic,
		})
		forwarded = append(forwarded, m.Method)
	}

	if err := b.imports.Add("fmt"); err != nil {
		return nil, nil, g.importConflict(b.pkg, err)
	}
	interfaces := b.pkg.ImplementedInterfaces(forwarded)

	b.proxies = append(b.proxies, proxy)
	b.proxied = append(b.proxied, t.Name)
	b.intercepted += marked.Len()
	b.register.Proxies = append(b.register.Proxies, templates.ProxyRegistration{
		TypeVar:     typeVar,
		FactoryName: proxy.FactoryName,
		Interfaces:  interfaces,
	})
	return &proxy, interfaces, nil
}

// foreignLookup resolves types t embeds from other packages, or returns nil
// when the generator has no resolver
func (g *Generator) foreignLookup(pkg *models.PackageMetadata, t models.TypeMetadata) scanner.ForeignLookup {
	if g.methods == nil {
		return nil
	}
	return func(field models.EmbeddedField) ([]models.Method, error) {
		methods, err := g.methods.PromotedMethods(pkg, field)
		if err != nil {
			return nil, errors.Wrapf(errors.GenerationErrorCode, err,
				"cannot resolve methods of %s embedded in %s", embeddedName(field), t.Name).
				WithLocation(locationOf(t.LocationTrait)).
				WithContext("embedded", embeddedName(field))
		}
		return methods, nil
	}
}

func embeddedName(e models.EmbeddedField) string {
	name := e.TypeName
	if e.Package != "" {
		name = e.Package + "." + name
	}
	if e.Pointer {
		name = "*" + name
	}
	return name
}

// collectProvider wires the constructor of a //ray::managed type into fx
func (g *Generator) collectProvider(b *build, t models.TypeMetadata, proxy *templates.ProxyData, interfaces []string) error {
	ctorName := t.EffectiveConstructor()
	loc := locationOf(t.LocationTrait)
	ctor, ok := b.pkg.FindFunction(ctorName)
	if !ok {
		return errors.Newf(errors.GenerationErrorCode, "constructor %s of %s not found in package %s",
			ctorName, t.Name, b.pkg.PackageName).
			WithLocation(loc).
			WithSuggestion("Declare func " + ctorName + "(...) *" + t.Name + " or name another one with -Constructor")
	}
	loc = locationOf(ctor.LocationTrait)
	if ctor.Variadic {
		return errors.Newf(errors.GenerationErrorCode, "constructor %s cannot be variadic", ctorName).WithLocation(loc)
	}

	returnsError := len(ctor.Returns) == 2 && ctor.Returns[1] == "error"
	if len(ctor.Returns) != 1 && !returnsError {
		return errors.Newf(errors.GenerationErrorCode, "constructor %s must return R or (R, error), has %s",
			ctorName, ctor.Signature()).WithLocation(loc)
	}
	result := ctor.Returns[0]
	resultIsInterface := b.isInterface(result)
	if result != "*"+t.Name && !resultIsInterface {
		return errors.Newf(errors.GenerationErrorCode, "constructor %s returns %s, want *%s or an interface",
			ctorName, result, t.Name).WithLocation(loc)
	}
	if err := b.importsFor(*ctor); err != nil {
		return err
	}

	funcName := "rayProvide" + exportedName(t.Name)
	if err := b.claim(funcName, t.Name); err != nil {
		return err
	}
	params := make([]templates.Param, len(ctor.Params))
	for i, p := range ctor.Params {
		params[i] = templates.Param{Name: fmt.Sprintf("a%d", i), Type: p.Type}
	}

	provider := templates.ProviderData{
		FuncName:     funcName,
		TypeName:     t.Name,
		BeanName:     t.EffectiveBeanName(),
		Constructor:  ctorName,
		Params:       params,
		ReturnsError: returnsError,
		ProvidedType: result,
	}
	binding := templates.Binding{Provider: funcName}

	if proxy != nil {
		provider.Proxy = proxy.ProxyName
		provider.ProvidedType = "*" + proxy.ProxyName
		switch {
		case resultIsInterface:
			binding.Interfaces = []string{result}
			b.addProxyInterface(result)
		case len(interfaces) > 0:
			binding.Interfaces = interfaces
		default:
			return errors.Newf(errors.GenerationErrorCode,
				"%s has intercepted methods but implements no interface of package %s", t.Name, b.pkg.PackageName).
				WithLocation(locationOf(t.LocationTrait)).
				WithSuggestion("Declare an interface with the methods callers need, or return one from " + ctorName)
		}
	}

	b.provides = append(b.provides, provider)
	b.module.Bindings = append(b.module.Bindings, binding)
	return nil
}

// collectAotProvider provides a //ray::aot type that is not managed: the
// zero value goes through the registry, which swaps in the initializer
func (g *Generator) collectAotProvider(b *build, t models.TypeMetadata) error {
	funcName := "rayProvide" + exportedName(t.Name)
	if err := b.claim(funcName, t.Name); err != nil {
		return err
	}
	b.provides = append(b.provides, templates.ProviderData{
		FuncName:     funcName,
		TypeName:     t.Name,
		BeanName:     t.EffectiveBeanName(),
		ProvidedType: "*" + t.Name,
		AotOnly:      true,
	})
	b.module.Bindings = append(b.module.Bindings, templates.Binding{Provider: funcName})
	return nil
}

func (g *Generator) render(b *build) (string, error) {
	b.header.Imports = b.imports.GenerateImports()
	sort.Slice(b.header.TypeVars, func(i, j int) bool { return b.header.TypeVars[i].Name < b.header.TypeVars[j].Name })

	var out strings.Builder
	section := func(name string, data interface{}) error {
		text, err := g.templates.Execute(name, data)
		if err != nil {
			return errors.WrapGenerateError(name, b.pkg.PackageName, err)
		}
		out.WriteString(text)
		return nil
	}

	if err := section(templates.HeaderTemplate, b.header); err != nil {
		return "", err
	}
	for _, proxy := range b.proxies {
		if err := section(templates.ProxyTemplate, proxy); err != nil {
			return "", err
		}
	}
	if err := section(templates.RegisterTemplate, b.register); err != nil {
		return "", err
	}
	for _, initializer := range b.inits {
		out.WriteString(initializer.Source)
	}
	for _, provider := range b.provides {
		if err := section(templates.ProviderTemplate, provider); err != nil {
			return "", err
		}
	}
	if err := section(templates.ModuleTemplate, b.module); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (g *Generator) importConflict(pkg *models.PackageMetadata, err error) error {
	return errors.Wrap(errors.GenerationErrorCode, "conflicting imports in package "+pkg.PackageName, err).
		WithSuggestion("Rename the import alias that shadows ray, fx, fmt, reflect or time")
}

// claim reserves a package-level identifier of the generated file
func (b *build) claim(name, owner string) error {
	if prev, ok := b.names[name]; ok {
		return errors.Newf(errors.GenerationErrorCode, "generated identifier %s is needed for both %s and %s", name, prev, owner)
	}
	if _, ok := b.pkg.FindType(name); ok {
		return errors.Newf(errors.GenerationErrorCode, "package %s already declares type %s, needed for %s", b.pkg.PackageName, name, owner).
			WithSuggestion("Rename " + name)
	}
	if _, ok := b.pkg.FindFunction(name); ok {
		return errors.Newf(errors.GenerationErrorCode, "package %s already declares func %s, needed for %s", b.pkg.PackageName, name, owner).
			WithSuggestion("Rename " + name)
	}
	b.names[name] = owner
	return nil
}

// typeVar returns the reflect.Type variable of a package type, declaring it
// on first use
func (b *build) typeVar(typeName string) (string, error) {
	if name, ok := b.typeVars[typeName]; ok {
		return name, nil
	}
	name := "type" + exportedName(typeName)
	if err := b.claim(name, typeName); err != nil {
		return "", err
	}
	if err := b.imports.Add("reflect"); err != nil {
		return "", errors.Wrap(errors.GenerationErrorCode, "conflicting imports in package "+b.pkg.PackageName, err)
	}
	b.typeVars[typeName] = name
	b.header.TypeVars = append(b.header.TypeVars, templates.TypeVar{Name: name, TypeName: typeName})
	return name, nil
}

// importsFor adds the packages a signature refers to
func (b *build) importsFor(m models.Method) error {
	for _, qualifier := range m.Packages {
		path, ok := m.ImportPaths[qualifier]
		if !ok {
			path, ok = b.pkg.Imports[qualifier]
		}
		if !ok {
			return errors.Newf(errors.GenerationErrorCode, "%s refers to package %s, which no file of %s imports",
				m.Name, qualifier, b.pkg.PackageName).WithLocation(locationOf(m.LocationTrait))
		}
		if err := b.imports.AddNamed(qualifier, path); err != nil {
			return errors.Wrap(errors.GenerationErrorCode, "conflicting imports in package "+b.pkg.PackageName, err).
				WithLocation(locationOf(m.LocationTrait))
		}
	}
	return nil
}

// isInterface reports whether a type expression names an interface: a
// package interface, or a qualified name, which ray assumes to be one
func (b *build) isInterface(typeExpr string) bool {
	if _, ok := b.pkg.FindInterface(typeExpr); ok {
		return true
	}
	return !strings.HasPrefix(typeExpr, "*") && strings.Contains(typeExpr, ".")
}

func (b *build) addProxyInterface(iface string) {
	last := &b.register.Proxies[len(b.register.Proxies)-1]
	for _, existing := range last.Interfaces {
		if existing == iface {
			return
		}
	}
	last.Interfaces = append(last.Interfaces, iface)
}

func (b *build) proxyInterfaces() map[string][]string {
	out := make(map[string][]string, len(b.proxies))
	for i, proxy := range b.proxies {
		out[proxy.TypeName] = b.register.Proxies[i].Interfaces
	}
	return out
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func unexportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
