package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/toyz/ray/internal/annotations"
	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/utils"
)

// Parser implements the AnnotationParser interface
type Parser struct {
	fileSet     *token.FileSet
	annotations *annotations.ParticipleParser
}

// NewParser creates a new annotation parser
func NewParser() *Parser {
	return &Parser{
		fileSet:     token.NewFileSet(),
		annotations: annotations.NewParticipleParser(nil),
	}
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source string) (*models.PackageMetadata, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, errors.WrapParseError(filename, err)
	}
	return p.build(file.Name.Name, "./", map[string]*ast.File{filename: file})
}

// ParseDirectory parses the non-test Go files of one package directory
func (p *Parser) ParseDirectory(path string) (*models.PackageMetadata, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	byPackage := make(map[string]map[string]*ast.File)
	for _, entry := range entries {
		if entry.IsDir() || !utils.IsSourceFile(entry.Name()) {
			continue
		}
		fileName := filepath.Join(path, entry.Name())
		file, err := parser.ParseFile(p.fileSet, fileName, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.WrapParseError(fileName, err)
		}
		name := file.Name.Name
		if byPackage[name] == nil {
			byPackage[name] = make(map[string]*ast.File)
		}
		byPackage[name][fileName] = file
	}

	// We expect only one package per directory
	if len(byPackage) == 0 {
		return nil, errors.Newf(errors.FileSystemErrorCode, "no Go packages found in directory %s", path)
	}
	if len(byPackage) > 1 {
		return nil, errors.Newf(errors.FileSystemErrorCode, "multiple packages found in directory %s", path)
	}

	for name, files := range byPackage {
		return p.build(name, path, files)
	}
	return nil, nil
}

// pass holds the state of one package parse
type pass struct {
	metadata  *models.PackageMetadata
	typeIndex map[string]int
	embeds    map[string][]string // interface name -> embedded interface names
	errs      *errors.MultipleErrors
}

func (p *Parser) build(packageName, path string, files map[string]*ast.File) (*models.PackageMetadata, error) {
	metadata := &models.PackageMetadata{
		PackageName: packageName,
		PackagePath: path,
		Imports:     make(map[string]string),
	}
	for fileName := range files {
		metadata.FileNames = append(metadata.FileNames, fileName)
	}
	sort.Strings(metadata.FileNames)

	ps := &pass{
		metadata:  metadata,
		typeIndex: make(map[string]int),
		embeds:    make(map[string][]string),
		errs:      errors.NewMultipleErrors(),
	}

	// First pass: imports and type declarations
	for _, fileName := range metadata.FileNames {
		file := files[fileName]
		p.collectImports(ps, file)
		for _, decl := range file.Decls {
			if gen, ok := decl.(*ast.GenDecl); ok && gen.Tok == token.TYPE {
				p.collectTypes(ps, gen, fileName)
			}
		}
	}

	// Second pass: methods, which may live in a different file than their type
	for _, fileName := range metadata.FileNames {
		for _, decl := range files[fileName].Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv == nil || len(fn.Recv.List) == 0 {
				p.rejectFunctionAnnotations(ps, fn, fileName)
				if fn.Type.TypeParams == nil {
					function := p.signature(fn.Name.Name, fn.Type, fileName)
					function.LocationTrait = p.locationOf(fn.Pos(), fileName)
					metadata.Functions = append(metadata.Functions, function)
				}
				continue
			}
			p.collectMethod(ps, fn, fileName)
		}
	}

	flattenInterfaces(metadata, ps.embeds)

	if err := ps.errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return metadata, nil
}

func (p *Parser) collectImports(ps *pass, file *ast.File) {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := models.ImportName(path)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		if _, exists := ps.metadata.Imports[name]; !exists {
			ps.metadata.Imports[name] = path
		}
	}
}

func (p *Parser) collectTypes(ps *pass, gen *ast.GenDecl, fileName string) {
	for _, spec := range gen.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		doc := typeSpec.Doc
		if doc == nil && len(gen.Specs) == 1 {
			doc = gen.Doc
		}

		metadata := models.TypeMetadata{
			Name:          typeSpec.Name.Name,
			LocationTrait: p.locationOf(typeSpec.Pos(), fileName),
		}

		switch t := typeSpec.Type.(type) {
		case *ast.StructType:
			if typeSpec.Assign.IsValid() {
				metadata.Kind = models.TypeKindOther
				break
			}
			metadata.Kind = models.TypeKindStruct
			metadata.Embedded = embeddedFields(t)
		case *ast.InterfaceType:
			metadata.Kind = models.TypeKindInterface
			ps.metadata.Interfaces = append(ps.metadata.Interfaces, p.interfaceFrom(ps, typeSpec.Name.Name, t, fileName))
		default:
			metadata.Kind = models.TypeKindOther
		}

		for _, ann := range p.annotationsIn(ps, doc, typeSpec.Name.Name) {
			p.applyTypeAnnotation(ps, &metadata, ann, typeSpec.TypeParams != nil)
		}

		ps.typeIndex[metadata.Name] = len(ps.metadata.Types)
		ps.metadata.Types = append(ps.metadata.Types, metadata)
	}
}

func (p *Parser) applyTypeAnnotation(ps *pass, t *models.TypeMetadata, ann *annotations.ParsedAnnotation, generic bool) {
	loc := toLocation(ann.Location)

	if ann.Type.AppliesToMethods() {
		ps.errs.Add(errors.ValidationFailure(loc, "//ray::%s applies to methods, found on type %s", ann.Type, t.Name).
			WithSuggestion("Move the marker onto the methods of " + t.Name + " that should be intercepted"))
		return
	}
	if ann.Type == annotations.FinalAnnotation {
		t.Final = true
		return
	}

	if t.Kind != models.TypeKindStruct {
		ps.errs.Add(errors.ValidationFailure(loc, "//ray::%s requires a struct type, %s has kind %s", ann.Type, t.Name, t.Kind))
		return
	}
	if generic {
		ps.errs.Add(errors.ValidationFailure(loc, "//ray::%s does not support generic type %s", ann.Type, t.Name))
		return
	}

	switch ann.Type {
	case annotations.ManagedAnnotation:
		t.Managed = true
		if ann.HasParameter(ParamName) {
			t.BeanName = ann.GetString(ParamName)
		}
		if ann.HasParameter(ParamConstructor) {
			t.Constructor = ann.GetString(ParamConstructor)
		}
	case annotations.AotAnnotation:
		t.Aot = true
		t.AotConstructor = ann.GetString(ParamConstructor)
	}
}

func embeddedFields(st *ast.StructType) []models.EmbeddedField {
	var fields []models.EmbeddedField
	if st.Fields == nil {
		return fields
	}
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		expr := field.Type
		embedded := models.EmbeddedField{}
		if star, ok := expr.(*ast.StarExpr); ok {
			embedded.Pointer = true
			expr = star.X
		}
		switch e := baseTypeExpr(expr).(type) {
		case *ast.Ident:
			embedded.TypeName = e.Name
		case *ast.SelectorExpr:
			embedded.TypeName = e.Sel.Name
			if pkg, ok := e.X.(*ast.Ident); ok {
				embedded.Package = pkg.Name
			}
		default:
			continue
		}
		fields = append(fields, embedded)
	}
	return fields
}

// baseTypeExpr strips type arguments from an instantiated generic type
func baseTypeExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.IndexExpr:
		return e.X
	case *ast.IndexListExpr:
		return e.X
	}
	return expr
}

func (p *Parser) interfaceFrom(ps *pass, name string, it *ast.InterfaceType, fileName string) models.InterfaceMetadata {
	iface := models.InterfaceMetadata{
		Name:          name,
		LocationTrait: p.locationOf(it.Pos(), fileName),
	}
	if it.Methods == nil {
		return iface
	}
	for _, field := range it.Methods.List {
		if len(field.Names) > 0 {
			if ft, ok := field.Type.(*ast.FuncType); ok {
				iface.Methods = append(iface.Methods, p.signature(field.Names[0].Name, ft, fileName))
			}
			continue
		}
		switch e := field.Type.(type) {
		case *ast.Ident:
			ps.embeds[name] = append(ps.embeds[name], e.Name)
		default:
			// foreign interfaces and type-set constraints
			iface.Opaque = true
		}
	}
	return iface
}

func (p *Parser) collectMethod(ps *pass, fn *ast.FuncDecl, fileName string) {
	receiver := fn.Recv.List[0].Type
	pointer := false
	if star, ok := receiver.(*ast.StarExpr); ok {
		pointer = true
		receiver = star.X
	}
	ident, ok := baseTypeExpr(receiver).(*ast.Ident)
	if !ok {
		return
	}
	idx, known := ps.typeIndex[ident.Name]
	if !known {
		return
	}

	method := p.signature(fn.Name.Name, fn.Type, fileName)
	method.LocationTrait = p.locationOf(fn.Pos(), fileName)
	method.PointerReceiver = pointer

	target := ident.Name + "." + fn.Name.Name
	for _, ann := range p.annotationsIn(ps, fn.Doc, target) {
		loc := toLocation(ann.Location)
		switch {
		case !ann.Type.AppliesToMethods():
			ps.errs.Add(errors.ValidationFailure(loc, "//ray::%s applies to types, found on method %s", ann.Type, target))
		case !fn.Name.IsExported():
			ps.errs.Add(errors.ValidationFailure(loc, "only exported methods can be intercepted, %s is unexported", target).
				WithSuggestion("Export the method or remove //ray::intercept"))
		default:
			method.Marked = true
		}
	}

	ps.metadata.Types[idx].Methods = append(ps.metadata.Types[idx].Methods, method)
}

func (p *Parser) rejectFunctionAnnotations(ps *pass, fn *ast.FuncDecl, fileName string) {
	for _, ann := range p.annotationsIn(ps, fn.Doc, fn.Name.Name) {
		ps.errs.Add(errors.ValidationFailure(toLocation(ann.Location),
			"//ray::%s cannot annotate function %s", ann.Type, fn.Name.Name).
			WithSuggestion("Annotations belong on type declarations and their methods"))
	}
}

// signature converts a function type into a method description; receiver
// details are filled in by the caller
func (p *Parser) signature(name string, ft *ast.FuncType, fileName string) models.Method {
	method := models.Method{Name: name}
	packages := make(map[string]struct{})

	if ft.Params != nil {
		for _, field := range ft.Params.List {
			typ := p.getTypeString(field.Type)
			if _, ok := field.Type.(*ast.Ellipsis); ok {
				method.Variadic = true
			}
			collectQualifiers(field.Type, packages)
			if len(field.Names) == 0 {
				method.Params = append(method.Params, models.Parameter{Type: typ})
				continue
			}
			for _, n := range field.Names {
				method.Params = append(method.Params, models.Parameter{Name: n.Name, Type: typ})
			}
		}
	}

	if ft.Results != nil {
		for _, field := range ft.Results.List {
			typ := p.getTypeString(field.Type)
			collectQualifiers(field.Type, packages)
			count := len(field.Names)
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				method.Returns = append(method.Returns, typ)
			}
		}
	}

	for pkg := range packages {
		method.Packages = append(method.Packages, pkg)
	}
	sort.Strings(method.Packages)
	return method
}

func collectQualifiers(expr ast.Expr, into map[string]struct{}) {
	ast.Inspect(expr, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if pkg, ok := sel.X.(*ast.Ident); ok {
				into[pkg.Name] = struct{}{}
			}
			return false
		}
		return true
	})
}

// getTypeString converts an AST type expression to its source form
func (p *Parser) getTypeString(expr ast.Expr) string {
	return types.ExprString(expr)
}

func (p *Parser) annotationsIn(ps *pass, doc *ast.CommentGroup, target string) []*annotations.ParsedAnnotation {
	if doc == nil {
		return nil
	}
	var parsed []*annotations.ParsedAnnotation
	for _, comment := range doc.List {
		if !annotations.IsAnnotation(comment.Text) {
			continue
		}
		pos := p.fileSet.Position(comment.Pos())
		loc := annotations.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
		ann, err := p.annotations.ParseAnnotation(comment.Text, loc)
		if err != nil {
			for _, failure := range annotationFailures(err) {
				ps.errs.Add(failure)
			}
			continue
		}
		ann.Target = target
		parsed = append(parsed, ann)
	}
	return parsed
}

func (p *Parser) locationOf(pos token.Pos, fileName string) models.LocationTrait {
	return models.LocationTrait{FileName: fileName, Line: p.fileSet.Position(pos).Line}
}

func toLocation(loc annotations.SourceLocation) errors.SourceLocation {
	return errors.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column}
}

// flattenInterfaces folds embedded same-package interfaces into their
// embedders; anything that cannot be resolved makes the embedder opaque
func flattenInterfaces(metadata *models.PackageMetadata, embeds map[string][]string) {
	byName := make(map[string]int, len(metadata.Interfaces))
	for i, iface := range metadata.Interfaces {
		byName[iface.Name] = i
	}

	var resolve func(name string, visiting map[string]bool) ([]models.Method, bool)
	resolve = func(name string, visiting map[string]bool) ([]models.Method, bool) {
		if name == "error" {
			return []models.Method{{Name: "Error", Returns: []string{"string"}}}, true
		}
		idx, ok := byName[name]
		if !ok || visiting[name] {
			return nil, false
		}
		visiting[name] = true
		defer delete(visiting, name)

		iface := metadata.Interfaces[idx]
		if iface.Opaque {
			return nil, false
		}
		methods := append([]models.Method(nil), iface.Methods...)
		for _, embedded := range embeds[name] {
			more, ok := resolve(embedded, visiting)
			if !ok {
				return nil, false
			}
			methods = append(methods, more...)
		}
		return methods, true
	}

	flattened := make([]models.InterfaceMetadata, len(metadata.Interfaces))
	for i, iface := range metadata.Interfaces {
		flattened[i] = iface
		if len(embeds[iface.Name]) == 0 {
			continue
		}
		methods, ok := resolve(iface.Name, map[string]bool{})
		if !ok {
			flattened[i].Opaque = true
			continue
		}
		flattened[i].Methods = methods
	}
	metadata.Interfaces = flattened
}
