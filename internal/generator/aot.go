package generator

import (
	"path/filepath"
	"time"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/templates"
)

const (
	// RayImportPath is the runtime package every generated file imports
	RayImportPath = "github.com/toyz/ray/pkg/ray"

	// ModuleVariable is the fx module declared by every generated file
	ModuleVariable = "AutogenModule"

	aotInitPrefix = "AotInit"
)

// AotGenerator renders AotInit<Type> functions that call a type's
// constructor with the build time and directory baked in as literals
type AotGenerator struct {
	Clock     func() time.Time
	Dir       string
	templates *templates.TemplateRegistry
}

// NewAotGenerator records the current time and the absolute path of the
// working directory
func NewAotGenerator() *AotGenerator {
	dir, err := filepath.Abs(".")
	if err != nil {
		dir = "."
	}
	return &AotGenerator{Clock: time.Now, Dir: dir, templates: templates.NewTemplateRegistry()}
}

func (a *AotGenerator) registry() *templates.TemplateRegistry {
	if a.templates == nil {
		a.templates = templates.NewTemplateRegistry()
	}
	return a.templates
}

// InitializerName returns the name of the initializer generated for typeName
func InitializerName(typeName string) string {
	return aotInitPrefix + exportedName(typeName)
}

// Generate renders the initializer of a //ray::aot type
func (a *AotGenerator) Generate(t models.TypeMetadata) (*models.GeneratedInitializer, error) {
	if !t.Aot || t.AotConstructor == "" {
		return nil, errors.ValidationFailure(locationOf(t.LocationTrait),
			"%s needs //ray::aot -Constructor=<func> to get an ahead-of-time initializer", t.Name)
	}

	clock := a.Clock
	if clock == nil {
		clock = time.Now
	}

	name := InitializerName(t.Name)
	source, err := a.registry().Execute(templates.AotInitializerTemplate, templates.AotData{
		FunctionName:    name,
		TypeName:        t.Name,
		Constructor:     t.AotConstructor,
		TimestampMillis: clock().UnixMilli(),
		Directory:       a.Dir,
	})
	if err != nil {
		return nil, errors.WrapGenerateError("ahead-of-time initializer", t.Name, err)
	}

	return &models.GeneratedInitializer{
		FunctionName: name,
		OwnerName:    ModuleVariable,
		TypeName:     t.Name,
		Source:       source,
	}, nil
}

// Validate checks that the constructor named by -Constructor exists, takes
// exactly one ray.BuildInfo and returns *Type
func (a *AotGenerator) Validate(pkg *models.PackageMetadata, t models.TypeMetadata) error {
	loc := locationOf(t.LocationTrait)
	fn, ok := pkg.FindFunction(t.AotConstructor)
	if !ok {
		return errors.ValidationFailure(loc, "constructor %s of %s not found in package %s",
			t.AotConstructor, t.Name, pkg.PackageName).
			WithSuggestion("Declare func " + t.AotConstructor + "(info ray.BuildInfo) *" + t.Name)
	}

	loc = locationOf(fn.LocationTrait)
	buildInfo := ""
	for name, path := range pkg.Imports {
		if path == RayImportPath {
			buildInfo = name + ".BuildInfo"
			break
		}
	}
	if len(fn.Params) != 1 || buildInfo == "" || fn.Params[0].Type != buildInfo {
		return errors.ValidationFailure(loc, "constructor %s must take exactly one ray.BuildInfo, has %s",
			fn.Name, fn.Signature())
	}
	if len(fn.Returns) != 1 || fn.Returns[0] != "*"+t.Name {
		return errors.ValidationFailure(loc, "constructor %s must return *%s, has %s",
			fn.Name, t.Name, fn.Signature())
	}
	return nil
}

func locationOf(l models.LocationTrait) errors.SourceLocation {
	return errors.SourceLocation{File: l.FileName, Line: l.Line}
}
