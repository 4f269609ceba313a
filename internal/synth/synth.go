// Package synth writes subclass source for a struct type: a new struct that
// embeds a pointer to the type and overrides every exported method with a
// plain delegating call.
package synth

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/scanner"
	"github.com/toyz/ray/internal/templates"
	"github.com/toyz/ray/internal/utils"
)

// rootMethods can be satisfied by any value through fmt and are never
// overridden
var rootMethods = map[string]bool{
	"String":   true,
	"Error":    true,
	"GoString": true,
	"Format":   true,
}

// SourceUnit is one synthesized subclass
type SourceUnit struct {
	PackageName string
	TypeName    string   // name of the synthesized type
	Source      string   // formatted Go source
	Overrides   []string // overridden methods in declaration order
}

// Synthesizer renders subclass source units
type Synthesizer struct {
	Token     func() string         // suffix making the subclass name unique
	Promoted  scanner.ForeignLookup // methods of types embedded from other packages, optional
	templates *templates.TemplateRegistry
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{Token: RandomToken, templates: templates.NewTemplateRegistry()}
}

// RandomToken returns the letters and digits of a random UUID, uppercased
func RandomToken() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, uuid.New().String())
}

// SubclassName returns the name of the subclass synthesized for typeName
func SubclassName(typeName, token string) string {
	return typeName + "__Proxy__" + token
}

// Synthesize renders a subclass of typeName. Types sealed with //ray::final
// and types that are not structs cannot be subclassed.
func (s *Synthesizer) Synthesize(pkg *models.PackageMetadata, typeName string) (*SourceUnit, error) {
	if pkg == nil {
		return nil, errors.IntrospectionFailure(typeName, "no package metadata")
	}
	t, ok := pkg.FindType(typeName)
	if !ok {
		return nil, errors.IntrospectionFailure(typeName, fmt.Sprintf("type not found in package %s", pkg.PackageName))
	}
	if t.Final {
		return nil, errors.Unsubclassable(typeName, "it is annotated //ray::final").
			WithLocation(errors.SourceLocation{File: t.FileName, Line: t.Line})
	}
	if !t.IsStruct() {
		return nil, errors.Unsubclassable(typeName, fmt.Sprintf("it is declared as %s, only structs can be embedded", t.Kind)).
			WithLocation(errors.SourceLocation{File: t.FileName, Line: t.Line})
	}

	res, err := scanner.ResolveWith(pkg, typeName, s.Promoted)
	if err != nil {
		return nil, errors.IntrospectionFailure(typeName, "cannot resolve the method set").WithCause(err)
	}

	token := RandomToken
	if s.Token != nil {
		token = s.Token
	}
	unit := &SourceUnit{PackageName: pkg.PackageName, TypeName: SubclassName(typeName, token())}
	data := templates.SubclassData{PackageName: pkg.PackageName, TypeName: typeName, Name: unit.TypeName}
	imports := templates.NewImportManager()

	for _, m := range res.Exported() {
		if rootMethods[m.Name] {
			continue
		}
		for _, qualifier := range m.Packages {
			path, ok := m.ImportPaths[qualifier]
			if !ok {
				path, ok = pkg.Imports[qualifier]
			}
			if !ok {
				return nil, errors.IntrospectionFailure(typeName,
					fmt.Sprintf("%s refers to package %s, which no file of %s imports", m.Name, qualifier, pkg.PackageName))
			}
			if err := imports.AddNamed(qualifier, path); err != nil {
				return nil, errors.Wrap(errors.GenerationErrorCode, "conflicting imports in package "+pkg.PackageName, err)
			}
		}

		params := make([]templates.Param, len(m.Params))
		for i, p := range m.Params {
			params[i] = templates.Param{Name: fmt.Sprintf("a%d", i), Type: p.Type}
		}
		data.Methods = append(data.Methods, templates.MethodData{
			Name:     m.Name,
			Params:   params,
			Returns:  m.Returns,
			Variadic: m.Variadic,
		})
		unit.Overrides = append(unit.Overrides, m.Name)
	}
	data.Imports = imports.GenerateImports()

	source, err := s.registry().Execute(templates.SubclassTemplate, data)
	if err != nil {
		return nil, errors.WrapGenerateError("subclass", typeName, err)
	}
	formatted, err := utils.FormatSource(filepath.Join(pkg.PackagePath, strings.ToLower(typeName)+"_subclass.go"), []byte(source))
	if err != nil {
		return nil, err
	}
	unit.Source = string(formatted)
	return unit, nil
}

func (s *Synthesizer) registry() *templates.TemplateRegistry {
	if s.templates == nil {
		s.templates = templates.NewTemplateRegistry()
	}
	return s.templates
}
