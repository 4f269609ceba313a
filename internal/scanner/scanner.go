// Package scanner computes method sets and marked methods from parsed source,
// the build-time counterpart of ray.Scanner.
package scanner

import (
	"fmt"
	"sort"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/pkg/ray"
)

// ResolvedMethod is a method in the method set of a pointer to a struct
type ResolvedMethod struct {
	models.Method
	Owner string // type that declares the method
	Depth int    // 0 for methods declared on the type itself
}

// Resolution is the method set of *T as far as the package source shows it
type Resolution struct {
	Type      *models.TypeMetadata
	Methods   []ResolvedMethod       // outermost declaration of every promoted name
	Foreign   []models.EmbeddedField // embedded types whose methods are not visible here
	Ambiguous []string               // names declared twice at the same depth, not promoted
	marked    map[string]bool
}

// IsMarked reports whether name carries //ray::intercept anywhere in the
// embedding hierarchy, overridden declarations included
func (r *Resolution) IsMarked(name string) bool {
	return r.marked[name]
}

// Method returns the resolved method with the given name
func (r *Resolution) Method(name string) (ResolvedMethod, bool) {
	for _, m := range r.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return ResolvedMethod{}, false
}

// Exported returns the exported resolved methods in declaration order
func (r *Resolution) Exported() []ResolvedMethod {
	var out []ResolvedMethod
	for _, m := range r.Methods {
		if m.Exported() {
			out = append(out, m)
		}
	}
	return out
}

// Plain returns the resolved methods as models.Method values
func (r *Resolution) Plain() []models.Method {
	out := make([]models.Method, len(r.Methods))
	for i, m := range r.Methods {
		out[i] = m.Method
	}
	return out
}

// ForeignLookup returns the methods an embedded type declared in another
// package promotes, including the ones it promotes itself
type ForeignLookup func(field models.EmbeddedField) ([]models.Method, error)

// Resolve walks typeName and its same-package embedded types breadth first,
// applying Go's promotion rules: the shallowest declaration of a name wins and
// two declarations at the same depth cancel each other out. Types embedded
// from other packages end up in Foreign.
func Resolve(pkg *models.PackageMetadata, typeName string) (*Resolution, error) {
	return ResolveWith(pkg, typeName, nil)
}

// ResolveWith is Resolve with the methods of types embedded from other
// packages supplied by lookup. A nil lookup leaves them in Foreign.
func ResolveWith(pkg *models.PackageMetadata, typeName string, lookup ForeignLookup) (*Resolution, error) {
	if pkg == nil {
		return nil, errors.IntrospectionFailure(typeName, "no package metadata")
	}
	root, ok := pkg.FindType(typeName)
	if !ok {
		return nil, errors.IntrospectionFailure(typeName, fmt.Sprintf("type not found in package %s", pkg.PackageName))
	}
	if !root.IsStruct() {
		return nil, errors.IntrospectionFailure(typeName, fmt.Sprintf("%s has kind %s, want struct", typeName, root.Kind))
	}

	res := &Resolution{Type: root, marked: make(map[string]bool)}
	taken := make(map[string]bool)
	visited := map[string]bool{typeName: true}
	level := []*models.TypeMetadata{root}

	for depth := 0; len(level) > 0; depth++ {
		found := make(map[string][]ResolvedMethod)
		var order []string
		var next []*models.TypeMetadata

		for _, t := range level {
			for _, m := range t.Methods {
				if m.Marked {
					res.marked[m.Name] = true
				}
				if taken[m.Name] {
					continue
				}
				if _, seen := found[m.Name]; !seen {
					order = append(order, m.Name)
				}
				found[m.Name] = append(found[m.Name], ResolvedMethod{Method: m, Owner: t.Name, Depth: depth})
			}

			for _, e := range t.Embedded {
				if !e.IsLocal() && lookup != nil {
					key := e.Package + "." + e.TypeName
					if visited[key] {
						continue
					}
					visited[key] = true
					methods, err := lookup(e)
					if err != nil {
						return nil, err
					}
					next = append(next, &models.TypeMetadata{Name: key, Kind: models.TypeKindOther, Methods: methods})
					continue
				}
				embedded, ok := embeddedType(pkg, e)
				if !ok {
					res.Foreign = append(res.Foreign, e)
					continue
				}
				if visited[embedded.Name] {
					continue
				}
				visited[embedded.Name] = true
				next = append(next, embedded)
			}
		}

		for _, name := range order {
			taken[name] = true
			candidates := found[name]
			if len(candidates) > 1 {
				res.Ambiguous = append(res.Ambiguous, name)
				continue
			}
			res.Methods = append(res.Methods, candidates[0])
		}
		level = next
	}

	sort.Strings(res.Ambiguous)
	return res, nil
}

// embeddedType finds the declaration behind an embedded field. Embedded
// interfaces contribute their flattened method list.
func embeddedType(pkg *models.PackageMetadata, e models.EmbeddedField) (*models.TypeMetadata, bool) {
	if !e.IsLocal() {
		return nil, false
	}
	t, ok := pkg.FindType(e.TypeName)
	if !ok {
		return nil, false
	}
	if t.Kind != models.TypeKindInterface {
		return t, true
	}
	iface, ok := pkg.FindInterface(e.TypeName)
	if !ok || iface.Opaque {
		return nil, false
	}
	return &models.TypeMetadata{Name: t.Name, Kind: t.Kind, Methods: iface.Methods}, true
}

// Scan returns the marked methods of *typeName. A method is marked when its
// name is marked on the type or on any same-package type it embeds; the
// descriptor comes from the outermost declaration.
func Scan(pkg *models.PackageMetadata, typeName string) (ray.MethodSet, error) {
	res, err := Resolve(pkg, typeName)
	if err != nil {
		return ray.MethodSet{}, err
	}
	return Marked(res), nil
}

// Marked returns the descriptors of the exported methods of res that carry
// //ray::intercept
func Marked(res *Resolution) ray.MethodSet {
	var marked []ray.MethodDescriptor
	for _, m := range res.Exported() {
		if res.IsMarked(m.Name) {
			marked = append(marked, Descriptor(m.Method))
		}
	}
	return ray.NewMethodSet(marked...)
}

// Descriptor converts a parsed method into a ray.MethodDescriptor using the
// type strings as written in source
func Descriptor(m models.Method) ray.MethodDescriptor {
	return ray.MethodDescriptor{
		Name:    m.Name,
		Params:  m.ParamTypes(),
		Returns: append([]string(nil), m.Returns...),
	}
}
