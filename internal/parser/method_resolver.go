package parser

import (
	"fmt"
	"go/types"
	"sort"
	"sync"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/ray/internal/models"
)

// PackagesResolver type-checks the packages a struct embeds from and
// reports the methods those embedded types promote. Loaded packages are
// kept for the lifetime of the resolver.
type PackagesResolver struct {
	mu     sync.Mutex
	loaded map[string]*types.Package // "dir|import path" -> package
}

// NewPackagesResolver creates a resolver backed by golang.org/x/tools/go/packages
func NewPackagesResolver() *PackagesResolver {
	return &PackagesResolver{loaded: make(map[string]*types.Package)}
}

// PromotedMethods returns the exported methods that embedding field adds to
// the method set of a pointer to the embedding struct
func (r *PackagesResolver) PromotedMethods(pkg *models.PackageMetadata, field models.EmbeddedField) ([]models.Method, error) {
	path, ok := pkg.Imports[field.Package]
	if !ok {
		return nil, fmt.Errorf("no file of %s imports package %s", pkg.PackageName, field.Package)
	}

	typesPkg, err := r.load(pkg.PackagePath, path)
	if err != nil {
		return nil, err
	}

	obj, ok := typesPkg.Scope().Lookup(field.TypeName).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("package %s has no type %s", path, field.TypeName)
	}

	// An addressable embedded value promotes its pointer methods too
	var set *types.MethodSet
	if types.IsInterface(obj.Type()) {
		set = types.NewMethodSet(obj.Type())
	} else {
		set = types.NewMethodSet(types.NewPointer(obj.Type()))
	}

	var methods []models.Method
	for i := 0; i < set.Len(); i++ {
		fn, ok := set.At(i).Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		sig, ok := set.At(i).Type().(*types.Signature)
		if !ok {
			continue
		}
		methods = append(methods, methodFromSignature(fn.Name(), sig))
	}
	return methods, nil
}

func (r *PackagesResolver) load(dir, path string) (*types.Package, error) {
	key := dir + "|" + path

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.loaded[key]; ok {
		return p, nil
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("loading %s: got %d packages", path, len(pkgs))
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package %s has errors: %v", path, pkgs[0].Errors)
	}
	if pkgs[0].Types == nil {
		return nil, fmt.Errorf("package %s has no type information", path)
	}

	r.loaded[key] = pkgs[0].Types
	return pkgs[0].Types, nil
}

// methodFromSignature writes a type-checked signature the way the source
// parser records one: package-qualified type strings and "...T" for a
// variadic tail
func methodFromSignature(name string, sig *types.Signature) models.Method {
	imports := make(map[string]string)
	qualifier := func(p *types.Package) string {
		imports[p.Name()] = p.Path()
		return p.Name()
	}

	method := models.Method{
		Name:            name,
		PointerReceiver: true,
		Variadic:        sig.Variadic(),
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		typ := types.TypeString(v.Type(), qualifier)
		if sig.Variadic() && i == params.Len()-1 {
			if slice, ok := v.Type().(*types.Slice); ok {
				typ = "..." + types.TypeString(slice.Elem(), qualifier)
			}
		}
		method.Params = append(method.Params, models.Parameter{Name: v.Name(), Type: typ})
	}

	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		method.Returns = append(method.Returns, types.TypeString(results.At(i).Type(), qualifier))
	}

	if len(imports) > 0 {
		method.ImportPaths = imports
		for qualifier := range imports {
			method.Packages = append(method.Packages, qualifier)
		}
		sort.Strings(method.Packages)
	}
	return method
}
