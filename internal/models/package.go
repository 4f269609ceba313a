package models

import "sort"

// PackageMetadata represents everything the parser found in a package
type PackageMetadata struct {
	PackageName string              // name of the Go package
	PackagePath string              // file system path to the package
	ImportPath  string              // module import path of the package, when known
	Types       []TypeMetadata      // named types declared in the package
	Interfaces  []InterfaceMetadata // interfaces declared in the package
	Functions   []Method            // top-level functions, constructors included
	Imports     map[string]string   // import name -> import path across all files
	FileNames   []string            // parsed source files, sorted
}

// FindType returns the type declared with the given name
func (p *PackageMetadata) FindType(name string) (*TypeMetadata, bool) {
	for i := range p.Types {
		if p.Types[i].Name == name {
			return &p.Types[i], true
		}
	}
	return nil, false
}

// FindFunction returns the top-level function with the given name
func (p *PackageMetadata) FindFunction(name string) (*Method, bool) {
	for i := range p.Functions {
		if p.Functions[i].Name == name {
			return &p.Functions[i], true
		}
	}
	return nil, false
}

// FindInterface returns the interface declared with the given name
func (p *PackageMetadata) FindInterface(name string) (*InterfaceMetadata, bool) {
	for i := range p.Interfaces {
		if p.Interfaces[i].Name == name {
			return &p.Interfaces[i], true
		}
	}
	return nil, false
}

// ManagedTypes returns the types annotated with //ray::managed or //ray::aot,
// sorted by name
func (p *PackageMetadata) ManagedTypes() []TypeMetadata {
	var managed []TypeMetadata
	for _, t := range p.Types {
		if t.Managed || t.Aot {
			managed = append(managed, t)
		}
	}
	sort.Slice(managed, func(i, j int) bool { return managed[i].Name < managed[j].Name })
	return managed
}

// HasAnnotations reports whether any type or method in the package carries a
// //ray:: annotation
func (p *PackageMetadata) HasAnnotations() bool {
	for _, t := range p.Types {
		if t.Managed || t.Aot || t.Final {
			return true
		}
		for _, m := range t.Methods {
			if m.Marked {
				return true
			}
		}
	}
	return false
}

// ImplementedInterfaces returns the package interfaces satisfied by a pointer
// to the type, given the full method set of that pointer
func (p *PackageMetadata) ImplementedInterfaces(methods []Method) []string {
	var names []string
	for _, iface := range p.Interfaces {
		if iface.SatisfiedBy(methods) {
			names = append(names, iface.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ModuleReference represents a reference to a generated module
type ModuleReference struct {
	PackageName string // name of the package
	PackagePath string // import path for the package
	ModuleName  string // name of the module variable
}
