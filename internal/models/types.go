package models

import (
	"fmt"
	"go/token"
	"strings"
)

// TypeKind represents what a named type is declared as
type TypeKind int

const (
	TypeKindStruct TypeKind = iota
	TypeKindInterface
	TypeKindOther
)

// String returns the kind as written in diagnostics
func (k TypeKind) String() string {
	switch k {
	case TypeKindStruct:
		return "struct"
	case TypeKindInterface:
		return "interface"
	default:
		return "other"
	}
}

// LocationTrait records where a declaration lives
type LocationTrait struct {
	FileName string // source file
	Line     int    // 1-based line of the declaration
}

// ManagedTrait is carried by types annotated with //ray::managed
type ManagedTrait struct {
	Managed     bool   // whether the type is container managed
	BeanName    string // registration name, defaults to the lower camel type name
	Constructor string // constructor function, defaults to New<Type>
}

// AotTrait is carried by types annotated with //ray::aot
type AotTrait struct {
	Aot            bool   // whether an initializer is generated ahead of time
	AotConstructor string // constructor called with the build info
}

// EmbeddedField represents an anonymous field of a struct
type EmbeddedField struct {
	TypeName string // type name without package qualifier or pointer
	Package  string // package qualifier, empty for same-package types
	Pointer  bool   // whether the field embeds a pointer
}

// IsLocal reports whether the embedded type is declared in the same package
func (e EmbeddedField) IsLocal() bool {
	return e.Package == ""
}

// TypeMetadata represents a named type declared in a package
type TypeMetadata struct {
	LocationTrait
	ManagedTrait
	AotTrait
	Name     string          // type name
	Kind     TypeKind        // struct, interface or other
	Final    bool            // annotated with //ray::final
	Embedded []EmbeddedField // anonymous fields, structs only
	Methods  []Method        // methods declared on T or *T
}

// IsStruct reports whether the type is declared as a struct
func (t *TypeMetadata) IsStruct() bool {
	return t.Kind == TypeKindStruct
}

// Method returns the declared method with the given name
func (t *TypeMetadata) Method(name string) (*Method, bool) {
	for i := range t.Methods {
		if t.Methods[i].Name == name {
			return &t.Methods[i], true
		}
	}
	return nil, false
}

// MarkedMethods returns the declared methods annotated with //ray::intercept
func (t *TypeMetadata) MarkedMethods() []Method {
	var marked []Method
	for _, m := range t.Methods {
		if m.Marked {
			marked = append(marked, m)
		}
	}
	return marked
}

// EffectiveBeanName returns the registration name of a managed type
func (t *TypeMetadata) EffectiveBeanName() string {
	if t.BeanName != "" {
		return t.BeanName
	}
	if t.Name == "" {
		return ""
	}
	return strings.ToLower(t.Name[:1]) + t.Name[1:]
}

// EffectiveConstructor returns the constructor used to build a managed type
func (t *TypeMetadata) EffectiveConstructor() string {
	if t.Constructor != "" {
		return t.Constructor
	}
	return "New" + t.Name
}

// Parameter represents one method parameter
type Parameter struct {
	Name string // parameter name, may be empty
	Type string // type as written in source, "...T" for a variadic tail
}

// Method represents a method declared on a type
type Method struct {
	LocationTrait
	Name            string            // method name
	PointerReceiver bool              // declared on *T
	Params          []Parameter       // parameters in order
	Returns         []string          // result types in order
	Variadic        bool              // last parameter is variadic
	Marked          bool              // annotated with //ray::intercept
	Packages        []string          // package qualifiers referenced by the signature
	ImportPaths     map[string]string // qualifier -> import path, set when the signature comes from another package
}

// Exported reports whether the method is visible outside its package
func (m Method) Exported() bool {
	return token.IsExported(m.Name)
}

// ReturnsError reports whether the last result is an error, which generated
// wrappers treat as the fault signal
func (m Method) ReturnsError() bool {
	return len(m.Returns) > 0 && m.Returns[len(m.Returns)-1] == "error"
}

// ParamTypes returns the parameter types in order
func (m Method) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// Signature returns the method as it appears in an interface, e.g.
// "Greet(string, ...int) (string, error)"
func (m Method) Signature() string {
	sig := fmt.Sprintf("%s(%s)", m.Name, strings.Join(m.ParamTypes(), ", "))
	switch len(m.Returns) {
	case 0:
		return sig
	case 1:
		return sig + " " + m.Returns[0]
	default:
		return sig + " (" + strings.Join(m.Returns, ", ") + ")"
	}
}
