package models

// InterfaceMetadata represents an interface declared in a package
type InterfaceMetadata struct {
	LocationTrait
	Name    string   // interface name
	Methods []Method // flattened method list, embedded local interfaces included
	Opaque  bool     // embeds an interface the parser cannot see into
}

// SatisfiedBy reports whether a method set provides every method of the
// interface with an identical signature
func (i InterfaceMetadata) SatisfiedBy(methods []Method) bool {
	if i.Opaque || len(i.Methods) == 0 {
		return false
	}
	available := make(map[string]string, len(methods))
	for _, m := range methods {
		available[m.Name] = m.Signature()
	}
	for _, want := range i.Methods {
		if available[want.Name] != want.Signature() {
			return false
		}
	}
	return true
}
