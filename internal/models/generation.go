package models

// GeneratedModule represents a generated autogen_ray.go file
type GeneratedModule struct {
	PackageName  string                 // name of the package
	FilePath     string                 // path where module file should be written
	Content      string                 // generated Go code content
	Proxies      []string               // managed types that received a forwarding wrapper
	Interfaces   map[string][]string    // proxied type -> interfaces its proxy is registered with
	Initializers []GeneratedInitializer // ahead-of-time initializers in this module
	Intercepted  int                    // marked methods across all proxies
}

// GeneratedInitializer represents one AotInit<Type> function
type GeneratedInitializer struct {
	FunctionName string // AotInit<Type>
	OwnerName    string // module variable of the generated file
	TypeName     string // type the initializer substitutes
	Source       string // Go source of the function
}
