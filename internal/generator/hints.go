package generator

import (
	"strings"

	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/pkg/ray"
)

// Hints records what the generated module of a package needs at runtime:
// every proxied type with the interfaces its proxy is registered with, and
// every type built by an ahead-of-time initializer. Names use the form
// reflect.Type.String prints, so they compare equal to runtime hints.
func Hints(module *models.GeneratedModule) *ray.HintStore {
	store := ray.NewHintStore()
	if module == nil {
		return store
	}

	for _, typeName := range module.Proxies {
		interfaces := module.Interfaces[typeName]
		qualified := make([]string, len(interfaces))
		for i, iface := range interfaces {
			qualified[i] = qualify(module.PackageName, iface)
		}
		ray.RegisterHints(store, "*"+qualify(module.PackageName, typeName), qualified)
	}
	for _, initializer := range module.Initializers {
		store.RegisterType("*"+qualify(module.PackageName, initializer.TypeName), ray.AllMemberCategories()...)
	}
	return store
}

func qualify(pkg, name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return pkg + "." + name
}
