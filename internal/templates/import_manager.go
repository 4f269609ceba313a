package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/ray/internal/models"
)

// ImportManager collects the imports of a generated file and refuses two
// different paths under one name
type ImportManager struct {
	byName map[string]string // name -> path
}

// NewImportManager creates a new import manager
func NewImportManager() *ImportManager {
	return &ImportManager{byName: make(map[string]string)}
}

// Add imports path under its default package name
func (im *ImportManager) Add(path string) error {
	return im.AddNamed(models.ImportName(path), path)
}

// AddNamed imports path under name
func (im *ImportManager) AddNamed(name, path string) error {
	if name == "" || path == "" {
		return fmt.Errorf("invalid import %q %q", name, path)
	}
	if existing, ok := im.byName[name]; ok && existing != path {
		return fmt.Errorf("import name %s refers to both %q and %q", name, existing, path)
	}
	im.byName[name] = path
	return nil
}

// Path returns the path imported under name
func (im *ImportManager) Path(name string) (string, bool) {
	path, ok := im.byName[name]
	return path, ok
}

func (im *ImportManager) Len() int {
	return len(im.byName)
}

// GenerateImports renders the import block: standard library first, then
// everything else, each group sorted by path. Aliases are written only when
// they differ from the default package name.
func (im *ImportManager) GenerateImports() string {
	if len(im.byName) == 0 {
		return ""
	}

	var std, other []string
	for name, path := range im.byName {
		line := fmt.Sprintf("%q", path)
		if models.ImportName(path) != name {
			line = name + " " + line
		}
		if models.IsStandardLibrary(path) {
			std = append(std, line)
		} else {
			other = append(other, line)
		}
	}
	sort.Slice(std, func(i, j int) bool { return importPath(std[i]) < importPath(std[j]) })
	sort.Slice(other, func(i, j int) bool { return importPath(other[i]) < importPath(other[j]) })

	var b strings.Builder
	b.WriteString("import (\n")
	for _, line := range std {
		b.WriteString("\t" + line + "\n")
	}
	if len(std) > 0 && len(other) > 0 {
		b.WriteString("\n")
	}
	for _, line := range other {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString(")\n")
	return b.String()
}

func importPath(line string) string {
	return line[strings.IndexByte(line, '"'):]
}
