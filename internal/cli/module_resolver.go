package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct {
	gomod *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{gomod: utils.NewGoModParser(nil)}
}

// ResolveModuleName returns customModule when set, otherwise the module
// declared by the go.mod closest to the working directory
func (r *ModuleResolver) ResolveModuleName(customModule string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.ModuleResolution(".", err)
	}
	goMod, err := r.gomod.FindGoModFile(cwd)
	if err != nil {
		return "", err
	}
	return r.gomod.ParseModuleName(goMod)
}

// PackageImportPath returns the import path of the package in packageDir.
// With a custom module the path is relative to the working directory,
// otherwise to the closest go.mod.
func (r *ModuleResolver) PackageImportPath(customModule, packageDir string) (string, error) {
	if customModule == "" {
		return r.gomod.ImportPath(packageDir)
	}
	return r.BuildPackagePath(customModule, packageDir)
}

// BuildPackagePath builds the full import path for a package directory
func (r *ModuleResolver) BuildPackagePath(moduleName, packageDir string) (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", errors.ModuleResolution(packageDir, err)
	}

	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", errors.ModuleResolution(packageDir, err)
	}

	relPath, err := filepath.Rel(currentDir, absPackageDir)
	if err != nil {
		return "", errors.ModuleResolution(packageDir, err)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == "." {
		return moduleName, nil
	}
	return fmt.Sprintf("%s/%s", moduleName, importPath), nil
}
