package utils

import (
	"fmt"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/toyz/ray/internal/errors"
)

// GoModParser locates go.mod files and reads module paths from them
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a new go.mod parser with caching
func NewGoModParser(fileReader *FileReader) *GoModParser {
	if fileReader == nil {
		fileReader = NewFileReader()
	}
	return &GoModParser{fileReader: fileReader}
}

// ParseModuleName extracts the module path from a go.mod file
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	clean := filepath.Clean(goModPath)
	if filepath.Base(clean) != "go.mod" {
		return "", errors.ModuleResolution(goModPath, fmt.Errorf("not a go.mod file"))
	}

	content, err := p.fileReader.ReadFile(clean)
	if err != nil {
		return "", errors.ModuleResolution(filepath.Dir(clean), err)
	}

	modFile, err := modfile.ParseLax(clean, content, nil)
	if err != nil {
		return "", errors.ModuleResolution(filepath.Dir(clean), err)
	}
	if modFile.Module == nil {
		return "", errors.ModuleResolution(filepath.Dir(clean), fmt.Errorf("no module declaration in %s", clean))
	}
	return modFile.Module.Mod.Path, nil
}

// FindGoModFile searches for go.mod starting at startDir and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.ModuleResolution(startDir, err)
	}

	for {
		candidate := filepath.Join(dir, "go.mod")
		if p.fileReader.Exists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ModuleResolution(startDir, fmt.Errorf("go.mod file not found"))
		}
		dir = parent
	}
}

// ImportPath returns the import path of the package in dir: the module path
// of the closest go.mod joined with dir's location inside the module
func (p *GoModParser) ImportPath(dir string) (string, error) {
	goMod, err := p.FindGoModFile(dir)
	if err != nil {
		return "", err
	}
	module, err := p.ParseModuleName(goMod)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.ModuleResolution(dir, err)
	}
	rel, err := filepath.Rel(filepath.Dir(goMod), abs)
	if err != nil {
		return "", errors.ModuleResolution(dir, err)
	}
	if rel == "." {
		return module, nil
	}
	return path.Join(module, filepath.ToSlash(rel)), nil
}
