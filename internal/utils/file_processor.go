package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/ray/internal/errors"
)

const (
	// GeneratedSourceFile is written into every package that carries //ray:: annotations
	GeneratedSourceFile = "autogen_ray.go"
	// GeneratedHintsFile holds the reflection and proxy hints of a package
	GeneratedHintsFile = "autogen_hints.yaml"

	recursiveSuffix = "/..."
)

// GeneratedFiles lists every file name the generator may write
var GeneratedFiles = []string{GeneratedSourceFile, GeneratedHintsFile}

var skippedDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// FileProcessor expands directory patterns and cleans generated files
type FileProcessor struct{}

func NewFileProcessor() *FileProcessor {
	return &FileProcessor{}
}

// IsSourceFile reports whether name is a Go file the parser should read:
// not a test and not generated by ray
func IsSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		name != GeneratedSourceFile
}

// skipDir reports whether a directory is never scanned: hidden directories,
// vendored code and test fixtures
func skipDir(name string) bool {
	return (strings.HasPrefix(name, ".") && name != "." && name != "..") ||
		strings.HasPrefix(name, "_") ||
		skippedDirs[name]
}

// ExpandPatterns turns command line arguments into package directories. A
// trailing "/..." walks the tree below the prefix, like the go tool does.
// The result is sorted and free of duplicates.
func (fp *FileProcessor) ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		clean := filepath.Clean(dir)
		if !seen[clean] {
			seen[clean] = true
			dirs = append(dirs, clean)
		}
	}

	for _, pattern := range patterns {
		if pattern == "..." || strings.HasSuffix(pattern, recursiveSuffix) {
			root := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
			if root == "" {
				root = "."
			}
			found, err := fp.ScanDirectoriesWithGoFiles(root)
			if err != nil {
				return nil, err
			}
			for _, dir := range found {
				add(dir)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			return nil, errors.WrapFileSystemError("stat", pattern, err)
		}
		if !info.IsDir() {
			return nil, errors.WrapFileSystemError("scan", pattern, os.ErrInvalid).
				WithSuggestion("Pass package directories, not files")
		}
		add(pattern)
	}

	sort.Strings(dirs)
	return dirs, nil
}

// ScanDirectoriesWithGoFiles returns root and every directory below it that
// contains Go source files
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return errors.WrapFileSystemError("walk", path, err)
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && skipDir(entry.Name()) {
			return filepath.SkipDir
		}
		// A nested module is its own build and is not ours to generate.
		if path != root {
			if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
				return filepath.SkipDir
			}
		}
		ok, err := fp.HasGoFiles(path)
		if err != nil {
			return err
		}
		if ok {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// HasGoFiles checks if a directory contains source files the parser reads
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.WrapFileSystemError("read directory", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && IsSourceFile(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// CleanDirectories removes generated files from the trees below roots and
// returns the removed paths
func (fp *FileProcessor) CleanDirectories(roots []string) ([]string, error) {
	var removed []string
	for _, root := range roots {
		root = strings.TrimSuffix(strings.TrimSuffix(root, "..."), "/")
		if root == "" {
			root = "."
		}
		err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				// directories that vanish or cannot be read hold nothing to clean
				return nil
			}
			if entry.IsDir() {
				if path != root && skipDir(entry.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isGenerated(entry.Name()) {
				return nil
			}
			if err := os.Remove(path); err != nil {
				return errors.WrapFileSystemError("remove", path, err)
			}
			removed = append(removed, path)
			return nil
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func isGenerated(name string) bool {
	for _, generated := range GeneratedFiles {
		if name == generated {
			return true
		}
	}
	return false
}
