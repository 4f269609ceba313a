package utils

import (
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"

	"github.com/toyz/ray/internal/errors"
)

// formatOptions only formats and sorts imports. Resolving missing imports
// would scan GOPATH and the module cache, which generated code never needs
// because every import is written out explicitly.
var formatOptions = &imports.Options{
	FormatOnly: true,
	Comments:   true,
	TabIndent:  true,
	TabWidth:   8,
}

// FormatSource formats generated Go source the way goimports does. The
// filename is only used in error positions.
func FormatSource(filename string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, src, formatOptions)
	if err != nil {
		return nil, errors.WrapGenerateError("formatted source", filename, err).
			WithSuggestion("This is a bug in the generator; rerun with --verbose to print the raw source")
	}
	return formatted, nil
}

// WriteGeneratedFile formats src and writes it to path, creating the parent
// directory when needed
func WriteGeneratedFile(path string, src []byte) error {
	formatted, err := FormatSource(filepath.Base(path), src)
	if err != nil {
		return err
	}
	return WriteFile(path, formatted)
}

// WriteFile writes content to path, creating the parent directory when needed
func WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapFileSystemError("create directory for", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.WrapFileSystemError("write", path, err)
	}
	return nil
}
