package parser

import (
	"github.com/toyz/ray/internal/models"
)

// AnnotationParser defines the interface for parsing Go source files and extracting annotation metadata
type AnnotationParser interface {
	ParseDirectory(path string) (*models.PackageMetadata, error)
	ParseSource(filename, source string) (*models.PackageMetadata, error)
}
