package generator

import "github.com/toyz/ray/internal/models"

// CodeGenerator turns the parsed metadata of one package into its
// autogen_ray.go file
type CodeGenerator interface {
	GenerateModule(metadata *models.PackageMetadata) (*models.GeneratedModule, error)
}

// InitializerGenerator renders ahead-of-time initializers
type InitializerGenerator interface {
	Validate(metadata *models.PackageMetadata, t models.TypeMetadata) error
	Generate(t models.TypeMetadata) (*models.GeneratedInitializer, error)
}

// MethodResolver reports the methods a type embedded from another package
// promotes into the embedding struct
type MethodResolver interface {
	PromotedMethods(metadata *models.PackageMetadata, field models.EmbeddedField) ([]models.Method, error)
}
