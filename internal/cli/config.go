package cli

import (
	"github.com/go-playground/validator/v10"

	"github.com/toyz/ray/internal/errors"
)

// Config holds the configuration for the CLI generator
type Config struct {
	// Directories is the list of directories to scan for annotated Go files.
	// A trailing "/..." scans the tree below it.
	Directories []string `validate:"required,min=1,dive,required"`

	// ModuleName is the custom module name for imports
	// If empty, will be determined from go.mod file
	ModuleName string `validate:"omitempty,printascii"`

	// Verbose enables detailed logging and error reporting
	Verbose bool

	// WriteHints writes autogen_hints.yaml next to every generated module
	WriteHints bool

	// BuildDir is the directory baked into ahead-of-time initializers. Each
	// package's own absolute directory is used when it is empty.
	BuildDir string `validate:"omitempty,dir"`
}

var validate = validator.New()

// Validate checks the configuration before any file is touched
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		base := errors.ConfigurationError("invalid configuration", err)
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				base = base.WithContext(fe.Field(), fe.Tag())
			}
		}
		return base.WithSuggestion("Run ray --help to see the accepted options")
	}
	return nil
}
