package cli

import (
	"io"
	"path/filepath"
	"time"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/generator"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/parser"
	"github.com/toyz/ray/internal/synth"
	"github.com/toyz/ray/internal/utils"
)

// Generator coordinates the CLI generation process
type Generator struct {
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	parser         parser.AnnotationParser
	methods        *parser.PackagesResolver
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	clock          func() time.Time // build time baked into initializers
	summary        GenerationSummary
}

// NewGenerator creates a new CLI generator
func NewGenerator(verbose bool) *Generator {
	level := utils.DiagnosticInfo
	if verbose {
		level = utils.DiagnosticVerbose
	}
	return NewGeneratorWithDiagnostics(verbose, utils.NewDiagnosticSystem(level))
}

// NewGeneratorWithDiagnostics creates a new CLI generator reporting through
// diagnostics
func NewGeneratorWithDiagnostics(verbose bool, diagnostics *utils.DiagnosticSystem) *Generator {
	return &Generator{
		scanner:        NewDirectoryScanner(),
		moduleResolver: NewModuleResolver(),
		parser:         parser.NewParser(),
		methods:        parser.NewPackagesResolver(),
		reporter:       NewDiagnosticReporter(verbose),
		diagnostics:    diagnostics,
		clock:          time.Now,
	}
}

// Reporter returns the reporter used for failures
func (g *Generator) Reporter() *DiagnosticReporter {
	return g.reporter
}

// GetSummary returns the generation summary
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run scans the configured directories and writes autogen_ray.go, and
// optionally autogen_hints.yaml, into every package with //ray::
// annotations. Failing packages do not stop the others; their errors are
// returned together.
func (g *Generator) Run(config Config) error {
	g.summary = GenerationSummary{}
	if err := config.Validate(); err != nil {
		return err
	}

	startTime := g.clock()
	g.diagnostics.Verbose("Starting code generation at %s", startTime.Format("15:04:05"))
	g.diagnostics.Debug("Scanning directories: %v", config.Directories)

	g.diagnostics.StartProgress("Resolving module name")
	moduleName, err := g.moduleResolver.ResolveModuleName(config.ModuleName)
	if err != nil {
		return err
	}
	g.diagnostics.EndProgress("Resolving module name")
	g.diagnostics.Debug("Resolved module name: %s", moduleName)

	g.diagnostics.StartProgress("Scanning directories for Go packages")
	packageDirs, err := g.scanner.ScanDirectories(config.Directories)
	if err != nil {
		return err
	}
	if len(packageDirs) == 0 {
		return errors.New(errors.ValidationErrorCode, "no Go packages found in specified directories").
			WithContext("directories", config.Directories).
			WithSuggestion("Try scanning parent directories or use the './...' pattern")
	}
	g.diagnostics.EndProgress("Scanning directories for Go packages")

	g.diagnostics.Info("Found %d packages to process", len(packageDirs))
	g.diagnostics.Indent()
	for _, dir := range packageDirs {
		g.diagnostics.List("%s", dir)
	}
	g.diagnostics.Unindent()
	g.summary.PackagesProcessed = len(packageDirs)

	failures := errors.NewMultipleErrors()
	for _, dir := range packageDirs {
		if err := g.generatePackage(config, dir); err != nil {
			if multi, ok := err.(*errors.MultipleErrors); ok {
				for _, e := range multi.Errors {
					failures.Add(e)
				}
				continue
			}
			if rayErr, ok := err.(errors.RayError); ok {
				failures.Add(rayErr)
				continue
			}
			return err
		}
	}
	if err := failures.ErrOrNil(); err != nil {
		return err
	}

	g.diagnostics.Verbose("Generation took %s", g.clock().Sub(startTime).Round(time.Millisecond))
	return nil
}

func (g *Generator) generatePackage(config Config, dir string) error {
	metadata, err := g.parser.ParseDirectory(dir)
	if err != nil {
		return err
	}
	if !metadata.HasAnnotations() {
		g.diagnostics.Debug("Skipping %s: no //ray:: annotations", dir)
		return nil
	}

	importPath, err := g.moduleResolver.PackageImportPath(config.ModuleName, dir)
	if err != nil {
		return err
	}
	metadata.ImportPath = importPath
	g.diagnostics.Verbose("Generating %s", importPath)

	module, err := g.codeGenerator(config, dir).GenerateModule(metadata)
	if err != nil {
		return err
	}
	if module == nil {
		return nil
	}

	if err := utils.WriteFile(module.FilePath, []byte(module.Content)); err != nil {
		return err
	}
	g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, module.FilePath)
	g.summary.ModulesGenerated++
	g.summary.ManagedTypes += len(metadata.ManagedTypes())
	g.summary.InterceptedMethods += module.Intercepted
	g.summary.AotInitializers += len(module.Initializers)

	if config.WriteHints {
		hintsPath := filepath.Join(dir, utils.GeneratedHintsFile)
		if err := generator.Hints(module).WriteFile(hintsPath); err != nil {
			return errors.WrapFileSystemError("write", hintsPath, err)
		}
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, hintsPath)
		g.summary.HintFiles++
	}
	return nil
}

// codeGenerator builds the generator for one package directory; initializers
// record the configured build directory, or the package's own
func (g *Generator) codeGenerator(config Config, dir string) generator.CodeGenerator {
	buildDir := config.BuildDir
	if buildDir == "" {
		buildDir = dir
	}
	if abs, err := filepath.Abs(buildDir); err == nil {
		buildDir = abs
	}
	return generator.NewGeneratorWithAot(&generator.AotGenerator{Clock: g.clock, Dir: buildDir}).
		WithMethodResolver(g.methods)
}

// Synth prints the subclass synthesized for typeName in the package at dir
func (g *Generator) Synth(dir, typeName string, out io.Writer) (*synth.SourceUnit, error) {
	metadata, err := g.parser.ParseDirectory(dir)
	if err != nil {
		return nil, err
	}
	synthesizer := synth.NewSynthesizer()
	synthesizer.Promoted = func(field models.EmbeddedField) ([]models.Method, error) {
		return g.methods.PromotedMethods(metadata, field)
	}
	unit, err := synthesizer.Synthesize(metadata, typeName)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(out, unit.Source); err != nil {
		return nil, errors.WrapFileSystemError("write", "output", err)
	}
	return unit, nil
}

// Clean removes generated files below the given directories
func (g *Generator) Clean(directories []string) ([]string, error) {
	removed, err := NewCleaner().CleanGeneratedFiles(directories)
	for _, path := range removed {
		g.diagnostics.Verbose("Removed %s", path)
	}
	return removed, err
}
