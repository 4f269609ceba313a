package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/toyz/ray/internal/cli"
	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ray", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		moduleFlag   = flags.String("module", "", "Custom module name for imports (defaults to go.mod module)")
		verboseFlag  = flags.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag    = flags.Bool("quiet", false, "Only show errors and final results")
		cleanFlag    = flags.Bool("clean", false, "Delete all autogen_ray.go and autogen_hints.yaml files from the specified directories")
		hintsFlag    = flags.Bool("hints", false, "Write autogen_hints.yaml next to every generated module")
		buildDirFlag = flags.String("build-dir", "", "Directory recorded by ahead-of-time initializers (defaults to each package directory)")
		noColorFlag  = flags.Bool("no-color", false, "Disable colored output")
		helpFlag     = flags.Bool("help", false, "Show help information")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ray [options] <directory-paths...>\n")
		fmt.Fprintf(stderr, "       ray synth <directory> <Type>\n\n")
		fmt.Fprintf(stderr, "Ray Code Generator\n")
		fmt.Fprintf(stderr, "Scans directories for Go files with ray:: annotations and generates method proxies,\n")
		fmt.Fprintf(stderr, "ahead-of-time initializers and FX modules.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nArguments:\n")
		fmt.Fprintf(stderr, "  directory-paths    One or more directories to scan for annotated Go files\n")
		fmt.Fprintf(stderr, "                     Supports Go-style patterns like './...' for recursive scanning\n")
		fmt.Fprintf(stderr, "\nCommands:\n")
		fmt.Fprintf(stderr, "  synth              Print the subclass source synthesized for a struct type\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  ray ./...                                  # Scan everything recursively\n")
		fmt.Fprintf(stderr, "  ray --hints ./internal/...                 # Also write proxy hints\n")
		fmt.Fprintf(stderr, "  ray --module github.com/myorg/myapp ./...  # Specify custom module name\n")
		fmt.Fprintf(stderr, "  ray --clean ./...                          # Delete all generated files\n")
		fmt.Fprintf(stderr, "  ray synth ./internal/greetings DefaultGreetingsService\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *noColorFlag {
		utils.DisableColors()
	}
	if *helpFlag {
		flags.Usage()
		return 0
	}

	rest := flags.Args()
	if len(rest) == 0 {
		fmt.Fprintf(stderr, "Error: At least one directory path is required\n\n")
		flags.Usage()
		return 1
	}

	var diagnostics *utils.DiagnosticSystem
	switch {
	case *quietFlag:
		diagnostics = utils.NewQuietDiagnostics()
	case *verboseFlag:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	diagnostics.SetOutput(stdout, stderr)

	generator := cli.NewGeneratorWithDiagnostics(*verboseFlag, diagnostics)
	generator.Reporter().SetOutput(stdout, stderr)

	if rest[0] == "synth" {
		return runSynth(generator, rest[1:], stdout, stderr)
	}

	diagnostics.RayHeader("code generator")

	if *cleanFlag {
		diagnostics.StartProgress("Cleaning generated files")
		removed, err := generator.Clean(rest)
		if err != nil {
			generator.Reporter().ReportError(err)
			return 1
		}
		diagnostics.EndProgress("Cleaning generated files")
		diagnostics.Success("Removed %d generated files", len(removed))
		return 0
	}

	config := cli.Config{
		Directories: rest,
		ModuleName:  *moduleFlag,
		Verbose:     *verboseFlag,
		WriteHints:  *hintsFlag,
		BuildDir:    *buildDirFlag,
	}

	if *verboseFlag {
		diagnostics.Subsection("Configuration")
		diagnostics.List("Target directories: %s", strings.Join(rest, ", "))
		if *moduleFlag != "" {
			diagnostics.List("Custom module: %s", *moduleFlag)
		}
		if *buildDirFlag != "" {
			diagnostics.List("Build directory: %s", *buildDirFlag)
		}
		diagnostics.List("Hints: %t", *hintsFlag)
	}

	diagnostics.Subsection("Code Generation")
	if err := generator.Run(config); err != nil {
		generator.Reporter().ReportError(err)
		return exitCode(err)
	}

	summary := generator.GetSummary()
	diagnostics.Summary("Generation Complete!", summary.Stats())
	if *verboseFlag && len(summary.GeneratedFiles) > 0 {
		diagnostics.Subsection("Generated Files")
		for _, file := range summary.GeneratedFiles {
			diagnostics.List("%s", file)
		}
	}
	return 0
}

// exitCode maps a failed run to the process exit code: 2 for invalid
// configuration, like a bad flag, and 1 for everything else
func exitCode(err error) int {
	if errors.CodeOf(err) == errors.ConfigurationErrorCode {
		return 2
	}
	return 1
}

func runSynth(generator *cli.Generator, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintf(stderr, "Usage: ray synth <directory> <Type>\n")
		return 1
	}
	if _, err := generator.Synth(args[0], args[1], stdout); err != nil {
		generator.Reporter().ReportError(err)
		return 1
	}
	return 0
}
