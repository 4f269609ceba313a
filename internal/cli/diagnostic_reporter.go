package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/ray/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewDiagnosticReporter creates a reporter writing to the colored standard
// streams
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
		out:     color.Output,
		errOut:  color.Error,
	}
}

// SetOutput redirects both streams
func (r *DiagnosticReporter) SetOutput(out, errOut io.Writer) {
	r.out = out
	r.errOut = errOut
}

// ReportWarning prints a one-line warning
func (r *DiagnosticReporter) ReportWarning(message string, suggestions ...string) {
	fmt.Fprintf(r.errOut, "%s %s\n", color.New(color.FgYellow, color.Bold).Sprint("!"), message)
	for _, s := range suggestions {
		fmt.Fprintf(r.errOut, "  - %s\n", s)
	}
}

// ReportError prints err with its code, location, context and suggestions.
// Collections of errors are reported one after another.
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}

	fmt.Fprintf(r.errOut, "\n%s\n", color.New(color.FgRed, color.Bold).Sprint("ERROR: Code Generation Failed"))
	fmt.Fprintf(r.errOut, "=============================\n\n")

	if multi, ok := err.(*errors.MultipleErrors); ok {
		for i, e := range multi.Errors {
			fmt.Fprintf(r.errOut, "[%d/%d]\n", i+1, len(multi.Errors))
			r.reportRayError(e)
		}
		r.printMoreHelp()
		return
	}

	if rayErr := findRayError(err); rayErr != nil {
		r.reportRayError(rayErr)
	} else {
		fmt.Fprintf(r.errOut, "Message: %s\n\n", err.Error())
	}
	r.printMoreHelp()
}

func (r *DiagnosticReporter) reportRayError(err errors.RayError) {
	title := errorTitle(err.ErrorCode())
	fmt.Fprintf(r.errOut, "Type: %s\n", title)
	fmt.Fprintf(r.errOut, "%s\n\n", strings.Repeat("-", len(title)+6))

	fmt.Fprintf(r.errOut, "Message: %s\n\n", errorMessage(err))
	if cause := err.Unwrap(); cause != nil && !r.verbose {
		fmt.Fprintf(r.errOut, "Cause: %s\n\n", cause.Error())
	}

	if loc := err.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.errOut, "Location: %s\n\n", loc)
	}

	if ctx := err.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}

	if suggestions := err.Suggestions(); len(suggestions) > 0 {
		r.printSuggestions(suggestions)
	}

	r.printAdditionalHelp(err.ErrorCode())

	if r.verbose {
		r.printErrorChain(err)
	}
}

// errorMessage returns the message without the cause, which the verbose
// chain prints on its own
func errorMessage(err errors.RayError) string {
	if base, ok := err.(*errors.BaseError); ok {
		return base.Message
	}
	return err.Error()
}

func errorTitle(code errors.ErrorCode) string {
	switch code {
	case errors.AnnotationSyntaxErrorCode:
		return "Annotation Syntax Error"
	case errors.ValidationErrorCode:
		return "Validation Error"
	case errors.UnsubclassableTypeErrorCode:
		return "Unsubclassable Type"
	case errors.IntrospectionFailureErrorCode:
		return "Introspection Failure"
	case errors.NullCollaboratorErrorCode:
		return "Null Collaborator"
	case errors.GenerationErrorCode:
		return "Code Generation Error"
	case errors.FileSystemErrorCode:
		return "File System Error"
	case errors.ModuleResolutionErrorCode:
		return "Module Resolution Error"
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	default:
		return "Unknown Error"
	}
}

// printContext prints context keys in sorted order
func (r *DiagnosticReporter) printContext(ctx map[string]interface{}) {
	keys := make([]string, 0, len(ctx))
	for key := range ctx {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.errOut, "Context:\n")
	for _, key := range keys {
		fmt.Fprintf(r.errOut, "   %s: %v\n", formatContextKey(key), ctx[key])
	}
	fmt.Fprintf(r.errOut, "\n")
}

// formatContextKey turns snake_case keys into Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.errOut, "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.errOut, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.errOut, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(r.errOut, "\n")
}

func (r *DiagnosticReporter) printAdditionalHelp(code errors.ErrorCode) {
	switch code {
	case errors.AnnotationSyntaxErrorCode:
		fmt.Fprintf(r.errOut, "Annotation Syntax Help:\n")
		fmt.Fprintf(r.errOut, "  - Annotations start with //ray:: directly above the declaration\n")
		fmt.Fprintf(r.errOut, "  - Known annotations: intercept, managed, aot, final\n")
		fmt.Fprintf(r.errOut, "  - Parameters are written -Name=value\n\n")

	case errors.ValidationErrorCode:
		fmt.Fprintf(r.errOut, "Ahead-of-time Constructor Requirements:\n")
		fmt.Fprintf(r.errOut, "  - Must be a package-level function named by -Constructor\n")
		fmt.Fprintf(r.errOut, "  - Must take exactly one ray.BuildInfo\n")
		fmt.Fprintf(r.errOut, "  - Must return a pointer to the annotated type\n\n")

	case errors.UnsubclassableTypeErrorCode:
		fmt.Fprintf(r.errOut, "Only struct types without //ray::final can be subclassed.\n\n")

	case errors.ModuleResolutionErrorCode:
		fmt.Fprintf(r.errOut, "Module Help:\n")
		fmt.Fprintf(r.errOut, "  - Check your go.mod file\n")
		fmt.Fprintf(r.errOut, "  - Try specifying --module flag explicitly\n\n")
	}
}

func (r *DiagnosticReporter) printMoreHelp() {
	fmt.Fprintf(r.errOut, "For more help:\n")
	fmt.Fprintf(r.errOut, "  - Run with --verbose for more detailed output\n")
	fmt.Fprintf(r.errOut, "  - Review the example application in examples/greetings\n\n")
}

// printErrorChain prints every error reachable through Unwrap
func (r *DiagnosticReporter) printErrorChain(err error) {
	fmt.Fprintf(r.errOut, "Error Chain:\n")
	level := 1
	for err != nil {
		fmt.Fprintf(r.errOut, "    %d. %s\n", level, err.Error())
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
		level++
	}
	fmt.Fprintf(r.errOut, "\n")
}

// findRayError searches the wrap chain for a RayError
func findRayError(err error) errors.RayError {
	for err != nil {
		if rayErr, ok := err.(errors.RayError); ok {
			return rayErr
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = unwrapper.Unwrap()
	}
	return nil
}

// Debug prints debug information when verbose mode is enabled
func (r *DiagnosticReporter) Debug(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.errOut, "[DEBUG] "+format+"\n", args...)
	}
}

// GenerationSummary contains information about the generation process
type GenerationSummary struct {
	PackagesProcessed  int
	ModulesGenerated   int
	ManagedTypes       int
	InterceptedMethods int
	AotInitializers    int
	HintFiles          int
	GeneratedFiles     []string
}

// Stats returns the summary as the key/value list printed after a run
func (s GenerationSummary) Stats() map[string]interface{} {
	return map[string]interface{}{
		"Packages processed":  s.PackagesProcessed,
		"Modules generated":   s.ModulesGenerated,
		"Managed types":       s.ManagedTypes,
		"Intercepted methods": s.InterceptedMethods,
		"AOT initializers":    s.AotInitializers,
		"Hint files":          s.HintFiles,
	}
}
