package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ray/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCache_InvalidatesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	writeFile(t, path, "module a\n")

	cache := NewCache[string, string]()
	require.NoError(t, cache.Set(path, "a", path))

	got, ok := cache.Get(path, path)
	require.True(t, ok)
	assert.Equal(t, "a", got)

	writeFile(t, path, "module abc\n")
	_, ok = cache.Get(path, path)
	assert.False(t, ok, "size changed")
	assert.Equal(t, 0, cache.Len())

	assert.Error(t, cache.Set("missing", "x", filepath.Join(t.TempDir(), "missing")))
}

func TestFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "hello")

	reader := NewFileReader()
	content, err := reader.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
	assert.Equal(t, 1, reader.Cached())
	assert.True(t, reader.Exists(path))
	assert.False(t, reader.Exists(filepath.Dir(path)))

	_, err = reader.ReadFile(path + ".missing")
	assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
}

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/app\n\ngo 1.25\n")
	nested := filepath.Join(root, "internal", "greetings")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	parser := NewGoModParser(nil)

	goMod, err := parser.FindGoModFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), goMod)

	name, err := parser.ParseModuleName(goMod)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", name)

	importPath, err := parser.ImportPath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/internal/greetings", importPath)

	importPath, err = parser.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", importPath)
}

func TestGoModParser_Errors(t *testing.T) {
	parser := NewGoModParser(nil)

	_, err := parser.ParseModuleName(filepath.Join(t.TempDir(), "main.go"))
	assert.True(t, errors.HasCode(err, errors.ModuleResolutionErrorCode))

	noModule := filepath.Join(t.TempDir(), "go.mod")
	writeFile(t, noModule, "go 1.25\n")
	_, err = parser.ParseModuleName(noModule)
	assert.ErrorContains(t, err, "no module declaration")
}

func TestFormatSource(t *testing.T) {
	src := []byte("package p\nimport (\"time\"\n\"fmt\")\nfunc F() string { return fmt.Sprint(time.Second) }\n")
	formatted, err := FormatSource("p.go", src)
	require.NoError(t, err)
	assert.Equal(t, "package p\n\nimport (\n\t\"fmt\"\n\t\"time\"\n)\n\nfunc F() string { return fmt.Sprint(time.Second) }\n", string(formatted))

	_, err = FormatSource("broken.go", []byte("package p\nfunc {"))
	assert.True(t, errors.HasCode(err, errors.GenerationErrorCode))
}

func TestWriteGeneratedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg", GeneratedSourceFile)
	require.NoError(t, WriteGeneratedFile(path, []byte("package pkg\nvar  X = 1\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package pkg\n\nvar X = 1\n", string(content))
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("service.go"))
	assert.False(t, IsSourceFile("service_test.go"))
	assert.False(t, IsSourceFile(GeneratedSourceFile))
	assert.False(t, IsSourceFile("README.md"))
}

func TestExpandPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "svc", "svc.go"), "package svc\n")
	writeFile(t, filepath.Join(root, "svc", "deep", "deep.go"), "package deep\n")
	writeFile(t, filepath.Join(root, "onlytests", "x_test.go"), "package x\n")
	writeFile(t, filepath.Join(root, "vendor", "v", "v.go"), "package v\n")
	writeFile(t, filepath.Join(root, ".hidden", "h.go"), "package h\n")
	writeFile(t, filepath.Join(root, "_examples", "e", "e.go"), "package e\n")
	writeFile(t, filepath.Join(root, "nested", "go.mod"), "module nested\n")
	writeFile(t, filepath.Join(root, "nested", "n.go"), "package n\n")

	fp := NewFileProcessor()
	dirs, err := fp.ExpandPatterns([]string{root + "/...", filepath.Join(root, "svc")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "svc"),
		filepath.Join(root, "svc", "deep"),
	}, dirs)

	_, err = fp.ExpandPatterns([]string{filepath.Join(root, "main.go")})
	assert.ErrorContains(t, err, "failed to scan")

	_, err = fp.ExpandPatterns([]string{filepath.Join(root, "missing")})
	assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
}

func TestCleanDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", GeneratedSourceFile), "package svc\n")
	writeFile(t, filepath.Join(root, "svc", GeneratedHintsFile), "types: []\n")
	writeFile(t, filepath.Join(root, "svc", "svc.go"), "package svc\n")
	writeFile(t, filepath.Join(root, "other", GeneratedSourceFile), "package other\n")

	removed, err := NewFileProcessor().CleanDirectories([]string{root + "/..."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "svc", GeneratedSourceFile),
		filepath.Join(root, "svc", GeneratedHintsFile),
		filepath.Join(root, "other", GeneratedSourceFile),
	}, removed)

	_, err = os.Stat(filepath.Join(root, "svc", "svc.go"))
	assert.NoError(t, err)
}

func newTestDiagnostics(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystem(level)
	d.SetOutput(&out, &errOut)
	d.showTime = false
	return d, &out, &errOut
}

func TestDiagnostics_Levels(t *testing.T) {
	d, out, errOut := newTestDiagnostics(DiagnosticInfo)

	d.Error("broken %s", "thing")
	d.Warn("careful")
	d.Info("hello")
	d.Verbose("hidden")
	d.Debug("hidden too")

	assert.Equal(t, "[ERROR] broken thing\n", errOut.String())
	assert.Equal(t, "[WARN] careful\n[INFO] hello\n", out.String())

	quiet, out, errOut := newTestDiagnostics(DiagnosticError)
	quiet.Info("nope")
	quiet.Success("nope")
	quiet.Error("yes")
	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] yes\n", errOut.String())
}

func TestDiagnostics_Layout(t *testing.T) {
	d, out, _ := newTestDiagnostics(DiagnosticInfo)

	d.RayHeader("Generating proxies")
	d.Section("Packages")
	d.Indent()
	d.List("greetings")
	d.Unindent()
	d.Unindent()
	d.List("done")
	d.Summary("Summary", map[string]interface{}{"proxies": 2, "initializers": 1})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Ray: Generating proxies",
		"Packages",
		"  - greetings",
		"- done",
		"",
		"Summary",
		"   initializers: 1",
		"   proxies: 2",
	}, lines)
}

func TestDiagnostics_Progress(t *testing.T) {
	d, out, _ := newTestDiagnostics(DiagnosticVerbose)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	d.StartProgress("Parsing")
	d.EndProgress("Parsing")
	d.EndProgress("Unknown")

	assert.Equal(t, "[VERBOSE] Parsing...\n✓ Parsing (250ms)\n✓ Unknown\n", out.String())
}

func TestDiagnosticLevel_String(t *testing.T) {
	assert.Equal(t, "ERROR", DiagnosticError.String())
	assert.Equal(t, "DEBUG", DiagnosticDebug.String())
	assert.Equal(t, "SILENT", DiagnosticSilent.String())
}
