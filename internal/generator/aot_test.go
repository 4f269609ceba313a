package generator

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
)

const reportSource = `package report

import rt "github.com/toyz/ray/pkg/ray"

//ray::aot -Constructor=NewCompiled
type Report struct{}

func NewCompiled(info rt.BuildInfo) *Report { return &Report{} }

func NewTwice(a, b rt.BuildInfo) *Report { return nil }

func NewValue(info rt.BuildInfo) Report { return Report{} }
`

func aotType(pkg *models.PackageMetadata, constructor string) models.TypeMetadata {
	t, _ := pkg.FindType("Report")
	out := *t
	out.AotConstructor = constructor
	return out
}

func TestAotGenerator_Generate(t *testing.T) {
	aot := &AotGenerator{
		Clock: func() time.Time { return time.UnixMilli(42) },
		Dir:   "/work/report",
	}
	pkg := parse(t, reportSource)

	initializer, err := aot.Generate(aotType(pkg, "NewCompiled"))
	require.NoError(t, err)

	assert.Equal(t, "AotInitReport", initializer.FunctionName)
	assert.Equal(t, "Report", initializer.TypeName)
	assert.Equal(t, ModuleVariable, initializer.OwnerName)
	assertContainsCode(t, initializer.Source,
		`// AotInitReport builds Report from what was known when this file was generated.
		func AotInitReport(reg *ray.Registration, prev any) any {
			return NewCompiled(ray.BuildInfo{
				Timestamp: time.UnixMilli(42),
				Directory: "/work/report",
			})
		}`,
	)
}

// Two runs in one build agree on everything but the captured time
func TestAotGenerator_GenerateTwice(t *testing.T) {
	pkg := parse(t, reportSource)
	first, err := (&AotGenerator{Clock: func() time.Time { return time.UnixMilli(1000) }, Dir: "/work/report"}).
		Generate(aotType(pkg, "NewCompiled"))
	require.NoError(t, err)
	second, err := (&AotGenerator{Clock: func() time.Time { return time.UnixMilli(2500) }, Dir: "/work/report"}).
		Generate(aotType(pkg, "NewCompiled"))
	require.NoError(t, err)

	assert.Equal(t, first.FunctionName, second.FunctionName)
	assert.Equal(t, first.OwnerName, second.OwnerName)
	assert.Equal(t, first.TypeName, second.TypeName)

	assert.NotEqual(t, first.Source, second.Source)
	assert.Contains(t, first.Source, "time.UnixMilli(1000)")
	assert.Contains(t, second.Source, "time.UnixMilli(2500)")
	timestamp := regexp.MustCompile(`time\.UnixMilli\(\d+\)`)
	assert.Equal(t,
		timestamp.ReplaceAllString(first.Source, "time.UnixMilli(N)"),
		timestamp.ReplaceAllString(second.Source, "time.UnixMilli(N)"))
}

func TestAotGenerator_GenerateRequiresConstructor(t *testing.T) {
	pkg := parse(t, reportSource)

	_, err := (&AotGenerator{}).Generate(aotType(pkg, ""))
	assert.Equal(t, errors.ValidationErrorCode, codeOf(t, err))

	plain := aotType(pkg, "NewCompiled")
	plain.Aot = false
	_, err = (&AotGenerator{}).Generate(plain)
	assert.Equal(t, errors.ValidationErrorCode, codeOf(t, err))
}

func TestAotGenerator_Validate(t *testing.T) {
	pkg := parse(t, reportSource)
	aot := &AotGenerator{}

	assert.NoError(t, aot.Validate(pkg, aotType(pkg, "NewCompiled")), "aliased ray import is accepted")

	tests := []struct {
		constructor string
		contains    string
	}{
		{"NewMissing", "constructor NewMissing of Report not found"},
		{"NewTwice", "must take exactly one ray.BuildInfo"},
		{"NewValue", "must return *Report"},
	}
	for _, tt := range tests {
		t.Run(tt.constructor, func(t *testing.T) {
			err := aot.Validate(pkg, aotType(pkg, tt.constructor))
			assert.Equal(t, errors.ValidationErrorCode, codeOf(t, err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNewAotGenerator(t *testing.T) {
	aot := NewAotGenerator()
	assert.NotNil(t, aot.Clock)
	assert.NotEmpty(t, aot.Dir)
}
