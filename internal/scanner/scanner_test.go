package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/ray/internal/errors"
	"github.com/toyz/ray/internal/models"
	"github.com/toyz/ray/internal/parser"
)

const hierarchySource = `package svc

import "sync"

type Named interface {
	Name() string
}

type base struct{}

//ray::intercept
func (b *base) Greet(name string) string { return "hi " + name }

//ray::intercept
func (b *base) Close() error { return nil }

func (b *base) Version() int { return 1 }

type left struct{}

func (left) Tag() string { return "left" }

type right struct{}

func (right) Tag() string { return "right" }

type Service struct {
	*base
	left
	right
	sync.Mutex
	Named
}

// Greet overrides the marked base method without a marker of its own
func (s *Service) Greet(name string) string { return "hello " + name }

//ray::intercept
func (s *Service) Run(args ...string) (int, error) { return len(args), nil }

func (s *Service) Stop() {}

//ray::intercept
func (s *Service) Restart() {}

type Loop struct {
	*Loop2
}

type Loop2 struct {
	*Loop
}

func (l *Loop2) Spin() {}

type Names []string
`

func parse(t *testing.T) *models.PackageMetadata {
	t.Helper()
	pkg, err := parser.NewParser().ParseSource("svc.go", hierarchySource)
	require.NoError(t, err)
	return pkg
}

func TestResolve_Promotion(t *testing.T) {
	res, err := Resolve(parse(t), "Service")
	require.NoError(t, err)

	greet, ok := res.Method("Greet")
	require.True(t, ok)
	assert.Equal(t, "Service", greet.Owner, "outermost declaration wins")
	assert.Equal(t, 0, greet.Depth)

	closeMethod, ok := res.Method("Close")
	require.True(t, ok)
	assert.Equal(t, "base", closeMethod.Owner)
	assert.Equal(t, 1, closeMethod.Depth)

	named, ok := res.Method("Name")
	require.True(t, ok)
	assert.Equal(t, "Named", named.Owner)

	_, ok = res.Method("Tag")
	assert.False(t, ok, "same-depth declarations cancel out")
	assert.Equal(t, []string{"Tag"}, res.Ambiguous)

	require.Len(t, res.Foreign, 1)
	assert.Equal(t, "Mutex", res.Foreign[0].TypeName)
	assert.Equal(t, "sync", res.Foreign[0].Package)

	assert.Len(t, res.Plain(), len(res.Methods))
}

func TestResolveWith_Foreign(t *testing.T) {
	var looked []models.EmbeddedField
	lookup := func(field models.EmbeddedField) ([]models.Method, error) {
		looked = append(looked, field)
		return []models.Method{
			{Name: "Lock", PointerReceiver: true},
			{Name: "Unlock", PointerReceiver: true},
			{Name: "Version", PointerReceiver: true, Returns: []string{"int"}},
		}, nil
	}

	res, err := ResolveWith(parse(t), "Service", lookup)
	require.NoError(t, err)

	require.Len(t, looked, 1)
	assert.Equal(t, "Mutex", looked[0].TypeName)
	assert.Empty(t, res.Foreign)

	lock, ok := res.Method("Lock")
	require.True(t, ok)
	assert.Equal(t, "sync.Mutex", lock.Owner)
	assert.Equal(t, 1, lock.Depth)
	assert.False(t, res.IsMarked("Lock"))

	_, ok = res.Method("Version")
	assert.False(t, ok, "collides with base.Version at the same depth")
	assert.Equal(t, []string{"Tag", "Version"}, res.Ambiguous)

	assert.ElementsMatch(t, []string{"Greet", "Run", "Close", "Restart"}, Marked(res).Names())
}

func TestResolveWith_LookupError(t *testing.T) {
	_, err := ResolveWith(parse(t), "Service", func(models.EmbeddedField) ([]models.Method, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolve_Cycle(t *testing.T) {
	res, err := Resolve(parse(t), "Loop")
	require.NoError(t, err)

	spin, ok := res.Method("Spin")
	require.True(t, ok)
	assert.Equal(t, "Loop2", spin.Owner)
}

func TestScan_MarkedMethods(t *testing.T) {
	marked, err := Scan(parse(t), "Service")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Greet", "Run", "Close", "Restart"}, marked.Names())

	descriptors := marked.Descriptors()
	var greetKey, runKey string
	for _, d := range descriptors {
		switch d.Name {
		case "Greet":
			greetKey = d.Key()
		case "Run":
			runKey = d.Key()
		}
	}
	assert.Equal(t, "Greet(string)(string)", greetKey)
	assert.Equal(t, "Run(...string)(int,error)", runKey)
}

func TestScan_UnmarkedType(t *testing.T) {
	marked, err := Scan(parse(t), "Loop")
	require.NoError(t, err)
	assert.True(t, marked.IsEmpty())
}

func TestScan_IntrospectionFailures(t *testing.T) {
	pkg := parse(t)

	tests := []struct {
		name     string
		typeName string
		contains string
	}{
		{"unknown type", "Missing", "type not found in package svc"},
		{"interface", "Named", "Named has kind interface, want struct"},
		{"named slice", "Names", "Names has kind other, want struct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(pkg, tt.typeName)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.IntrospectionFailureErrorCode))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	_, err := Resolve(nil, "Service")
	assert.True(t, errors.HasCode(err, errors.IntrospectionFailureErrorCode))
}

func TestDescriptor(t *testing.T) {
	d := Descriptor(models.Method{
		Name:    "Join",
		Params:  []models.Parameter{{Name: "sep", Type: "string"}, {Name: "parts", Type: "...string"}},
		Returns: []string{"string"},
	})
	assert.Equal(t, "Join(string,...string)(string)", d.Key())
}
