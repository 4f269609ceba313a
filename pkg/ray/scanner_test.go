package ray

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarks(t *testing.T) {
	marks := NewMarks()
	marks.Mark(greetingsType, "English")
	marks.Mark(greetingsType, "English", "Fail")
	marks.Mark(nil, "Ignored")

	assert.True(t, marks.IsMarked(greetingsType, "English"))
	assert.False(t, marks.IsMarked(greetingsType, "Chinese"))
	assert.False(t, marks.IsMarked(greetingsType.Elem(), "English"), "marks are per exact type")
	assert.Equal(t, []string{"English", "Fail"}, marks.MarkedOn(greetingsType))
	assert.Equal(t, []reflect.Type{greetingsType}, marks.Types())
}

func TestMarks_ConcurrentUse(t *testing.T) {
	marks := NewMarks()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marks.Mark(greetingsType, "English")
			_ = marks.IsMarked(greetingsType, "English")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"English"}, marks.MarkedOn(greetingsType))
}

func TestScanner_Scan(t *testing.T) {
	marks := NewMarks()
	marks.Mark(greetingsType, "English")
	scanner := NewScanner(marks)

	set, err := scanner.Scan(greetingsType)
	require.NoError(t, err)
	assert.Equal(t, []string{"English"}, set.Names())
	assert.True(t, set.Contains(greetingsEnglish))
	assert.False(t, set.Contains(greetingsChinese))
}

func TestScanner_Scan_ValueTypeMarkedViaPointer(t *testing.T) {
	marks := NewMarks()
	marks.Mark(reflect.TypeOf(plain{}), "Hello")
	scanner := NewScanner(marks)

	set, err := scanner.Scan(reflect.TypeOf(&plain{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, set.Names())

	set, err = scanner.Scan(reflect.TypeOf(plain{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, set.Names())
}

func TestScanner_Scan_EmbeddedHierarchyIsDeduplicated(t *testing.T) {
	marks := NewMarks()
	// the embedded type marks English, the outer type overrides it and marks it again
	marks.Mark(greetingsType, "English", "Fail")
	marks.Mark(reflect.TypeOf((*loudGreetings)(nil)), "English")
	scanner := NewScanner(marks)

	set, err := scanner.Scan(reflect.TypeOf(&loudGreetings{}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"English", "Fail"}, set.Names())
	assert.Equal(t, 2, set.Len())
}

func TestScanner_Scan_NoMarks(t *testing.T) {
	set, err := NewScanner(nil).Scan(greetingsType)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestScanner_Scan_IntrospectionFailure(t *testing.T) {
	scanner := NewScanner(NewMarks())

	for _, typ := range []reflect.Type{nil, reflect.TypeOf(42), TypeOf[greeter](), reflect.TypeOf(new(int))} {
		_, err := scanner.Scan(typ)
		assert.ErrorIs(t, err, ErrIntrospection, "%v", typ)
	}
}
