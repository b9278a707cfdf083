package reflection

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditable struct {
	createdAt time.Time `dsl:"created_at"`
	updatedAt time.Time `dsl:"updated_at"`
}

type entity struct {
	auditable
	id int `dsl:"id"`
}

type user struct {
	*entity
	name     string
	age      int
	Email    string
	internal string `dsl:"-"`
	table    string `dsl:"static"`
}

func names(fields []Field) []string {
	result := make([]string, len(fields))
	for i, f := range fields {
		result[i] = f.Name
	}
	return result
}

func TestFieldsOf(t *testing.T) {
	t.Run("own fields first then embedded levels", func(t *testing.T) {
		fields := FieldsOf(reflect.TypeOf(user{}))
		assert.Equal(t, []string{"name", "age", "Email", "table", "id", "createdAt", "updatedAt"}, names(fields))
	})

	t.Run("pointer is dereferenced", func(t *testing.T) {
		assert.Equal(t, names(FieldsOf(reflect.TypeOf(user{}))), names(FieldsOf(reflect.TypeOf(&user{}))))
	})

	t.Run("non struct", func(t *testing.T) {
		assert.Empty(t, FieldsOf(reflect.TypeOf(42)))
		assert.Empty(t, FieldsOf(nil))
	})

	t.Run("descriptor", func(t *testing.T) {
		f, ok := FieldOf(reflect.TypeOf(user{}), "id")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeOf(0), f.Type)
		assert.Equal(t, reflect.TypeOf(entity{}), f.Owner)
		assert.Equal(t, []int{0, 1}, f.Index)
		assert.False(t, f.Exported)
		assert.Equal(t, []string{"id"}, f.Markers)

		email, ok := FieldOf(reflect.TypeOf(user{}), "Email")
		require.True(t, ok)
		assert.True(t, email.Exported)
	})

	t.Run("static flag", func(t *testing.T) {
		f, ok := FieldOf(reflect.TypeOf(user{}), "table")
		require.True(t, ok)
		assert.True(t, f.Static)
	})

	t.Run("excluded field", func(t *testing.T) {
		assert.False(t, Has(reflect.TypeOf(user{}), "internal"))
		assert.True(t, Has(reflect.TypeOf(user{}), "name"))
		assert.False(t, Has(reflect.TypeOf(user{}), "missing"))
	})

	t.Run("memoised", func(t *testing.T) {
		first := FieldsOf(reflect.TypeOf(entity{}))
		second := FieldsOf(reflect.TypeOf(entity{}))
		require.NotEmpty(t, first)
		assert.Same(t, &first[0], &second[0])
	})
}

func TestFieldOfExportedForms(t *testing.T) {
	type invoice struct {
		UserID    int
		CreatedAt time.Time
		Number    string
		number    string
	}
	typ := reflect.TypeOf(invoice{})

	f, ok := FieldOf(typ, "createdAt")
	require.True(t, ok)
	assert.Equal(t, "CreatedAt", f.Name)

	f, ok = FieldOf(typ, "userId")
	require.True(t, ok)
	assert.Equal(t, "UserID", f.Name)

	f, ok = FieldOf(typ, "number")
	require.True(t, ok)
	assert.Equal(t, "number", f.Name, "exact name wins")

	assert.False(t, Has(typ, "updatedAt"))
	assert.Equal(t, []string{"UserId", "UserID"}, ExportedNames("userId"))
	assert.Equal(t, "CreatedAt", Capitalize("createdAt"))
}

func TestFieldsOfShadowing(t *testing.T) {
	type base struct{ name string }
	type derived struct {
		base
		name string
	}
	f, ok := FieldOf(reflect.TypeOf(derived{}), "name")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(derived{}), f.Owner)
}

func TestFieldsOfConcurrentFirstAccess(t *testing.T) {
	type concurrent struct {
		auditable
		a, b, c string
		d       int
	}
	typ := reflect.TypeOf(concurrent{})

	const workers = 32
	results := make([][]Field, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = FieldsOf(typ)
		}(i)
	}
	close(start)
	wg.Wait()

	expected := []string{"a", "b", "c", "d", "createdAt", "updatedAt"}
	for i := range results {
		assert.Equal(t, expected, names(results[i]))
	}
	assert.Same(t, &FieldsOf(typ)[0], &results[0][0])
}

func TestMarkers(t *testing.T) {
	typ := reflect.TypeOf(user{})

	t.Run("fields by marker", func(t *testing.T) {
		assert.Equal(t, []string{"updatedAt"}, names(FieldsByMarker(typ, MarkerUpdatedAt)))
		assert.Empty(t, FieldsByMarker(typ, MarkerVersion))
	})

	t.Run("first field by marker", func(t *testing.T) {
		f, ok := FirstFieldByMarker(typ, MarkerID)
		require.True(t, ok)
		assert.Equal(t, "id", f.Name)

		_, ok = FirstFieldByMarker(typ, MarkerDeletedAt)
		assert.False(t, ok)
	})

	t.Run("memoised answer is stable", func(t *testing.T) {
		f, _ := FieldOf(typ, "createdAt")
		assert.True(t, HasMarker(f, MarkerCreatedAt))
		assert.True(t, HasMarker(f, MarkerCreatedAt))
		assert.False(t, HasMarker(f, MarkerUpdatedAt))
	})
}
