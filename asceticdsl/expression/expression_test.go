package expression

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"
)

type priority int

type task struct {
	ID       uuid.UUID
	Title    string
	Priority priority
	Done     bool
	Owner    *string
}

type rule struct {
	Name   string      `json:"name"`
	Filter *Expression `json:"filter"`
}

func TestParse(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	first, err := cache.Parse("obj.Priority > 2")
	require.NoError(t, err)
	second, err := cache.Parse("obj.Priority > 2")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "obj.Priority > 2", first.String())

	_, err = cache.Parse("obj.Priority >")
	assert.True(t, errors.Is(err, ErrCompile))

	_, err = cache.Parse("")
	assert.True(t, errors.Is(err, ErrCompile))

	_, err = cache.Parse("unknown == 1")
	assert.True(t, errors.Is(err, ErrCompile))
}

func TestEval(t *testing.T) {
	cache, err := NewCache("limit", "name")
	require.NoError(t, err)

	e, err := cache.Parse("limit * 2")
	require.NoError(t, err)
	out, err := e.Eval(map[string]any{"limit": 21})
	require.NoError(t, err)
	assert.Equal(t, int64(42), out)

	greeting, err := cache.Parse(`"hello " + name`)
	require.NoError(t, err)
	out, err = greeting.Eval(map[string]any{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "hello bob", out)

	_, err = e.Eval(nil)
	assert.True(t, errors.Is(err, ErrEval))

	_, err = (&Expression{}).Eval(nil)
	assert.True(t, errors.Is(err, ErrEval))
}

func TestMatches(t *testing.T) {
	owner := faker.Name().Name()
	item := task{ID: uuid.New(), Title: "write docs", Priority: 3, Done: false, Owner: &owner}

	cases := []struct {
		source   string
		expected bool
	}{
		{"obj.Priority >= 3 && !obj.Done", true},
		{`obj.Title.startsWith("write")`, true},
		{`obj.ID == "` + item.ID.String() + `"`, true},
		{`obj.Owner == "` + owner + `"`, true},
		{"obj.Done", false},
	}
	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			e, err := Parse(c.source)
			require.NoError(t, err)
			matched, err := e.Matches(&item)
			require.NoError(t, err)
			assert.Equal(t, c.expected, matched)
		})
	}

	t.Run("absent fields are not bound", func(t *testing.T) {
		e, err := Parse(`has(obj.Owner)`)
		require.NoError(t, err)
		matched, err := e.Matches(task{Title: "x"})
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("non boolean", func(t *testing.T) {
		e, err := Parse("obj.Priority + 1")
		require.NoError(t, err)
		_, err = e.Matches(&item)
		assert.True(t, errors.Is(err, ErrNotBoolean))
	})
}

func TestJSON(t *testing.T) {
	filter, err := Parse("obj.Done")
	require.NoError(t, err)

	data, err := json.Marshal(rule{Name: "done", Filter: filter})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"done","filter":"obj.Done"}`, string(data))

	var restored rule
	require.NoError(t, json.Unmarshal(data, &restored))
	require.NotNil(t, restored.Filter)
	assert.Equal(t, "obj.Done", restored.Filter.String())
	matched, err := restored.Filter.Matches(task{Done: true})
	require.NoError(t, err)
	assert.True(t, matched)

	data, err = json.Marshal(rule{Name: "empty", Filter: &Expression{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"empty","filter":null}`, string(data))

	var blank Expression
	require.NoError(t, json.Unmarshal([]byte(`""`), &blank))
	assert.True(t, blank.IsEmpty())

	var broken Expression
	assert.True(t, errors.Is(json.Unmarshal([]byte(`"obj.Done &&"`), &broken), ErrCompile))
}
