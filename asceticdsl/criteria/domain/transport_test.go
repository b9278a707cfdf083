package criteria

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		c := New().Equals("a", 1).Pageable(1, 5).Sorting("a", "DESC").Lang("english").Fields("a", "b")
		data, err := json.Marshal(c)
		require.NoError(t, err)
		assert.JSONEq(t, `{"query":"a==1","page":1,"size":5,"sort":"a:DESC","lang":"english","fields":["a","b"]}`, string(data))

		restored := New()
		require.NoError(t, json.Unmarshal(data, restored))
		assert.Equal(t, c.RawQuery(), restored.RawQuery())
		assert.Equal(t, 1, restored.Page())
		assert.Equal(t, 5, restored.Size())
		assert.Equal(t, "a:DESC", restored.Sort())
		assert.Equal(t, "english", restored.LangTag())
		assert.Equal(t, []string{"a", "b"}, restored.ResultFields())
	})

	t.Run("unset members are omitted", func(t *testing.T) {
		data, err := json.Marshal(New().IsTrue("a"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"query":"a"}`, string(data))

		restored := New()
		require.NoError(t, json.Unmarshal(data, restored))
		assert.False(t, restored.IsPaged())
		assert.Equal(t, Unset, restored.Page())
	})

	t.Run("pending group is not carried", func(t *testing.T) {
		data, err := json.Marshal(New().Equals("a", 1).Or())
		require.NoError(t, err)

		restored := New()
		require.NoError(t, json.Unmarshal(data, restored))
		restored.Equals("b", 2)
		assert.Equal(t, "a==1,b==2", restored.RawQuery())
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, err := ParseJSON([]byte(`{"query":"a==1","page":0,"size":10,"sort":"a:asc,b"}`))
		require.NoError(t, err)
		assert.True(t, c.IsPaged())
		assert.Equal(t, "a==1", c.RawQuery())
	})

	for name, doc := range map[string]string{
		"unknown member":   `{"query":"a","limit":3}`,
		"wrong type":       `{"page":"one"}`,
		"below sentinel":   `{"size":-5}`,
		"empty field name": `{"fields":[""]}`,
		"not an object":    `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalidCriteria))
		})
	}
}

func TestValues(t *testing.T) {
	c := New().Equals("name", "a b").Pageable(0, 20).Sorting("name", "ASC").Fields("id")

	encoded := c.Values().Encode()
	parsed, err := url.ParseQuery(encoded)
	require.NoError(t, err)

	restored, err := FromValues(parsed)
	require.NoError(t, err)
	assert.Equal(t, c.RawQuery(), restored.RawQuery())
	assert.Equal(t, 0, restored.Page())
	assert.Equal(t, 20, restored.Size())
	assert.Equal(t, "name:ASC", restored.Sort())
	assert.Equal(t, []string{"id"}, restored.ResultFields())

	_, err = FromValues(url.Values{"page": {"x"}})
	assert.True(t, errors.Is(err, ErrInvalidCriteria))

	multi, err := FromValues(url.Values{"sort": {"a:asc", "b:desc"}})
	require.NoError(t, err)
	assert.Equal(t, "a:asc,b:desc", multi.Sort())
}

func TestPageRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := NewPageRequest(New(), 45)
		assert.Equal(t, 0, r.Number)
		assert.Equal(t, DefaultPageSize, r.Size)
		assert.Equal(t, 0, r.Offset())
		assert.Equal(t, 3, r.TotalPages())
	})

	t.Run("from criteria", func(t *testing.T) {
		r := NewPageRequest(New().Pageable(2, 10).SortBy("a:asc"), 30)
		assert.Equal(t, 20, r.Offset())
		assert.Equal(t, 3, r.TotalPages())
		assert.Equal(t, "a:asc", r.Sort)
	})

	t.Run("zero size", func(t *testing.T) {
		assert.Equal(t, 1, NewPageRequest(New().Pageable(0, 0), 99).TotalPages())
	})
}

func TestPage(t *testing.T) {
	first := NewPage(NewPageRequest(New().Pageable(0, 2), 3), []string{"a", "b"})
	assert.True(t, first.IsFirstPage())
	assert.False(t, first.IsLastPage())
	assert.Equal(t, 2, first.Count())
	assert.True(t, first.HasContent())

	last := NewPage(NewPageRequest(New().Pageable(1, 2), 3), []string{"c"})
	assert.False(t, last.IsFirstPage())
	assert.True(t, last.IsLastPage())

	empty := NewPage[string](NewPageRequest(New(), 0), nil)
	assert.False(t, empty.HasContent())
	assert.NotNil(t, empty.Content)

	data, err := json.Marshal(first)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":{"number":0,"size":2,"totalElements":3},"content":["a","b"]}`, string(data))
}
