package coerce

import (
	"errors"
	"math/big"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status int

const (
	active status = iota
	blocked
)

func (s status) String() string {
	switch s {
	case active:
		return "ACTIVE"
	case blocked:
		return "BLOCKED"
	}
	return "UNKNOWN"
}

type color string

type label string

type money struct {
	cents int64
}

func init() {
	RegisterEnum(active, blocked)
	RegisterEnum(color("red"), color("green"))
	RegisterParser(func(s string) (money, bool) {
		s = strings.TrimPrefix(s, "$")
		v, err := Parse(s, reflect.TypeOf(float64(0)))
		if err != nil {
			return money{}, false
		}
		return money{cents: int64(v.Float() * 100)}, true
	})
}

func TestPrimitives(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		target   any
		expected any
	}{
		{"integer", "123", 0, 123},
		{"leading zeros stay decimal", "010", 0, 10},
		{"negative integer", "-5", int64(0), int64(-5)},
		{"unsigned", "42", uint8(0), uint8(42)},
		{"decimal", "1.25", float64(0), 1.25},
		{"integer into float", "7", float32(0), float32(7)},
		{"boolean", "true", false, true},
		{"boolean false", "false", true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Parse(c.input, reflect.TypeOf(c.target))
			require.NoError(t, err)
			assert.Equal(t, c.expected, v.Interface())
		})
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := Parse("300", reflect.TypeOf(uint8(0)))
		assert.True(t, errors.Is(err, ErrShape))
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := Parse("abc", reflect.TypeOf(0))
		assert.True(t, errors.Is(err, ErrShape))
		assert.True(t, FromString("abc", reflect.TypeOf(0)).IsNothing())
	})

	t.Run("pointer to primitive", func(t *testing.T) {
		v, err := Parse("42", reflect.TypeOf((*int)(nil)))
		require.NoError(t, err)
		assert.Equal(t, 42, *v.Interface().(*int))
	})
}

func TestText(t *testing.T) {
	t.Run("string is returned unchanged", func(t *testing.T) {
		v, err := Parse("  123 ", reflect.TypeOf(""))
		require.NoError(t, err)
		assert.Equal(t, "  123 ", v.Interface())
	})

	t.Run("named string", func(t *testing.T) {
		v, err := Parse("x", reflect.TypeOf(label("")))
		require.NoError(t, err)
		assert.Equal(t, label("x"), v.Interface())
	})

	t.Run("empty interface", func(t *testing.T) {
		v, err := Parse("x", reflect.TypeOf((*any)(nil)).Elem())
		require.NoError(t, err)
		assert.Equal(t, "x", v.Interface())
	})

	t.Run("pointer to string", func(t *testing.T) {
		v, err := Parse("x", reflect.TypeOf((*string)(nil)))
		require.NoError(t, err)
		assert.Equal(t, "x", *v.Interface().(*string))
	})
}

func TestIdentifiers(t *testing.T) {
	t.Run("uuid", func(t *testing.T) {
		id := uuid.New()
		v, err := Parse(id.String(), reflect.TypeOf(uuid.UUID{}))
		require.NoError(t, err)
		assert.Equal(t, id, v.Interface())
	})

	t.Run("non uuid shaped string yields no value", func(t *testing.T) {
		assert.True(t, FromString("not-a-uuid", reflect.TypeOf(uuid.UUID{})).IsNothing())
		assert.True(t, FromString("{"+uuid.NewString()+"}", reflect.TypeOf(uuid.UUID{})).IsNothing())
	})

	t.Run("pointer to uuid", func(t *testing.T) {
		id := uuid.New()
		v := FromString(id.String(), reflect.TypeOf((*uuid.UUID)(nil)))
		require.True(t, v.IsSome())
		assert.Equal(t, id, *v.Unwrap().Interface().(*uuid.UUID))
	})

	t.Run("ulid", func(t *testing.T) {
		id := ulid.Make()
		v, err := Parse(id.String(), reflect.TypeOf(ulid.ULID{}))
		require.NoError(t, err)
		assert.Equal(t, id, v.Interface())
	})
}

func TestBuiltins(t *testing.T) {
	t.Run("big int", func(t *testing.T) {
		v, err := Parse("123456789012345678901234567890", reflect.TypeOf(big.Int{}))
		require.NoError(t, err)
		n := v.Interface().(big.Int)
		assert.Equal(t, "123456789012345678901234567890", n.String())
	})

	t.Run("big int pointer", func(t *testing.T) {
		v, err := Parse("-17", reflect.TypeOf(&big.Int{}))
		require.NoError(t, err)
		assert.Equal(t, int64(-17), v.Interface().(*big.Int).Int64())
	})

	t.Run("big int rejects non digits", func(t *testing.T) {
		_, err := Parse("12abc", reflect.TypeOf(big.Int{}))
		assert.True(t, errors.Is(err, ErrShape))
	})

	t.Run("big float", func(t *testing.T) {
		v, err := Parse("3.5", reflect.TypeOf(big.Float{}))
		require.NoError(t, err)
		f := v.Interface().(big.Float)
		got, _ := f.Float64()
		assert.Equal(t, 3.5, got)
	})

	t.Run("bytes", func(t *testing.T) {
		v, err := Parse("abc", reflect.TypeOf([]byte(nil)))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), v.Interface())
	})

	t.Run("time", func(t *testing.T) {
		v, err := Parse("2024-01-02T03:04:05Z", reflect.TypeOf(time.Time{}))
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(v.Interface().(time.Time)))

		v, err = Parse("2024-01-02", reflect.TypeOf(time.Time{}))
		require.NoError(t, err)
		assert.Equal(t, 2, v.Interface().(time.Time).Day())
	})

	t.Run("duration", func(t *testing.T) {
		v, err := Parse("1m30s", reflect.TypeOf(time.Duration(0)))
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, v.Interface())
	})

	t.Run("text unmarshaler", func(t *testing.T) {
		v, err := Parse("10.0.0.1", reflect.TypeOf(netip.Addr{}))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddr("10.0.0.1"), v.Interface())

		assert.True(t, FromString("10.0.0", reflect.TypeOf(netip.Addr{})).IsNothing())
	})

	t.Run("no converter", func(t *testing.T) {
		_, err := Parse("x", reflect.TypeOf(struct{ A int }{}))
		assert.True(t, errors.Is(err, ErrNoConverter))
	})
}

func TestRegistered(t *testing.T) {
	t.Run("parser", func(t *testing.T) {
		v, err := Parse("$12.5", reflect.TypeOf(money{}))
		require.NoError(t, err)
		assert.Equal(t, money{cents: 1250}, v.Interface())

		_, err = Parse("$x", reflect.TypeOf(money{}))
		assert.True(t, errors.Is(err, ErrShape))
	})

	t.Run("enum by name", func(t *testing.T) {
		v, err := Parse("BLOCKED", reflect.TypeOf(active))
		require.NoError(t, err)
		assert.Equal(t, blocked, v.Interface())
	})

	t.Run("enum by ordinal literal", func(t *testing.T) {
		v, err := Parse("1", reflect.TypeOf(active))
		require.NoError(t, err)
		assert.Equal(t, blocked, v.Interface())
	})

	t.Run("string enum rejects unknown names", func(t *testing.T) {
		_, err := Parse("purple", reflect.TypeOf(color("")))
		assert.True(t, errors.Is(err, ErrShape))

		v, err := Parse("green", reflect.TypeOf(color("")))
		require.NoError(t, err)
		assert.Equal(t, color("green"), v.Interface())
	})

	t.Run("enum helpers", func(t *testing.T) {
		assert.True(t, IsEnum(reflect.TypeOf(active)))
		assert.False(t, IsEnum(reflect.TypeOf(label(""))))
		assert.Equal(t, "ACTIVE", EnumName(reflect.ValueOf(active)))

		_, ok := EnumByName("MISSING", reflect.TypeOf(active))
		assert.False(t, ok)

		v, ok := EnumByName("free", reflect.TypeOf(label("")))
		require.True(t, ok)
		assert.Equal(t, label("free"), v.Interface())
	})
}

func TestTo(t *testing.T) {
	assert.Equal(t, 123, To[int]("123").Unwrap())
	assert.True(t, To[bool]("yes please").IsNothing())
	assert.Equal(t, blocked, To[status]("BLOCKED").Unwrap())
}
