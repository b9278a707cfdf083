package sqlsafe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	t.Run("safe text", func(t *testing.T) {
		for _, text := range []string{
			"",
			"hello world",
			"semicolon; but harmless",
			"union station",
			"select the best from the list",
		} {
			assert.NoError(t, Check(text), text)
			assert.True(t, Safe(text), text)
		}
	})

	cases := []struct {
		name      string
		text      string
		construct string
	}{
		{"terminated statement", "x'; DROP TABLE users; --", "; DROP"},
		{"union select", "1 UNION SELECT password FROM users", "UNION SELECT"},
		{"lower case", "a; delete from accounts", "; DELETE"},
		{"percent encoded", "1%3B%20DROP%20TABLE%20x", "; DROP"},
		{"quoted literal", "q; insert into t values ('x')", "; INSERT"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Check(c.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInjection))

			var injection *InjectionError
			require.True(t, errors.As(err, &injection))
			assert.Equal(t, c.construct, injection.Construct)
			assert.Contains(t, err.Error(), c.construct)
		})
	}
}
