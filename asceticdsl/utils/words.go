package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var whitespace = regexp.MustCompile(`\s*\n\s*|\s+`)

// CamelToSQL turns a field name into a snake_case column name. Runs of capitals are
// kept together, so "UserID" becomes "user_id" and "HTTPStatus" becomes "http_status".
func CamelToSQL(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SQLToCamel turns a snake_case column name into a lower camelCase field name.
func SQLToCamel(column string) string {
	parts := strings.Split(strings.ToLower(column), "_")
	var b strings.Builder
	title := cases.Title(language.Und)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(title.String(part))
	}
	return b.String()
}

// TrimInline collapses line breaks and whitespace runs into single spaces.
func TrimInline(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// LastOctet returns the part of s after the last dot, or s when there is none.
func LastOctet(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// RemoveAfter cuts s at the first occurrence of marker. A marker at the very start
// is ignored.
func RemoveAfter(s, marker string) string {
	if marker == "" {
		return s
	}
	if i := strings.Index(s, marker); i > 0 {
		return s[:i]
	}
	return s
}

// GenerateString returns a random alphanumeric string of length n.
func GenerateString(n int) string {
	if n <= 0 {
		return ""
	}
	limit := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b)
}
