package sqlsafe

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var ErrInjection = errors.New("sql injection detected")

// InjectionError names the construct that made a text unsafe.
type InjectionError struct {
	Construct string
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInjection, e.Construct)
}

func (e *InjectionError) Unwrap() error {
	return ErrInjection
}

var sqlWords = strings.Join([]string{
	"TABLE", "TABLESPACE", "PROCEDURE", "FUNCTION", "TRIGGER", "VIEW", "LIBRARY", "REFERENCES", "FROM",
	"SELECT", "INSERT", "UPDATE", "DELETE", "TRUNCATE", "USAGE", "DATABASE", "INDEX", "CONSTRAINT", "SET",
	"USER", "SCHEMA", "SQL", "WORK", "TRANSACTION", "OPTION", "COMMENT", "SYNONYM", "TYPE", "SESSION", "ROLE",
	"PACKAGE", "BODY", "OPERATOR", "CASCADE", "SEQUENCE", "RESTORE", "POINT", "FILE", "CLASS", "CURSOR", "OBJECT",
	"RULE", "DATASET", "STORE", "COLUMN", "FIELD", "HTTP", "NULL", "SLEEP", "VERSION", "PRIVILEGES", "PROGRAM",
}, "|")

// A statement terminator or UNION, followed by a statement keyword and then a quoted
// literal, a bare star, an opening call with a quote, or an object keyword.
var injection = regexp.MustCompile(`(?i)^(.*)(;|UNION)([\s\r\n])` +
	`(COPY|DBLINK|GRANT|LOCK|TRUNCATE|WITH|ALTER|CREATE|DELETE|DROP|EXEC(?:UTE)?|INSERT|UPSERT|MERGE|SELECT|JOIN|UPDATE)` +
	`(.*)('(.*)'| \* |\(([\s\r\n])'|` + sqlWords + `)(.*)$`)

// Check returns an *InjectionError when text, after percent-decoding, looks like an
// injected statement. Empty text is safe.
func Check(text string) error {
	if text == "" {
		return nil
	}
	clean := text
	if decoded, err := url.QueryUnescape(text); err == nil {
		clean = decoded
	}
	clean = strings.TrimSpace(clean)

	m := injection.FindStringSubmatch(clean)
	if m == nil {
		return nil
	}
	return &InjectionError{Construct: strings.ToUpper(strings.TrimSpace(m[2] + " " + m[4]))}
}

// Safe reports whether Check accepts text.
func Safe(text string) bool {
	return Check(text) == nil
}
