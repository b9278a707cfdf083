package reflection

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var capitalized sync.Map // map[string]string

// ExportedNames yields the capitalised form of name and, for names ending in "Id",
// the initialism form ("userId" gives "UserId" and "UserID").
func ExportedNames(name string) []string {
	base := Capitalize(name)
	if strings.HasSuffix(base, "Id") {
		return []string{base, strings.TrimSuffix(base, "Id") + "ID"}
	}
	return []string{base}
}

func Capitalize(name string) string {
	if cached, ok := capitalized.Load(name); ok {
		return cached.(string)
	}
	// A Caser keeps state, so each miss gets its own.
	result := cases.Title(language.Und, cases.NoLower).String(name)
	capitalized.Store(name, result)
	return result
}
