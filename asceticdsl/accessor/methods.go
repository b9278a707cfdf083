package accessor

import (
	"reflect"
	"sync"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

type methodKey struct {
	typ  reflect.Type
	name string
}

// missingMethod is cached for methods that were looked up and do not exist.
var missingMethod = &reflect.Method{}

var methods sync.Map // map[methodKey]*reflect.Method

// lookupMethod resolves name on the pointer type t once and caches the outcome.
func lookupMethod(t reflect.Type, name string) (*reflect.Method, bool) {
	key := methodKey{typ: t, name: name}
	cached, ok := methods.Load(key)
	if !ok {
		var resolved = missingMethod
		if m, found := t.MethodByName(name); found {
			resolved = &m
		}
		cached, _ = methods.LoadOrStore(key, resolved)
	}
	m := cached.(*reflect.Method)
	return m, m != missingMethod
}

func readerNames(field string) []string {
	var names []string
	for _, base := range reflection.ExportedNames(field) {
		names = append(names, "Get"+base, "Is"+base, base)
	}
	return names
}

func writerNames(field string) []string {
	var names []string
	for _, base := range reflection.ExportedNames(field) {
		names = append(names, "Set"+base)
	}
	return names
}
