package accessor

import (
	"reflect"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

// Accessors is a typed table of readers and writers for the fields of T, keyed by
// field name. Registered entries take precedence over method and field access.
type Accessors[T any] struct {
	Getters map[string]func(*T) any
	Setters map[string]func(*T, any) error
}

type table struct {
	getters map[string]func(reflect.Value) any
	setters map[string]func(reflect.Value, any) error
}

var tables sync.Map // map[reflect.Type]*table, keyed by the struct type

// Register installs the accessor table of T. Every entry must name a declared,
// non-static field of T and carry a function.
func Register[T any](accessors Accessors[T]) error {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return errors.Wrapf(ErrConstruction, "accessor table for non-struct type %s", t)
	}

	var result error
	validate := func(kind, name string, isNil bool) {
		f, ok := reflection.FieldOf(t, name)
		switch {
		case !ok:
			result = multierror.Append(result, errors.Wrapf(ErrNoSuchField, "%s %s.%s", kind, t, name))
		case f.Static:
			result = multierror.Append(result, errors.Errorf("%s %s.%s: static field", kind, t, name))
		case isNil:
			result = multierror.Append(result, errors.Errorf("%s %s.%s: nil function", kind, t, name))
		}
	}
	for _, name := range sortedKeys(accessors.Getters) {
		validate("getter", name, accessors.Getters[name] == nil)
	}
	for _, name := range sortedKeys(accessors.Setters) {
		validate("setter", name, accessors.Setters[name] == nil)
	}
	if result != nil {
		return result
	}

	tbl := &table{
		getters: make(map[string]func(reflect.Value) any, len(accessors.Getters)),
		setters: make(map[string]func(reflect.Value, any) error, len(accessors.Setters)),
	}
	// entries are keyed by the declared field name they resolved to
	for name, get := range accessors.Getters {
		get := get
		f, _ := reflection.FieldOf(t, name)
		tbl.getters[f.Name] = func(p reflect.Value) any {
			return get(p.Interface().(*T))
		}
	}
	for name, set := range accessors.Setters {
		set := set
		f, _ := reflection.FieldOf(t, name)
		tbl.setters[f.Name] = func(p reflect.Value, value any) error {
			return set(p.Interface().(*T), value)
		}
	}
	tables.Store(t, tbl)
	return nil
}

func tableOf(t reflect.Type) *table {
	if tbl, ok := tables.Load(t); ok {
		return tbl.(*table)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
