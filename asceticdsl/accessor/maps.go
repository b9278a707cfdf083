package accessor

import (
	"reflect"

	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/option"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

// ToMap maps each non-static field name of obj to its value. Absent values are
// omitted.
func ToMap(obj any) map[string]any {
	result := make(map[string]any)
	p, ok := pointerTo(obj)
	if !ok {
		return result
	}
	for _, f := range reflection.FieldsOf(p.Type()) {
		if f.Static {
			continue
		}
		if _, dup := result[f.Name]; dup {
			continue
		}
		v, readable := read(p, f)
		if !readable || option.IsNil(v) {
			continue
		}
		result[f.Name] = v
	}
	return result
}

// SetFromMap sets every field of obj named by a key of values. Keys naming no field
// are ignored; failed writes are collected.
func SetFromMap(obj any, values map[string]any) error {
	p, err := mutable(obj)
	if err != nil {
		return err
	}
	var result error
	seen := make(map[string]bool, len(values))
	for _, f := range reflection.FieldsOf(p.Type()) {
		value, ok := values[f.Name]
		if !ok || f.Static || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		if err := write(p, f, value, assign); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// CollectionToMap reduces items to keyField -> valueField. Keys are stringified and
// items whose key or value is absent are skipped.
func CollectionToMap[T any](items []T, keyField, valueField string) map[string]any {
	result := make(map[string]any, len(items))
	for _, item := range items {
		key, ok := Get(item, keyField).Get()
		if !ok {
			continue
		}
		value, ok := Get(item, valueField).Get()
		if !ok {
			continue
		}
		result[stringify(reflect.ValueOf(key))] = value
	}
	return result
}
