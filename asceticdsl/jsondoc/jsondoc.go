package jsondoc

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/accessor"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

var (
	ErrMalformed = errors.New("malformed json document")
	ErrNotObject = errors.New("json document is not an object")
	ErrNotArray  = errors.New("json document is not an array")
)

// Null stands for a null written in a document, as opposed to a missing member.
type Null struct{}

func (Null) IsExplicitNull() bool {
	return true
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func IsExplicitNull(v any) bool {
	n, ok := v.(accessor.ExplicitNull)
	return ok && n.IsExplicitNull()
}

// IsEmpty reports whether v is missing, null, or an empty object or array.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case json.RawMessage:
		trimmed := bytes.TrimSpace(x)
		return len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "{}" || string(trimmed) == "[]"
	}
	return IsExplicitNull(v)
}

// Parse decodes data into a tree of map[string]any, []any, string, bool, int64,
// float64 and Null.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if dec.More() {
		return nil, errors.Wrap(ErrMalformed, "trailing data")
	}
	return normalize(raw), nil
}

// ToTree turns obj into an object tree. Strings and byte slices are read as JSON text;
// any other value goes through its JSON encoding.
func ToTree(obj any) (map[string]any, error) {
	var data []byte
	switch x := obj.(type) {
	case string:
		data = []byte(x)
	case []byte:
		data = x
	case json.RawMessage:
		data = x
	default:
		encoded, err := json.Marshal(obj)
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		data = encoded
	}
	node, err := Parse(data)
	if err != nil {
		return nil, err
	}
	tree, ok := node.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrNotObject, "got %T", node)
	}
	return tree, nil
}

func FromTree(tree map[string]any) ([]byte, error) {
	if tree == nil {
		return []byte("null"), nil
	}
	return json.Marshal(tree)
}

// ToObject builds a T and sets its fields from the members of tree through the
// accessor engine. Members naming no field are ignored.
func ToObject[T any](tree map[string]any) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	elem := reflection.Indirect(t)
	if elem.Kind() != reflect.Struct {
		return zero, errors.Wrapf(accessor.ErrConstruction, "%s is not a struct", t)
	}
	p := reflect.New(elem)
	if err := accessor.SetFromMap(p.Interface(), tree); err != nil {
		return zero, err
	}
	if t.Kind() == reflect.Pointer {
		return p.Interface().(T), nil
	}
	return p.Elem().Interface().(T), nil
}

// ToObjectList builds one T per element of an array document. doc is JSON text or
// an already parsed []any.
func ToObjectList[T any](doc any) ([]T, error) {
	var items []any
	switch x := doc.(type) {
	case []any:
		items = x
	case nil, Null:
		return []T{}, nil
	default:
		var data []byte
		switch y := x.(type) {
		case string:
			data = []byte(y)
		case []byte:
			data = y
		case json.RawMessage:
			data = y
		default:
			return nil, errors.Wrapf(ErrNotArray, "got %T", doc)
		}
		node, err := Parse(data)
		if err != nil {
			return nil, err
		}
		if IsExplicitNull(node) {
			return []T{}, nil
		}
		array, ok := node.([]any)
		if !ok {
			return nil, errors.Wrapf(ErrNotArray, "got %T", node)
		}
		items = array
	}

	result := make([]T, 0, len(items))
	var errs error
	for i, item := range items {
		tree, ok := item.(map[string]any)
		if !ok {
			errs = multierror.Append(errs, errors.Wrapf(ErrNotObject, "element %d", i))
			continue
		}
		obj, err := ToObject[T](tree)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "element %d", i))
			continue
		}
		result = append(result, obj)
	}
	if errs != nil {
		return nil, errs
	}
	return result, nil
}

// Merge replaces the members of target with those of each source in turn and returns
// target. A nil target starts a new tree.
func Merge(target map[string]any, sources ...map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any)
	}
	for _, source := range sources {
		for key, value := range source {
			target[key] = value
		}
	}
	return target
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return Null{}
	case map[string]any:
		for key, value := range x {
			x[key] = normalize(value)
		}
		return x
	case []any:
		for i, value := range x {
			x[i] = normalize(value)
		}
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	}
	return v
}
