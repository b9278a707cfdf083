package accessor

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/option"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

// ExplicitNull is implemented by document values that tell an explicit null apart
// from a missing value.
type ExplicitNull interface {
	IsExplicitNull() bool
}

// Constructor lets a type control how Clone creates new instances. New must return a
// pointer to a fresh value of the receiver's struct type.
type Constructor interface {
	New() any
}

type policy int

const (
	overwrite policy = iota
	skipAbsentSource
	onlyAbsentTarget
)

var errNoValue = errors.New("conversion yielded no value")

// Copy transfers every field declared on target that source also declares, absent
// values included.
func Copy(source, target any) error {
	return transfer(source, target, overwrite)
}

// CopyNotNull is Copy that skips absent and explicitly null source values.
func CopyNotNull(source, target any) error {
	return transfer(source, target, skipAbsentSource)
}

// CopyIfTargetNull is Copy restricted to target fields that currently hold no value.
func CopyIfTargetNull(source, target any) error {
	return transfer(source, target, onlyAbsentTarget)
}

func transfer(source, target any, p policy) error {
	src, ok := pointerTo(source)
	if !ok {
		return nil
	}
	dst, err := mutable(target)
	if err != nil {
		return err
	}

	var result error
	seen := make(map[string]bool)
	for _, tf := range reflection.FieldsOf(dst.Type()) {
		if tf.Static || seen[tf.Name] {
			continue
		}
		seen[tf.Name] = true

		sf, ok := reflection.FieldOf(src.Type(), tf.Name)
		if !ok || sf.Static {
			continue
		}
		value, readable := read(src, sf)
		if !readable {
			continue
		}
		switch p {
		case skipAbsentSource:
			if option.IsNil(value) || isExplicitNull(value) {
				continue
			}
		case onlyAbsentTarget:
			if current, _ := read(dst, tf); !option.IsNil(current) {
				continue
			}
		}

		err := write(dst, tf, value, adaptOrKeep)
		switch {
		case err == nil:
		case errors.Is(err, errNoValue):
			log().Debug("copy left field unchanged", "type", dst.Type().Elem().String(), "field", tf.Name, "value", value)
		case errors.Is(err, ErrNoMutator):
			// fields without a writer are not part of the copyable surface
		default:
			result = multierror.Append(result, err)
		}
	}
	return result
}

func adaptOrKeep(value any, t reflect.Type) (reflect.Value, error) {
	v, ok := adapt(value, t)
	if !ok {
		return reflect.Value{}, errNoValue
	}
	return v, nil
}

func isExplicitNull(value any) bool {
	switch v := value.(type) {
	case ExplicitNull:
		return v.IsExplicitNull()
	case json.RawMessage:
		return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
	}
	return false
}

// Clone builds a new instance of source's type, copies source into it and then each
// overlay in order, so later overlays win.
func Clone[T any](source T, overlays ...any) (T, error) {
	var zero T
	if option.IsNil(source) {
		return zero, errors.Wrap(ErrConstruction, "nil source")
	}
	instance, err := construct(source)
	if err != nil {
		return zero, err
	}
	if err := Copy(source, instance.Interface()); err != nil {
		return zero, err
	}
	for _, overlay := range overlays {
		if err := Copy(overlay, instance.Interface()); err != nil {
			return zero, err
		}
	}
	if reflect.TypeOf(source).Kind() != reflect.Pointer {
		instance = instance.Elem()
	}
	return instance.Interface().(T), nil
}

func construct(source any) (reflect.Value, error) {
	t := reflect.TypeOf(source)
	st := reflection.Indirect(t)
	if st.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Wrapf(ErrConstruction, "%s is not a struct", t)
	}
	if c, ok := source.(Constructor); ok {
		created := reflect.ValueOf(c.New())
		if !created.IsValid() || created.Type() != reflect.PointerTo(st) || created.IsNil() {
			return reflect.Value{}, errors.Wrapf(ErrConstruction, "%s.New returned %v", st, created)
		}
		return created, nil
	}
	return reflect.New(st), nil
}
