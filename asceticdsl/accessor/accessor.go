package accessor

import (
	"encoding"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/coerce"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/option"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
)

var (
	ErrNoSuchField  = errors.New("no such field")
	ErrNoMutator    = errors.New("no mutator for field")
	ErrInvocation   = errors.New("accessor invocation failed")
	ErrConstruction = errors.New("cannot construct instance")
	ErrTarget       = errors.New("target must be a non-nil pointer to a struct")
)

var logger atomic.Pointer[slog.Logger]

func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Get reads the named field of obj. Readers are tried in order: the registered
// accessor table, GetName, IsName and Name methods, then the exported field itself.
// A missing or static field, or an absent value, yields Nothing.
func Get(obj any, name string) option.Option[any] {
	p, ok := pointerTo(obj)
	if !ok {
		return option.Nothing[any]()
	}
	f, ok := reflection.FieldOf(p.Type(), name)
	if !ok || f.Static {
		return option.Nothing[any]()
	}
	v, _ := read(p, f)
	return option.Of(v)
}

// Set writes value into the named field of obj, which must be a non-nil pointer to a
// struct. A string written into a non-string field is coerced first, and so is a
// number that the field type cannot hold exactly; when it has no value in the target
// type the field receives the zero value.
func Set(obj any, name string, value any) error {
	p, err := mutable(obj)
	if err != nil {
		return err
	}
	f, ok := reflection.FieldOf(p.Type(), name)
	if !ok {
		return errors.Wrapf(ErrNoSuchField, "%s.%s", p.Type().Elem(), name)
	}
	return write(p, f, value, assign)
}

// Has reports whether obj declares a field called name.
func Has(obj any, name string) bool {
	if obj == nil {
		return false
	}
	return reflection.Has(reflect.TypeOf(obj), name)
}

func Fields(obj any) []reflection.Field {
	if obj == nil {
		return nil
	}
	return reflection.FieldsOf(reflect.TypeOf(obj))
}

func FieldsByTag(t reflect.Type, marker string) []reflection.Field {
	return reflection.FieldsByMarker(t, marker)
}

func FirstFieldByTag(t reflect.Type, marker string) (reflection.Field, bool) {
	return reflection.FirstFieldByMarker(t, marker)
}

// pointerTo returns a pointer to the struct held by obj. Struct values are copied
// so that pointer-receiver readers can be called.
func pointerTo(obj any) (reflect.Value, bool) {
	if obj == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Pointer {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		return v, true
	case v.Kind() == reflect.Struct:
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, true
	}
	return reflect.Value{}, false
}

func mutable(obj any) (reflect.Value, error) {
	if obj == nil {
		return reflect.Value{}, ErrTarget
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.Wrapf(ErrTarget, "got %T", obj)
	}
	return v, nil
}

// read returns the field value and whether any reader exists for it.
func read(p reflect.Value, f reflection.Field) (any, bool) {
	if tbl := tableOf(p.Type().Elem()); tbl != nil {
		if get, ok := tbl.getters[f.Name]; ok {
			return invokeGetter(get, p, f)
		}
	}
	for _, name := range readerNames(f.Name) {
		m, ok := lookupMethod(p.Type(), name)
		if !ok || !isReader(m) {
			continue
		}
		out, err := call(m, p)
		if err != nil {
			log().Debug("reader failed", "type", p.Type().Elem().String(), "method", name, "error", err)
			continue
		}
		return out[0].Interface(), true
	}
	if !f.Exported {
		return nil, false
	}
	fv, err := p.Elem().FieldByIndexErr(f.Index)
	if err != nil {
		// promoted through a nil embedded pointer
		return nil, true
	}
	return fv.Interface(), true
}

func invokeGetter(get func(reflect.Value) any, p reflect.Value, f reflection.Field) (v any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log().Debug("registered getter failed", "type", p.Type().Elem().String(), "field", f.Name, "panic", r)
			v, ok = nil, true
		}
	}()
	return get(p), true
}

type converter func(value any, t reflect.Type) (reflect.Value, error)

func write(p reflect.Value, f reflection.Field, value any, conv converter) error {
	owner := p.Type().Elem()
	if f.Static {
		return errors.Wrapf(ErrNoMutator, "%s.%s is static", owner, f.Name)
	}
	if tbl := tableOf(owner); tbl != nil {
		if set, ok := tbl.setters[f.Name]; ok {
			arg, err := conv(value, f.Type)
			if err != nil {
				return err
			}
			return invokeSetter(set, p, arg.Interface(), owner, f)
		}
	}
	for _, name := range writerNames(f.Name) {
		m, ok := lookupMethod(p.Type(), name)
		if !ok || !isWriter(m) {
			continue
		}
		arg, err := conv(value, m.Type.In(1))
		if err != nil {
			return err
		}
		out, err := call(m, p, arg)
		if err != nil {
			return errors.Wrapf(ErrInvocation, "%s.%s: %v", owner, name, err)
		}
		if len(out) == 1 && !out[0].IsNil() {
			return errors.Wrapf(ErrInvocation, "%s.%s: %v", owner, name, out[0].Interface())
		}
		return nil
	}
	if f.Exported {
		fv, ok := settableField(p.Elem(), f.Index)
		if ok {
			arg, err := conv(value, f.Type)
			if err != nil {
				return err
			}
			fv.Set(arg)
			return nil
		}
	}
	return errors.Wrapf(ErrNoMutator, "%s.%s", owner, f.Name)
}

func invokeSetter(set func(reflect.Value, any) error, p reflect.Value, value any, owner reflect.Type, f reflection.Field) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInvocation, "%s.%s: %v", owner, f.Name, r)
		}
	}()
	if err := set(p, value); err != nil {
		return errors.Wrapf(ErrInvocation, "%s.%s: %v", owner, f.Name, err)
	}
	return nil
}

func call(m *reflect.Method, receiver reflect.Value, args ...reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	in := append([]reflect.Value{receiver}, args...)
	return m.Func.Call(in), nil
}

// settableField walks index from v, allocating nil embedded pointers on the way.
func settableField(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}

// assign converts value for an explicit Set. Absent and explicitly null values
// assign the zero value.
func assign(value any, t reflect.Type) (reflect.Value, error) {
	if option.IsNil(value) || isExplicitNull(value) {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if s, ok := value.(string); ok {
		return coerce.FromString(s, t).UnwrapOr(reflect.Zero(t)), nil
	}
	if c, ok := convertDirect(v, t); ok {
		return c, nil
	}
	if sameFamily(v.Kind(), t.Kind()) {
		return coerce.FromString(stringify(v), t).UnwrapOr(reflect.Zero(t)), nil
	}
	if coerce.IsEnum(t) {
		if c, ok := coerce.EnumByName(coerce.EnumName(v), t); ok {
			return c, nil
		}
	}
	return reflect.Value{}, errors.Wrapf(ErrInvocation, "cannot assign %s to %s", v.Type(), t)
}

// adapt converts value for a copy. Enumerations are re-resolved by name and other
// mismatches go through string coercion; a failed conversion reports false.
func adapt(value any, t reflect.Type) (reflect.Value, bool) {
	if option.IsNil(value) {
		return reflect.Zero(t), true
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if coerce.IsEnum(t) && (coerce.IsEnum(v.Type()) || v.Kind() == reflect.String) {
		return coerce.EnumByName(coerce.EnumName(v), t)
	}
	if c, ok := convertDirect(v, t); ok {
		return c, true
	}
	return coerce.FromString(stringify(v), t).Get()
}

func convertDirect(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Type().AssignableTo(t) {
		return v.Elem(), true
	}
	if t.Kind() == reflect.Pointer && v.Type().AssignableTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	}
	if sameFamily(v.Kind(), t.Kind()) && v.Type().ConvertibleTo(t) && lossless(v, t) {
		return v.Convert(t), true
	}
	// fixed-size identifiers such as [16]byte into uuid.UUID
	if v.Kind() == reflect.Array && t.Kind() == reflect.Array && v.Type().ConvertibleTo(t) {
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

func sameFamily(a, b reflect.Kind) bool {
	return family(a) != 0 && family(a) == family(b)
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.Bool:
		return 2
	case reflect.String:
		return 3
	}
	return 0
}

// lossless reports whether the number v survives conversion to t unchanged.
func lossless(v reflect.Value, t reflect.Type) bool {
	switch {
	case isInt(v.Kind()):
		n := v.Int()
		switch {
		case isInt(t.Kind()):
			return !t.OverflowInt(n)
		case isUint(t.Kind()):
			return n >= 0 && !t.OverflowUint(uint64(n))
		case isFloat(t.Kind()):
			f := v.Convert(t).Float()
			return f >= -(1<<63) && f < 1<<63 && int64(f) == n
		}
	case isUint(v.Kind()):
		n := v.Uint()
		switch {
		case isInt(t.Kind()):
			return n <= math.MaxInt64 && !t.OverflowInt(int64(n))
		case isUint(t.Kind()):
			return !t.OverflowUint(n)
		case isFloat(t.Kind()):
			f := v.Convert(t).Float()
			return f < 1<<64 && uint64(f) == n
		}
	case isFloat(v.Kind()):
		f := v.Float()
		switch {
		case isInt(t.Kind()):
			return f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 && !t.OverflowInt(int64(f))
		case isUint(t.Kind()):
			return f == math.Trunc(f) && f >= 0 && f < 1<<64 && !t.OverflowUint(uint64(f))
		case isFloat(t.Kind()):
			return !t.OverflowFloat(f)
		}
	}
	return true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func stringify(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case encoding.TextMarshaler:
		if text, err := x.MarshalText(); err == nil {
			return string(text)
		}
	case fmt.Stringer:
		return x.String()
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		return stringify(v.Elem())
	}
	return fmt.Sprint(v.Interface())
}
