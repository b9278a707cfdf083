package coerce

import (
	"encoding"
	"log/slog"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/option"
)

var (
	ErrNoConverter = errors.New("no converter for target type")
	ErrShape       = errors.New("input does not match target type")
)

var (
	integerShape = regexp.MustCompile(`^\d+$`)
	decimalShape = regexp.MustCompile(`^\d+\.\d+$`)
	booleanShape = regexp.MustCompile(`^(true|false)$`)
	uuidShape    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	digits       = regexp.MustCompile(`^[+-]?\d+$`)
)

var (
	stringType          = reflect.TypeOf("")
	uuidType            = reflect.TypeOf(uuid.UUID{})
	ulidType            = reflect.TypeOf(ulid.ULID{})
	bigIntType          = reflect.TypeOf(big.Int{})
	bigFloatType        = reflect.TypeOf(big.Float{})
	bytesType           = reflect.TypeOf([]byte(nil))
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger coercion misses are reported to.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

type converter func(s string) (reflect.Value, error)

// missing marks a type whose converter has been looked up and not found.
var missing converter = func(string) (reflect.Value, error) { return reflect.Value{}, ErrNoConverter }

var converters sync.Map // map[reflect.Type]converter

// FromString converts s to t on a best-effort basis. A string that does not fit the
// target type, or a type nothing knows how to parse, yields Nothing.
func FromString(s string, t reflect.Type) option.Option[reflect.Value] {
	v, err := Parse(s, t)
	if err != nil {
		log().Debug("string coercion yielded no value", "input", s, "type", typeName(t), "error", err)
		return option.Nothing[reflect.Value]()
	}
	return option.Some(v)
}

// To is the typed form of FromString.
func To[T any](s string) option.Option[T] {
	return option.Map(FromString(s, reflect.TypeFor[T]()), func(v reflect.Value) T {
		return v.Interface().(T)
	})
}

// Parse converts s to a value of type t. Text targets take s unchanged; integer,
// decimal and boolean literals go to the primitive converter when t is a primitive
// or a pointer to one; everything else is dispatched on t.
func Parse(s string, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, ErrNoConverter
	}
	if t.Kind() == reflect.String && !IsEnum(t) {
		return reflect.ValueOf(s).Convert(t), nil
	}
	if t.Kind() == reflect.Interface && stringType.Implements(t) {
		v := reflect.New(t).Elem()
		v.Set(reflect.ValueOf(s))
		return v, nil
	}
	if isPrimitive(indirect(t)) && hasPrimitiveShape(s) {
		return primitive(s, t)
	}
	v, err := converterFor(t)(s)
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "coerce %q to %s", s, typeName(t))
	}
	return v, nil
}

// RegisterParser installs fn as the converter for T.
func RegisterParser[T any](fn func(string) (T, bool)) {
	t := reflect.TypeFor[T]()
	parsers.Store(t, converter(func(s string) (reflect.Value, error) {
		v, ok := fn(s)
		if !ok {
			return reflect.Value{}, ErrShape
		}
		return reflect.ValueOf(&v).Elem(), nil
	}))
	converters.Delete(t)
}

var parsers sync.Map // map[reflect.Type]converter

func hasPrimitiveShape(s string) bool {
	return integerShape.MatchString(s) || decimalShape.MatchString(s) || booleanShape.MatchString(s)
}

func converterFor(t reflect.Type) converter {
	if cached, ok := converters.Load(t); ok {
		return cached.(converter)
	}
	resolved := resolve(t)
	if resolved == nil {
		resolved = missing
	}
	actual, _ := converters.LoadOrStore(t, resolved)
	return actual.(converter)
}

func resolve(t reflect.Type) converter {
	switch t {
	case uuidType:
		return parseUUID
	case ulidType:
		return parseULID
	case bigIntType:
		return parseBigInt
	case bigFloatType:
		return parseBigFloat
	case bytesType:
		return func(s string) (reflect.Value, error) {
			return reflect.ValueOf([]byte(s)), nil
		}
	case timeType:
		return parseTime
	case durationType:
		return parseDuration
	}
	if IsEnum(t) {
		return func(s string) (reflect.Value, error) {
			v, ok := EnumByName(s, t)
			if !ok {
				return reflect.Value{}, ErrShape
			}
			return v, nil
		}
	}
	if fn, ok := parsers.Load(t); ok {
		return fn.(converter)
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(s string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, errors.Wrap(ErrShape, err.Error())
			}
			return p.Elem(), nil
		}
	}
	if t.Kind() == reflect.Pointer {
		return func(s string) (reflect.Value, error) {
			v, err := Parse(s, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			p := reflect.New(t.Elem())
			p.Elem().Set(v)
			return p, nil
		}
	}
	if isPrimitive(t) {
		return func(s string) (reflect.Value, error) {
			return primitive(s, t)
		}
	}
	return nil
}

func parseUUID(s string) (reflect.Value, error) {
	if !uuidShape.MatchString(s) {
		return reflect.Value{}, ErrShape
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return reflect.Value{}, errors.Wrap(ErrShape, err.Error())
	}
	return reflect.ValueOf(id), nil
}

func parseULID(s string) (reflect.Value, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return reflect.Value{}, errors.Wrap(ErrShape, err.Error())
	}
	return reflect.ValueOf(id), nil
}

func parseBigInt(s string) (reflect.Value, error) {
	if !digits.MatchString(s) {
		return reflect.Value{}, ErrShape
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return reflect.Value{}, ErrShape
	}
	return reflect.ValueOf(n).Elem(), nil
}

func parseBigFloat(s string) (reflect.Value, error) {
	f, ok := new(big.Float).SetString(s)
	if !ok {
		return reflect.Value{}, ErrShape
	}
	return reflect.ValueOf(f).Elem(), nil
}

func parseTime(s string) (reflect.Value, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if ts, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(ts), nil
		}
	}
	return reflect.Value{}, ErrShape
}

func parseDuration(s string) (reflect.Value, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return reflect.Value{}, errors.Wrap(ErrShape, err.Error())
	}
	return reflect.ValueOf(d), nil
}

func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// primitive converts s into a primitive of type t, or a pointer to one.
func primitive(s string, t reflect.Type) (reflect.Value, error) {
	target := indirect(t)
	v := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.Bool:
		b, err := cast.ToBoolE(s)
		if err != nil {
			return reflect.Value{}, errors.Wrap(ErrShape, err.Error())
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(decimalInteger(s))
		if err != nil || v.OverflowInt(n) {
			return reflect.Value{}, errors.Wrapf(ErrShape, "%q as %s", s, target)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(decimalInteger(s))
		if err != nil || v.OverflowUint(n) {
			return reflect.Value{}, errors.Wrapf(ErrShape, "%q as %s", s, target)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(s)
		if err != nil || v.OverflowFloat(f) {
			return reflect.Value{}, errors.Wrapf(ErrShape, "%q as %s", s, target)
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, ErrNoConverter
	}

	if t.Kind() == reflect.Pointer {
		p := reflect.New(target)
		p.Elem().Set(v)
		return p, nil
	}
	return v, nil
}

// decimalInteger drops leading zeros so the literal is never read as octal.
func decimalInteger(s string) string {
	if !digits.MatchString(s) {
		return s
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return sign + s
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
