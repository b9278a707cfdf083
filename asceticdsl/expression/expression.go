package expression

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/accessor"
)

// Subject is the variable an object is bound to by Matches.
const Subject = "obj"

var (
	ErrCompile    = errors.New("expression does not compile")
	ErrEval       = errors.New("expression evaluation failed")
	ErrNotBoolean = errors.New("expression does not yield a boolean")
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

// Cache compiles CEL expressions once per source text.
type Cache struct {
	env      *cel.Env
	programs sync.Map // map[string]*Expression
}

// NewCache declares Subject and every name in vars as dynamically typed variables.
func NewCache(vars ...string) (*Cache, error) {
	opts := []cel.EnvOption{cel.Variable(Subject, cel.MapType(cel.StringType, cel.DynType))}
	for _, name := range vars {
		if name == Subject {
			continue
		}
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "cel environment")
	}
	return &Cache{env: env}, nil
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default is the process-wide cache knowing only Subject.
func Default() *Cache {
	defaultOnce.Do(func() {
		c, err := NewCache()
		if err != nil {
			panic(err)
		}
		defaultCache = c
	})
	return defaultCache
}

// Parse returns the compiled form of source, compiling it on first use.
func (c *Cache) Parse(source string) (*Expression, error) {
	if source == "" {
		return nil, errors.Wrap(ErrCompile, "empty expression")
	}
	if cached, ok := c.programs.Load(source); ok {
		return cached.(*Expression), nil
	}
	ast, issues := c.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		log().Debug("expression rejected", "source", source, "error", issues.Err())
		return nil, errors.Wrapf(ErrCompile, "%q: %s", source, issues.Err())
	}
	program, err := c.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(ErrCompile, "%q: %s", source, err)
	}
	actual, _ := c.programs.LoadOrStore(source, &Expression{source: source, program: program})
	return actual.(*Expression), nil
}

// Parse compiles source with the Default cache.
func Parse(source string) (*Expression, error) {
	return Default().Parse(source)
}

// Expression is a compiled CEL program. The zero value is the empty expression,
// which serialises to null.
type Expression struct {
	source  string
	program cel.Program
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

func (e *Expression) IsEmpty() bool {
	return e == nil || e.program == nil
}

// Eval runs the expression with vars bound by name.
func (e *Expression) Eval(vars map[string]any) (any, error) {
	if e.IsEmpty() {
		return nil, errors.Wrap(ErrEval, "empty expression")
	}
	if vars == nil {
		vars = map[string]any{}
	}
	out, _, err := e.program.Eval(vars)
	if err != nil {
		return nil, errors.Wrapf(ErrEval, "%q: %s", e.source, err)
	}
	return out.Value(), nil
}

// Matches evaluates a boolean expression against the fields of obj, bound to Subject.
func (e *Expression) Matches(obj any) (bool, error) {
	fields := accessor.ToMap(obj)
	subject := make(map[string]any, len(fields))
	for name, value := range fields {
		subject[name] = native(value)
	}
	out, err := e.Eval(map[string]any{Subject: subject})
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	if !ok {
		return false, errors.Wrapf(ErrNotBoolean, "%q yields %T", e.source, out)
	}
	return result, nil
}

func (e *Expression) MarshalJSON() ([]byte, error) {
	if e.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(e.source)
}

// UnmarshalJSON compiles the string with the Default cache. Null and the empty string
// leave the empty expression.
func (e *Expression) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*e = Expression{}
		return nil
	}
	var source string
	if err := json.Unmarshal(data, &source); err != nil {
		return err
	}
	if source == "" {
		*e = Expression{}
		return nil
	}
	parsed, err := Parse(source)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// native turns field values into forms CEL understands. Identifiers and other text
// types become strings.
func native(value any) any {
	switch v := value.(type) {
	case time.Time, time.Duration:
		return v
	case encoding.TextMarshaler:
		if text, err := v.MarshalText(); err == nil {
			return string(text)
		}
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return native(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return rv.Uint()
	case reflect.Float32:
		return rv.Float()
	case reflect.String:
		return rv.String()
	}
	return value
}
