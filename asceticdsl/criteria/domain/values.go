package criteria

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/option"
)

// render gives the single literal form a value takes inside a token. Absent values
// and empty strings render to nothing.
func render(value any) (string, bool) {
	if option.IsNil(value) {
		return "", false
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = v.Format(time.RFC3339Nano)
	case *time.Time:
		s = v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		s = renderKind(reflect.ValueOf(value))
	}
	return s, s != ""
}

func renderKind(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		s, _ := render(v.Elem().Interface())
		return s
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	}
	return fmt.Sprint(v.Interface())
}

// flatten expands slice and array arguments so that In("id", ids) and
// In("id", a, b) produce the same token.
func flatten(values []any) []any {
	var result []any
	for _, value := range values {
		v := reflect.ValueOf(value)
		if value != nil && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < v.Len(); i++ {
				result = append(result, v.Index(i).Interface())
			}
			continue
		}
		result = append(result, value)
	}
	return result
}
