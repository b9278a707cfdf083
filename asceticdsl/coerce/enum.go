package coerce

import (
	"fmt"
	"reflect"
	"sync"
)

var enums sync.Map // map[reflect.Type]map[string]reflect.Value

// RegisterEnum declares the complete value set of an enumeration type. Values are
// addressed by their name, which is fmt.Sprint of the value (String() when defined).
func RegisterEnum[T comparable](values ...T) {
	byName := make(map[string]reflect.Value, len(values))
	for _, v := range values {
		byName[fmt.Sprint(v)] = reflect.ValueOf(v)
	}
	t := reflect.TypeFor[T]()
	enums.Store(t, byName)
	converters.Delete(t)
}

func IsEnum(t reflect.Type) bool {
	if t == nil {
		return false
	}
	_, ok := enums.Load(t)
	return ok
}

// EnumName returns the name an enumeration value is registered under.
func EnumName(v reflect.Value) string {
	return fmt.Sprint(v.Interface())
}

// EnumByName resolves name against the enumeration type t. Unregistered named string
// types resolve by plain conversion.
func EnumByName(name string, t reflect.Type) (reflect.Value, bool) {
	if t == nil {
		return reflect.Value{}, false
	}
	if byName, ok := enums.Load(t); ok {
		v, found := byName.(map[string]reflect.Value)[name]
		return v, found
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(name).Convert(t), true
	}
	return reflect.Value{}, false
}
