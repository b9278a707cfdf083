package reflection

import (
	"reflect"
	"sync"
)

type markerKey struct {
	marker string
	owner  reflect.Type
	field  string
}

var markerIndex sync.Map // map[markerKey]bool

// HasMarker reports whether f carries marker. Answers are memoised per
// (marker, declaring type, field name).
func HasMarker(f Field, marker string) bool {
	key := markerKey{marker: marker, owner: f.Owner, field: f.Name}
	if cached, ok := markerIndex.Load(key); ok {
		return cached.(bool)
	}
	actual, _ := markerIndex.LoadOrStore(key, hasMarker(f.Markers, marker))
	return actual.(bool)
}

// FieldsByMarker returns every field of t, embedded ones included, that carries marker.
func FieldsByMarker(t reflect.Type, marker string) []Field {
	var result []Field
	for _, f := range FieldsOf(t) {
		if HasMarker(f, marker) {
			result = append(result, f)
		}
	}
	return result
}

func FirstFieldByMarker(t reflect.Type, marker string) (Field, bool) {
	for _, f := range FieldsOf(t) {
		if HasMarker(f, marker) {
			return f, true
		}
	}
	return Field{}, false
}
