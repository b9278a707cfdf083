package reflection

import (
	"reflect"
	"strings"
	"sync"
)

// TagKey is the struct tag holding field markers, e.g. `dsl:"id,updated_at"`.
const TagKey = "dsl"

const (
	MarkerID        = "id"
	MarkerCreatedAt = "created_at"
	MarkerUpdatedAt = "updated_at"
	MarkerDeletedAt = "deleted_at"
	MarkerVersion   = "version"
	// MarkerStatic flags class-level state that instance access must skip.
	MarkerStatic = "static"
)

// Field describes one declared field of a struct type or of a struct embedded in it.
type Field struct {
	Name     string
	Type     reflect.Type
	Static   bool
	Exported bool
	Tag      reflect.StructTag
	Markers  []string
	// Index is the path for reflect.Value.FieldByIndex from the outermost struct.
	Index []int
	// Owner is the struct type that declares the field.
	Owner reflect.Type
}

var fieldCache sync.Map // map[reflect.Type][]Field

// FieldsOf returns the fields of t: its own fields in declaration order first, then
// the fields of each embedded struct, level by level. Embedded structs themselves are
// not listed. Pointer types are dereferenced; non-struct types have no fields.
//
// The result is computed once per type and shared by every caller; it must not be
// modified.
func FieldsOf(t reflect.Type) []Field {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}
	actual, _ := fieldCache.LoadOrStore(t, collectFields(t))
	return actual.([]Field)
}

// FieldOf finds the first field named name, so an outer field shadows an embedded one.
// When no field has exactly that name, the exported forms of name are tried, so
// "createdAt" finds CreatedAt and "userId" finds UserID.
func FieldOf(t reflect.Type, name string) (Field, bool) {
	fields := FieldsOf(t)
	if f, ok := fieldNamed(fields, name); ok {
		return f, true
	}
	for _, exported := range ExportedNames(name) {
		if exported == name {
			continue
		}
		if f, ok := fieldNamed(fields, exported); ok {
			return f, true
		}
	}
	return Field{}, false
}

func fieldNamed(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func Has(t reflect.Type, name string) bool {
	_, ok := FieldOf(t, name)
	return ok
}

// Indirect strips pointer indirections from t.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

type level struct {
	typ   reflect.Type
	index []int
}

func collectFields(root reflect.Type) []Field {
	result := make([]Field, 0, root.NumField())
	visited := map[reflect.Type]bool{root: true}
	current := []level{{typ: root}}

	for len(current) > 0 {
		var next []level
		for _, lv := range current {
			for i := 0; i < lv.typ.NumField(); i++ {
				sf := lv.typ.Field(i)
				index := appendIndex(lv.index, i)

				if sf.Anonymous {
					embedded := Indirect(sf.Type)
					if embedded.Kind() == reflect.Struct {
						if !visited[embedded] {
							visited[embedded] = true
							next = append(next, level{typ: embedded, index: index})
						}
						continue
					}
				}

				markers := parseMarkers(sf.Tag)
				if hasMarker(markers, "-") {
					continue
				}
				result = append(result, Field{
					Name:     sf.Name,
					Type:     sf.Type,
					Static:   hasMarker(markers, MarkerStatic),
					Exported: sf.IsExported(),
					Tag:      sf.Tag,
					Markers:  markers,
					Index:    index,
					Owner:    lv.typ,
				})
			}
		}
		current = next
	}
	return result
}

func appendIndex(prefix []int, i int) []int {
	index := make([]int, len(prefix)+1)
	copy(index, prefix)
	index[len(prefix)] = i
	return index
}

func parseMarkers(tag reflect.StructTag) []string {
	raw, ok := tag.Lookup(TagKey)
	if !ok || raw == "" {
		return nil
	}
	var markers []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			markers = append(markers, part)
		}
	}
	return markers
}

func hasMarker(markers []string, marker string) bool {
	for _, m := range markers {
		if m == marker {
			return true
		}
	}
	return false
}
