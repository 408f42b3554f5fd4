package postgres

import (
	"reflect"
	"sync"
)

// columnLayout is the db-tagged layout of a struct type: column names in
// declaration order and the field index path that reaches each of them,
// descending into embedded structs.
type columnLayout struct {
	columns []string
	paths   [][]int
}

// layouts caches columnLayout per reflect.Type.
var layouts sync.Map

func layoutOf(t reflect.Type) *columnLayout {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := layouts.Load(t); ok {
		return cached.(*columnLayout)
	}

	layout := &columnLayout{}
	if t.Kind() == reflect.Struct {
		collectColumns(t, nil, layout)
	}

	actual, _ := layouts.LoadOrStore(t, layout)
	return actual.(*columnLayout)
}

func collectColumns(t reflect.Type, prefix []int, layout *columnLayout) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		// Only value embeds; a nil embedded pointer has no columns to read.
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectColumns(field.Type, path, layout)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		layout.columns = append(layout.columns, tag)
		layout.paths = append(layout.paths, path)
	}
}

// ExtractDBColumns returns the "db" tag names of T in declaration order.
// Call it once at initialization.
//
//	columns := ExtractDBColumns[grn.Line]()
//	// ["line_no", "line_id", "item_id", "name", ...]
func ExtractDBColumns[T any]() []string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return append([]string(nil), layoutOf(t).columns...)
}

// StructToMap maps db column names to field values. Fields without a tag,
// tagged "-" or unexported are left out. Non-struct values yield nil.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	layout := layoutOf(rv.Type())
	res := make(map[string]any, len(layout.columns))
	for i, col := range layout.columns {
		res[col] = rv.FieldByIndex(layout.paths[i]).Interface()
	}
	return res
}
