package crud

import (
	"reflect"
	"strings"
)

// Changes collects the set fields of a partial-update request into a column
// map. Only non-nil pointer, slice and map fields are included; the column is
// the field's json name.
func Changes(req interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	v := reflect.Indirect(reflect.ValueOf(req))
	if v.Kind() != reflect.Struct {
		return out
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		if col := f.Tag.Get("column"); col != "" {
			name = col
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Ptr:
			if !fv.IsNil() {
				out[name] = fv.Elem().Interface()
			}
		case reflect.Slice, reflect.Map:
			if !fv.IsNil() {
				out[name] = fv.Interface()
			}
		}
	}
	return out
}
