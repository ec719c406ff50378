// Package fields flattens state values into the field maps restore guards
// bind as top-level variables.
package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Of returns the top-level fields of value. Maps with string keys are
// returned as is when already a map[string]any; structs and other string
// keyed maps go through their JSON form, so json tags name the fields.
// ok is false for values that have no fields.
func Of(value any) (map[string]any, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	if m, ok := value.(map[string]any); ok {
		return m, true, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	out, err := roundTrip(rv.Interface())
	if err != nil {
		return nil, false, fmt.Errorf("fields: flatten %s: %w", rv.Type(), err)
	}
	return out, out != nil, nil
}

func roundTrip(value any) (map[string]any, error) {
	buffer, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
