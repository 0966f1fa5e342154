// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// canonical.go produces the deterministic snapshot string used for the
// editor's dirty/clean comparison. Two semantically-equal values always
// serialize to the same bytes regardless of map insertion order.
package document

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Snapshot serializes v into a canonical string: object keys sorted
// lexicographically at every nesting level, array element order preserved,
// reference cycles replaced with null at the point of recurrence. It never
// panics; a value that cannot be serialized at the top level degrades to a
// best-effort string coercion.
func Snapshot(v any) string {
	var sb strings.Builder
	if !writeCanonical(&sb, reflect.ValueOf(v), make(map[uintptr]bool)) {
		return fmt.Sprint(v)
	}
	return sb.String()
}

// writeCanonical encodes rv into sb. ancestors tracks the pointers of maps,
// slices, and pointers on the current path so cycles short-circuit to null.
// Returns false only when the top-level value has no canonical form.
func writeCanonical(sb *strings.Builder, rv reflect.Value, ancestors map[uintptr]bool) bool {
	if !rv.IsValid() {
		sb.WriteString("null")
		return true
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			sb.WriteString("null")
			return true
		}
		if rv.Kind() == reflect.Pointer {
			ptr := rv.Pointer()
			if ancestors[ptr] {
				sb.WriteString("null")
				return true
			}
			ancestors[ptr] = true
			defer delete(ancestors, ptr)
		}
		return writeCanonical(sb, rv.Elem(), ancestors)

	case reflect.Bool:
		sb.WriteString(strconv.FormatBool(rv.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sb.WriteString(strconv.FormatInt(rv.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		sb.WriteString(strconv.FormatUint(rv.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		sb.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))

	case reflect.String:
		writeJSONString(sb, rv.String())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				sb.WriteString("null")
				return true
			}
			ptr := rv.Pointer()
			if ancestors[ptr] {
				sb.WriteString("null")
				return true
			}
			ancestors[ptr] = true
			defer delete(ancestors, ptr)
		}
		sb.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			if !writeCanonical(sb, rv.Index(i), ancestors) {
				sb.WriteString("null")
			}
		}
		sb.WriteByte(']')

	case reflect.Map:
		if rv.IsNil() {
			sb.WriteString("null")
			return true
		}
		ptr := rv.Pointer()
		if ancestors[ptr] {
			sb.WriteString("null")
			return true
		}
		ancestors[ptr] = true
		defer delete(ancestors, ptr)

		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())
		for _, k := range rv.MapKeys() {
			name := mapKeyString(k)
			keys = append(keys, name)
			byKey[name] = rv.MapIndex(k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSONString(sb, k)
			sb.WriteByte(':')
			if !writeCanonical(sb, byKey[k], ancestors) {
				sb.WriteString("null")
			}
		}
		sb.WriteByte('}')

	case reflect.Struct:
		fields := structFields(rv.Type())
		sb.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSONString(sb, f.name)
			sb.WriteByte(':')
			if !writeCanonical(sb, rv.Field(f.index), ancestors) {
				sb.WriteString("null")
			}
		}
		sb.WriteByte('}')

	default:
		// Func, chan, complex, unsafe pointer: no canonical form.
		return false
	}

	return true
}

// structField pairs a canonical field name with its index in the struct.
type structField struct {
	name  string
	index int
}

// structFields resolves exported field names (honoring json tags) and
// returns them sorted lexicographically to match map key ordering.
func structFields(t reflect.Type) []structField {
	fields := make([]structField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields = append(fields, structField{name: name, index: i})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	return fields
}

// mapKeyString renders a map key as a string. Non-string keys are formatted
// the way encoding/json would (integers) or with fmt as a last resort.
func mapKeyString(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}

// writeJSONString writes s as a JSON-escaped quoted string.
func writeJSONString(sb *strings.Builder, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		sb.WriteString(strconv.Quote(s))
		return
	}
	sb.Write(b)
}
