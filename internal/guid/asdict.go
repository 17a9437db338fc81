package guid

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"reflect"
	"sort"
	"strings"
	"time"
)

// AsDict reflects v's json-tagged fields into a map, suitable for the HTTP
// surface's JSON responses. Fields named in excl are omitted. Nested values
// implementing HasGUID are recursed into rather than embedded as opaque
// structs. When toJS is set, snake_case keys are remapped to camelCase.
// Unless "checksum" is in excl, the result gets an extra "checksum" key: an
// 8-hex CRC32 of the canonical (sorted-key) JSON encoding of everything
// else, so clients can detect a stale cached copy.
func AsDict(v HasGUID, excl []string, toJS bool) (map[string]any, error) {
	excluded := make(map[string]bool, len(excl))
	for _, f := range excl {
		excluded[f] = true
	}

	out, err := structToMap(reflect.ValueOf(v), excluded)
	if err != nil {
		return nil, err
	}

	if toJS {
		out = remapKeys(out, snakeToCamel)
	}

	if !excluded["checksum"] {
		sum, err := checksumOf(out)
		if err != nil {
			return nil, fmt.Errorf("computing checksum: %w", err)
		}
		out["checksum"] = sum
	}

	return out, nil
}

func structToMap(rv reflect.Value, excluded map[string]bool) (map[string]any, error) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("guid.AsDict: expected struct, got %s", rv.Kind())
	}

	out := make(map[string]any)
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
		}
		if excluded[name] {
			continue
		}

		fv := rv.Field(i)

		if field.Anonymous && fv.Kind() == reflect.Struct {
			embedded, err := structToMap(fv, excluded)
			if err != nil {
				return nil, err
			}
			for k, v := range embedded {
				out[k] = v
			}
			continue
		}

		val, err := convertValue(fv, excluded)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}

	return out, nil
}

func convertValue(fv reflect.Value, excluded map[string]bool) (any, error) {
	if t, ok := fv.Interface().(time.Time); ok {
		return formatTime(t), nil
	}

	if fv.Kind() == reflect.Pointer && fv.Type().Elem() == reflect.TypeOf(time.Time{}) {
		if fv.IsNil() {
			return nil, nil
		}
		return formatTime(fv.Elem().Interface().(time.Time)), nil
	}

	switch fv.Kind() {
	case reflect.Struct:
		return structToMap(fv, excluded)
	case reflect.Slice, reflect.Array:
		n := fv.Len()
		result := make([]any, n)
		for i := 0; i < n; i++ {
			v, err := convertValue(fv.Index(i), excluded)
			if err != nil {
				return nil, err
			}
			result[i] = v
		}
		return result, nil
	default:
		return fv.Interface(), nil
	}
}

// formatTime renders t as RFC3339 with an explicit "+00:00" offset rather
// than Go's default "Z" when the zone is UTC, matching the wire format the
// original Python implementation emits.
func formatTime(t time.Time) string {
	s := t.UTC().Format(time.RFC3339)
	return strings.TrimSuffix(s, "Z") + "+00:00"
}

func remapKeys(m map[string]any, f func(string) string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = remapKeys(nested, f)
		}
		out[f(k)] = v
	}
	return out
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		return s
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// ChecksumMap is checksumOf exported for callers outside this package that
// need the same canonical-JSON checksum over a plain response map: the
// HTTP surface's `GET /` root object, which wraps an AsDict'd Corpus rather
// than being one itself.
func ChecksumMap(m map[string]any) (string, error) {
	return checksumOf(m)
}

// checksumOf returns an 8-hex CRC32 of m's canonical (sorted-key) JSON
// encoding, so the same logical value always yields the same checksum
// regardless of map iteration order.
func checksumOf(m map[string]any) (string, error) {
	canonical, err := canonicalJSON(m)
	if err != nil {
		return "", err
	}
	sum := crc32.ChecksumIEEE(canonical)
	return fmt.Sprintf("%08x", sum), nil
}

func canonicalJSON(v any) ([]byte, error) {
	switch vv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			vb, err := canonicalJSON(vv[k])
			if err != nil {
				return nil, err
			}
			b.Write(vb)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range vv {
			if i > 0 {
				b.WriteByte(',')
			}
			eb, err := canonicalJSON(e)
			if err != nil {
				return nil, err
			}
			b.Write(eb)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return json.Marshal(v)
	}
}
