package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces RFC 8785 canonical JSON for hashing.
//
// Accepted value shapes: string, bool, int, int64, integral float64,
// []any, map[string]any, json.Number, and nested combinations thereof.
// Nil values and fractional numbers are errors.
func Marshal(v any) ([]byte, error) {
	return marshal(v)
}

func marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case json.Number:
		n, err := foldNumber(val)
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("%d", n)), nil
	case float64:
		n, err := foldFloat(val)
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("%d", n)), nil
	case float32:
		n, err := foldFloat(float64(val))
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("%d", n)), nil
	case []any:
		return marshalArray(val)
	case map[string]any:
		return marshalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// foldFloat folds an integral float64 to int64.
// encoding/json and YAML both decode numbers as float64; exact integral
// values are the only ones with a canonical representation here.
func foldFloat(f float64) (int64, error) {
	n := int64(f)
	if float64(n) != f {
		return 0, fmt.Errorf("fractional numbers are forbidden in canonical JSON: %v", f)
	}
	return n, nil
}

func foldNumber(num json.Number) (int64, error) {
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("fractional numbers are forbidden in canonical JSON: %s", num)
	}
	return n, nil
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code
// units). Go's sort.Strings uses UTF-8 which produces a DIFFERENT order
// for strings outside the BMP.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings by UTF-16 code units as required by
// RFC 8785. utf16.Encode handles surrogate pairs correctly.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// marshalString produces a canonical JSON string with NFC
// normalization. RFC 8785: no HTML escaping, and U+2028/U+2029 are NOT
// escaped; only control characters, backslash, and quote are.
func marshalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	// Go's encoder escapes U+2028/U+2029 for JavaScript embedding; RFC
	// 8785 requires them literal. A \u202x escape produced by the
	// encoder is preceded by an even number of backslashes (odd means
	// the backslash itself is escaped text, not an escape sequence).
	result = unescapeLineSeparators(result)

	return result, nil
}

func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	var out []byte
	backslashes := 0
	for i := 0; i < len(data); {
		if data[i] == '\\' && i+5 < len(data) && backslashes%2 == 0 &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if out == nil {
				out = append(out, data[:i]...)
			}
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 6
			backslashes = 0
			continue
		}
		if data[i] == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		if out != nil {
			out = append(out, data[i])
		}
		i++
	}

	if out == nil {
		return data
	}
	return out
}

func marshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range SortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Roundtrip converts an arbitrary JSON-marshalable value into the
// map/slice shape Marshal accepts, via encoding/json. Struct tags
// determine field names; numbers surface as json.Number so integral
// values survive exactly.
func Roundtrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
