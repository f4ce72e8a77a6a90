// Package canonical produces a deterministic byte representation of
// JSON-shaped values, used as the hash input for ledger entries.
//
// Two values with the same logical content always encode to the same
// bytes, regardless of the order their fields were constructed in:
// mapping keys are sorted lexicographically before encoding, sequences
// encode in order, and primitives encode as their literal text. No
// whitespace or quoting is inserted.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrUnsupportedType is returned when a value contains a type with no
// defined literal form. This is a programming error on the caller's
// side, not a recoverable runtime condition.
var ErrUnsupportedType = errors.New("canonical: unsupported type")

// Encode returns the canonical byte encoding of v.
//
// Supported values: nil, bool, string, json.Number, Go numeric types,
// []any, and map[string]any. Arbitrary structs should be normalised
// through Normalize first so that numbers keep their exact JSON
// literal form.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize round-trips v through JSON into the generic value shapes
// Encode accepts. Numbers are decoded as json.Number so they encode as
// their exact literal text; this makes the append-time and verify-time
// encodings of the same entry bit-identical.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonical: decode value: %w", err)
	}
	return out, nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(t)
	case json.Number:
		buf.WriteString(t.String())
	case int:
		buf.WriteString(strconv.Itoa(t))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(t, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case []any:
		for _, elem := range t {
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString(k)
			buf.WriteByte(':')
			if err := encode(buf, t[k]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return nil
}
