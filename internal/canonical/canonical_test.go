package canonical_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/daotrust/daotrust/internal/canonical"
)

func TestEncode_sortsMapKeys(t *testing.T) {
	got, err := canonical.Encode(map[string]any{
		"zebra": "last",
		"alpha": "first",
		"mid":   float64(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "alpha:firstmid:3zebra:last"
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_nested(t *testing.T) {
	got, err := canonical.Encode(map[string]any{
		"outer": map[string]any{
			"z": true,
			"a": []any{float64(1), "two", nil},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "outer:a:1twonullz:true"
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_idempotent(t *testing.T) {
	v := map[string]any{
		"score":   float64(75),
		"address": "0xabc",
		"vote":    map[string]any{"yes": float64(70), "no": float64(30)},
	}

	first, err := canonical.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	second, err := canonical.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("encoding not stable: %q vs %q", first, second)
	}
}

func TestEncode_unsupportedType(t *testing.T) {
	_, err := canonical.Encode(map[string]any{"bad": make(chan int)})
	if !errors.Is(err, canonical.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestNormalize_preservesNumberLiterals(t *testing.T) {
	type payload struct {
		Score float64 `json:"score"`
		Yes   int     `json:"yes"`
	}

	v, err := canonical.Normalize(payload{Score: 75, Yes: 70})
	if err != nil {
		t.Fatal(err)
	}
	got, err := canonical.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	want := "score:75yes:70"
	if string(got) != want {
		t.Errorf("Encode(Normalize()) = %q, want %q", got, want)
	}
}

func TestNormalize_fieldOrderIrrelevant(t *testing.T) {
	type ab struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	type ba struct {
		B string `json:"b"`
		A string `json:"a"`
	}

	va, _ := canonical.Normalize(ab{A: "1", B: "2"})
	vb, _ := canonical.Normalize(ba{B: "2", A: "1"})

	ea, err := canonical.Encode(va)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := canonical.Encode(vb)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ea, eb) {
		t.Errorf("field order changed encoding: %q vs %q", ea, eb)
	}
}
