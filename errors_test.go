package histore

import (
	"errors"
	"strings"
	"testing"
)

func TestSchemaErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := schemaErrf("Name", inner, "missing key column")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, wanted *SchemaError", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, wanted true")
	}
	s := err.Error()
	if !strings.Contains(s, "Name") || !strings.Contains(s, "missing key column") || !strings.Contains(s, "inner") {
		t.Fatalf("err.Error() = %q, wanted column/msg/inner", s)
	}
}

func TestDuplicateKeyError(t *testing.T) {
	err := &DuplicateKeyError{Key: Key{Text("A")}}
	if !strings.Contains(err.Error(), "(A)") {
		t.Fatalf("err.Error() = %q, wanted key rendered", err.Error())
	}
}

func TestUnsortedInputError(t *testing.T) {
	err := &UnsortedInputError{Prev: Key{Int(2)}, Cur: Key{Int(1)}}
	s := err.Error()
	if !strings.Contains(s, "(1)") || !strings.Contains(s, "(2)") {
		t.Fatalf("err.Error() = %q, wanted both keys rendered", s)
	}
}

func TestSerializationErrorPreview(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	err := serializationErrf(data, 0, nil, "bad row record")
	s := err.Error()
	if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") {
		t.Fatalf("err.Error() = %q, wanted preview with (200) and ...", s)
	}
}

func TestVersionError(t *testing.T) {
	err := versionErrf(7, "unknown version")
	if !strings.Contains(err.Error(), "7") {
		t.Fatalf("err.Error() = %q, wanted version number", err.Error())
	}
}
