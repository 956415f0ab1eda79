package histore

import (
	"fmt"
	"strings"
)

// SchemaError reports a missing or incompatible schema element: a required
// key column that a Document does not provide, or an incompatible column
// type across versions.
type SchemaError struct {
	Column string
	Msg    string
	Err    error
}

func schemaErrf(column string, err error, format string, args ...any) error {
	return &SchemaError{Column: column, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Error() string {
	var buf strings.Builder
	buf.WriteString("schema error")
	if e.Column != "" {
		fmt.Fprintf(&buf, " (column %q)", e.Column)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DuplicateKeyError reports that two rows in the same snapshot share a
// primary key.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %s in snapshot", e.Key)
}

// UnsortedInputError reports that a Document's row iterator was not sorted
// as the merge requires (ascending key for keyed archives, ascending row
// index for un-keyed ones).
type UnsortedInputError struct {
	Prev, Cur Key
}

func (e *UnsortedInputError) Error() string {
	return fmt.Sprintf("document not sorted by key: %s precedes %s", e.Cur, e.Prev)
}

// VersionError reports an operation (checkout, rollback, reader seek)
// referring to a version the archive does not know about.
type VersionError struct {
	Version int
	Msg     string
}

func versionErrf(version int, format string, args ...any) error {
	return &VersionError{Version: version, Msg: fmt.Sprintf(format, args...)}
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %d: %s", e.Version, e.Msg)
}

// IntegrityError reports an archive invariant violated while loading
// persisted state.
type IntegrityError struct {
	Msg string
	Err error
}

func integrityErrf(err error, format string, args ...any) error {
	return &IntegrityError{Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("integrity error: %s", e.Msg)
}

// StoreError reports a failure from the underlying key-value/file store.
type StoreError struct {
	Op  string
	Err error
}

func storeErrf(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

// SerializationError reports a malformed on-disk record. Mirrors the
// teacher's DataError: it carries a bounded preview of the offending bytes
// so errors stay readable even for multi-megabyte rows.
type SerializationError struct {
	Data []byte
	Off  int
	Msg  string
	Err  error
}

func serializationErrf(data []byte, off int, err error, format string, args ...any) error {
	return &SerializationError{Data: data, Off: off, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	var preview string
	if n <= prefixLen+suffixLen {
		preview = fmt.Sprintf("(%d) %x", n, e.Data)
	} else {
		preview = fmt.Sprintf("(%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %s", e.Msg, e.Err, preview)
	}
	return fmt.Sprintf("%s: %s", e.Msg, preview)
}

// DocumentError reports malformed Document input unrelated to schema or
// sort order (spec.md §4.2).
type DocumentError struct {
	Msg string
	Err error
}

func documentErrf(err error, format string, args ...any) error {
	return &DocumentError{Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *DocumentError) Unwrap() error { return e.Err }

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("document error: %s", e.Msg)
}
