package histore

import (
	"fmt"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ScalarKind identifies the variant held by a Scalar.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTime
)

func (k ScalarKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("ScalarKind(%d)", int(k))
	}
}

// Scalar is the closed set of cell/key/position values an archive can hold:
// null, bool, int64, float64, text, or a wall-clock instant. It is
// comparable with ==, but == is not Equal: == compares times by their
// internal representation (location included) and floats numerically
// (+0 == -0), while Equal compares instants and float bit patterns.
type Scalar struct {
	kind ScalarKind
	b    bool
	i    int64
	f    float64
	s    string
	tm   time.Time
}

// Null is the scalar "no value".
var Null = Scalar{kind: KindNull}

func Bool(v bool) Scalar   { return Scalar{kind: KindBool, b: v} }
func Int(v int64) Scalar   { return Scalar{kind: KindInt, i: v} }
func Float(v float64) Scalar { return Scalar{kind: KindFloat, f: v} }
func Text(v string) Scalar { return Scalar{kind: KindText, s: v} }
func Time(v time.Time) Scalar { return Scalar{kind: KindTime, tm: v} }

func (v Scalar) Kind() ScalarKind { return v.kind }
func (v Scalar) IsNull() bool     { return v.kind == KindNull }

func (v Scalar) Bool() bool          { return v.b }
func (v Scalar) Int() int64          { return v.i }
func (v Scalar) Float() float64      { return v.f }
func (v Scalar) Text() string        { return v.s }
func (v Scalar) Time() time.Time     { return v.tm }

// Equal implements the equality policy of the archive's scalar domain:
// temporal values compare by wall-clock instant, floats compare bit-exact
// via their IEEE-754 bit patterns, except two NaNs are never equal to each
// other (nor to themselves).
func (v Scalar) Equal(other Scalar) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsNaN(other.f) {
			return false
		}
		return math.Float64bits(v.f) == math.Float64bits(other.f)
	case KindText:
		return v.s == other.s
	case KindTime:
		return v.tm.Equal(other.tm)
	default:
		panic(fmt.Errorf("histore: unhandled scalar kind %v", v.kind))
	}
}

// Less defines a total order over scalars of any kind, used to sort merge
// keys: null sorts before any non-null value; values of different non-null
// kinds are ordered by kind, then compared within a kind.
func (v Scalar) Less(other Scalar) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == KindNull && other.kind != KindNull
	}
	if v.kind != other.kind {
		return v.kind < other.kind
	}
	switch v.kind {
	case KindBool:
		return !v.b && other.b
	case KindInt:
		return v.i < other.i
	case KindFloat:
		return v.f < other.f
	case KindText:
		return v.s < other.s
	case KindTime:
		return v.tm.Before(other.tm)
	default:
		panic(fmt.Errorf("histore: unhandled scalar kind %v", v.kind))
	}
}

func (v Scalar) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInt:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindText:
		return v.s
	case KindTime:
		return v.tm.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("<invalid scalar kind %d>", int(v.kind))
	}
}

// EncodeMsgpack implements msgpack.CustomEncoder. Scalar's fields are
// unexported, so serialize.go and the CSV external-sort spill path both
// rely on this rather than reflection-based struct encoding.
func (v Scalar) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(uint8(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindInt:
		return enc.EncodeInt64(v.i)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindText:
		return enc.EncodeString(v.s)
	case KindTime:
		return enc.EncodeTime(v.tm)
	default:
		panic(fmt.Errorf("histore: unhandled scalar kind %v", v.kind))
	}
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Scalar) DecodeMsgpack(dec *msgpack.Decoder) error {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	v.kind = ScalarKind(kind)
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		v.b, err = dec.DecodeBool()
	case KindInt:
		v.i, err = dec.DecodeInt64()
	case KindFloat:
		v.f, err = dec.DecodeFloat64()
	case KindText:
		v.s, err = dec.DecodeString()
	case KindTime:
		v.tm, err = dec.DecodeTime()
	default:
		return fmt.Errorf("histore: unhandled scalar kind %d while decoding", kind)
	}
	return err
}

// Key is an ordered tuple of scalars: the merge key for a keyed archive, or
// a single-element tuple holding a row index for an un-keyed one.
type Key []Scalar

// Less compares two keys lexicographically using Scalar.Less.
func (k Key) Less(other Key) bool {
	n := len(k)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if k[i].Less(other[i]) {
			return true
		}
		if other[i].Less(k[i]) {
			return false
		}
	}
	return len(k) < len(other)
}

// Equal reports whether two keys hold the same scalars in the same order.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if !k[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	s := "("
	for i, v := range k {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + ")"
}
