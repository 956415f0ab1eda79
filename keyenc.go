package histore

import (
	"encoding/binary"
	"encoding/hex"
	"math"
)

// encodeKeyText packs a (possibly multi-column) key tuple into a single
// injective string, so that a MultiVersionValue keyed by Scalar can carry a
// tuple key. Each component is tagged with its kind and length-prefixed, so
// no separator byte can ever be mistaken for component content; two
// distinct keys never collide. This is not an order-preserving encoding —
// key comparison for merge and sort purposes always goes through Key.Less
// directly, never through the encoded text.
func encodeKeyText(k Key) string {
	var buf []byte
	for _, v := range k {
		buf = appendScalarTagged(buf, v)
	}
	return hex.EncodeToString(buf)
}

func appendScalarTagged(buf []byte, v Scalar) []byte {
	buf = append(buf, byte(v.Kind()))
	switch v.Kind() {
	case KindNull:
		// no payload
	case KindBool:
		if v.Bool() {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(v.Int()))
		buf = append(buf, tmp[:]...)
	case KindFloat:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.Float()))
		buf = append(buf, tmp[:]...)
	case KindText:
		buf = appendVarbytesText(buf, v.Text())
	case KindTime:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(v.Time().UnixNano()))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func appendVarbytesText(buf []byte, s string) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
	buf = append(buf, lenBuf[:n]...)
	return append(buf, s...)
}
