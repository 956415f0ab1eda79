package histore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// TimeInterval is a closed interval [Start,End] of version numbers, with
// Start <= End and Start >= 0.
type TimeInterval struct {
	Start int
	End   int
}

func interval(v int) TimeInterval {
	return TimeInterval{Start: v, End: v}
}

// Contains reports whether the interval contains the given version.
func (iv TimeInterval) Contains(version int) bool {
	return iv.Start <= version && version <= iv.End
}

func (iv TimeInterval) String() string {
	if iv.Start == iv.End {
		return strconv.Itoa(iv.Start)
	}
	return fmt.Sprintf("%d-%d", iv.Start, iv.End)
}

// adjacentOrOverlapping reports whether b starts at or before a.End+1, i.e.
// whether the two intervals would need to be coalesced if placed next to
// each other in ascending order.
func adjacentOrOverlapping(a, b TimeInterval) bool {
	return b.Start <= a.End+1
}

// Timestamp is a canonical, ascending, coalesced sequence of closed
// integer intervals over version numbers. It is a value type: every
// operation returns a new Timestamp and never mutates the receiver.
//
// The zero value is the empty timestamp ("never").
type Timestamp struct {
	intervals []TimeInterval
}

// TimestampOf returns the timestamp containing exactly the given version.
func TimestampOf(version int) Timestamp {
	if version < 0 {
		panic(fmt.Errorf("histore: negative version %d", version))
	}
	return Timestamp{intervals: []TimeInterval{interval(version)}}
}

// NewTimestamp builds a canonical timestamp from a list of intervals in any
// order; overlapping or adjacent intervals are coalesced. Panics if any
// interval has negative bounds or Start > End.
func NewTimestamp(intervals ...TimeInterval) Timestamp {
	ivs := append([]TimeInterval(nil), intervals...)
	for _, iv := range ivs {
		if iv.Start < 0 || iv.End < iv.Start {
			panic(fmt.Errorf("histore: invalid interval %v", iv))
		}
	}
	sortIntervals(ivs)
	return Timestamp{intervals: coalesce(ivs)}
}

func sortIntervals(ivs []TimeInterval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j-1].Start > ivs[j].Start; j-- {
			ivs[j-1], ivs[j] = ivs[j], ivs[j-1]
		}
	}
}

func coalesce(sorted []TimeInterval) []TimeInterval {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]TimeInterval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if adjacentOrOverlapping(cur, iv) {
			if iv.End > cur.End {
				cur.End = iv.End
			}
		} else {
			out = append(out, cur)
			cur = iv
		}
	}
	return append(out, cur)
}

// Intervals returns the canonical interval list. The caller must not
// mutate the result.
func (t Timestamp) Intervals() []TimeInterval {
	return t.intervals
}

// IsEmpty reports whether the timestamp contains no versions.
func (t Timestamp) IsEmpty() bool {
	return len(t.intervals) == 0
}

// Contains reports whether version is a member of the timestamp.
//
// Scans from the most recent interval backwards since most lookups are for
// recent versions.
func (t Timestamp) Contains(version int) bool {
	for i := len(t.intervals) - 1; i >= 0; i-- {
		iv := t.intervals[i]
		if iv.Contains(version) {
			return true
		}
		if iv.End < version {
			return false
		}
	}
	return false
}

// LastVersion returns the most recent version in the timestamp, or -1 if
// the timestamp is empty.
func (t Timestamp) LastVersion() int {
	if len(t.intervals) == 0 {
		return -1
	}
	return t.intervals[len(t.intervals)-1].End
}

// Append extends the timestamp with version, which must be >= LastVersion().
// If version is already the last member it is a no-op (idempotent).
func (t Timestamp) Append(version int) Timestamp {
	if len(t.intervals) == 0 {
		return Timestamp{intervals: []TimeInterval{interval(version)}}
	}
	last := t.intervals[len(t.intervals)-1]
	if version < last.End {
		panic(fmt.Errorf("histore: cannot append %d to timestamp ending at %d", version, last.End))
	}
	if version <= last.End {
		return t
	}
	out := append([]TimeInterval(nil), t.intervals...)
	if version == last.End+1 {
		out[len(out)-1] = TimeInterval{Start: last.Start, End: version}
	} else {
		out = append(out, interval(version))
	}
	return Timestamp{intervals: out}
}

// Union returns the canonical union of t and other.
func (t Timestamp) Union(other Timestamp) Timestamp {
	if len(t.intervals) == 0 {
		return other
	}
	if len(other.intervals) == 0 {
		return t
	}
	merged := make([]TimeInterval, 0, len(t.intervals)+len(other.intervals))
	merged = append(merged, t.intervals...)
	merged = append(merged, other.intervals...)
	sortIntervals(merged)
	return Timestamp{intervals: coalesce(merged)}
}

// Intersect returns the canonical intersection of t and other.
func (t Timestamp) Intersect(other Timestamp) Timestamp {
	var out []TimeInterval
	i, j := 0, 0
	for i < len(t.intervals) && j < len(other.intervals) {
		a, b := t.intervals[i], other.intervals[j]
		lo, hi := max(a.Start, b.Start), min(a.End, b.End)
		if lo <= hi {
			out = append(out, TimeInterval{Start: lo, End: hi})
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return Timestamp{intervals: coalesce(out)}
}

// Rollback returns the timestamp truncated to versions <= version.
func (t Timestamp) Rollback(version int) Timestamp {
	var out []TimeInterval
	for _, iv := range t.intervals {
		if iv.Start > version {
			break
		}
		if iv.End <= version {
			out = append(out, iv)
		} else {
			out = append(out, TimeInterval{Start: iv.Start, End: version})
			break
		}
	}
	return Timestamp{intervals: out}
}

// IsEqual reports whether t and other represent the same set of versions.
func (t Timestamp) IsEqual(other Timestamp) bool {
	if len(t.intervals) != len(other.intervals) {
		return false
	}
	for i := range t.intervals {
		if t.intervals[i] != other.intervals[i] {
			return false
		}
	}
	return true
}

func (t Timestamp) String() string {
	parts := make([]string, len(t.intervals))
	for i, iv := range t.intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ",")
}

// EncodeMsgpack implements msgpack.CustomEncoder. Timestamp's interval
// list is unexported, so serialize.go relies on this instead of
// reflection-based struct encoding.
func (t Timestamp) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(t.intervals)); err != nil {
		return err
	}
	for _, iv := range t.intervals {
		if err := enc.EncodeInt64(int64(iv.Start)); err != nil {
			return err
		}
		if err := enc.EncodeInt64(int64(iv.End)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (t *Timestamp) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	ivs := make([]TimeInterval, n)
	for i := 0; i < n; i++ {
		start, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		end, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		ivs[i] = TimeInterval{Start: int(start), End: int(end)}
	}
	t.intervals = ivs
	return nil
}

// ParseTimestamp parses the String() representation back into a Timestamp.
// Persisted timestamps go through DecodeMsgpack instead.
func ParseTimestamp(text string) (Timestamp, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Timestamp{}, nil
	}
	var ivs []TimeInterval
	for _, tok := range strings.Split(text, ",") {
		if pos := strings.IndexByte(tok, '-'); pos > 0 {
			start, err := strconv.Atoi(tok[:pos])
			if err != nil {
				return Timestamp{}, fmt.Errorf("histore: invalid timestamp %q: %w", text, err)
			}
			end, err := strconv.Atoi(tok[pos+1:])
			if err != nil {
				return Timestamp{}, fmt.Errorf("histore: invalid timestamp %q: %w", text, err)
			}
			ivs = append(ivs, TimeInterval{Start: start, End: end})
		} else {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return Timestamp{}, fmt.Errorf("histore: invalid timestamp %q: %w", text, err)
			}
			ivs = append(ivs, interval(v))
		}
	}
	return Timestamp{intervals: ivs}, nil
}
