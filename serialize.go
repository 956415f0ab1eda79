package histore

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// On-disk tags for the ArchiveValue variants. Kept small and stable: they
// are read back by every future version of this package.
const (
	valueTagSingle uint8 = 0
	valueTagMulti  uint8 = 1
)

func encodeArchiveValue(enc *msgpack.Encoder, v ArchiveValue) error {
	switch val := v.(type) {
	case SingleVersionValue:
		if err := enc.EncodeUint8(valueTagSingle); err != nil {
			return err
		}
		if err := enc.Encode(val.Value); err != nil {
			return err
		}
		return enc.Encode(val.ts)
	case MultiVersionValue:
		if err := enc.EncodeUint8(valueTagMulti); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(len(val.values)); err != nil {
			return err
		}
		for _, tv := range val.values {
			if err := enc.Encode(tv.Value); err != nil {
				return err
			}
			if err := enc.Encode(tv.Timestamp); err != nil {
				return err
			}
		}
		return nil
	default:
		return serializationErrf(nil, 0, nil, "unknown ArchiveValue implementation %T", v)
	}
}

func decodeArchiveValue(dec *msgpack.Decoder) (ArchiveValue, error) {
	tag, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueTagSingle:
		var value Scalar
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		var ts Timestamp
		if err := dec.Decode(&ts); err != nil {
			return nil, err
		}
		return SingleVersionValue{Value: value, ts: ts}, nil
	case valueTagMulti:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		values := make([]TimestampedValue, n)
		for i := 0; i < n; i++ {
			if err := dec.Decode(&values[i].Value); err != nil {
				return nil, err
			}
			if err := dec.Decode(&values[i].Timestamp); err != nil {
				return nil, err
			}
		}
		return MultiVersionValue{values: values}, nil
	default:
		return nil, serializationErrf(nil, 0, nil, "unknown archive value tag %d", tag)
	}
}

// encodeRow writes one ArchiveRow record. Matches the TIMESTAMP /
// SINGLE-VALUE / MULTI-VALUE grammar: a row is its id, its key and
// position values, its own timestamp, and a cell map keyed by column id.
func encodeRow(enc *msgpack.Encoder, r *ArchiveRow) error {
	if err := enc.EncodeInt64(int64(r.ID)); err != nil {
		return err
	}
	if err := encodeArchiveValue(enc, r.Key); err != nil {
		return err
	}
	if err := encodeArchiveValue(enc, r.Position); err != nil {
		return err
	}
	if err := enc.Encode(r.timestamp); err != nil {
		return err
	}
	if err := enc.EncodeMapLen(len(r.Cells)); err != nil {
		return err
	}
	for col, val := range r.Cells {
		if err := enc.EncodeInt64(int64(col)); err != nil {
			return err
		}
		if err := encodeArchiveValue(enc, val); err != nil {
			return err
		}
	}
	return nil
}

func decodeRow(dec *msgpack.Decoder) (*ArchiveRow, error) {
	id, err := dec.DecodeInt64()
	if err != nil {
		return nil, err
	}
	key, err := decodeArchiveValue(dec)
	if err != nil {
		return nil, err
	}
	pos, err := decodeArchiveValue(dec)
	if err != nil {
		return nil, err
	}
	var ts Timestamp
	if err := dec.Decode(&ts); err != nil {
		return nil, err
	}
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	cells := make(map[ColumnID]ArchiveValue, n)
	for i := 0; i < n; i++ {
		colID, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		val, err := decodeArchiveValue(dec)
		if err != nil {
			return nil, err
		}
		cells[ColumnID(colID)] = val
	}
	return &ArchiveRow{ID: RowID(id), Key: key, Position: pos, Cells: cells, timestamp: ts}, nil
}

// encodeRows writes every row in order to w, as a back-to-back stream of
// row records with no separators: msgpack's own type tags make each
// record self-delimiting.
func encodeRows(w io.Writer, rows []*ArchiveRow) error {
	enc := msgpack.NewEncoder(w)
	for _, r := range rows {
		if err := encodeRow(enc, r); err != nil {
			return serializationErrf(nil, 0, err, "encoding row %d", r.ID)
		}
	}
	return nil
}

// decodeRows reads a stream of row records from r until EOF.
func decodeRows(r io.Reader) ([]*ArchiveRow, error) {
	dec := msgpack.NewDecoder(r)
	var rows []*ArchiveRow
	for {
		row, err := decodeRow(dec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, serializationErrf(nil, 0, err, "decoding row stream")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodeColumn(enc *msgpack.Encoder, c *ArchiveColumn) error {
	if err := enc.EncodeInt64(int64(c.ID)); err != nil {
		return err
	}
	if err := encodeArchiveValue(enc, c.Name); err != nil {
		return err
	}
	if err := encodeArchiveValue(enc, c.Position); err != nil {
		return err
	}
	return enc.Encode(c.timestamp)
}

func decodeColumn(dec *msgpack.Decoder) (*ArchiveColumn, error) {
	id, err := dec.DecodeInt64()
	if err != nil {
		return nil, err
	}
	name, err := decodeArchiveValue(dec)
	if err != nil {
		return nil, err
	}
	pos, err := decodeArchiveValue(dec)
	if err != nil {
		return nil, err
	}
	var ts Timestamp
	if err := dec.Decode(&ts); err != nil {
		return nil, err
	}
	return &ArchiveColumn{ID: ColumnID(id), Name: name, Position: pos, timestamp: ts}, nil
}

// metadataDoc is the full contents of metadata.dat: schema, snapshot
// listing and id counters. Snapshot has only exported plain-kind fields,
// so it round-trips through msgpack's default reflection codec.
type metadataDoc struct {
	Policy      ColumnMatchPolicy
	Columns     []*ArchiveColumn
	Snapshots   SnapshotListing
	KeyColumns  []string
	NextVersion int
	NextRowID   RowID
	NextColID   ColumnID
}

func encodeMetadata(w io.Writer, doc metadataDoc) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeInt64(int64(doc.Policy)); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(doc.Columns)); err != nil {
		return err
	}
	for _, c := range doc.Columns {
		if err := encodeColumn(enc, c); err != nil {
			return err
		}
	}
	if err := enc.Encode(doc.Snapshots); err != nil {
		return err
	}
	if err := enc.Encode(doc.KeyColumns); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(doc.NextVersion)); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(doc.NextRowID)); err != nil {
		return err
	}
	return enc.EncodeInt64(int64(doc.NextColID))
}

func decodeMetadata(r io.Reader) (metadataDoc, error) {
	dec := msgpack.NewDecoder(r)
	var doc metadataDoc
	policy, err := dec.DecodeInt64()
	if err != nil {
		return doc, err
	}
	doc.Policy = ColumnMatchPolicy(policy)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return doc, err
	}
	doc.Columns = make([]*ArchiveColumn, n)
	for i := 0; i < n; i++ {
		c, err := decodeColumn(dec)
		if err != nil {
			return doc, err
		}
		doc.Columns[i] = c
	}
	if err := dec.Decode(&doc.Snapshots); err != nil {
		return doc, err
	}
	if err := dec.Decode(&doc.KeyColumns); err != nil {
		return doc, err
	}
	nextVersion, err := dec.DecodeInt64()
	if err != nil {
		return doc, err
	}
	doc.NextVersion = int(nextVersion)
	nextRowID, err := dec.DecodeInt64()
	if err != nil {
		return doc, err
	}
	doc.NextRowID = RowID(nextRowID)
	nextColID, err := dec.DecodeInt64()
	if err != nil {
		return doc, err
	}
	doc.NextColID = ColumnID(nextColID)
	return doc, nil
}
