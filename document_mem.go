package histore

// MemDocument is an in-memory Document: a fixed column list and a slice of
// rows, each a []Scalar aligned with that column list. Intended for tests
// and for small snapshots where external sorting would be wasted effort.
type MemDocument struct {
	columns []string
	rows    [][]Scalar
}

// NewMemDocument builds a MemDocument. rows must each have len(columns)
// values; this is not validated until iteration.
func NewMemDocument(columns []string, rows [][]Scalar) *MemDocument {
	return &MemDocument{columns: columns, rows: rows}
}

// Columns implements Document.
func (d *MemDocument) Columns() []string { return d.columns }

// Close implements Document.
func (d *MemDocument) Close() error { return nil }

// SortedBy implements Document.
func (d *MemDocument) SortedBy(extractor KeyExtractor) (RowIterator, error) {
	out := make([]DocumentRow, len(d.rows))
	for i, row := range d.rows {
		if len(row) != len(d.columns) {
			return nil, documentErrf(nil, "row %d has %d values, want %d", i, len(row), len(d.columns))
		}
		out[i] = DocumentRow{Key: extractor.ExtractKey(d.columns, row, int64(i)), Values: row, Position: int64(i)}
	}
	sortRows(out)
	return &memRowIterator{rows: out}, nil
}

type memRowIterator struct {
	rows []DocumentRow
	pos  int
}

func (it *memRowIterator) Next() (DocumentRow, bool, error) {
	if it.pos >= len(it.rows) {
		return DocumentRow{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true, nil
}

func (it *memRowIterator) Close() error { return nil }
