package histore

import "sort"

// DocumentRow is one row of an incoming snapshot, as presented to the
// merge engine: a merge key already extracted by a KeyExtractor, the
// row's values aligned with the Document's column order, and Position,
// the row's 0-based index in the document as submitted (independent of
// Key and of the order SortedBy iterates in).
type DocumentRow struct {
	Key      Key
	Values   []Scalar
	Position int64
}

// RowIterator walks a Document's rows in some fixed order. Close must be
// called even after an error or early termination, to release any
// temporary files a Document implementation may have spilled to disk.
type RowIterator interface {
	// Next advances to the next row. Returns false (with a nil error) once
	// exhausted.
	Next() (DocumentRow, bool, error)
	Close() error
}

// Document is the source of a new dataset snapshot being committed into an
// archive: an ordered list of column names, and the ability to iterate its
// rows in a chosen sort order. Implementations: MemDocument (in
// memory) and CSVDocument (external merge sort, bounded memory).
type Document interface {
	// Columns returns the document's column names in their declared
	// display order.
	Columns() []string

	// SortedBy returns an iterator over the document's rows in ascending
	// order of the key extractor's output. Implementations that cannot
	// stream in this order (e.g. CSV) perform an external sort.
	SortedBy(extractor KeyExtractor) (RowIterator, error)

	// Close releases resources held by the document itself (as opposed to
	// an iterator it produced).
	Close() error
}

// KeyExtractor computes the merge key for a row, given the document's
// column order, the row's values in that order, and the row's 0-based
// position within the document.
type KeyExtractor interface {
	ExtractKey(columns []string, values []Scalar, rowIndex int64) Key
}

// ColumnKeyExtractor extracts a merge key from one or more named columns,
// for a keyed archive (spec.md §4.2).
type ColumnKeyExtractor struct {
	KeyColumns []string
}

// ExtractKey implements KeyExtractor. Callers must validate the key
// columns are present via validateColumns before iterating; a column
// absent here is treated as null rather than rejected.
func (e ColumnKeyExtractor) ExtractKey(columns []string, values []Scalar, rowIndex int64) Key {
	key := make(Key, len(e.KeyColumns))
	for i, name := range e.KeyColumns {
		key[i] = Null
		for j, col := range columns {
			if col == name {
				key[i] = values[j]
				break
			}
		}
	}
	return key
}

// validateColumns reports a SchemaError if any declared key column is
// absent from columns (spec.md §4.2): a keyed archive must reject a
// document missing its key column rather than silently keying it null.
func (e ColumnKeyExtractor) validateColumns(columns []string) error {
	for _, name := range e.KeyColumns {
		found := false
		for _, col := range columns {
			if col == name {
				found = true
				break
			}
		}
		if !found {
			return schemaErrf(name, nil, "key column missing from document")
		}
	}
	return nil
}

// RowIndexKeyExtractor uses the row's position within the document as its
// merge key, for an un-keyed archive that tracks rows by original index.
//
// A negative rowIndex marks a row with no known index (spec.md §4.2):
// it is always a new row, never coalesced with an existing archive row
// even if an identical row already exists, so it is allocated a fresh
// RowID. A Document wanting this must pass a distinct negative value
// per such row (e.g. -(position+1)) — ExtractKey only guarantees
// distinct rowIndex values produce distinct keys, it cannot invent
// uniqueness on its own.
type RowIndexKeyExtractor struct{}

// ExtractKey implements KeyExtractor.
func (RowIndexKeyExtractor) ExtractKey(columns []string, values []Scalar, rowIndex int64) Key {
	if rowIndex < 0 {
		return Key{Null, Int(rowIndex)}
	}
	return Key{Int(rowIndex)}
}

// sortRows sorts rows in place by ascending Key, used by in-memory
// SortedBy implementations. Stable so that rows sharing a key (an error
// condition the merge engine itself reports) keep document order for
// reproducible diagnostics.
func sortRows(rows []DocumentRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Key.Less(rows[j].Key)
	})
}
