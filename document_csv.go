package histore

import (
	"container/heap"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// defaultCSVSpillThreshold bounds how many rows CSVDocument buffers in
// memory before spilling a sorted run to a temp file. Chosen to keep a
// single run comfortably under a few megabytes for typical row widths.
const defaultCSVSpillThreshold = 50000

// CSVDocument is a Document backed by a CSV file, read once per SortedBy
// call. Values are type-inferred per field (int64, then float64, then
// RFC3339 time, then bool, falling back to text; an empty field is null).
// Rows beyond SpillThreshold are sorted and spilled to temp files under
// SpillDir, then merged with the in-memory tail by a k-way merge, so
// sorting never holds the whole document in memory.
type CSVDocument struct {
	Path           string
	SpillDir       string
	SpillThreshold int

	columns []string
}

// NewCSVDocument opens path and reads its header row.
func NewCSVDocument(path string) (*CSVDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, storeErrf("open csv document", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, documentErrf(err, "reading CSV header of %s", path)
	}
	return &CSVDocument{Path: path, SpillThreshold: defaultCSVSpillThreshold, columns: header}, nil
}

// Columns implements Document.
func (d *CSVDocument) Columns() []string { return d.columns }

// Close implements Document. CSVDocument holds no file open between calls.
func (d *CSVDocument) Close() error { return nil }

func (d *CSVDocument) threshold() int {
	if d.SpillThreshold > 0 {
		return d.SpillThreshold
	}
	return defaultCSVSpillThreshold
}

// SortedBy implements Document via an external merge sort: it reads rows
// in threshold-sized batches, sorts each batch in memory, and spills all
// but the final batch to a temp file; the returned iterator performs a
// k-way merge across the spill files and the final in-memory batch.
func (d *CSVDocument) SortedBy(extractor KeyExtractor) (RowIterator, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, storeErrf("open csv document", err)
	}
	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // re-skip header
		f.Close()
		return nil, documentErrf(err, "reading CSV header of %s", d.Path)
	}

	var runs []*spillRun
	var batch []DocumentRow
	var rowIndex int64
	threshold := d.threshold()

	flush := func(final bool) error {
		if len(batch) == 0 {
			return nil
		}
		sortRows(batch)
		if final {
			runs = append(runs, newMemSpillRun(batch))
			batch = nil
			return nil
		}
		run, err := spillToFile(d.SpillDir, batch)
		if err != nil {
			return err
		}
		runs = append(runs, run)
		batch = nil
		return nil
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return nil, documentErrf(err, "reading CSV row of %s", d.Path)
		}
		values := make([]Scalar, len(d.columns))
		for i := range d.columns {
			if i < len(rec) {
				values[i] = inferCSVScalar(rec[i])
			} else {
				values[i] = Null
			}
		}
		batch = append(batch, DocumentRow{
			Key:      extractor.ExtractKey(d.columns, values, rowIndex),
			Values:   values,
			Position: rowIndex,
		})
		rowIndex++
		if len(batch) >= threshold {
			if err := flush(false); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	f.Close()
	if err := flush(true); err != nil {
		return nil, err
	}

	return newMergeRowIterator(runs)
}

func inferCSVScalar(field string) Scalar {
	if field == "" {
		return Null
	}
	if i, err := strconv.ParseInt(field, 10, 64); err == nil {
		return Int(i)
	}
	if fl, err := strconv.ParseFloat(field, 64); err == nil {
		return Float(fl)
	}
	if t, err := time.Parse(time.RFC3339, field); err == nil {
		return Time(t)
	}
	switch strings.ToLower(field) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(field)
}

// spillRun is one sorted run of DocumentRows, either held in memory or
// backed by a temp file of msgpack-encoded rows.
type spillRun struct {
	mem  []DocumentRow
	file *os.File
	dec  *msgpack.Decoder
	path string
}

func newMemSpillRun(rows []DocumentRow) *spillRun {
	return &spillRun{mem: rows}
}

func spillToFile(dir string, rows []DocumentRow) (*spillRun, error) {
	f, err := os.CreateTemp(dir, "histore-sort-*.msgpack")
	if err != nil {
		return nil, storeErrf("create spill file", err)
	}
	enc := msgpack.NewEncoder(f)
	for _, row := range rows {
		if err := enc.Encode(spillRecord{Key: row.Key, Values: row.Values, Position: row.Position}); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, serializationErrf(nil, 0, err, "encoding spill run")
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, storeErrf("rewind spill file", err)
	}
	return &spillRun{file: f, dec: msgpack.NewDecoder(f), path: f.Name()}, nil
}

type spillRecord struct {
	Key      Key
	Values   []Scalar
	Position int64
}

// next returns the run's next row, or ok=false once exhausted.
func (r *spillRun) next() (DocumentRow, bool, error) {
	if r.file == nil {
		if len(r.mem) == 0 {
			return DocumentRow{}, false, nil
		}
		row := r.mem[0]
		r.mem = r.mem[1:]
		return row, true, nil
	}
	var rec spillRecord
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return DocumentRow{}, false, nil
		}
		return DocumentRow{}, false, serializationErrf(nil, 0, err, "decoding spill run")
	}
	return DocumentRow{Key: rec.Key, Values: rec.Values, Position: rec.Position}, true, nil
}

func (r *spillRun) close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	os.Remove(r.path)
	return err
}

// mergeRowIterator performs a k-way merge over sorted runs using a small
// binary heap keyed on each run's current head row.
type mergeRowIterator struct {
	runs []*spillRun
	heap mergeHeap
}

type mergeHeapItem struct {
	row    DocumentRow
	runIdx int
}

type mergeHeap []mergeHeapItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].row.Key.Less(h[j].row.Key) }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)         { *h = append(*h, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newMergeRowIterator(runs []*spillRun) (*mergeRowIterator, error) {
	it := &mergeRowIterator{runs: runs}
	for i, run := range runs {
		row, ok, err := run.next()
		if err != nil {
			return nil, err
		}
		if ok {
			heap.Push(&it.heap, mergeHeapItem{row: row, runIdx: i})
		}
	}
	return it, nil
}

func (it *mergeRowIterator) Next() (DocumentRow, bool, error) {
	if it.heap.Len() == 0 {
		return DocumentRow{}, false, nil
	}
	top := heap.Pop(&it.heap).(mergeHeapItem)
	next, ok, err := it.runs[top.runIdx].next()
	if err != nil {
		return DocumentRow{}, false, err
	}
	if ok {
		heap.Push(&it.heap, mergeHeapItem{row: next, runIdx: top.runIdx})
	}
	return top.row, true, nil
}

func (it *mergeRowIterator) Close() error {
	var first error
	for _, run := range it.runs {
		if err := run.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
