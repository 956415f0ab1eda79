package histore

import (
	"log/slog"
	"sync"
	"time"
)

// Backend selects which store implementation Open uses to persist
// an archive.
type Backend int

const (
	// BackendFile is the default: rows.dat + metadata.dat flat files
	// with atomic staged writes (see rowfile.go).
	BackendFile Backend = iota
	BackendBolt
	BackendSQLite
	// BackendMemory never touches disk; intended for tests.
	BackendMemory
)

// Options configures Open. The zero value is a sensible default:
// BackendFile, an un-keyed archive (rows identified by document row
// index), slog.Default() for logging.
type Options struct {
	Backend Backend

	// KeyColumns names the columns that form a row's merge key. Leave
	// nil for an un-keyed archive, where rows are identified by their
	// 0-based position in each committed document.
	KeyColumns []string

	Logger *slog.Logger
}

func (o Options) extractor() KeyExtractor {
	if len(o.KeyColumns) == 0 {
		return RowIndexKeyExtractor{}
	}
	return ColumnKeyExtractor{KeyColumns: o.KeyColumns}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Archive is a nested-merge archive of dataset snapshots: single writer,
// many concurrent readers. All operations are safe for concurrent use.
type Archive struct {
	mu sync.RWMutex

	rows      map[RowID]*ArchiveRow
	rowOrder  []RowID
	schema    *Schema
	snapshots SnapshotListing

	nextVersion int
	nextRowID   RowID
	nextColID   ColumnID

	keyColumns []string
	extractor  KeyExtractor
	store      store
	logger     *slog.Logger
}

// Open creates a fresh archive at path if none exists yet, or loads an
// existing one. path is a directory for BackendFile, a single file for
// BackendBolt/BackendSQLite, and ignored for BackendMemory.
func Open(path string, opts Options) (*Archive, error) {
	st, err := openStoreBackend(path, opts.Backend)
	if err != nil {
		return nil, err
	}
	state, err := st.load()
	if err != nil {
		st.close()
		return nil, err
	}

	// Key columns are fixed at an archive's first commit and persisted
	// from then on: reopening with different Options.KeyColumns must not
	// silently re-key a history that already exists (spec.md §4.1).
	keyColumns := opts.KeyColumns
	if state.NextVersion > 0 {
		keyColumns = state.KeyColumns
	}
	extractor := (Options{KeyColumns: keyColumns}).extractor()

	return &Archive{
		rows:        state.Rows,
		rowOrder:    state.RowOrder,
		schema:      state.Schema,
		snapshots:   state.Snapshots,
		nextVersion: state.NextVersion,
		nextRowID:   state.NextRowID,
		nextColID:   state.NextColID,
		keyColumns:  keyColumns,
		extractor:   extractor,
		store:       st,
		logger:      opts.logger(),
	}, nil
}

func openStoreBackend(path string, backend Backend) (store, error) {
	switch backend {
	case BackendFile:
		return openFileStore(path)
	case BackendBolt:
		kvBackend, err := openBoltKV(path)
		if err != nil {
			return nil, err
		}
		return newKVStore(kvBackend), nil
	case BackendSQLite:
		kvBackend, err := openSQLiteKV(path)
		if err != nil {
			return nil, err
		}
		return newKVStore(kvBackend), nil
	case BackendMemory:
		return newKVStore(newMemKV()), nil
	default:
		return nil, storeErrf("open", storeErrf("unknown backend", nil))
	}
}

// Close releases the archive's underlying storage handle.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.close()
}

// Snapshots returns the archive's committed snapshots in version order.
func (a *Archive) Snapshots() SnapshotListing {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append(SnapshotListing(nil), a.snapshots...)
}

// Version returns the most recently committed version, or -1 if the
// archive has never been committed to.
func (a *Archive) Version() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nextVersion - 1
}

// Commit folds doc into the archive as a new version, under the
// ColumnKeyExtractor/RowIndexKeyExtractor chosen at Open time. Commit is
// all-or-nothing: a failure leaves the archive exactly as it was before
// the call (spec.md §4.4, §7).
func (a *Archive) Commit(doc Document, description string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	version := a.nextVersion
	rows := cloneRows(a.rows)
	schema := cloneSchema(a.schema)

	newOrder, nextRowID, nextColID, err := mergeSnapshot(rows, a.rowOrder, schema, doc, a.extractor, version, a.nextRowID, a.nextColID)
	if err != nil {
		return 0, err
	}

	snap := Snapshot{Version: version, Description: description, Action: ActionCommit, CreatedAt: time.Now()}
	snaps := append(append(SnapshotListing(nil), a.snapshots...), snap)

	if err := a.store.stageCommit(&archiveState{
		Rows:        rows,
		RowOrder:    newOrder,
		Schema:      schema,
		Snapshots:   snaps,
		KeyColumns:  a.keyColumns,
		NextVersion: version + 1,
		NextRowID:   nextRowID,
		NextColID:   nextColID,
	}); err != nil {
		return 0, err
	}

	a.rows = rows
	a.rowOrder = newOrder
	a.schema = schema
	a.snapshots = snaps
	a.nextVersion = version + 1
	a.nextRowID = nextRowID
	a.nextColID = nextColID

	a.logger.Info("commit", "version", version, "rows", len(newOrder))
	return version, nil
}

func cloneRows(rows map[RowID]*ArchiveRow) map[RowID]*ArchiveRow {
	out := make(map[RowID]*ArchiveRow, len(rows))
	for id, row := range rows {
		out[id] = cloneRow(row)
	}
	return out
}

func cloneSchema(s *Schema) *Schema {
	cols := make([]*ArchiveColumn, len(s.columns))
	for i, c := range s.columns {
		cols[i] = cloneColumn(c)
	}
	out := &Schema{columns: cols, policy: s.policy}
	out.reindex()
	return out
}
