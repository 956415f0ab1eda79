package histore

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// fileStore is the default store: two flat files, rows.dat and
// metadata.dat, under a directory. Adapted from journal.go's technique
// for crash-resistant writes (checksum the payload, write to a staging
// file, fsync, atomically rename into place) but simplified to whole-file
// rewrites rather than an append-only segmented log, since an archive
// commit always replaces the entire persisted state at once.
//
// rows.dat is written before metadata.dat; a crash between the two
// renames leaves metadata.dat describing the previous commit while
// rows.dat already holds the new one. Open detects this by comparing
// metadata's NextVersion against the versions actually present in
// rows.dat and refuses to load a mismatched pair, rather than guessing
// which side is stale. A rollback interrupted the same way is not
// detected: its truncated rows.dat holds no version at or past the old
// NextVersion.
type fileStore struct {
	dir string
}

func openFileStore(dir string) (store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeErrf("create archive directory", err)
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) rowsPath() string     { return filepath.Join(s.dir, "rows.dat") }
func (s *fileStore) metadataPath() string { return filepath.Join(s.dir, "metadata.dat") }

func (s *fileStore) load() (*archiveState, error) {
	state := &archiveState{
		Rows:        map[RowID]*ArchiveRow{},
		Schema:      NewSchema(MatchByID),
		NextVersion: 0,
	}

	rowsData, err := readChecksummed(s.rowsPath())
	if err != nil {
		return nil, err
	}
	var doc metadataDoc
	metaData, err := readChecksummed(s.metadataPath())
	if err != nil {
		return nil, err
	}

	if rowsData != nil {
		rows, err := decodeRows(bytes.NewReader(rowsData))
		if err != nil {
			return nil, err
		}
		state.RowOrder = make([]RowID, len(rows))
		for i, row := range rows {
			state.Rows[row.ID] = row
			state.RowOrder[i] = row.ID
		}
	}
	if metaData != nil {
		doc, err = decodeMetadata(bytes.NewReader(metaData))
		if err != nil {
			return nil, err
		}
		state.Schema = &Schema{columns: doc.Columns, policy: doc.Policy}
		state.Schema.reindex()
		state.Snapshots = doc.Snapshots
		state.KeyColumns = doc.KeyColumns
		state.NextVersion = doc.NextVersion
		state.NextRowID = doc.NextRowID
		state.NextColID = doc.NextColID
	}

	if (rowsData == nil) != (metaData == nil) {
		return nil, integrityErrf(nil, "archive at %s has only one of rows.dat/metadata.dat", s.dir)
	}
	for _, row := range state.Rows {
		if last := row.Timestamp().LastVersion(); last >= state.NextVersion {
			return nil, integrityErrf(nil, "archive at %s: rows.dat holds version %d but metadata.dat ends before it", s.dir, last)
		}
	}

	return state, nil
}

func (s *fileStore) stageCommit(state *archiveState) error {
	rows := make([]*ArchiveRow, len(state.RowOrder))
	for i, id := range state.RowOrder {
		rows[i] = state.Rows[id]
	}
	var rowsBuf bytes.Buffer
	if err := encodeRows(&rowsBuf, rows); err != nil {
		return err
	}

	var metaBuf bytes.Buffer
	doc := metadataDoc{
		Policy:      state.Schema.policy,
		Columns:     state.Schema.columns,
		Snapshots:   state.Snapshots,
		KeyColumns:  state.KeyColumns,
		NextVersion: state.NextVersion,
		NextRowID:   state.NextRowID,
		NextColID:   state.NextColID,
	}
	if err := encodeMetadata(&metaBuf, doc); err != nil {
		return serializationErrf(nil, 0, err, "encoding metadata for commit")
	}

	if err := writeChecksummed(s.dir, s.rowsPath(), rowsBuf.Bytes()); err != nil {
		return err
	}
	if err := writeChecksummed(s.dir, s.metadataPath(), metaBuf.Bytes()); err != nil {
		return err
	}
	return nil
}

func (s *fileStore) stageRollback(rows map[RowID]*ArchiveRow, rowOrder []RowID, schema *Schema, snaps SnapshotListing, keyColumns []string, nextVersion int, nextRowID RowID, nextColID ColumnID) error {
	return s.stageCommit(&archiveState{
		Rows:        rows,
		RowOrder:    rowOrder,
		Schema:      schema,
		Snapshots:   snaps,
		KeyColumns:  keyColumns,
		NextVersion: nextVersion,
		NextRowID:   nextRowID,
		NextColID:   nextColID,
	})
}

func (s *fileStore) size() int64 {
	var total int64
	for _, p := range []string{s.rowsPath(), s.metadataPath()} {
		if fi, err := os.Stat(p); err == nil {
			total += fi.Size()
		}
	}
	return total
}

func (s *fileStore) close() error { return nil }

// writeChecksummed stages payload to a uuid-named temp file in dir,
// appends an 8-byte trailing xxhash checksum, fsyncs, then atomically
// renames it into place at path.
func writeChecksummed(dir, path string, payload []byte) error {
	tmpName := filepath.Join(dir, ".staging-"+uuid.NewString())
	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return storeErrf("create staging file", err)
	}

	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(payload); err != nil {
		return storeErrf("write staging file", err)
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint64(trailer[:], xxhash.Sum64(payload))
	if _, err := f.Write(trailer[:]); err != nil {
		return storeErrf("write staging checksum", err)
	}
	if err := f.Sync(); err != nil {
		return storeErrf("fsync staging file", err)
	}
	if err := f.Close(); err != nil {
		return storeErrf("close staging file", err)
	}
	ok = true

	if err := os.Rename(tmpName, path); err != nil {
		return storeErrf("rename staging file into place", err)
	}
	return nil
}

// readChecksummed reads path, verifies its trailing checksum, and returns
// the payload without the trailer. Returns (nil, nil) if path doesn't
// exist (a freshly created archive).
func readChecksummed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storeErrf("read "+filepath.Base(path), err)
	}
	if len(data) < 8 {
		return nil, integrityErrf(nil, "%s is truncated (%d bytes)", path, len(data))
	}
	payload, trailer := data[:len(data)-8], data[len(data)-8:]
	want := binary.LittleEndian.Uint64(trailer)
	got := xxhash.Sum64(payload)
	if want != got {
		return nil, integrityErrf(nil, "%s checksum mismatch (want %x, got %x)", path, want, got)
	}
	return payload, nil
}
