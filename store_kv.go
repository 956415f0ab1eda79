package histore

import (
	"bytes"
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	rowsBucketName = "rows"
	metaBucketName = "meta"
)

var metaKey = []byte("metadata")

// kvStore is a store backed by a kv (bbolt, sqlite or memKV): rows in the "rows"
// bucket keyed by their position in RowOrder, so the stored order is
// always the archive's current merge-key order; a single "metadata" blob
// in the "meta" bucket carrying the schema, snapshot listing and id
// counters.
type kvStore struct {
	backend kv
}

func newKVStore(backend kv) *kvStore {
	return &kvStore{backend: backend}
}

func (s *kvStore) load() (*archiveState, error) {
	tx, err := s.backend.beginTx(false)
	if err != nil {
		return nil, err
	}
	defer tx.rollback()

	state := &archiveState{
		Rows:        map[RowID]*ArchiveRow{},
		Schema:      NewSchema(MatchByID),
		NextVersion: 0,
		NextRowID:   0,
		NextColID:   0,
	}

	rowsBucket, err := tx.bucket(rowsBucketName)
	if err != nil {
		return nil, err
	}
	if rowsBucket != nil {
		blobs, err := rowsBucket.all()
		if err != nil {
			return nil, err
		}
		state.RowOrder = make([]RowID, 0, len(blobs))
		for _, blob := range blobs {
			row, err := decodeRow(msgpack.NewDecoder(bytes.NewReader(blob)))
			if err != nil {
				return nil, serializationErrf(blob, 0, err, "decoding stored row")
			}
			state.Rows[row.ID] = row
			state.RowOrder = append(state.RowOrder, row.ID)
		}
	}

	metaBucket, err := tx.bucket(metaBucketName)
	if err != nil {
		return nil, err
	}
	if metaBucket != nil {
		if blob := metaBucket.get(metaKey); blob != nil {
			doc, err := decodeMetadata(bytes.NewReader(blob))
			if err != nil {
				return nil, serializationErrf(blob, 0, err, "decoding stored metadata")
			}
			state.Schema = &Schema{columns: doc.Columns, policy: doc.Policy}
			state.Schema.reindex()
			state.Snapshots = doc.Snapshots
			state.KeyColumns = doc.KeyColumns
			state.NextVersion = doc.NextVersion
			state.NextRowID = doc.NextRowID
			state.NextColID = doc.NextColID
		}
	}

	return state, nil
}

func (s *kvStore) stageCommit(state *archiveState) error {
	tx, err := s.backend.beginTx(true)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := tx.dropBucket(rowsBucketName); err != nil {
		return err
	}
	rowsBucket, err := tx.bucket(rowsBucketName)
	if err != nil {
		return err
	}
	for i, id := range state.RowOrder {
		row := state.Rows[id]
		var buf bytes.Buffer
		if err := encodeRow(msgpack.NewEncoder(&buf), row); err != nil {
			return serializationErrf(nil, 0, err, "encoding row %d for commit", row.ID)
		}
		if err := rowsBucket.put(encodeRowKey(i), buf.Bytes()); err != nil {
			return err
		}
	}

	if err := tx.dropBucket(metaBucketName); err != nil {
		return err
	}
	metaBucket, err := tx.bucket(metaBucketName)
	if err != nil {
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
	if err := metaBucket.put(metaKey, metaBuf.Bytes()); err != nil {
		return err
	}

	if err := tx.commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *kvStore) stageRollback(rows map[RowID]*ArchiveRow, rowOrder []RowID, schema *Schema, snaps SnapshotListing, keyColumns []string, nextVersion int, nextRowID RowID, nextColID ColumnID) error {
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

func (s *kvStore) size() int64 {
	tx, err := s.backend.beginTx(false)
	if err != nil {
		return 0
	}
	defer tx.rollback()
	return tx.size()
}

func (s *kvStore) close() error {
	return s.backend.close()
}

func encodeRowKey(i int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(i))
	return buf[:]
}
