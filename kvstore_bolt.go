package histore

import "go.etcd.io/bbolt"

// boltKV is a kv backend persisted to a single bbolt file, adapted from
// the teacher's storage_bolt.go. bbolt already gives us exactly the
// all-or-nothing commit an archive needs, via its own mmap'd copy-on-write
// b+tree: no separate atomic-rename step is required here.
type boltKV struct {
	db *bbolt.DB
}

func openBoltKV(path string) (kv, error) {
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, storeErrf("open bolt store", err)
	}
	return &boltKV{db: db}, nil
}

func (s *boltKV) beginTx(writable bool) (kvTx, error) {
	btx, err := s.db.Begin(writable)
	if err != nil {
		return nil, storeErrf("begin bolt tx", err)
	}
	return &boltTx{btx: btx}, nil
}

func (s *boltKV) close() error { return s.db.Close() }

type boltTx struct {
	btx *bbolt.Tx
}

func (tx *boltTx) bucket(name string) (kvBucket, error) {
	nameBytes := []byte(name)
	if tx.btx.Writable() {
		b, err := tx.btx.CreateBucketIfNotExists(nameBytes)
		if err != nil {
			return nil, storeErrf("create bolt bucket", err)
		}
		return boltBucketHandle{b: b}, nil
	}
	b := tx.btx.Bucket(nameBytes)
	if b == nil {
		return nil, nil
	}
	return boltBucketHandle{b: b}, nil
}

func (tx *boltTx) dropBucket(name string) error {
	err := tx.btx.DeleteBucket([]byte(name))
	if err == bbolt.ErrBucketNotFound {
		return nil
	}
	if err != nil {
		return storeErrf("drop bolt bucket", err)
	}
	return nil
}

func (tx *boltTx) commit() error {
	if err := tx.btx.Commit(); err != nil {
		return storeErrf("commit bolt tx", err)
	}
	return nil
}

func (tx *boltTx) rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func (tx *boltTx) size() int64 { return tx.btx.Size() }

type boltBucketHandle struct {
	b *bbolt.Bucket
}

func (h boltBucketHandle) get(key []byte) []byte { return h.b.Get(key) }

func (h boltBucketHandle) put(key, value []byte) error {
	if err := h.b.Put(key, value); err != nil {
		return storeErrf("bolt put", err)
	}
	return nil
}

func (h boltBucketHandle) all() ([][]byte, error) {
	var out [][]byte
	c := h.b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}
