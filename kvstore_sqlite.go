package histore

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// sqliteKV is a kv backend persisted to a SQLite database, one table per
// bucket, using modernc.org/sqlite's pure-Go driver (no cgo). A second
// concrete backend alongside boltKV, for deployments that already
// standardize on SQLite for their other embedded storage.
type sqliteKV struct {
	db *sql.DB
}

func openSQLiteKV(path string) (kv, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErrf("open sqlite store", err)
	}
	db.SetMaxOpenConns(1) // sqlite allows one writer; archives are single-writer anyway
	return &sqliteKV{db: db}, nil
}

func (s *sqliteKV) beginTx(writable bool) (kvTx, error) {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return nil, storeErrf("begin sqlite tx", err)
	}
	return &sqliteTx{db: s.db, tx: sqlTx, writable: writable}, nil
}

func (s *sqliteKV) close() error { return s.db.Close() }

type sqliteTx struct {
	db       *sql.DB
	tx       *sql.Tx
	writable bool
	done     bool
}

func (tx *sqliteTx) bucket(name string) (kvBucket, error) {
	if tx.writable {
		_, err := tx.tx.Exec(`CREATE TABLE IF NOT EXISTS "` + name + `" (k BLOB PRIMARY KEY, v BLOB)`)
		if err != nil {
			return nil, storeErrf("create sqlite bucket table", err)
		}
	} else {
		var exists int
		err := tx.tx.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&exists)
		if err != nil {
			return nil, storeErrf("check sqlite bucket table", err)
		}
		if exists == 0 {
			return nil, nil
		}
	}
	return sqliteBucketHandle{tx: tx.tx, table: name}, nil
}

func (tx *sqliteTx) dropBucket(name string) error {
	_, err := tx.tx.Exec(`DROP TABLE IF EXISTS "` + name + `"`)
	if err != nil {
		return storeErrf("drop sqlite bucket", err)
	}
	return nil
}

func (tx *sqliteTx) commit() error {
	tx.done = true
	if err := tx.tx.Commit(); err != nil {
		return storeErrf("commit sqlite tx", err)
	}
	return nil
}

func (tx *sqliteTx) rollback() error {
	if tx.done {
		return nil
	}
	return tx.tx.Rollback()
}

func (tx *sqliteTx) size() int64 {
	var pageCount, pageSize int64
	_ = tx.tx.QueryRow(`PRAGMA page_count`).Scan(&pageCount)
	_ = tx.tx.QueryRow(`PRAGMA page_size`).Scan(&pageSize)
	return pageCount * pageSize
}

type sqliteBucketHandle struct {
	tx    *sql.Tx
	table string
}

func (h sqliteBucketHandle) get(key []byte) []byte {
	var v []byte
	err := h.tx.QueryRow(`SELECT v FROM "`+h.table+`" WHERE k = ?`, key).Scan(&v)
	if err != nil {
		return nil
	}
	return v
}

func (h sqliteBucketHandle) put(key, value []byte) error {
	_, err := h.tx.Exec(`INSERT INTO "`+h.table+`" (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	if err != nil {
		return storeErrf("sqlite put", err)
	}
	return nil
}

func (h sqliteBucketHandle) all() ([][]byte, error) {
	rows, err := h.tx.Query(`SELECT v FROM "` + h.table + `" ORDER BY k ASC`)
	if err != nil {
		return nil, storeErrf("sqlite scan", err)
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, storeErrf("sqlite scan", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
