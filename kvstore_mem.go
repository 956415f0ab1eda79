package histore

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// memKV is a transient in-memory kv implementation, adapted from the
// teacher's storage_mem.go: same snapshot-on-begin transactional
// isolation, trimmed to a flat bucket (no nested sub-buckets) since
// histore never needs them.
type memKV struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
	closed  bool
}

func newMemKV() kv {
	return &memKV{buckets: make(map[string]*memBucket)}
}

func (s *memKV) beginTx(writable bool) (kvTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("histore: storage closed")
	}
	snap := make(map[string]*memBucket, len(s.buckets))
	for k, b := range s.buckets {
		snap[k] = b.clone()
	}
	return &memTx{base: s, writable: writable, buckets: snap}, nil
}

func (s *memKV) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}

type memTx struct {
	base     *memKV
	writable bool
	buckets  map[string]*memBucket
}

func (tx *memTx) bucket(name string) (kvBucket, error) {
	b := tx.buckets[name]
	if b == nil {
		if !tx.writable {
			return nil, nil
		}
		b = &memBucket{}
		tx.buckets[name] = b
	}
	return memBucketHandle{b: b, writable: tx.writable}, nil
}

func (tx *memTx) dropBucket(name string) error {
	delete(tx.buckets, name)
	return nil
}

func (tx *memTx) commit() error {
	if !tx.writable {
		return nil
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		return fmt.Errorf("histore: storage closed")
	}
	tx.base.buckets = tx.buckets
	return nil
}

func (tx *memTx) rollback() error { return nil }

func (tx *memTx) size() int64 { return 0 }

type memEntry struct {
	key, value []byte
}

type memBucket struct {
	items []memEntry // sorted by key
}

func (b *memBucket) clone() *memBucket {
	if b == nil {
		return nil
	}
	out := &memBucket{items: make([]memEntry, len(b.items))}
	for i, kv := range b.items {
		out.items[i] = memEntry{key: slices.Clone(kv.key), value: slices.Clone(kv.value)}
	}
	return out
}

type memBucketHandle struct {
	b        *memBucket
	writable bool
}

func (h memBucketHandle) find(key []byte) (int, bool) {
	items := h.b.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}

func (h memBucketHandle) get(key []byte) []byte {
	i, ok := h.find(key)
	if !ok {
		return nil
	}
	return h.b.items[i].value
}

func (h memBucketHandle) put(key, value []byte) error {
	if !h.writable {
		return fmt.Errorf("histore: tx not writable")
	}
	key = slices.Clone(key)
	value = slices.Clone(value)
	i, ok := h.find(key)
	if ok {
		h.b.items[i].value = value
		return nil
	}
	h.b.items = slices.Insert(h.b.items, i, memEntry{key: key, value: value})
	return nil
}

func (h memBucketHandle) all() ([][]byte, error) {
	out := make([][]byte, len(h.b.items))
	for i, kv := range h.b.items {
		out[i] = kv.value
	}
	return out, nil
}
