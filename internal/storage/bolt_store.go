package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	replyBucket      = "forwarded_replies"
	expiryValueBytes = 8
	recordBytes      = expiryValueBytes + 1
)

// replyState is the delivery stage recorded for a reply.
type replyState byte

const (
	stateForwarded replyState = iota + 1
	stateConfirmed
)

// replyRecord is the stored value: big-endian unix expiry then the state byte.
type replyRecord struct {
	expiry time.Time
	state  replyState
}

func (r replyRecord) encode() []byte {
	buf := make([]byte, recordBytes)
	binary.BigEndian.PutUint64(buf, uint64(r.expiry.Unix()))
	buf[expiryValueBytes] = byte(r.state)
	return buf
}

// boltStore implements a Store backed by BoltDB. Each key is a reply id and
// each value a replyRecord.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	replyTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(replyBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		replyTTL:        opts.ReplyTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenReply reports whether the reply was marked and has not expired.
// Expired entries are removed on read.
func (b *boltStore) SeenReply(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(replyBucket))
		if bucket == nil {
			return fmt.Errorf("reply bucket missing")
		}

		key := []byte(id)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		rec, ok := decodeRecord(value)
		if !ok || !rec.expiry.After(now) {
			return bucket.Delete(key)
		}

		exists = true
		return nil
	})
	return exists, err
}

// MarkReply records the reply as forwarded until the TTL elapses. A reply
// already confirmed keeps its confirmed state.
func (b *boltStore) MarkReply(id string) error {
	if b == nil || b.db == nil {
		return nil
	}
	if id == "" {
		return fmt.Errorf("reply id is empty")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(replyBucket))
		if bucket == nil {
			return fmt.Errorf("reply bucket missing")
		}
		rec := replyRecord{expiry: now.Add(b.replyTTL), state: stateForwarded}
		if prev, ok := decodeRecord(bucket.Get([]byte(id))); ok && prev.state == stateConfirmed && prev.expiry.After(now) {
			rec.state = stateConfirmed
		}
		return bucket.Put([]byte(id), rec.encode())
	})
}

// MarkConfirmed moves forwarded replies to the confirmed state. Ids that
// were never forwarded, or have expired, are recorded as confirmed with a
// fresh TTL.
func (b *boltStore) MarkConfirmed(ids []string) error {
	if b == nil || b.db == nil || len(ids) == 0 {
		return nil
	}

	now := b.now()
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(replyBucket))
		if bucket == nil {
			return fmt.Errorf("reply bucket missing")
		}
		for _, id := range ids {
			if id == "" {
				continue
			}
			rec := replyRecord{expiry: now.Add(b.replyTTL), state: stateConfirmed}
			if prev, ok := decodeRecord(bucket.Get([]byte(id))); ok && prev.expiry.After(now) {
				rec.expiry = prev.expiry
			}
			if err := bucket.Put([]byte(id), rec.encode()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unconfirmed lists live replies that were forwarded but never confirmed.
func (b *boltStore) Unconfirmed() ([]string, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var ids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(replyBucket))
		if bucket == nil {
			return fmt.Errorf("reply bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			rec, ok := decodeRecord(v)
			if ok && rec.state == stateForwarded && rec.expiry.After(now) {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	return ids, err
}

// maybeCleanupExpired sweeps expired ids at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(replyBucket))
		if bucket == nil {
			return fmt.Errorf("reply bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			rec, ok := decodeRecord(v)
			if !ok || !rec.expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeRecord decodes a stored value. Bare 8-byte expiries written before
// the state byte existed read as forwarded.
func decodeRecord(value []byte) (replyRecord, bool) {
	if len(value) != expiryValueBytes && len(value) != recordBytes {
		return replyRecord{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return replyRecord{}, false
	}
	rec := replyRecord{expiry: time.Unix(unix, 0), state: stateForwarded}
	if len(value) == recordBytes {
		rec.state = replyState(value[expiryValueBytes])
		if rec.state != stateForwarded && rec.state != stateConfirmed {
			return replyRecord{}, false
		}
	}
	return rec, true
}
