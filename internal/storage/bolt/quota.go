// Package bolt keeps advisory usage counters in a bbolt file, for deployments
// that want the quota to survive independently of the transaction database.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"pennywise/internal/ports"
)

// BucketUsage holds one big-endian uint64 counter per owner id.
const BucketUsage = "advisory_usage"

type QuotaStore struct {
	db *bbolt.DB
}

var _ ports.QuotaStore = (*QuotaStore)(nil)

func Open(path string) (*QuotaStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create quota directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open quota database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketUsage)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketUsage, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &QuotaStore{db: db}, nil
}

func (s *QuotaStore) Close() error {
	return s.db.Close()
}

func (s *QuotaStore) Consumed(_ context.Context, ownerID int64) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = readCounter(tx.Bucket([]byte(BucketUsage)), ownerID)
		return nil
	})
	return n, err
}

// Increment runs inside a single read-write transaction; bbolt serializes
// writers, so the check and the write cannot interleave.
func (s *QuotaStore) Increment(_ context.Context, ownerID int64, limit int) (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketUsage))
		n = readCounter(b, ownerID)
		if n >= limit {
			return ports.ErrQuotaExhausted
		}
		n++
		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, uint64(n))
		return b.Put(itob(ownerID), val)
	})
	return n, err
}

func readCounter(b *bbolt.Bucket, ownerID int64) int {
	v := b.Get(itob(ownerID))
	if len(v) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(v))
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
