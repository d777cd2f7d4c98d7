package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/screenbreak/internal/storage"
	"go.etcd.io/bbolt"
)

const bucketCustomSettings = "custom_settings"

// Store implements storage.SettingsStore using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketCustomSettings)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketCustomSettings, err)
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadAll returns every stored sub-object.
func (s *Store) ReadAll(ctx context.Context) (storage.CustomSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings := storage.CustomSettings{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCustomSettings))
		if bucket == nil {
			return fmt.Errorf("custom settings bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			// Values are only valid for the life of the transaction.
			value := make([]byte, len(v))
			copy(value, v)
			settings[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read custom settings: %w", err)
	}

	return settings, nil
}

// WriteAll replaces the stored mapping within one transaction.
func (s *Store) WriteAll(ctx context.Context, settings storage.CustomSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCustomSettings))
		if bucket == nil {
			return fmt.Errorf("custom settings bucket missing")
		}

		var stale [][]byte
		if err := bucket.ForEach(func(k, _ []byte) error {
			if _, ok := settings[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}

		for key, value := range settings {
			if err := bucket.Put([]byte(key), value); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write custom settings: %w", err)
	}

	return nil
}
