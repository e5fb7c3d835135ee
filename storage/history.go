package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("searches")

// Entry is one search made through the API.
type Entry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	URL        string    `json:"url"`
	Shape      string    `json:"shape,omitempty"`
	OrderBy    int       `json:"order_by,omitempty"`
	Craft      bool      `json:"craft,omitempty"`
	Count      int       `json:"count"`
	Results    int       `json:"results"`
	SearchedAt time.Time `json:"searched_at"`
}

type HistoryRepository interface {
	Record(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// HistoryStore keeps search history in a BoltDB file.
type HistoryStore struct {
	DBPath string
	db     *bolt.DB
	mu     sync.RWMutex
}

// Open creates the database file and bucket if needed.
func Open(path string) (*HistoryStore, error) {
	s := &HistoryStore{DBPath: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init initializes the BoltDB database
func (s *HistoryStore) Init() error {
	dbDir := filepath.Dir(s.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for BoltDB: %w", err)
	}

	db, err := bolt.Open(s.DBPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.db = db
	return nil
}

// Record stores e, filling in ID and SearchedAt when unset.
func (s *HistoryStore) Record(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SearchedAt.IsZero() {
		e.SearchedAt = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(entryKey(e), value)
	})
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []Entry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to decode entry %x: %w", k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Clear removes all data from storage
func (s *HistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

// Close closes the BoltDB database
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// entryKey sorts by time, then by id for entries recorded in the same nanosecond.
func entryKey(e *Entry) []byte {
	key := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(key, uint64(e.SearchedAt.UnixNano()))
	return append(key, e.ID...)
}

var _ HistoryRepository = (*HistoryStore)(nil)
