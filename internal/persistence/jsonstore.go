package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Collection names the two backing documents.
type Collection string

const (
	CollectionUsers   Collection = "users"
	CollectionTickets Collection = "tickets"
)

// Store persists each collection as one whole-file JSON array. Every load
// reads the full document and every save rewrites it; a per-collection mutex
// serializes read-modify-write cycles so concurrent requests cannot tear a
// document, though between requests the last writer still wins.
type Store struct {
	dir   string
	locks map[Collection]*sync.Mutex
}

// NewStore opens the document directory, creating it and initializing both
// collections to empty arrays on first boot.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &Store{
		dir: dir,
		locks: map[Collection]*sync.Mutex{
			CollectionUsers:   {},
			CollectionTickets: {},
		},
	}

	for coll := range s.locks {
		path := s.path(coll)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("initialize %s: %w", coll, err)
			}
			logger.Info("initialized collection", zap.String("collection", string(coll)))
		} else if err != nil {
			return nil, fmt.Errorf("stat %s: %w", coll, err)
		}
	}

	return s, nil
}

// Load decodes the full collection document into out (a pointer to a slice).
func (s *Store) Load(coll Collection, out any) error {
	data, err := os.ReadFile(s.path(coll))
	if err != nil {
		return fmt.Errorf("read %s: %w", coll, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// Save overwrites the entire collection document with records. The document
// is written to a temp file first and renamed into place so readers never see
// a partial write.
func (s *Store) Save(coll Collection, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", coll, err)
	}

	path := s.path(coll)
	tmp, err := os.CreateTemp(s.dir, string(coll)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", coll, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", coll, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", coll, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", coll, err)
	}
	return nil
}

// Mutate runs fn while holding the collection's lock, making one
// load-modify-save cycle atomic within the process.
func (s *Store) Mutate(coll Collection, fn func() error) error {
	lock := s.locks[coll]
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

func (s *Store) path(coll Collection) string {
	return filepath.Join(s.dir, string(coll)+".json")
}
