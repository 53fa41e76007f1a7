// Package store is a single-node, disk-backed key/value store. Every
// mutation is appended to a JSON-lines write-ahead log before it is applied
// in memory, and the log is replayed when the store is opened.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const walFileName = "metadata.wal"

type walOp string

const (
	walPut    walOp = "put"
	walDelete walOp = "delete"
)

type walEntry struct {
	Op    walOp  `json:"op"`
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

var (
	ErrEmptyKey = errors.New("empty key")
	ErrClosed   = errors.New("store closed")
)

// Store holds metadata records in memory, backed by the WAL.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte

	walPath string
	wal     *os.File
}

// New opens (or creates) the store under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		entries: make(map[string][]byte),
		walPath: filepath.Join(dataDir, walFileName),
	}

	if err := s.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(s.walPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	s.wal = f
	return s, nil
}

// replay rebuilds the in-memory map from an existing WAL, if any.
func (s *Store) replay() error {
	f, err := os.Open(s.walPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open wal for replay: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var e walEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return fmt.Errorf("decode wal line %d: %w", line, err)
		}
		switch e.Op {
		case walPut:
			s.entries[e.Key] = e.Value
		case walDelete:
			delete(s.entries, e.Key)
		default:
			return fmt.Errorf("wal line %d: unknown op %q", line, e.Op)
		}
	}
	return scanner.Err()
}

// Put stores value under key.
func (s *Store) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(walEntry{Op: walPut, Key: key, Value: value}); err != nil {
		return err
	}
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(walEntry{Op: walDelete, Key: key}); err != nil {
		return err
	}
	delete(s.entries, key)
	return nil
}

// Keys returns the keys starting with prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Close flushes and closes the WAL. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wal == nil {
		return nil
	}
	err := s.wal.Close()
	s.wal = nil
	return err
}

// append writes one entry and fsyncs. Callers hold s.mu.
func (s *Store) append(e walEntry) error {
	if s.wal == nil {
		return ErrClosed
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal wal entry: %w", err)
	}
	if _, err := s.wal.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write wal: %w", err)
	}
	if err := s.wal.Sync(); err != nil {
		return fmt.Errorf("sync wal: %w", err)
	}
	return nil
}
