// internal/logstore/store.go
package logstore

import (
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"
)

// KeyTimeLayout formats the timestamp part of a dedup key.
const KeyTimeLayout = "20060102 15:04:05"

// Entry is one historical log record of one unit (0 = BMU, 1..N = towers).
type Entry struct {
	Timestamp time.Time
	Unit      int
	Code      int
	Payload   []byte
}

// Key is the dedup identity "YYYYMMDD hh:mm:ss-<unit>-<code>".
func (e Entry) Key() string {
	return e.Timestamp.Format(KeyTimeLayout) + "-" + strconv.Itoa(e.Unit) + "-" + strconv.Itoa(e.Code)
}

// HexPayload renders the payload as lowercase hex.
func (e Entry) HexPayload() string {
	return hex.EncodeToString(e.Payload)
}

// Store is a monotonically growing, deduplicated set of log entries.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Insert adds e unless its key is already present.
// It reports whether the entry was new.
func (s *Store) Insert(e Entry) bool {
	k := e.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[k]; ok {
		return false
	}
	s.entries[k] = e
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	_, ok := s.entries[key]
	s.mu.RUnlock()
	return ok
}

// Entries returns all entries ordered by key, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.entries[k])
	}
	s.mu.RUnlock()
	return out
}

// Recent returns at most n entries ordered by key, newest first.
func (s *Store) Recent(n int) []Entry {
	all := s.Entries()
	if n < 0 || n > len(all) {
		n = len(all)
	}
	out := make([]Entry, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out
}
