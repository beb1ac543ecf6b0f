// internal/telemetry/map.go
package telemetry

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Map is the latest-value store shared by the poll worker and its observers.
// Keys are never deleted; Set replaces the whole value.
type Map struct {
	mu   sync.RWMutex
	data map[string]Value
}

func NewMap() *Map {
	return &Map{data: make(map[string]Value)}
}

func (m *Map) Set(key string, v Value) {
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
}

// SetAll applies a batch under one lock so readers never see half of it.
func (m *Map) SetAll(values map[string]Value) {
	m.mu.Lock()
	for k, v := range values {
		m.data[k] = v
	}
	m.mu.Unlock()
}

func (m *Map) Get(key string) (Value, bool) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	return v, ok
}

func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Snapshot returns a copy safe to use without the lock.
func (m *Map) Snapshot() map[string]Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Value, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Keys returns all keys in sorted order.
func (m *Map) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// BMSKey namespaces a per-tower key, e.g. BMSKey(2, "soc") = "bms2_soc".
func BMSKey(tower int, name string) string {
	return "bms" + strconv.Itoa(tower) + "_" + name
}

// SplitKey reverses BMSKey. BMU keys report tower 0.
func SplitKey(key string) (tower int, name string) {
	if !strings.HasPrefix(key, "bms") {
		return 0, key
	}
	rest := key[3:]
	i := strings.IndexByte(rest, '_')
	if i <= 0 {
		return 0, key
	}
	n, err := strconv.Atoi(rest[:i])
	if err != nil {
		return 0, key
	}
	return n, rest[i+1:]
}
