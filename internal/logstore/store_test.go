// internal/logstore/store_test.go
package logstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func entryAt(sec, unit, code int) Entry {
	return Entry{
		Timestamp: time.Date(2024, 3, 9, 14, 5, sec, 0, time.UTC),
		Unit:      unit,
		Code:      code,
		Payload:   []byte{0x01, 0xAB},
	}
}

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "20240309 14:05:07-2-17", entryAt(7, 2, 17).Key())
	assert.Equal(t, "01ab", entryAt(7, 2, 17).HexPayload())
}

func TestInsertIsIdempotent(t *testing.T) {
	s := NewStore()
	assert.True(t, s.Insert(entryAt(1, 0, 2)))
	assert.False(t, s.Insert(entryAt(1, 0, 2)))
	assert.Equal(t, 1, s.Len())

	// same instant, other unit or code is a different record
	assert.True(t, s.Insert(entryAt(1, 1, 2)))
	assert.True(t, s.Insert(entryAt(1, 0, 3)))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("20240309 14:05:01-1-2"))
}

func TestRecentNewestFirst(t *testing.T) {
	s := NewStore()
	for sec := 0; sec < 5; sec++ {
		s.Insert(entryAt(sec, 0, 1))
	}

	got := s.Recent(3)
	require.Len(t, got, 3)
	assert.Equal(t, 4, got[0].Timestamp.Second())
	assert.Equal(t, 2, got[2].Timestamp.Second())

	assert.Len(t, s.Recent(50), 5)
	assert.Equal(t, 0, s.Entries()[0].Timestamp.Second())
}

func TestMarshalRoundTrip(t *testing.T) {
	in := []Entry{entryAt(1, 0, 2), entryAt(2, 1, 17)}

	b, err := MarshalEntries(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"20240309 14:05:01-0-2"`)

	out, err := UnmarshalEntries(b, time.UTC)
	require.NoError(t, err)
	require.Len(t, out, 2)

	s := NewStore()
	for _, e := range out {
		s.Insert(e)
	}
	assert.True(t, s.Has(in[0].Key()))
	assert.True(t, s.Has(in[1].Key()))
}

func TestUnmarshalRejectsBadHex(t *testing.T) {
	_, err := UnmarshalEntries([]byte(`{"k":{"ts":0,"u":0,"c":1,"data":"zz"}}`), time.UTC)
	assert.Error(t, err)
}

func TestFilePersisterSaveLoad(t *testing.T) {
	dir := t.TempDir()
	describe := func(e Entry) (string, string) { return "desc", "detail" }

	p, err := NewFilePersister(FileConfig{Dir: dir, Location: time.UTC, Describe: describe}, zerolog.Nop())
	require.NoError(t, err)

	// nothing persisted yet
	empty := NewStore()
	require.NoError(t, p.Load(empty))
	assert.Equal(t, 0, empty.Len())

	s := NewStore()
	s.Insert(entryAt(1, 0, 2))
	s.Insert(entryAt(2, 1, 17))
	require.NoError(t, p.Save(s))

	restored := NewStore()
	require.NoError(t, p.Load(restored))
	assert.Equal(t, 2, restored.Len())
	assert.True(t, restored.Has(entryAt(2, 1, 17).Key()))

	csvBytes, err := os.ReadFile(filepath.Join(dir, "byd_logs.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ts,unit,code,description,detail,data", lines[0])
	assert.Equal(t, "20240309 14:05:01,BMU,2,desc,detail,01ab", lines[1])
	assert.Equal(t, "20240309 14:05:02,BMS 1,17,desc,detail,01ab", lines[2])
}

func TestFilePersisterConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersister(FileConfig{Dir: dir, Location: time.UTC}, zerolog.Nop())
	require.NoError(t, err)

	s := NewStore()
	base := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3000; i++ {
		s.Insert(Entry{Timestamp: base.Add(time.Duration(i) * time.Second), Unit: i % 3, Code: 2, Payload: []byte{byte(i)}})
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error { return p.Save(s) })
	}
	require.NoError(t, g.Wait())

	csvBytes, err := os.ReadFile(filepath.Join(dir, "byd_logs.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	assert.Len(t, lines, 3001)

	_, err = os.Stat(filepath.Join(dir, "byd_logs.csv.tmp"))
	assert.True(t, os.IsNotExist(err))

	restored := NewStore()
	require.NoError(t, p.Load(restored))
	assert.Equal(t, 3000, restored.Len())
}

func TestNewFilePersisterRequiresDir(t *testing.T) {
	_, err := NewFilePersister(FileConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
