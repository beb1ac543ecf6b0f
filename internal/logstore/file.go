// internal/logstore/file.go
package logstore

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/temoto/extremofile"

	"github.com/tamzrod/bydbox-reader/internal/protocol"
)

// Persister loads the store at startup and saves it after cycles with new entries.
type Persister interface {
	Load(s *Store) error
	Save(s *Store) error
}

// DescribeFunc resolves the code description and decoded detail of an entry.
type DescribeFunc func(e Entry) (description, detail string)

const (
	defaultCSVName    = "byd_logs.csv"
	defaultJSONPrefix = "byd_logs."
)

// storage is the crash-safe blob store holding the JSON document.
type storage interface {
	Read() ([]byte, error)
	Write(b []byte) (int, error)
}

// record is the on-disk JSON shape of one entry.
type record struct {
	TS   float64 `json:"ts"`
	Unit int     `json:"u"`
	Code int     `json:"c"`
	Data string  `json:"data"`
}

// FilePersister keeps the authoritative JSON in an extremofile store under Dir
// and writes a CSV export next to it.
type FilePersister struct {
	dir      string
	csvPath  string
	location *time.Location
	describe DescribeFunc
	storage  storage
	log      zerolog.Logger

	// serializes Save; concurrent saves share the CSV temp file
	mu sync.Mutex
}

type FileConfig struct {
	Dir      string
	CSVName  string
	Location *time.Location
	Describe DescribeFunc
}

func NewFilePersister(cfg FileConfig, log zerolog.Logger) (*FilePersister, error) {
	if cfg.Dir == "" {
		return nil, errors.New("logstore: dir required")
	}
	if cfg.CSVName == "" {
		cfg.CSVName = defaultCSVName
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Describe == nil {
		cfg.Describe = func(Entry) (string, string) { return "", "" }
	}

	return &FilePersister{
		dir:      cfg.Dir,
		csvPath:  filepath.Join(cfg.Dir, cfg.CSVName),
		location: cfg.Location,
		describe: cfg.Describe,
		storage: extremofile.New(extremofile.Config{
			Dir:        cfg.Dir,
			FilePrefix: defaultJSONPrefix,
			DirPerm:    0755,
			FilePerm:   0644,
		}),
		log: log,
	}, nil
}

// Load merges persisted entries into s. A missing store is not an error.
func (p *FilePersister) Load(s *Store) error {
	tbegin := time.Now()
	b, err := p.storage.Read()
	p.log.Debug().Dur("duration", time.Since(tbegin)).Msg("log storage read")

	if b == nil {
		return errors.Annotatef(err, "logstore load %s", p.dir)
	}
	if err != nil {
		p.log.Error().Err(err).Msg("ignore non-critical storage error")
	}

	entries, err := UnmarshalEntries(b, p.location)
	if err != nil {
		return errors.Annotatef(err, "logstore load %s", p.dir)
	}
	for _, e := range entries {
		s.Insert(e)
	}
	p.log.Debug().Int("entries", len(entries)).Msg("log entries loaded")
	return nil
}

// Save writes the full store as JSON, then the CSV export.
// Concurrent calls run one at a time.
func (p *FilePersister) Save(s *Store) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := s.Entries()

	b, err := MarshalEntries(entries)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := p.storage.Write(b); err != nil {
		return errors.Annotatef(err, "logstore save %s", p.dir)
	}
	if err := p.writeCSV(entries); err != nil {
		return errors.Annotatef(err, "logstore csv %s", p.csvPath)
	}

	p.log.Debug().Int("total", len(entries)).Msg("saved log entries")
	return nil
}

func (p *FilePersister) writeCSV(entries []Entry) error {
	tmp := p.csvPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"ts", "unit", "code", "description", "detail", "data"})
	for _, e := range entries {
		desc, detail := p.describe(e)
		_ = w.Write([]string{
			e.Timestamp.Format(KeyTimeLayout),
			protocol.UnitName(e.Unit),
			strconv.Itoa(e.Code),
			desc,
			detail,
			e.HexPayload(),
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p.csvPath)
}

// MarshalEntries encodes entries as a key-sorted JSON object.
func MarshalEntries(entries []Entry) ([]byte, error) {
	doc := make(map[string]record, len(entries))
	for _, e := range entries {
		doc[e.Key()] = record{
			TS:   float64(e.Timestamp.Unix()),
			Unit: e.Unit,
			Code: e.Code,
			Data: e.HexPayload(),
		}
	}
	// encoding/json sorts map keys
	return json.MarshalIndent(doc, "", " ")
}

// UnmarshalEntries decodes a document written by MarshalEntries.
func UnmarshalEntries(b []byte, loc *time.Location) ([]Entry, error) {
	var doc map[string]record
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Annotate(err, "decode log json")
	}
	if loc == nil {
		loc = time.Local
	}

	out := make([]Entry, 0, len(doc))
	for k, r := range doc {
		payload, err := hex.DecodeString(r.Data)
		if err != nil {
			return nil, errors.Annotatef(err, "entry %s", k)
		}
		out = append(out, Entry{
			Timestamp: time.Unix(int64(r.TS), 0).In(loc),
			Unit:      r.Unit,
			Code:      r.Code,
			Payload:   payload,
		})
	}
	return out, nil
}
