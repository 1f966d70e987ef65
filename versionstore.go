package geodict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// VersionFile is the name of the shared version record in an output
// directory.
const VersionFile = "version.json"

// VersionStore owns the read-merge-write cycle of a persisted
// VersionRecord. Builder runs are expected to be sequential; with Lock set
// the store also takes an advisory lock on Path+".lock" for the duration
// of Update, which serializes cooperating processes on unix systems.
type VersionStore struct {
	Path string
	Lock bool
}

// Load reads the stored record. A missing file returns (nil, false, nil).
// An unreadable file, or one that is not a JSON object, also returns a nil
// record, with corrupt set, so that the caller can report it and carry on.
// Entries of unexpected shape inside the object are kept as they are.
func (s *VersionStore) Load() (rec *VersionRecord, corrupt bool, err error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, true, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, true, nil
	}
	return recordFromDocument(doc), false, nil
}

// Update merges version and stats into the stored record and writes it
// back atomically. It reports whether an existing record had to be
// discarded as corrupt.
func (s *VersionStore) Update(version string, stats map[string]FileStats) (rec VersionRecord, corrupt bool, err error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return rec, false, fmt.Errorf("creating version directory: %w", err)
	}
	if s.Lock {
		unlock, err := lockFile(s.Path + ".lock")
		if err != nil {
			return rec, false, fmt.Errorf("locking %s: %w", s.Path, err)
		}
		defer unlock()
	}

	existing, corrupt, err := s.Load()
	if err != nil {
		return rec, corrupt, err
	}
	rec = MergeVersion(existing, version, stats)

	data, err := encodeJSON(rec.document())
	if err != nil {
		return rec, corrupt, fmt.Errorf("encoding version record: %w", err)
	}
	dir, name := filepath.Split(s.Path)
	if dir == "" {
		dir = "."
	}
	if err := writeArtifacts(dir, []Artifact{{Name: name, Data: data}}); err != nil {
		return rec, corrupt, err
	}
	return rec, corrupt, nil
}
