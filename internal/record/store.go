package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"animedb/internal/fileutil"
	"animedb/internal/logging"
)

// BackupSuffix is appended to a store path to name its backup copy.
const BackupSuffix = ".bak"

// Store holds every Record of one source keyed by title key.
type Store struct {
	path    string
	source  Source
	logger  *slog.Logger
	mu      sync.RWMutex
	records map[string]Record
	// primaryBad is set when the store file could not be read; the next
	// save must not copy it over the backup.
	primaryBad bool
}

// NewMemoryStore returns an empty store that is never persisted.
func NewMemoryStore(source Source) *Store {
	return &Store{source: source, logger: logging.NewNop(), records: make(map[string]Record)}
}

// Open loads the store at path. A missing file yields an empty store; an
// unreadable or corrupt file falls back to the backup, then to empty. Open
// never fails; every fallback is logged.
func Open(path string, source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "record").With(logging.String(logging.FieldSource, string(source)))

	s := &Store{
		path:    path,
		source:  source,
		logger:  logger,
		records: make(map[string]Record),
	}
	if path == "" {
		return s
	}

	records, err := readStoreFile(path)
	if err == nil {
		s.setLoaded(records, path)
		return s
	}
	logging.WarnWithContext(logger, "record store unreadable; trying backup", "store_load_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect or delete the store file; the backup is used meanwhile"),
		logging.String(logging.FieldImpact, "records newer than the backup may be re-resolved"),
	)

	s.primaryBad = true
	backup := path + BackupSuffix
	records, err = readStoreFile(backup)
	if err == nil {
		s.setLoaded(records, backup)
		return s
	}
	logging.WarnWithContext(logger, "record store backup unreadable; starting empty", "store_backup_failed",
		logging.String("path", backup),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "restore the store from another copy if one exists"),
		logging.String(logging.FieldImpact, "every title will be resolved again"),
	)
	return s
}

// readStoreFile decodes a store file. A missing file is an empty store.
func readStoreFile(path string) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return map[string]Record{}, nil
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records, nil
}

func (s *Store) setLoaded(records map[string]Record, from string) {
	legacy := s.source.LegacyScale()
	for key, rec := range records {
		rec.NormalizeScore(legacy)
		records[key] = rec
	}
	s.records = records
	s.logger.Debug("loaded record store",
		logging.Int("record_count", len(records)),
		logging.String("path", from))
}

// Source reports which catalog the store holds.
func (s *Store) Source() Source { return s.source }

// Path returns the file backing the store; empty for memory stores.
func (s *Store) Path() string { return s.path }

// Get returns a deep copy of the record stored for key.
func (s *Store) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Has reports whether key has a record.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Put replaces the record for key in memory.
func (s *Store) Put(key string, rec Record) {
	rec.ScoreScale = ScoreScale
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec.Clone()
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	return true
}

// Keys returns every title key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Save copies the current file to its backup and atomically writes the full
// mapping. Memory stores are a no-op.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	count := len(s.records)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	exists, err := fileutil.Exists(s.path)
	if err != nil {
		return fmt.Errorf("stat store: %w", err)
	}
	if exists && !s.primaryBad {
		if err := fileutil.CopyFile(s.path, s.path+BackupSuffix); err != nil {
			return fmt.Errorf("backup store: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	s.primaryBad = false

	s.logger.Debug("saved record store",
		logging.Int("record_count", count),
		logging.String("path", s.path))
	return nil
}
