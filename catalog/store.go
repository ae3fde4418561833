package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"cubecubic/models"
)

// Store holds the catalog document in memory. All reads hand out copies, and
// writes go through Mutate or Replace so a failed edit never leaves the
// document half changed.
type Store struct {
	mu      sync.RWMutex
	path    string
	doc     models.Document
	dirty   bool
	loaded  bool
	loadErr error
	logger  *log.Entry
}

func NewStore(path string) *Store {
	doc := models.Document{}
	doc.Normalize()
	return &Store{
		path:   path,
		doc:    doc,
		logger: log.WithFields(log.Fields{"module": "catalog", "path": path}),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the document from disk. On failure the previous contents stay in
// place and a *LoadError is returned.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return s.failLoad(&LoadError{Path: s.path, Err: err})
	}
	defer f.Close()

	return s.LoadFrom(f)
}

func (s *Store) LoadFrom(r io.Reader) error {
	return s.loadFrom(r, false)
}

// LoadIfClean is Load for reloads: it returns ErrDirty instead of replacing
// unsaved edits, including edits committed while the file was being read.
func (s *Store) LoadIfClean() error {
	if s.Dirty() {
		return ErrDirty
	}
	f, err := os.Open(s.path)
	if err != nil {
		return s.failLoad(&LoadError{Path: s.path, Err: err})
	}
	defer f.Close()

	return s.loadFrom(f, true)
}

func (s *Store) loadFrom(r io.Reader, onlyIfClean bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return s.failLoad(&LoadError{Path: s.path, Err: err})
	}

	doc, err := Deserialize(data)
	if err != nil {
		return s.failLoad(&LoadError{Path: s.path, Err: err})
	}

	s.mu.Lock()
	if onlyIfClean && s.dirty {
		s.mu.Unlock()
		return ErrDirty
	}
	s.doc = doc
	s.dirty = false
	s.loaded = true
	s.loadErr = nil
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"albums": len(doc.Albums),
		"tracks": len(doc.Tracks),
	}).Info("Catalog loaded")
	return nil
}

func (s *Store) failLoad(err error) error {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()

	s.logger.WithError(err).Error("Failed to load catalog")
	return err
}

// Deserialize parses a catalog document. Missing arrays decode as empty.
func Deserialize(data []byte) (models.Document, error) {
	var doc models.Document
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, errors.New("empty document")
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// Serialize produces the canonical persisted form.
func Serialize(doc models.Document) ([]byte, error) {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Store) Snapshot() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Replace swaps the whole document and marks it clean, as after a save.
func (s *Store) Replace(doc models.Document) {
	doc.Normalize()
	s.mu.Lock()
	s.doc = doc.Clone()
	s.dirty = false
	s.loaded = true
	s.loadErr = nil
	s.mu.Unlock()
}

// Mutate runs fn against a copy of the document and commits it, marking the
// store dirty, only if fn succeeds.
func (s *Store) Mutate(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.doc.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	work.Normalize()
	s.doc = work
	s.dirty = true
	return nil
}

// WriteFile persists the document atomically next to its path.
func (s *Store) WriteFile(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tracks-*.json")
	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Err: err}
	}
	if err := os.Chmod(tmpName, fileMode(s.path)); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// fileMode keeps the permissions of an existing catalog file across saves.
func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Store) MarkClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadErr is the error from the most recent failed load, nil after a
// successful one.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Save serializes the document and hands it to write while holding the lock,
// then clears the dirty flag. A nil write only serializes. If write fails the
// dirty flag is left alone.
func (s *Store) Save(write func(data []byte) error) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Serialize(s.doc)
	if err != nil {
		return nil, &PersistenceError{Op: "serialize", Err: err}
	}
	if write != nil {
		if err := write(data); err != nil {
			return nil, err
		}
	}
	s.dirty = false
	return data, nil
}
