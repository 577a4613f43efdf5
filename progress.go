package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	progressWriteAttempts = 3
	progressWriteDelay    = 50 * time.Millisecond
)

// progressEntry is the persisted reading state of one document
type progressEntry struct {
	LastReadPageIndex int       `json:"last_read_page_index"`
	DoneReading       bool      `json:"done_reading"`
	PageCount         int       `json:"page_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProgressStore keeps last-read page and done-reading state per document
// path. Record is cheap and safe on the UI goroutine; Run writes the file in
// the background whenever something was recorded.
type ProgressStore struct {
	path string

	mu      sync.Mutex
	entries map[string]progressEntry
	dirty   bool
	wake    chan struct{}
}

// NewProgressStore creates a store backed by the JSON file at path
func NewProgressStore(path string) *ProgressStore {
	return &ProgressStore{
		path:    path,
		entries: make(map[string]progressEntry),
		wake:    make(chan struct{}, 1),
	}
}

func defaultProgressPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "reader-progress.json"
	}
	return filepath.Join(homeDir, ".reader-progress.json")
}

// Open reads the progress file. A missing file is an empty store.
func (s *ProgressStore) Open() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read progress %s: %w", s.path, err)
	}

	entries := make(map[string]progressEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse progress %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Load applies the stored reading state to doc. It returns false when there
// is nothing stored for the document or the stored page is out of range.
func (s *ProgressStore) Load(doc *Document) bool {
	if doc.Path == "" {
		return false
	}

	s.mu.Lock()
	entry, ok := s.entries[doc.Path]
	s.mu.Unlock()
	if !ok {
		return false
	}

	doc.DoneReading = doc.DoneReading || entry.DoneReading
	if entry.LastReadPageIndex < 0 || entry.LastReadPageIndex >= doc.PageCount() {
		return false
	}
	doc.LastReadPageIndex = entry.LastReadPageIndex
	return true
}

// Record stores doc's reading state in memory and wakes the writer
func (s *ProgressStore) Record(doc *Document) {
	if doc.Path == "" {
		return
	}

	s.mu.Lock()
	prev := s.entries[doc.Path]
	s.entries[doc.Path] = progressEntry{
		LastReadPageIndex: doc.LastReadPageIndex,
		DoneReading:       prev.DoneReading || doc.DoneReading,
		PageCount:         doc.PageCount(),
		UpdatedAt:         time.Now(),
	}
	s.dirty = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run writes recorded progress until ctx is done, then flushes once more
func (s *ProgressStore) Run(ctx context.Context) {
	for {
		select {
		case <-s.wake:
			if err := s.Flush(ctx); err != nil {
				logger.Error("failed to save progress", "path", s.path, "error", err)
			}
		case <-ctx.Done():
			if err := s.Flush(context.Background()); err != nil {
				logger.Error("failed to save progress", "path", s.path, "error", err)
			}
			return
		}
	}
}

// Flush writes the store if anything changed since the last write
func (s *ProgressStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.dirty = false
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	err = retry.Do(
		func() error {
			return writeFileAtomic(s.path, data)
		},
		retry.Context(ctx),
		retry.Attempts(progressWriteAttempts),
		retry.Delay(progressWriteDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	debugLog("Saved progress to %s", s.path)
	return nil
}

// writeFileAtomic writes data next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".progress-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
