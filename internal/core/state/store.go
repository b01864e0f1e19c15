// Package state persists Mirror-Bot's continuity state: the last-check
// checkpoint and the set of already-processed issue identifiers. These two
// files are the only durable state; everything else is recomputed from the
// GitHub API each run.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/natefinch/atomic"
)

const (
	// CheckpointFile holds {"last_check_time": <RFC3339>}.
	CheckpointFile = "last_check_time.json"

	// ProcessedFile holds {"issues": ["org/repo#number", ...]}.
	ProcessedFile = "processed_issues.json"
)

type checkpointDoc struct {
	LastCheckTime string `json:"last_check_time"`
}

type processedDoc struct {
	Issues []string `json:"issues"`
}

// Store holds the in-memory continuity state for one run.
// It is not safe for concurrent use; the bot is single-threaded by design
// and overlapping invocations are the scheduler's problem.
type Store struct {
	dir            string
	firstRunWindow time.Duration
	processed      map[string]struct{}
}

// Open loads the continuity state from dir. Missing files mean a first run:
// the checkpoint falls back to now minus firstRunWindow and the processed set
// starts empty. Corrupt files degrade the same way (logged), so a damaged
// state directory behaves like a bounded re-poll, never a crash.
func Open(dir string, firstRunWindow time.Duration) (*Store, error) {
	s := &Store{
		dir:            dir,
		firstRunWindow: firstRunWindow,
		processed:      make(map[string]struct{}),
	}

	data, err := os.ReadFile(filepath.Join(dir, ProcessedFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read processed set: %w", err)
		}
		return s, nil
	}

	var doc processedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[state] WARNING: corrupt processed set, starting empty: %v", err)
		return s, nil
	}
	for _, key := range doc.Issues {
		s.processed[key] = struct{}{}
	}

	return s, nil
}

// LastCheckTime returns the persisted checkpoint, or the first-run window
// when no valid checkpoint exists.
func (s *Store) LastCheckTime() time.Time {
	fallback := time.Now().UTC().Add(-s.firstRunWindow)

	data, err := os.ReadFile(filepath.Join(s.dir, CheckpointFile))
	if err != nil {
		return fallback
	}

	var doc checkpointDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[state] WARNING: corrupt checkpoint, using first-run window: %v", err)
		return fallback
	}

	t, err := time.Parse(time.RFC3339, doc.LastCheckTime)
	if err != nil {
		log.Printf("[state] WARNING: unparseable checkpoint %q, using first-run window", doc.LastCheckTime)
		return fallback
	}

	return t
}

// Seen reports whether the issue key has already been evaluated.
func (s *Store) Seen(key string) bool {
	_, ok := s.processed[key]
	return ok
}

// Record inserts an issue key into the in-memory processed set.
// Keys are never removed.
func (s *Store) Record(key string) {
	s.processed[key] = struct{}{}
}

// Len returns the number of tracked issue keys.
func (s *Store) Len() int {
	return len(s.processed)
}

// PersistProcessed writes the processed set to disk via write-then-rename.
// Keys are sorted so the file is stable across runs.
func (s *Store) PersistProcessed() error {
	keys := make([]string, 0, len(s.processed))
	for key := range s.processed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	data, err := json.MarshalIndent(processedDoc{Issues: keys}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal processed set: %w", err)
	}

	path := filepath.Join(s.dir, ProcessedFile)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write processed set: %w", err)
	}
	return nil
}

// PersistCheckpoint writes the checkpoint timestamp via write-then-rename.
func (s *Store) PersistCheckpoint(t time.Time) error {
	doc := checkpointDoc{LastCheckTime: t.UTC().Format(time.RFC3339)}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := filepath.Join(s.dir, CheckpointFile)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}
