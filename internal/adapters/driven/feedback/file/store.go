// Package file provides an append-only, tab-separated feedback log.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Store appends feedback records to a tab-separated log file, one
// record per line. Safe for concurrent use within one process.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ driven.FeedbackStore = (*Store)(nil)

// NewStore creates a feedback store writing to path. The file and its
// parent directory are created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append adds one record to the log.
func (s *Store) Append(rec driven.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating feedback directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening feedback log: %w", err)
	}
	defer f.Close()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	line := fmt.Sprintf("%s\t%s\t%s\n",
		ts.UTC().Format(time.RFC3339),
		sanitize(rec.Query),
		sanitize(rec.Detail))

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending feedback: %w", err)
	}
	return nil
}

// sanitize keeps one record on one line: tabs and newlines inside a
// field would break the format.
func sanitize(field string) string {
	field = strings.ReplaceAll(field, "\t", " ")
	field = strings.ReplaceAll(field, "\r\n", " ")
	field = strings.ReplaceAll(field, "\n", " ")
	return field
}
