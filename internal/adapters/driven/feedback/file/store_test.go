package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

func TestStore_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")
	store := NewStore(path)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(driven.FeedbackRecord{
		Timestamp: ts,
		Query:     "what is go",
		Detail:    "answer was wrong",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T12:00:00Z\twhat is go\tanswer was wrong\n", string(data))
}

func TestStore_AppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")
	store := NewStore(path)

	require.NoError(t, store.Append(driven.FeedbackRecord{Query: "first", Detail: "a"}))
	require.NoError(t, store.Append(driven.FeedbackRecord{Query: "second", Detail: "b"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestStore_AppendFillsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")
	store := NewStore(path)

	require.NoError(t, store.Append(driven.FeedbackRecord{Query: "q", Detail: "d"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	fields := strings.SplitN(strings.TrimRight(string(data), "\n"), "\t", 3)
	require.Len(t, fields, 3)
	_, err = time.Parse(time.RFC3339, fields[0])
	assert.NoError(t, err)
}

func TestStore_AppendSanitizesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")
	store := NewStore(path)

	require.NoError(t, store.Append(driven.FeedbackRecord{
		Query:  "multi\nline\tquery",
		Detail: "detail\r\nwith breaks",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1, "a record stays on one line")
	assert.Len(t, strings.Split(lines[0], "\t"), 3, "a record keeps exactly three fields")
}

func TestStore_AppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "feedback.log")
	store := NewStore(path)

	require.NoError(t, store.Append(driven.FeedbackRecord{Query: "q", Detail: "d"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
