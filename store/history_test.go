package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(content string, createdAt int64) *Entry {
	return &Entry{
		Content:    content,
		OutputPath: "qrs/out.png",
		Format:     "png",
		Level:      "M",
		ModuleSize: 10,
		Border:     4,
		WidthPx:    290,
		CreatedAt:  createdAt,
	}
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	e := testEntry("https://example.com", 0)
	require.NoError(t, s.Record(e))

	assert.NotZero(t, e.ID)
	assert.NotZero(t, e.CreatedAt)
}

func TestRecentNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 5; i++ {
		e := testEntry(fmt.Sprintf("https://example.com/page-%d", i), int64(1000+i))
		require.NoError(t, s.Record(e))
	}

	entries, err := s.Recent(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "https://example.com/page-5", entries[0].Content)
	assert.Equal(t, "https://example.com/page-4", entries[1].Content)
	assert.Equal(t, "https://example.com/page-3", entries[2].Content)
}

func TestSearchMatchesContent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Record(testEntry("https://docs.example.com/manual", 1)))
	require.NoError(t, s.Record(testEntry("https://shop.example.com/cart", 2)))

	entries, err := s.Search("manual", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://docs.example.com/manual", entries[0].Content)
}

func TestSearchQuotesAreEscaped(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Record(testEntry("plain text", 1)))

	// Must not produce an FTS5 syntax error.
	entries, err := s.Search(`say "hello"`, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCount(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Record(testEntry("https://example.com", 1)))
	require.NoError(t, s.Record(testEntry("https://example.org", 2)))

	n, err = s.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewHistoryStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(testEntry("https://example.com", 1)))
	require.NoError(t, s.Close())

	s2, err := NewHistoryStore(path)
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com", entries[0].Content)
}
