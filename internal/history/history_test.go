package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList_NewestFirst(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "merge_history.json"))

	require.NoError(t, s.Record(Entry{ID: "a", Title: "first", MergedAt: time.Now()}))
	require.NoError(t, s.Record(Entry{ID: "b", Title: "second", MergedAt: time.Now().Add(time.Second)}))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
}

func TestList_EmptyWhenNoFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
