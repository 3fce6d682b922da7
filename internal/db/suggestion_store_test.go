package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SuggestionStore {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "suggestions.db")

	store, err := Open(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewSuggestionStore(store)
}

func TestNewSuggestionStore_NilStore(t *testing.T) {
	assert.Nil(t, NewSuggestionStore(nil))
}

func TestSuggestionStore_SaveSuggestion_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	tests := []struct {
		name         string
		accountEmail string
		messageID    string
		textHash     string
		suggestion   string
	}{
		{"empty_account_email", "", "msg123", "hash", "text"},
		{"empty_message_id", "test@example.com", "", "hash", "text"},
		{"empty_text_hash", "test@example.com", "msg123", "", "text"},
		{"empty_suggestion", "test@example.com", "msg123", "hash", ""},
		{"whitespace_suggestion", "test@example.com", "msg123", "hash", "   "},
		{"all_empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ss.SaveSuggestion(ctx, tt.accountEmail, tt.messageID, tt.textHash, tt.suggestion, time.Now().Unix())
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid suggestion inputs")
		})
	}
}

func TestSuggestionStore_NilHandling(t *testing.T) {
	ctx := context.Background()
	var ss *SuggestionStore

	err := ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash", "text", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "suggestion store not initialized")

	_, _, err = ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash")
	assert.Error(t, err)

	err = ss.DeleteMessageSuggestions(ctx, "test@example.com", "msg123")
	assert.Error(t, err)

	_, err = ss.PruneOlderThan(ctx, 0)
	assert.Error(t, err)
}

func TestSuggestionStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	err := ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-a", "be in touch shortly.", time.Now().Unix())
	require.NoError(t, err)

	got, found, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "be in touch shortly.", got)
}

func TestSuggestionStore_Load_NotFound(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	got, found, err := ss.LoadSuggestion(ctx, "nobody@example.com", "msg123", "hash")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", got)
}

func TestSuggestionStore_Upsert(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-a", "first", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-a", "second", 200))

	var count int
	err := ss.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM suggestion_cache WHERE account_email=? AND message_id=?",
		"test@example.com", "msg123").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	got, found, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}

func TestSuggestionStore_TextHashIsolation(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	// Same message, different buffer states cache independently
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-a", "for hash a", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-b", "for hash b", 100))

	gotA, foundA, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-a")
	assert.NoError(t, err)
	assert.True(t, foundA)
	assert.Equal(t, "for hash a", gotA)

	gotB, foundB, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-b")
	assert.NoError(t, err)
	assert.True(t, foundB)
	assert.Equal(t, "for hash b", gotB)
}

func TestSuggestionStore_DeleteMessageSuggestions(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-a", "one", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg123", "hash-b", "two", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg456", "hash-a", "other message", 100))

	require.NoError(t, ss.DeleteMessageSuggestions(ctx, "test@example.com", "msg123"))

	_, foundA, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-a")
	assert.NoError(t, err)
	assert.False(t, foundA)

	_, foundB, err := ss.LoadSuggestion(ctx, "test@example.com", "msg123", "hash-b")
	assert.NoError(t, err)
	assert.False(t, foundB)

	// Other messages are untouched
	got, found, err := ss.LoadSuggestion(ctx, "test@example.com", "msg456", "hash-a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "other message", got)
}

func TestSuggestionStore_DeleteNonExistent(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	assert.NoError(t, ss.DeleteMessageSuggestions(ctx, "nobody@example.com", "msg999"))
}

func TestSuggestionStore_AccountIsolation(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.SaveSuggestion(ctx, "user1@example.com", "msg123", "hash", "user 1 text", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "user2@example.com", "msg123", "hash", "user 2 text", 100))

	require.NoError(t, ss.DeleteMessageSuggestions(ctx, "user1@example.com", "msg123"))

	_, found1, err := ss.LoadSuggestion(ctx, "user1@example.com", "msg123", "hash")
	assert.NoError(t, err)
	assert.False(t, found1)

	got2, found2, err := ss.LoadSuggestion(ctx, "user2@example.com", "msg123", "hash")
	assert.NoError(t, err)
	assert.True(t, found2)
	assert.Equal(t, "user 2 text", got2)
}

func TestSuggestionStore_PruneOlderThan(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg1", "hash", "old", 100))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg2", "hash", "older", 50))
	require.NoError(t, ss.SaveSuggestion(ctx, "test@example.com", "msg3", "hash", "fresh", 500))

	pruned, err := ss.PruneOlderThan(ctx, 200)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	_, found, err := ss.LoadSuggestion(ctx, "test@example.com", "msg3", "hash")
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestSuggestionStore_SpecialCharacters(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	testCases := []struct {
		name       string
		suggestion string
	}{
		{"unicode", "completion with unicode: 你好世界 🚀 émojis"},
		{"quotes", `completion with "quotes" and 'apostrophes'`},
		{"newlines", "completion with\nmultiple\nlines"},
		{"sql_injection", "'; DROP TABLE suggestion_cache; --"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			messageID := "msg_" + tc.name

			err := ss.SaveSuggestion(ctx, "test@example.com", messageID, "hash", tc.suggestion, time.Now().Unix())
			assert.NoError(t, err)

			got, found, err := ss.LoadSuggestion(ctx, "test@example.com", messageID, "hash")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tc.suggestion, got)
		})
	}
}
