package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SuggestionStore handles completion cache operations
type SuggestionStore struct {
	db *sql.DB
}

// NewSuggestionStore creates a new suggestion store from a base store
func NewSuggestionStore(store *Store) *SuggestionStore {
	if store == nil {
		return nil
	}
	return &SuggestionStore{db: store.DB()}
}

// SaveSuggestion upserts a suggestion for (account_email, message_id, text_hash)
func (ss *SuggestionStore) SaveSuggestion(ctx context.Context, accountEmail, messageID, textHash, suggestion string, updatedAt int64) error {
	if ss == nil || ss.db == nil {
		return fmt.Errorf("suggestion store not initialized")
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(textHash) == "" || strings.TrimSpace(suggestion) == "" {
		return fmt.Errorf("invalid suggestion inputs")
	}
	_, err := ss.db.ExecContext(ctx, `INSERT INTO suggestion_cache(account_email, message_id, text_hash, suggestion, updated_at)
VALUES(?,?,?,?,?)
ON CONFLICT(account_email, message_id, text_hash) DO UPDATE SET suggestion=excluded.suggestion, updated_at=excluded.updated_at;
`, accountEmail, messageID, textHash, suggestion, updatedAt)
	return err
}

// LoadSuggestion returns a cached suggestion if present
func (ss *SuggestionStore) LoadSuggestion(ctx context.Context, accountEmail, messageID, textHash string) (string, bool, error) {
	if ss == nil || ss.db == nil {
		return "", false, fmt.Errorf("suggestion store not initialized")
	}
	var out string
	err := ss.db.QueryRowContext(ctx, `SELECT suggestion FROM suggestion_cache WHERE account_email=? AND message_id=? AND text_hash=?`, accountEmail, messageID, textHash).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// DeleteMessageSuggestions removes every cached suggestion for a message
func (ss *SuggestionStore) DeleteMessageSuggestions(ctx context.Context, accountEmail, messageID string) error {
	if ss == nil || ss.db == nil {
		return fmt.Errorf("suggestion store not initialized")
	}
	_, err := ss.db.ExecContext(ctx, `DELETE FROM suggestion_cache WHERE account_email=? AND message_id=?`, accountEmail, messageID)
	return err
}

// PruneOlderThan deletes cache rows last written before the given Unix
// time and reports how many went away.
func (ss *SuggestionStore) PruneOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	if ss == nil || ss.db == nil {
		return 0, fmt.Errorf("suggestion store not initialized")
	}
	res, err := ss.db.ExecContext(ctx, `DELETE FROM suggestion_cache WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
