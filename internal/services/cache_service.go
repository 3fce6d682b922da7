package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajramos/maildraft/internal/db"
)

// CacheServiceImpl implements CacheService
type CacheServiceImpl struct {
	store *db.SuggestionStore
}

// NewCacheService creates a new cache service
func NewCacheService(store *db.SuggestionStore) *CacheServiceImpl {
	return &CacheServiceImpl{
		store: store,
	}
}

func (s *CacheServiceImpl) GetSuggestion(ctx context.Context, accountEmail, messageID, textHash string) (string, bool, error) {
	if s.store == nil {
		return "", false, fmt.Errorf("cache store not available: %w", ErrCacheUnavailable)
	}

	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(textHash) == "" {
		return "", false, fmt.Errorf("accountEmail, messageID, and textHash cannot be empty: %w", ErrInvalidInput)
	}

	suggestion, found, err := s.store.LoadSuggestion(ctx, accountEmail, messageID, textHash)
	if err != nil {
		return "", false, fmt.Errorf("failed to load suggestion from cache: %w", err)
	}

	return suggestion, found, nil
}

func (s *CacheServiceImpl) SaveSuggestion(ctx context.Context, accountEmail, messageID, textHash, suggestion string) error {
	if s.store == nil {
		return fmt.Errorf("cache store not available: %w", ErrCacheUnavailable)
	}

	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(textHash) == "" || strings.TrimSpace(suggestion) == "" {
		return fmt.Errorf("accountEmail, messageID, textHash, and suggestion cannot be empty: %w", ErrInvalidInput)
	}

	updatedAt := time.Now().Unix()

	if err := s.store.SaveSuggestion(ctx, accountEmail, messageID, textHash, suggestion, updatedAt); err != nil {
		return fmt.Errorf("failed to save suggestion to cache: %w", err)
	}

	return nil
}

func (s *CacheServiceImpl) InvalidateMessage(ctx context.Context, accountEmail, messageID string) error {
	if s.store == nil {
		return fmt.Errorf("cache store not available: %w", ErrCacheUnavailable)
	}

	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("accountEmail and messageID cannot be empty: %w", ErrInvalidInput)
	}

	if err := s.store.DeleteMessageSuggestions(ctx, accountEmail, messageID); err != nil {
		return fmt.Errorf("failed to invalidate cached suggestions: %w", err)
	}

	return nil
}
