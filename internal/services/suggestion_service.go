package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/llm"
)

// maxContextRunes caps the original-message body forwarded to completion
// providers. Longer bodies get truncated, not rejected.
const maxContextRunes = 8000

// SuggestionServiceImpl implements SuggestionService
type SuggestionServiceImpl struct {
	provider     llm.Provider
	cacheService CacheService
	accountEmail string
	logger       *log.Logger
}

// NewSuggestionService creates a new suggestion service for one account
func NewSuggestionService(provider llm.Provider, cacheService CacheService, accountEmail string) *SuggestionServiceImpl {
	return &SuggestionServiceImpl{
		provider:     provider,
		cacheService: cacheService,
		accountEmail: accountEmail,
	}
}

// SetLogger sets the logger for debug output
func (s *SuggestionServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Complete produces a continuation for the draft text. Results are cached
// per (message, draft text) pair when the session carries an original
// message, so retyping the same prefix never refetches.
func (s *SuggestionServiceImpl) Complete(ctx context.Context, req compose.CompletionRequest) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("completion provider not available: %w", ErrServiceUnavailable)
	}

	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("draft text cannot be empty: %w", ErrInvalidInput)
	}

	messageID := req.Context.MessageID
	textHash := hashDraftText(req.Text)

	// Check cache first
	if messageID != "" && s.cacheService != nil {
		if cached, found, err := s.cacheService.GetSuggestion(ctx, s.accountEmail, messageID, textHash); err == nil && found {
			if s.logger != nil {
				s.logger.Printf("SuggestionService: cache hit for message %s", messageID)
			}
			return cached, nil
		}
	}

	suggestion, err := s.provider.Complete(ctx, llm.Request{
		CurrentText: req.Text,
		Context: llm.RequestContext{
			Subject:      req.Context.Subject,
			From:         req.Context.From,
			Body:         truncateRunes(req.Context.Body, maxContextRunes),
			PriorSummary: req.Context.PriorSummary,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch completion: %w", err)
	}
	suggestion = strings.TrimSpace(suggestion)

	// Cache the result; a save failure never fails the completion
	if suggestion != "" && messageID != "" && s.cacheService != nil {
		if err := s.cacheService.SaveSuggestion(ctx, s.accountEmail, messageID, textHash, suggestion); err != nil {
			if s.logger != nil {
				s.logger.Printf("SuggestionService: failed to cache suggestion for message %s: %v", messageID, err)
			}
		}
	}

	return suggestion, nil
}

// InvalidateMessage drops every cached suggestion for a message. Called
// after a reply is sent, when stale continuations stop being useful.
func (s *SuggestionServiceImpl) InvalidateMessage(ctx context.Context, messageID string) error {
	if s.cacheService == nil {
		return nil
	}

	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidMessageID)
	}

	return s.cacheService.InvalidateMessage(ctx, s.accountEmail, messageID)
}

// hashDraftText keys the cache by draft content without storing the draft
func hashDraftText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
