package services

import (
	"context"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/gmail"
)

// MessageRepository handles message data operations
type MessageRepository interface {
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
}

// AccountResolver reports the email address of the signed-in account
type AccountResolver interface {
	ActiveAccountEmail(ctx context.Context) (string, error)
}

// SessionOptions carries per-session knobs that are not derived from the
// original message
type SessionOptions struct {
	// Notify receives a snapshot after every session state change
	Notify func(compose.Snapshot)

	// PriorSummary is an optional condensed thread history forwarded to
	// the completion provider
	PriorSummary string
}

// CompositionService builds edit sessions seeded for their kind
type CompositionService interface {
	NewBlankSession(opts SessionOptions) (*compose.EditSession, error)
	NewReplySession(ctx context.Context, messageID string, replyAll bool, opts SessionOptions) (*compose.EditSession, error)
	NewForwardSession(ctx context.Context, messageID string, opts SessionOptions) (*compose.EditSession, error)
}

// SuggestionService produces inline completions for a draft in progress.
// It satisfies compose.Completer so sessions can call it directly.
type SuggestionService interface {
	Complete(ctx context.Context, req compose.CompletionRequest) (string, error)
	InvalidateMessage(ctx context.Context, messageID string) error
}

// CacheService handles cached completion results
type CacheService interface {
	GetSuggestion(ctx context.Context, accountEmail, messageID, textHash string) (string, bool, error)
	SaveSuggestion(ctx context.Context, accountEmail, messageID, textHash, suggestion string) error
	InvalidateMessage(ctx context.Context, accountEmail, messageID string) error
}
