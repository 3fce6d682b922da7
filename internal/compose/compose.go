// Package compose implements the text-editing engine behind reply and
// new-message composition: coalesced undo/redo checkpoints, debounced
// remote autocompletion with a version-based staleness guard, and
// deterministic key-chord routing. The engine is surface-agnostic; a text
// widget feeds key chords and buffer changes in and renders the snapshots
// it receives back.
package compose

import (
	"context"
	"fmt"
	"strings"
)

// MutationOrigin tags every buffer mutation with what caused it, so the
// checkpoint store can tell forward edits from undo/redo application
// without a shared suppression flag.
type MutationOrigin int

const (
	// OriginUserEdit is an ordinary edit applied by the surface.
	OriginUserEdit MutationOrigin = iota
	// OriginUndo marks a buffer restored from the undo stack.
	OriginUndo
	// OriginRedo marks a buffer restored from the redo stack.
	OriginRedo
	// OriginSuggestionAccepted marks an accepted completion. It carries
	// full forward-edit semantics; only the cause differs.
	OriginSuggestionAccepted
)

// SessionKind determines seeding and validation behavior. A subject is
// required for new messages but not for replies or forwards, which arrive
// pre-seeded.
type SessionKind string

const (
	SessionNew      SessionKind = "new"
	SessionReply    SessionKind = "reply"
	SessionReplyAll SessionKind = "reply_all"
	SessionForward  SessionKind = "forward"
)

// Recipient is a single address, optionally with a display name.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MessageContext carries source-message metadata for a reply or forward.
// Its presence is what enables autocompletion; a session without one never
// requests suggestions.
type MessageContext struct {
	MessageID    string `json:"message_id,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
	Subject      string `json:"subject,omitempty"`
	From         string `json:"from,omitempty"`
	Body         string `json:"body,omitempty"`
	PriorSummary string `json:"prior_summary,omitempty"`
}

// CompletionRequest is what the engine hands to a Completer when it decides
// to fetch a suggestion.
type CompletionRequest struct {
	Text    string
	Context MessageContext
}

// Completer produces a continuation for the text being typed. The returned
// string may be empty when the backend has nothing to offer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OutgoingMessage is the finished message handed to a Sender.
type OutgoingMessage struct {
	To        []Recipient
	Cc        []Recipient
	Bcc       []Recipient
	Subject   string
	Text      string
	InReplyTo string
	ThreadID  string
}

// Sender delivers an outgoing message. Implementations wrap the mail
// backend's transport.
type Sender interface {
	Send(ctx context.Context, msg OutgoingMessage) error
}

// Snapshot is the surface projection of a session: the buffer to display,
// the ghost suggestion to overlay (empty when none is ready), and the
// display-cell column on the last line where the overlay starts.
type Snapshot struct {
	Buffer          string
	GhostSuggestion string
	CaretHint       int
}

// ValidationError describes a single field that blocks sending.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates per-field send failures. It implements error
// so Send can return it without closing the session.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
