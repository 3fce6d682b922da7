package compose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

var (
	// ErrSessionClosed is returned by operations on a torn-down session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNoSender is returned by Send when no transport was configured.
	ErrNoSender = errors.New("no send transport configured")
)

// SessionConfig seeds a new edit session. Zero-value timings select the
// package defaults.
type SessionConfig struct {
	Kind    SessionKind
	Context *MessageContext

	To      []Recipient
	Cc      []Recipient
	Bcc     []Recipient
	Subject string
	Body    string

	Completer Completer
	Sender    Sender
	Clock     Clock
	Logger    *log.Logger

	// Notify receives a snapshot after every state change, outside the
	// session lock. The TUI uses it to redraw the ghost overlay.
	Notify func(Snapshot)

	CheckpointInterval time.Duration
	SuggestDebounce    time.Duration
	MinSuggestRunes    int
}

// EditSession owns one message being composed: the body buffer, recipients
// and subject, the checkpoint history, and the current suggestion. All
// state transitions are serialized by a single mutex; timer callbacks and
// fetch completions re-acquire it, so the session behaves like the
// single-threaded event loop it models. Sessions never share state.
type EditSession struct {
	mu sync.Mutex

	id      string
	kind    SessionKind
	buffer  string
	to      []Recipient
	cc      []Recipient
	bcc     []Recipient
	subject string

	msgContext *MessageContext

	history *CheckpointStore
	suggest *SuggestionController
	router  Router

	sender Sender
	notify func(Snapshot)
	logger *log.Logger
	closed bool
}

// NewSession builds a session from its seed. Replies arrive with context,
// recipients, subject and a quoted body already populated; a blank compose
// starts empty. The seeded body is the baseline, not a checkpoint: the
// undo stack starts empty.
func NewSession(cfg SessionConfig) *EditSession {
	clock := cfg.Clock
	if clock == nil {
		clock = NewClock()
	}
	kind := cfg.Kind
	if kind == "" {
		kind = SessionNew
	}
	s := &EditSession{
		id:         uuid.New().String(),
		kind:       kind,
		buffer:     cfg.Body,
		to:         append([]Recipient(nil), cfg.To...),
		cc:         append([]Recipient(nil), cfg.Cc...),
		bcc:        append([]Recipient(nil), cfg.Bcc...),
		subject:    cfg.Subject,
		msgContext: cfg.Context,
		sender:     cfg.Sender,
		notify:     cfg.Notify,
		logger:     cfg.Logger,
	}
	s.history = NewCheckpointStore(clock, cfg.CheckpointInterval)
	s.suggest = NewSuggestionController(SuggestionControllerConfig{
		Context:   cfg.Context,
		Completer: cfg.Completer,
		Clock:     clock,
		Debounce:  cfg.SuggestDebounce,
		MinRunes:  cfg.MinSuggestRunes,
		OnReady:   s.onSuggestionReady,
		Logger:    cfg.Logger,
	})
	return s
}

// ID returns the session's stable identifier.
func (s *EditSession) ID() string { return s.id }

// Kind returns what the session is composing.
func (s *EditSession) Kind() SessionKind { return s.kind }

// Context returns a copy of the source-message context, or nil for a blank
// compose.
func (s *EditSession) Context() *MessageContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msgContext == nil {
		return nil
	}
	mc := *s.msgContext
	return &mc
}

// ApplyEdit reports an ordinary edit made on the surface. Identical text is
// ignored; surfaces may re-report the buffer on redraws.
func (s *EditSession) ApplyEdit(text string) {
	s.mu.Lock()
	if s.closed || text == s.buffer {
		s.mu.Unlock()
		return
	}
	s.applyLocked(text, OriginUserEdit)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
}

// applyLocked routes one mutation to both stores. The checkpoint store
// ignores undo/redo origins; the suggestion controller reacts to every
// mutation.
func (s *EditSession) applyLocked(text string, origin MutationOrigin) {
	s.buffer = text
	s.history.OnBufferChanged(text, origin)
	s.suggest.OnBufferChanged(text)
}

// HandleKey routes a chord and executes the buffer-local commands (accept,
// dismiss, undo, redo) itself. CommandInsert and CommandNone are returned
// untouched for the surface to apply, and CommandSend is returned so the
// surface can drive Send with its own context and error presentation.
func (s *EditSession) HandleKey(chord KeyChord) Command {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CommandNone
	}
	ready, shown := s.suggestStateLocked()
	cmd := s.router.Dispatch(chord, RouterState{SuggestionReady: ready, SuggestionShown: shown})
	s.mu.Unlock()

	switch cmd {
	case CommandAcceptSuggestion:
		s.AcceptSuggestion()
	case CommandDismissSuggestion:
		s.DismissSuggestion()
	case CommandUndo:
		s.Undo()
	case CommandRedo:
		s.Redo()
	}
	return cmd
}

func (s *EditSession) suggestStateLocked() (ready, shown bool) {
	_, ready = s.suggest.Ready()
	return ready, s.suggest.Shown()
}

// AcceptSuggestion appends a single space plus the ready suggestion to the
// buffer. The mutation carries full forward-edit semantics, so it is
// checkpoint-eligible, clears the redo stack, and re-enters the gating
// pipeline (where the fresh sentence terminator usually keeps the
// controller quiet).
func (s *EditSession) AcceptSuggestion() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	text, ok := s.suggest.Ready()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.applyLocked(s.buffer+" "+text, OriginSuggestionAccepted)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
	return true
}

// DismissSuggestion clears the shown or pending suggestion; the buffer is
// untouched.
func (s *EditSession) DismissSuggestion() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	ok := s.suggest.Dismiss()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if ok {
		s.emit(snap)
	}
	return ok
}

// Undo restores the most recent checkpoint. The replaced buffer moves to
// the redo stack.
func (s *EditSession) Undo() bool {
	return s.applyHistory((*CheckpointStore).Undo, OriginUndo)
}

// Redo restores the most recently undone buffer.
func (s *EditSession) Redo() bool {
	return s.applyHistory((*CheckpointStore).Redo, OriginRedo)
}

func (s *EditSession) applyHistory(op func(*CheckpointStore, string) (string, bool), origin MutationOrigin) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	text, ok := op(s.history, s.buffer)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.applyLocked(text, origin)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
	return true
}

// CanUndo reports whether an undo checkpoint exists.
func (s *EditSession) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo entry exists.
func (s *EditSession) CanRedo() bool { return s.history.CanRedo() }

// SetTo replaces the primary recipient list.
func (s *EditSession) SetTo(list []Recipient) { s.setRecipients(&s.to, list) }

// SetCc replaces the carbon-copy list.
func (s *EditSession) SetCc(list []Recipient) { s.setRecipients(&s.cc, list) }

// SetBcc replaces the blind-copy list.
func (s *EditSession) SetBcc(list []Recipient) { s.setRecipients(&s.bcc, list) }

func (s *EditSession) setRecipients(dst *[]Recipient, list []Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	*dst = append([]Recipient(nil), list...)
}

// SetSubject replaces the subject line. Header edits are synchronous and
// never interact with checkpoints or suggestions.
func (s *EditSession) SetSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.subject = subject
}

// To returns a copy of the primary recipients.
func (s *EditSession) To() []Recipient { return s.copyRecipients(&s.to) }

// Cc returns a copy of the carbon-copy recipients.
func (s *EditSession) Cc() []Recipient { return s.copyRecipients(&s.cc) }

// Bcc returns a copy of the blind-copy recipients.
func (s *EditSession) Bcc() []Recipient { return s.copyRecipients(&s.bcc) }

func (s *EditSession) copyRecipients(src *[]Recipient) []Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recipient(nil), (*src)...)
}

// Subject returns the current subject line.
func (s *EditSession) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// Buffer returns the current body text.
func (s *EditSession) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// ValidateSend checks the session against the send rules and returns one
// entry per failing field. A reply inherits its subject from the thread,
// so only new messages require one.
func (s *EditSession) ValidateSend() []ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *EditSession) validateLocked() []ValidationError {
	var errs []ValidationError
	if len(s.to) == 0 {
		errs = append(errs, ValidationError{Field: "to", Message: "at least one recipient is required"})
	}
	if s.kind == SessionNew && strings.TrimSpace(s.subject) == "" {
		errs = append(errs, ValidationError{Field: "subject", Message: "subject is required"})
	}
	if strings.TrimSpace(s.buffer) == "" {
		errs = append(errs, ValidationError{Field: "body", Message: "message body cannot be empty"})
	}
	return errs
}

// Send validates and delivers the message. Validation failures come back
// as ValidationErrors and leave the session open; so does a transport
// failure, with the session state fully intact for retry. Only a
// successful delivery tears the session down.
func (s *EditSession) Send(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if errs := s.validateLocked(); len(errs) > 0 {
		s.mu.Unlock()
		return ValidationErrors(errs)
	}
	msg := OutgoingMessage{
		To:      append([]Recipient(nil), s.to...),
		Cc:      append([]Recipient(nil), s.cc...),
		Bcc:     append([]Recipient(nil), s.bcc...),
		Subject: s.subject,
		Text:    s.buffer,
	}
	// Forwards carry context for completion grounding but start a fresh
	// thread; only replies get threading fields.
	if s.msgContext != nil && (s.kind == SessionReply || s.kind == SessionReplyAll) {
		msg.InReplyTo = s.msgContext.MessageID
		msg.ThreadID = s.msgContext.ThreadID
	}
	sender := s.sender
	s.mu.Unlock()

	if sender == nil {
		return ErrNoSender
	}
	if err := sender.Send(ctx, msg); err != nil {
		s.logf("send failed for session %s: %v", s.id, err)
		return fmt.Errorf("failed to send message: %w", err)
	}
	s.Close()
	return nil
}

// Close tears the session down: both timers stop, the stacks are
// discarded, and the suggestion version advances once more so an in-flight
// completion can never apply. Close is idempotent, and every operation on
// a closed session is a no-op.
func (s *EditSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.history.Close()
	s.suggest.Close()
}

// Closed reports whether the session has been torn down.
func (s *EditSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns the current surface projection.
func (s *EditSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *EditSession) snapshotLocked() Snapshot {
	ghost := ""
	if text, ok := s.suggest.Ready(); ok {
		ghost = text
	}
	return Snapshot{
		Buffer:          s.buffer,
		GhostSuggestion: ghost,
		CaretHint:       caretHint(s.buffer),
	}
}

// onSuggestionReady runs when a fetch completes and ghost text appears; it
// pushes a fresh snapshot to the surface.
func (s *EditSession) onSuggestionReady() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
}

func (s *EditSession) emit(snap Snapshot) {
	if s.notify != nil {
		s.notify(snap)
	}
}

func (s *EditSession) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// caretHint computes the display-cell column on the buffer's last line
// where a ghost overlay should begin. Widths come from go-runewidth so
// East Asian and emoji runes line up with what the terminal actually
// renders.
func caretHint(buffer string) int {
	if i := strings.LastIndexByte(buffer, '\n'); i >= 0 {
		buffer = buffer[i+1:]
	}
	return runewidth.StringWidth(buffer)
}
