package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/config"
	"github.com/ajramos/maildraft/internal/gmail"
	"github.com/ajramos/maildraft/internal/render"
)

// CompositionServiceImpl implements CompositionService
type CompositionServiceImpl struct {
	messageRepo MessageRepository
	accounts    AccountResolver
	sender      compose.Sender
	completer   compose.Completer
	config      *config.Config
	logger      *log.Logger
}

// NewCompositionService creates a new composition service
func NewCompositionService(messageRepo MessageRepository, accounts AccountResolver, sender compose.Sender, completer compose.Completer, config *config.Config) *CompositionServiceImpl {
	return &CompositionServiceImpl{
		messageRepo: messageRepo,
		accounts:    accounts,
		sender:      sender,
		completer:   completer,
		config:      config,
	}
}

// SetLogger sets the logger for debug output
func (s *CompositionServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// NewBlankSession creates an empty session for a new message
func (s *CompositionServiceImpl) NewBlankSession(opts SessionOptions) (*compose.EditSession, error) {
	sess := compose.NewSession(s.sessionConfig(compose.SessionNew, nil, nil, nil, "", "", opts))

	if s.logger != nil {
		s.logger.Printf("CompositionService: created blank session %s", sess.ID())
	}

	return sess, nil
}

// NewReplySession seeds a session from the message being replied to:
// recipients, a "Re:" subject, and the quoted original below the caret.
func (s *CompositionServiceImpl) NewReplySession(ctx context.Context, messageID string, replyAll bool, opts SessionOptions) (*compose.EditSession, error) {
	if s.messageRepo == nil {
		return nil, fmt.Errorf("message repository not available: %w", ErrServiceUnavailable)
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("original message ID cannot be empty: %w", ErrInvalidMessageID)
	}

	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, messageFetchError(err)
	}

	originalSender := firstRecipient(ParseRecipients(msg.From))

	kind := compose.SessionReply
	to := []compose.Recipient{originalSender}
	var cc []compose.Recipient
	if replyAll {
		kind = compose.SessionReplyAll
		to, cc = s.replyAllRecipients(ctx, msg)
	}

	body := messageBody(msg)
	quoted := buildQuotedBody(originalSender.Email, msg.Date, body)

	sess := compose.NewSession(s.sessionConfig(
		kind,
		s.messageContext(msg, body, opts.PriorSummary),
		to, cc,
		replySubject(msg.Subject),
		quoted,
		opts,
	))

	if s.logger != nil {
		s.logger.Printf("CompositionService: created %s session for message %s with %d recipients", kind, messageID, len(to))
	}

	return sess, nil
}

// NewForwardSession seeds a session with the forwarded original. Recipients
// stay empty for the user to fill in.
func (s *CompositionServiceImpl) NewForwardSession(ctx context.Context, messageID string, opts SessionOptions) (*compose.EditSession, error) {
	if s.messageRepo == nil {
		return nil, fmt.Errorf("message repository not available: %w", ErrServiceUnavailable)
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("original message ID cannot be empty: %w", ErrInvalidMessageID)
	}

	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, messageFetchError(err)
	}

	originalSender := firstRecipient(ParseRecipients(msg.From))
	body := messageBody(msg)
	forwarded := buildForwardedBody(originalSender.Email, msg.Date, msg.Subject, body)

	sess := compose.NewSession(s.sessionConfig(
		compose.SessionForward,
		s.messageContext(msg, body, opts.PriorSummary),
		nil, nil,
		forwardSubject(msg.Subject),
		forwarded,
		opts,
	))

	if s.logger != nil {
		s.logger.Printf("CompositionService: created forward session for message %s", messageID)
	}

	return sess, nil
}

// replyAllRecipients combines the original sender and the To line into the
// reply's To field and carries the original Cc over, excluding the current
// user and collapsing duplicate addresses.
func (s *CompositionServiceImpl) replyAllRecipients(ctx context.Context, msg *gmail.Message) (to, cc []compose.Recipient) {
	currentUserEmail := ""
	if s.accounts != nil {
		if email, err := s.accounts.ActiveAccountEmail(ctx); err == nil {
			currentUserEmail = email
		}
	}

	seen := map[string]bool{}
	if currentUserEmail != "" {
		seen[strings.ToLower(currentUserEmail)] = true
	}
	add := func(dst []compose.Recipient, list []compose.Recipient) []compose.Recipient {
		for _, r := range list {
			key := strings.ToLower(r.Email)
			if r.Email == "" || seen[key] {
				continue
			}
			seen[key] = true
			dst = append(dst, r)
		}
		return dst
	}

	// Original sender first, then everyone on the To line
	to = add(to, ParseRecipients(msg.From))
	to = add(to, ParseRecipients(msg.To))
	cc = add(cc, ParseRecipients(msg.Cc))

	return to, cc
}

// messageContext builds the completion grounding for a session
func (s *CompositionServiceImpl) messageContext(msg *gmail.Message, body, priorSummary string) *compose.MessageContext {
	return &compose.MessageContext{
		MessageID:    msg.ID,
		ThreadID:     msg.ThreadID,
		Subject:      msg.Subject,
		From:         msg.From,
		Body:         body,
		PriorSummary: priorSummary,
	}
}

// sessionConfig assembles the common session seed, wiring the configured
// editor timings and the completion provider when enabled
func (s *CompositionServiceImpl) sessionConfig(kind compose.SessionKind, msgCtx *compose.MessageContext, to, cc []compose.Recipient, subject, body string, opts SessionOptions) compose.SessionConfig {
	cfg := compose.SessionConfig{
		Kind:    kind,
		Context: msgCtx,
		To:      to,
		Cc:      cc,
		Subject: subject,
		Body:    body,
		Sender:  s.sender,
		Logger:  s.logger,
		Notify:  opts.Notify,
	}

	if s.config != nil {
		cfg.CheckpointInterval = s.config.GetCheckpointInterval()
		cfg.SuggestDebounce = s.config.GetSuggestDebounce()
		cfg.MinSuggestRunes = s.config.Editor.MinSuggestChars
		if s.config.Completion.Enabled {
			cfg.Completer = s.completer
		}
	} else {
		cfg.Completer = s.completer
	}

	return cfg
}

// Helper functions

// messageFetchError wraps a repository failure, tagging a Gmail 404 with
// the sentinel so callers can classify it as permanent.
func messageFetchError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("failed to get original message: %w: %w", ErrMessageNotFound, err)
	}
	return fmt.Errorf("failed to get original message: %w", err)
}

// messageBody picks the best plain-text rendering of the original message
func messageBody(msg *gmail.Message) string {
	if strings.TrimSpace(msg.PlainText) != "" {
		return msg.PlainText
	}
	if strings.TrimSpace(msg.HTML) != "" {
		if text, err := render.HTMLToText(msg.HTML); err == nil {
			return render.NormalizeNewlines(text)
		}
	}
	return msg.Snippet
}

// replySubject prefixes "Re: " unless one is already there
func replySubject(subject string) string {
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		return "Re: " + subject
	}
	return subject
}

// forwardSubject prefixes "Fwd: " unless one is already there
func forwardSubject(subject string) string {
	if !strings.HasPrefix(strings.ToLower(subject), "fwd:") {
		return "Fwd: " + subject
	}
	return subject
}

// buildQuotedBody creates a quoted body for replies
func buildQuotedBody(senderEmail string, date time.Time, content string) string {
	var body strings.Builder

	body.WriteString("\n\n")
	body.WriteString(fmt.Sprintf("On %s, %s wrote:\n", date.Format("Jan 2, 2006 at 3:04 PM"), senderEmail))

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		body.WriteString("> " + line + "\n")
	}

	return body.String()
}

// buildForwardedBody creates a forwarded body
func buildForwardedBody(senderEmail string, date time.Time, subject, content string) string {
	var body strings.Builder

	body.WriteString("\n\n---------- Forwarded message ---------\n")
	body.WriteString(fmt.Sprintf("From: %s\n", senderEmail))
	body.WriteString(fmt.Sprintf("Date: %s\n", date.Format("Mon, Jan 2, 2006 at 3:04 PM")))
	body.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	body.WriteString("\n")
	body.WriteString(content)

	return body.String()
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ParseRecipients parses a recipient header string into Recipient structs
func ParseRecipients(headerValue string) []compose.Recipient {
	var recipients []compose.Recipient

	// Simple parsing - display names containing commas are not handled
	addresses := strings.Split(headerValue, ",")
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		// Extract name and email if in format "Name <email@domain.com>"
		if strings.Contains(addr, "<") && strings.Contains(addr, ">") {
			parts := strings.Split(addr, "<")
			if len(parts) == 2 {
				name := strings.Trim(strings.TrimSpace(parts[0]), `"`)
				email := strings.TrimSpace(strings.TrimSuffix(parts[1], ">"))
				recipients = append(recipients, compose.Recipient{Email: email, Name: name})
			}
			continue
		}

		// Just an email address
		recipients = append(recipients, compose.Recipient{Email: addr})
	}

	return recipients
}

// ValidateRecipients reports the first address that does not look like an
// email address
func ValidateRecipients(recipients []compose.Recipient) error {
	for _, r := range recipients {
		if !emailRegex.MatchString(r.Email) {
			return fmt.Errorf("invalid recipient address: %q", r.Email)
		}
	}
	return nil
}

func firstRecipient(list []compose.Recipient) compose.Recipient {
	if len(list) > 0 {
		return list[0]
	}
	return compose.Recipient{}
}
