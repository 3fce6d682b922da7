// Package gmail wraps the slice of the Gmail API that composing needs:
// loading a source message with its content extracted, resolving the
// authenticated account, and sending a finished message.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/ajramos/maildraft/internal/compose"
)

// Client wraps the gmail.Service and provides convenience methods
type Client struct {
	Service *gmail.Service

	// profileEmail caches the account address after the first lookup.
	profileEmail string
}

// NewClient creates a new Gmail client
func NewClient(service *gmail.Service) *Client {
	return &Client{Service: service}
}

// Message is a Gmail message with headers parsed and content extracted.
type Message struct {
	ID       string
	ThreadID string
	// MessageIDHeader is the RFC 2822 Message-Id, used for reply threading.
	MessageIDHeader string
	Subject         string
	From            string
	To              string
	Cc              string
	Date            time.Time
	Snippet         string
	PlainText       string
	HTML            string
}

// GetMessage retrieves a message by ID with its full payload and extracts
// the fields composing cares about.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	if c == nil || c.Service == nil {
		return nil, fmt.Errorf("gmail client not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("message ID cannot be empty")
	}

	msg, err := c.Service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &Message{
		ID:              msg.Id,
		ThreadID:        msg.ThreadId,
		MessageIDHeader: extractHeader(msg, "Message-Id"),
		Subject:         decodeHeader(extractHeader(msg, "Subject")),
		From:            decodeHeader(extractHeader(msg, "From")),
		To:              decodeHeader(extractHeader(msg, "To")),
		Cc:              decodeHeader(extractHeader(msg, "Cc")),
		Date:            extractDate(msg),
		Snippet:         msg.Snippet,
		PlainText:       ExtractPlainText(msg),
		HTML:            ExtractHTML(msg),
	}, nil
}

// ActiveAccountEmail returns the authenticated account's address, cached
// after the first call.
func (c *Client) ActiveAccountEmail(ctx context.Context) (string, error) {
	if c == nil || c.Service == nil {
		return "", fmt.Errorf("gmail client not initialized")
	}
	if c.profileEmail != "" {
		return c.profileEmail, nil
	}

	profile, err := c.Service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	c.profileEmail = profile.EmailAddress
	return c.profileEmail, nil
}

// Send delivers an outgoing message through the Gmail API. A reply is sent
// on the source thread with In-Reply-To and References headers resolved
// from the original message.
func (c *Client) Send(ctx context.Context, msg compose.OutgoingMessage) error {
	if c == nil || c.Service == nil {
		return fmt.Errorf("gmail client not initialized")
	}

	replyHeader := ""
	if msg.InReplyTo != "" {
		// Threading wants the RFC Message-Id, not the API id. A failed
		// lookup degrades to an unthreaded send rather than blocking it.
		if orig, err := c.Service.Users.Messages.Get("me", msg.InReplyTo).
			Format("metadata").MetadataHeaders("Message-Id").Context(ctx).Do(); err == nil {
			replyHeader = extractHeader(orig, "Message-Id")
		}
	}

	raw := buildRawMessage(msg, replyHeader)
	payload := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if msg.ThreadID != "" {
		payload.ThreadId = msg.ThreadID
	}

	if _, err := c.Service.Users.Messages.Send("me", payload).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// buildRawMessage assembles the RFC 822 text of an outgoing message.
func buildRawMessage(msg compose.OutgoingMessage, replyHeader string) string {
	var sb strings.Builder
	sb.WriteString("To: " + formatAddressList(msg.To) + "\r\n")
	if len(msg.Cc) > 0 {
		sb.WriteString("Cc: " + formatAddressList(msg.Cc) + "\r\n")
	}
	if len(msg.Bcc) > 0 {
		sb.WriteString("Bcc: " + formatAddressList(msg.Bcc) + "\r\n")
	}
	sb.WriteString("Subject: " + msg.Subject + "\r\n")
	if replyHeader != "" {
		sb.WriteString("In-Reply-To: " + replyHeader + "\r\n")
		sb.WriteString("References: " + replyHeader + "\r\n")
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Text)
	return sb.String()
}

// formatAddressList renders recipients as a comma-separated header value.
func formatAddressList(list []compose.Recipient) string {
	parts := make([]string, 0, len(list))
	for _, r := range list {
		if r.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", r.Name, r.Email))
		} else {
			parts = append(parts, r.Email)
		}
	}
	return strings.Join(parts, ", ")
}

// Helper functions
func extractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil || msg.Payload.Headers == nil {
		return ""
	}
	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// decodeHeader decodes MIME-encoded header values (e.g., =?UTF-8?Q?...?=)
func decodeHeader(value string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func extractDate(msg *gmail.Message) time.Time {
	// Prefer Gmail's internal epoch when present
	if msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate)
	}
	dateStr := extractHeader(msg, "Date")
	if dateStr != "" {
		if t, err := time.Parse(time.RFC1123Z, dateStr); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC1123, dateStr); err == nil {
			return t
		}
		if t, err := time.Parse("Mon, 02 Jan 2006 15:04:05 -0700", dateStr); err == nil {
			return t
		}
	}
	// Avoid zero dates in quote attributions
	return time.Now()
}

// decodeBody decodes a message part body. The API emits base64url without
// padding, but padded data shows up in fixtures and other tooling.
func decodeBody(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}

// ExtractPlainText extracts plain text content from a Gmail message
func ExtractPlainText(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	return extractTextFromPart(msg.Payload)
}

func extractTextFromPart(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	if part.Body != nil && part.Body.Data != "" && strings.EqualFold(part.MimeType, "text/plain") {
		data, err := decodeBody(part.Body.Data)
		if err != nil {
			return ""
		}
		// Try quoted-printable; fall back to the raw bytes
		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(data))))
		if err == nil {
			return string(decoded)
		}
		return string(data)
	}

	for _, p := range part.Parts {
		if text := extractTextFromPart(p); text != "" {
			return text
		}
	}
	return ""
}

// ExtractHTML extracts HTML content from a Gmail message
func ExtractHTML(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	return extractHTMLFromPart(msg.Payload)
}

func extractHTMLFromPart(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	if part.Body != nil && part.Body.Data != "" && strings.EqualFold(part.MimeType, "text/html") {
		data, err := decodeBody(part.Body.Data)
		if err != nil {
			return ""
		}
		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(data))))
		if err == nil {
			return string(decoded)
		}
		return string(data)
	}

	for _, p := range part.Parts {
		if html := extractHTMLFromPart(p); html != "" {
			return html
		}
	}
	return ""
}
