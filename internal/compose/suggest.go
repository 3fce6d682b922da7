package compose

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// Defaults for the suggestion pipeline. Both are configurable per session.
const (
	DefaultSuggestDebounce = 150 * time.Millisecond
	DefaultMinSuggestRunes = 5
)

// SuggestionStatus tracks a suggestion through its lifetime. Dismissal and
// staleness remove the suggestion instead of marking it; a removed
// suggestion can never be applied late.
type SuggestionStatus int

const (
	SuggestionPending SuggestionStatus = iota
	SuggestionReady
)

// Suggestion is a completion offered (or about to be offered) for the
// current buffer. RequestVersion pins it to the buffer state that produced
// it.
type Suggestion struct {
	Text           string
	RequestVersion uint64
	Status         SuggestionStatus
}

// SuggestionController schedules, fetches and applies remote completions.
// Every buffer mutation bumps a version counter; a fetch captures the
// version it was dispatched for, and its response is applied only if the
// version is still current and the request has not been dismissed in the
// meantime. Superseded responses are discarded without side effects, and
// fetch failures are absorbed silently.
type SuggestionController struct {
	mu sync.Mutex

	version uint64 // bumped on every buffer mutation and once on Close
	want    uint64 // request version a response may still be applied for

	current    *Suggestion
	latestText string

	msgContext *MessageContext
	completer  Completer

	timer    Timer
	delay    time.Duration
	minRunes int

	onReady func() // invoked outside the lock when ghost text appears
	logger  *log.Logger
	closed  bool
}

// SuggestionControllerConfig wires a controller to its session.
type SuggestionControllerConfig struct {
	Context   *MessageContext
	Completer Completer
	Clock     Clock
	Debounce  time.Duration
	MinRunes  int
	OnReady   func()
	Logger    *log.Logger
}

// NewSuggestionController builds a controller. With a nil context or nil
// completer it still tracks versions but never fetches.
func NewSuggestionController(cfg SuggestionControllerConfig) *SuggestionController {
	c := &SuggestionController{
		msgContext: cfg.Context,
		completer:  cfg.Completer,
		delay:      cfg.Debounce,
		minRunes:   cfg.MinRunes,
		onReady:    cfg.OnReady,
		logger:     cfg.Logger,
	}
	if c.delay <= 0 {
		c.delay = DefaultSuggestDebounce
	}
	if c.minRunes <= 0 {
		c.minRunes = DefaultMinSuggestRunes
	}
	clock := cfg.Clock
	if clock == nil {
		clock = NewClock()
	}
	c.timer = clock.NewTimer(c.fire)
	return c
}

// OnBufferChanged reacts to a buffer mutation: the version advances, any
// shown or pending suggestion is cleared, and a fetch is scheduled if the
// gate passes (or cancelled if it no longer does).
func (c *SuggestionController) OnBufferChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.version++
	c.want = 0
	c.current = nil
	c.latestText = text
	if c.shouldFetch(text) {
		c.timer.Reset(c.delay)
	} else {
		c.timer.Stop()
	}
}

// shouldFetch is the gating predicate. All conditions must hold: a source
// context exists, the text is at least minRunes runes long, it ends with
// whitespace, and the last non-space rune is not a sentence terminator.
// The terminator rule reads inverted but is the contract the completion
// backend was tuned for; suggestions continue an unfinished sentence rather
// than open a new one.
func (c *SuggestionController) shouldFetch(text string) bool {
	if c.msgContext == nil || c.completer == nil {
		return false
	}
	if utf8.RuneCountInString(text) < c.minRunes {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if !unicode.IsSpace(last) {
		return false
	}
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed != "" {
		switch end, _ := utf8.DecodeLastRuneInString(trimmed); end {
		case '.', '!', '?':
			return false
		}
	}
	return true
}

// fire runs when the debounce timer elapses. It re-checks the gate, records
// a pending suggestion pinned to a fresh version, and dispatches the fetch
// off the timer goroutine.
func (c *SuggestionController) fire() {
	c.mu.Lock()
	if c.closed || !c.shouldFetch(c.latestText) {
		c.mu.Unlock()
		return
	}
	c.version++
	req := c.version
	c.want = req
	c.current = &Suggestion{RequestVersion: req, Status: SuggestionPending}
	text := c.latestText
	mc := *c.msgContext
	c.mu.Unlock()

	go c.fetch(text, mc, req)
}

func (c *SuggestionController) fetch(text string, mc MessageContext, req uint64) {
	out, err := c.completer.Complete(context.Background(), CompletionRequest{Text: text, Context: mc})

	c.mu.Lock()
	if err != nil {
		c.logf("completion request failed: %v", err)
		if c.want == req {
			c.want = 0
			c.current = nil
		}
		c.mu.Unlock()
		return
	}
	if req != c.version || req != c.want {
		// Stale (the buffer moved on) or dismissed while in flight.
		c.mu.Unlock()
		return
	}
	c.want = 0
	out = strings.TrimSpace(out)
	if out == "" {
		c.current = nil
		c.mu.Unlock()
		return
	}
	c.current = &Suggestion{Text: out, RequestVersion: req, Status: SuggestionReady}
	ready := c.onReady
	c.mu.Unlock()

	if ready != nil {
		ready()
	}
}

// Ready returns the suggestion text when one is ready to accept.
func (c *SuggestionController) Ready() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Status == SuggestionReady {
		return c.current.Text, true
	}
	return "", false
}

// Shown reports whether a suggestion is visible to the user in the routing
// sense: ready ghost text, or a pending fetch that Escape may cancel.
func (c *SuggestionController) Shown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Dismiss removes the current suggestion without touching the buffer. A
// response still in flight for it becomes unwanted and will be discarded
// even though the buffer version has not moved.
func (c *SuggestionController) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return false
	}
	c.current = nil
	c.want = 0
	return true
}

// Version returns the current buffer version. Exposed for tests and
// logging; the counter itself never leaves the controller.
func (c *SuggestionController) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Close stops the debounce timer and advances the version one final time so
// any in-flight response is permanently stale. The fetch goroutine itself
// is not interrupted; it drains when the backend returns.
func (c *SuggestionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.version++
	c.want = 0
	c.current = nil
	c.timer.Stop()
}

func (c *SuggestionController) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
