package compose

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeCompleter records requests and serves a canned response. When block
// is set, Complete waits on it so tests can hold a fetch in flight.
type fakeCompleter struct {
	mu       sync.Mutex
	requests []CompletionRequest
	response string
	err      error
	block    chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	response, err := f.response, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return response, err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCompleter) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func testContext() *MessageContext {
	return &MessageContext{
		MessageID: "msg-1",
		ThreadID:  "thread-1",
		Subject:   "Quarterly numbers",
		From:      "Dana Smith <dana@example.com>",
		Body:      "Could you send over the latest figures?",
	}
}

func newTestController(mc *MessageContext, completer Completer) (*SuggestionController, *manualClock) {
	clock := newManualClock()
	ctrl := NewSuggestionController(SuggestionControllerConfig{
		Context:   mc,
		Completer: completer,
		Clock:     clock,
	})
	return ctrl, clock
}

func TestSuggestionController_Gating(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		withContext bool
		wantFetch   bool
	}{
		{"no_context_never_fetches", "hello ", false, false},
		{"gated_text_fetches", "hello world ", true, true},
		{"sentence_terminator_suppresses", "hello world. ", true, false},
		{"exclamation_suppresses", "hello world! ", true, false},
		{"question_mark_suppresses", "hello world? ", true, false},
		{"terminator_with_extra_spaces_suppresses", "hello world.   ", true, false},
		{"too_short", "hi ", true, false},
		{"no_trailing_whitespace", "hello world", true, false},
		{"newline_counts_as_whitespace", "hello\nworld\n", true, true},
		{"five_runes_is_enough", "abcd ", true, true},
		{"four_runes_is_not", "abc ", true, false},
		{"multibyte_runes_counted_once", "héllo wörld ", true, true},
		{"terminator_mid_text_is_fine", "Mr. Smith said ", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{response: "a suggestion"}
			var mc *MessageContext
			if tt.withContext {
				mc = testContext()
			}
			ctrl, clock := newTestController(mc, completer)
			defer ctrl.Close()

			ctrl.OnBufferChanged(tt.text)
			clock.Advance(DefaultSuggestDebounce)

			if tt.wantFetch {
				assert.Eventually(t, func() bool { return completer.calls() == 1 },
					time.Second, time.Millisecond)
			} else {
				assert.Equal(t, 0, completer.calls())
			}
		})
	}
}

func TestSuggestionController_NilCompleterNeverFetches(t *testing.T) {
	ctrl, clock := newTestController(testContext(), nil)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(time.Second)

	_, ready := ctrl.Ready()
	assert.False(t, ready)
}

func TestSuggestionController_DebounceCollapsesKeystrokes(t *testing.T) {
	completer := &fakeCompleter{response: "keep going"}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	// Mid-word states fail the gate and disarm the timer; only the final
	// gated state survives the debounce.
	ctrl.OnBufferChanged("hello ")
	clock.Advance(100 * time.Millisecond)
	ctrl.OnBufferChanged("hello w")
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, completer.calls())

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce - time.Millisecond)
	assert.Equal(t, 0, completer.calls())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)

	req := completer.lastRequest()
	assert.Equal(t, "hello world ", req.Text)
	assert.Equal(t, "msg-1", req.Context.MessageID)
}

func TestSuggestionController_ResponseBecomesReadyGhost(t *testing.T) {
	completer := &fakeCompleter{response: "the update."}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("Thanks for sharing ")
	clock.Advance(DefaultSuggestDebounce)

	require.Eventually(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, time.Second, time.Millisecond)

	text, ready := ctrl.Ready()
	assert.True(t, ready)
	assert.Equal(t, "the update.", text)
	assert.True(t, ctrl.Shown())
}

func TestSuggestionController_StaleResponseIsDiscarded(t *testing.T) {
	completer := &fakeCompleter{response: "outdated words", block: make(chan struct{})}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)
	require.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)

	// The buffer moves on while the fetch is in flight.
	ctrl.OnBufferChanged("hello world and more")
	close(completer.block)

	assert.Never(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSuggestionController_DismissDuringPendingFetch(t *testing.T) {
	completer := &fakeCompleter{response: "never shown", block: make(chan struct{})}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)
	require.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)
	require.True(t, ctrl.Shown())

	// Escape during the fetch: no buffer mutation, so the version still
	// matches when the response lands. It must be dropped anyway.
	require.True(t, ctrl.Dismiss())
	close(completer.block)

	assert.Never(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSuggestionController_FailureIsAbsorbed(t *testing.T) {
	var logBuf bytes.Buffer
	completer := &fakeCompleter{err: errors.New("backend unavailable")}
	clock := newManualClock()
	ctrl := NewSuggestionController(SuggestionControllerConfig{
		Context:   testContext(),
		Completer: completer,
		Clock:     clock,
		Logger:    log.New(&logBuf, "", 0),
	})
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)

	require.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return !ctrl.Shown() },
		time.Second, time.Millisecond)

	_, ready := ctrl.Ready()
	assert.False(t, ready)
	assert.Eventually(t, func() bool {
		return bytes.Contains(logBuf.Bytes(), []byte("completion request failed"))
	}, time.Second, time.Millisecond)
}

func TestSuggestionController_EmptyResponseClears(t *testing.T) {
	completer := &fakeCompleter{response: "   "}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)

	require.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return !ctrl.Shown() },
		time.Second, time.Millisecond)
}

func TestSuggestionController_EditClearsReadySuggestion(t *testing.T) {
	completer := &fakeCompleter{response: "the update."}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)
	require.Eventually(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, time.Second, time.Millisecond)

	ctrl.OnBufferChanged("hello world a")
	_, ready := ctrl.Ready()
	assert.False(t, ready)
	assert.False(t, ctrl.Shown())
}

func TestSuggestionController_AtMostOneResponsePerVersion(t *testing.T) {
	completer := &fakeCompleter{response: "first answer"}
	ctrl, clock := newTestController(testContext(), completer)
	defer ctrl.Close()

	ctrl.OnBufferChanged("hello world ")
	before := ctrl.Version()
	clock.Advance(DefaultSuggestDebounce)

	require.Eventually(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, time.Second, time.Millisecond)

	// One mutation, one fire: exactly two version bumps and one fetch.
	assert.Equal(t, before+1, ctrl.Version())
	assert.Equal(t, 1, completer.calls())
}

func TestSuggestionController_CloseStalesInFlightResponse(t *testing.T) {
	completer := &fakeCompleter{response: "late arrival", block: make(chan struct{})}
	ctrl, clock := newTestController(testContext(), completer)

	ctrl.OnBufferChanged("hello world ")
	clock.Advance(DefaultSuggestDebounce)
	require.Eventually(t, func() bool { return completer.calls() == 1 },
		time.Second, time.Millisecond)

	ctrl.Close()
	close(completer.block)

	assert.Never(t, func() bool {
		_, ready := ctrl.Ready()
		return ready
	}, 100*time.Millisecond, 10*time.Millisecond)

	goleak.VerifyNone(t)
}

func TestSuggestionController_ClosedControllerIgnoresEdits(t *testing.T) {
	completer := &fakeCompleter{response: "anything"}
	ctrl, clock := newTestController(testContext(), completer)

	ctrl.Close()
	ctrl.OnBufferChanged("hello world ")
	clock.Advance(time.Second)

	assert.Equal(t, 0, completer.calls())
	assert.False(t, ctrl.Shown())
}
