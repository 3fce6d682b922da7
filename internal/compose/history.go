package compose

import (
	"sync"
	"time"
)

// DefaultCheckpointInterval is the quiet period after which an edited
// buffer is committed to the undo stack.
const DefaultCheckpointInterval = 500 * time.Millisecond

// CheckpointStore keeps a linear undo/redo history of whole-buffer
// snapshots. Rapid edits coalesce into one checkpoint: every forward change
// restarts a single timer, and only the text still current when the timer
// fires is pushed. An empty buffer is never checkpointed, and the undo
// stack never holds adjacent identical entries.
type CheckpointStore struct {
	mu sync.Mutex

	undo []string
	redo []string

	interval   time.Duration
	timer      Timer
	pending    string
	hasPending bool
}

// NewCheckpointStore builds a store with its own coalescing timer. A zero
// interval selects DefaultCheckpointInterval.
func NewCheckpointStore(clock Clock, interval time.Duration) *CheckpointStore {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	s := &CheckpointStore{interval: interval}
	s.timer = clock.NewTimer(s.flush)
	return s
}

// OnBufferChanged records a buffer mutation. Forward edits (user input and
// accepted suggestions) clear the redo stack and restart the coalescing
// timer; undo/redo application is ignored here because Undo and Redo have
// already moved the stacks themselves.
func (s *CheckpointStore) OnBufferChanged(text string, origin MutationOrigin) {
	if origin == OriginUndo || origin == OriginRedo {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redo = s.redo[:0]
	s.pending = text
	s.hasPending = true
	s.timer.Reset(s.interval)
}

// flush runs when the coalescing timer fires with no further edits.
func (s *CheckpointStore) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPending {
		return
	}
	text := s.pending
	s.pending = ""
	s.hasPending = false
	if text == "" {
		return
	}
	if n := len(s.undo); n > 0 && s.undo[n-1] == text {
		return
	}
	s.undo = append(s.undo, text)
}

// Undo pushes the current buffer onto the redo stack and returns the top of
// the undo stack. It reports false when there is nothing to undo. Any
// pending coalesce is discarded; the text it would have committed is no
// longer current.
func (s *CheckpointStore) Undo(current string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPendingLocked()
	n := len(s.undo)
	if n == 0 {
		return "", false
	}
	top := s.undo[n-1]
	s.undo = s.undo[:n-1]
	s.redo = append(s.redo, current)
	return top, true
}

// Redo is the mirror image of Undo: the current buffer moves to the undo
// stack and the most recent redo entry is restored.
func (s *CheckpointStore) Redo(current string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPendingLocked()
	n := len(s.redo)
	if n == 0 {
		return "", false
	}
	top := s.redo[n-1]
	s.redo = s.redo[:n-1]
	if current != "" {
		if m := len(s.undo); m == 0 || s.undo[m-1] != current {
			s.undo = append(s.undo, current)
		}
	}
	return top, true
}

func (s *CheckpointStore) dropPendingLocked() {
	s.pending = ""
	s.hasPending = false
	s.timer.Stop()
}

// CanUndo reports whether the undo stack is non-empty.
func (s *CheckpointStore) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (s *CheckpointStore) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Depth returns the number of committed checkpoints.
func (s *CheckpointStore) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// Close discards both stacks and any pending coalesce.
func (s *CheckpointStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPendingLocked()
	s.undo = nil
	s.redo = nil
}
