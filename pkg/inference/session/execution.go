package session

import (
	"errors"
	"sync"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/google/uuid"
)

var ErrExecutionHandleNil = errors.New("execution handle is nil")

// ExecutionHandle represents a single in-flight submission.
//
// It is waitable but not cancelable: once sent, a request runs until the
// model answers or the network fails.
type ExecutionHandle struct {
	SessionID string
	TurnID    uuid.UUID
	Intent    Intent

	done chan struct{}

	mu    sync.Mutex
	out   *conversation.Turn
	cause error
}

func newExecutionHandle(sessionID string, turnID uuid.UUID, intent Intent) *ExecutionHandle {
	return &ExecutionHandle{
		SessionID: sessionID,
		TurnID:    turnID,
		Intent:    intent,
		done:      make(chan struct{}),
	}
}

func (h *ExecutionHandle) setResult(out *conversation.Turn, cause error) {
	h.mu.Lock()
	h.out = out
	h.cause = cause
	close(h.done)
	h.mu.Unlock()
}

// Wait blocks until the submission completes and returns a copy of the final
// model turn. Failures do not surface here: they are already rendered into
// the turn text. Use Cause to inspect them.
func (h *ExecutionHandle) Wait() (*conversation.Turn, error) {
	if h == nil {
		return nil, ErrExecutionHandleNil
	}
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out, nil
}

// Cause returns the failure that was turned into the error notice, or nil.
// It is only meaningful after Wait returned.
func (h *ExecutionHandle) Cause() error {
	if h == nil {
		return ErrExecutionHandleNil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cause
}

// Done is closed once the submission has completed.
func (h *ExecutionHandle) Done() <-chan struct{} {
	return h.done
}

// IsRunning reports whether the submission appears to still be running.
func (h *ExecutionHandle) IsRunning() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
