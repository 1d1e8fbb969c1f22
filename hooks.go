package eventmerge

import (
	"sync"
)

// Stage names a step of the merge pipeline.
type Stage string

// Pipeline stages, in run order.
const (
	StageCheck     Stage = "check"
	StageFetch     Stage = "fetch"
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageFilter    Stage = "filter"
	StageJoin      Stage = "join"
	StageReconcile Stage = "reconcile"
	StageProject   Stage = "project"
	StageWrite     Stage = "write"
)

// Event is an operator-facing progress message.
type Event struct {
	Stage   Stage
	Message string

	// Success marks a completion message rather than a progress note.
	Success bool
}

// ProgressHook is called for every progress event
type ProgressHook func(Event)

// hooks manages progress callbacks
type hooks struct {
	mu         sync.RWMutex
	onProgress []ProgressHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnProgress registers a callback for progress events
func (h *hooks) OnProgress(fn ProgressHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onProgress = append(h.onProgress, fn)
}

// triggerProgress calls every registered progress hook in order
func (h *hooks) triggerProgress(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onProgress {
		fn(event)
	}
}
