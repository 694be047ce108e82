package redline

import (
	"sync"

	"github.com/redlinedata/redline/pkg/reconcile"
)

// Hook function types for pipeline events.
type (
	// ChangeHook is called for every edit accepted during reconciliation.
	ChangeHook func(change reconcile.Change)

	// WarningHook is called for every warning a pipeline stage raises.
	WarningHook func(warning string)
)

// hooks manages event callbacks for pipeline runs.
type hooks struct {
	mu        sync.RWMutex
	onChange  []ChangeHook
	onWarning []WarningHook
}

// newHooks creates a new hooks instance.
func newHooks() *hooks {
	return &hooks{}
}

// OnChange registers a callback for accepted edits.
func (h *hooks) OnChange(fn ChangeHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnWarning registers a callback for pipeline warnings.
func (h *hooks) OnWarning(fn WarningHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onWarning = append(h.onWarning, fn)
}

// emitChanges triggers the change hooks for every accepted edit.
func (h *hooks) emitChanges(cs *reconcile.Changeset) {
	if cs == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, change := range cs.Accepted {
		for _, hook := range h.onChange {
			hook(change)
		}
	}
}

// emitWarnings triggers the warning hooks.
func (h *hooks) emitWarnings(warnings []string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, warning := range warnings {
		for _, hook := range h.onWarning {
			hook(warning)
		}
	}
}
