package commands

import (
	"sync"

	"github.com/openfroyo/octavia/pkg/config"
)

// reload is the work pending for the watch loop.
type reload struct {
	raw config.RawParameters
	err error

	// paramsChanged is set when raw and err carry a parameter reload.
	paramsChanged bool

	// policiesChanged asks for a recompile even without new parameters.
	policiesChanged bool
}

// needsCompile reports whether r warrants a recompile. A failed parameter
// load alone does not.
func (r reload) needsCompile() bool {
	return r.policiesChanged || (r.paramsChanged && r.err == nil)
}

// reloadQueue merges reloads from the parameter and policy watchers until the
// compile loop takes them. Each kind is latest-wins on its own, so a policy
// reload never discards pending parameters.
type reloadQueue struct {
	mu      sync.Mutex
	pending reload
	ready   chan struct{}
}

func newReloadQueue() *reloadQueue {
	return &reloadQueue{ready: make(chan struct{}, 1)}
}

// params records a parameter reload, replacing any pending one.
func (q *reloadQueue) params(raw config.RawParameters, err error) {
	q.mu.Lock()
	q.pending.raw = raw
	q.pending.err = err
	q.pending.paramsChanged = true
	q.mu.Unlock()
	q.signal()
}

// policies records that the policy set changed.
func (q *reloadQueue) policies() {
	q.mu.Lock()
	q.pending.policiesChanged = true
	q.mu.Unlock()
	q.signal()
}

func (q *reloadQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// take returns everything pending and resets the queue.
func (q *reloadQueue) take() reload {
	q.mu.Lock()
	defer q.mu.Unlock()

	r := q.pending
	q.pending = reload{}
	return r
}
