package assignment

import (
	"errors"
	"sync"
)

type ProgressState string

const (
	StateIdle       ProgressState = "idle"
	StateProcessing ProgressState = "processing"
	StateDone       ProgressState = "done"
	StateError      ProgressState = "error"
)

// ErrAlreadyProcessing rejects a second submission while a run is in flight.
// There is no cross-call deduplication beyond the storage unique index, so
// callers must wait for the current run to settle.
var ErrAlreadyProcessing = errors.New("a bulk assignment is already processing")

// Progress is the caller-observable state of one owner's bulk runs:
// idle -> processing -> done|error, and back to idle on an explicit reset.
// Total is known the moment a run begins (|products| x |steps|), before any
// round trip completes, so a determinate progress display is possible
// pre-flight.
type Progress struct {
	mu      sync.Mutex
	state   ProgressState
	total   int
	summary *Summary
	errMsg  string
}

// ProgressSnapshot is the JSON view of a Progress at one instant.
type ProgressSnapshot struct {
	State   ProgressState `json:"state"`
	Total   int           `json:"total"`
	Summary *Summary      `json:"summary,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func NewProgress() *Progress {
	return &Progress{state: StateIdle}
}

// Begin moves idle|done|error -> processing and records the expected total.
// A run already in flight is rejected.
func (p *Progress) Begin(total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateProcessing {
		return ErrAlreadyProcessing
	}
	p.state = StateProcessing
	p.total = total
	p.summary = nil
	p.errMsg = ""
	return nil
}

// Complete records a finished run. Individual skips and failures inside the
// summary still count as done; error is reserved for runs whose summary
// cannot be trusted at all.
func (p *Progress) Complete(summary *Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateProcessing {
		return
	}
	p.state = StateDone
	p.summary = summary
}

// Fail marks the run terminally failed; any counts received are discarded.
func (p *Progress) Fail(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateProcessing {
		return
	}
	p.state = StateError
	p.summary = nil
	p.errMsg = message
}

// Reset clears local state only. An in-flight run keeps going server-side;
// reset from processing is therefore refused.
func (p *Progress) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateProcessing {
		return ErrAlreadyProcessing
	}
	p.state = StateIdle
	p.total = 0
	p.summary = nil
	p.errMsg = ""
	return nil
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		State:   p.state,
		Total:   p.total,
		Summary: p.summary,
		Error:   p.errMsg,
	}
}

// ProgressRegistry tracks one Progress per owner so a tenant's concurrent
// sessions observe the same run.
type ProgressRegistry struct {
	mu       sync.Mutex
	trackers map[string]*Progress
}

func NewProgressRegistry() *ProgressRegistry {
	return &ProgressRegistry{trackers: make(map[string]*Progress)}
}

func (r *ProgressRegistry) For(ownerID string) *Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.trackers[ownerID]
	if !ok {
		p = NewProgress()
		r.trackers[ownerID] = p
	}
	return p
}
