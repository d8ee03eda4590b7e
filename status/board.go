package status

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/drblury/readywait/metrics"
	"github.com/drblury/readywait/wait"
)

// State is the lifecycle position of one target.
type State string

const (
	StatePending  State = "pending"
	StateWaiting  State = "waiting"
	StateReady    State = "ready"
	StateTimeout  State = "timeout"
	StateCanceled State = "canceled"
	StateFailed   State = "failed"
)

// TargetStatus is the board's view of one target.
type TargetStatus struct {
	Name       string        `json:"name"`
	Strategy   string        `json:"strategy,omitempty"`
	State      State         `json:"state"`
	Attempts   int           `json:"attempts"`
	LastError  string        `json:"lastError,omitempty"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Elapsed    time.Duration `json:"elapsedNs,omitempty"`
}

// Board tracks the progress of every target. It implements wait.Observer and
// is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	targets map[string]*TargetStatus
	now     func() time.Time
}

var _ wait.Observer = (*Board)(nil)

// NewBoard returns a board listing names as pending.
func NewBoard(names ...string) *Board {
	b := &Board{targets: make(map[string]*TargetStatus), now: time.Now}
	for _, name := range names {
		b.Register(name)
	}
	return b
}

// Register adds name as pending unless it is already known.
func (b *Board) Register(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entry(name)
}

func (b *Board) entry(name string) *TargetStatus {
	ts, ok := b.targets[name]
	if !ok {
		ts = &TargetStatus{Name: name, State: StatePending}
		b.targets[name] = ts
	}
	return ts
}

// WaitStarted implements wait.Observer.
func (b *Board) WaitStarted(strategy, target string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	ts := b.entry(target)
	ts.Strategy = strategy
	ts.State = StateWaiting
	ts.Attempts = 0
	ts.LastError = ""
	ts.StartedAt = &now
	ts.FinishedAt = nil
	ts.Elapsed = 0
}

// AttemptFinished implements wait.Observer.
func (b *Board) AttemptFinished(strategy, target string, err error, _ time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.entry(target)
	ts.Strategy = strategy
	ts.Attempts++
	if err != nil {
		ts.LastError = err.Error()
	} else {
		ts.LastError = ""
	}
}

// WaitFinished implements wait.Observer.
func (b *Board) WaitFinished(strategy, target string, err error, took time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	ts := b.entry(target)
	ts.Strategy = strategy
	ts.FinishedAt = &now
	ts.Elapsed = took
	ts.State = stateFor(err)
	if err != nil {
		ts.LastError = err.Error()
	}
}

func stateFor(err error) State {
	switch metrics.Result(err) {
	case metrics.ResultReady:
		return StateReady
	case metrics.ResultTimeout:
		return StateTimeout
	case metrics.ResultCanceled:
		return StateCanceled
	default:
		return StateFailed
	}
}

// Snapshot returns copies of all target states ordered by name.
func (b *Board) Snapshot() []TargetStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]TargetStatus, 0, len(b.targets))
	for _, ts := range b.targets {
		out = append(out, *ts)
	}
	slices.SortFunc(out, func(a, b TargetStatus) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Get returns the state of one target.
func (b *Board) Get(name string) (TargetStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ts, ok := b.targets[name]
	if !ok {
		return TargetStatus{}, false
	}
	return *ts, true
}

// NotReady lists targets that are not ready, ordered by name. An empty board
// has none.
func (b *Board) NotReady() []string {
	var names []string
	for _, ts := range b.Snapshot() {
		if ts.State != StateReady {
			names = append(names, ts.Name)
		}
	}
	return names
}
