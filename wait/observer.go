package wait

import "time"

// Strategy names reported to observers.
const (
	StrategyHTTP  = "http"
	StrategyPing  = "ping"
	StrategyDelay = "delay"
)

// Observer is notified about waits and individual attempts. Implementations
// must be safe for concurrent use when strategies run in parallel.
type Observer interface {
	WaitStarted(strategy, target string)
	AttemptFinished(strategy, target string, err error, took time.Duration)
	WaitFinished(strategy, target string, err error, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) WaitStarted(string, string)                           {}
func (nopObserver) AttemptFinished(string, string, error, time.Duration) {}
func (nopObserver) WaitFinished(string, string, error, time.Duration)    {}

type multiObserver []Observer

// Observers fans notifications out to every non-nil observer.
func Observers(observers ...Observer) Observer {
	filtered := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

func (m multiObserver) WaitStarted(strategy, target string) {
	for _, o := range m {
		o.WaitStarted(strategy, target)
	}
}

func (m multiObserver) AttemptFinished(strategy, target string, err error, took time.Duration) {
	for _, o := range m {
		o.AttemptFinished(strategy, target, err, took)
	}
}

func (m multiObserver) WaitFinished(strategy, target string, err error, took time.Duration) {
	for _, o := range m {
		o.WaitFinished(strategy, target, err, took)
	}
}
