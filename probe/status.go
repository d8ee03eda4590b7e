package probe

import (
	"fmt"
	"net/http"
	"slices"
)

// StatusPredicate decides whether an HTTP status code is acceptable.
type StatusPredicate func(status int) bool

// BodyPredicate decides whether a response body is acceptable.
type BodyPredicate func(body string) bool

// MatchKind identifies how a StatusMatcher evaluates status codes.
type MatchKind int

const (
	// MatchDefaultOK accepts only 200 OK.
	MatchDefaultOK MatchKind = iota
	// MatchStatusSet accepts codes contained in the configured set.
	MatchStatusSet
	// MatchPredicate accepts codes that pass the configured predicate.
	MatchPredicate
	// MatchEither accepts codes that pass the predicate or are in the set.
	MatchEither
)

func (k MatchKind) String() string {
	switch k {
	case MatchDefaultOK:
		return "default-ok"
	case MatchStatusSet:
		return "status-set"
	case MatchPredicate:
		return "predicate"
	case MatchEither:
		return "either"
	default:
		return "unknown"
	}
}

// StatusMatcher is the resolved status expectation of an HTTP probe. The zero
// value accepts only 200 OK.
type StatusMatcher struct {
	kind      MatchKind
	codes     map[int]struct{}
	predicate StatusPredicate
}

// NewStatusMatcher combines an accepted status set and an optional predicate.
// With neither configured only 200 is accepted; with both, a status passes
// when the predicate accepts it or it belongs to the set.
func NewStatusMatcher(codes []int, predicate StatusPredicate) StatusMatcher {
	var set map[int]struct{}
	if len(codes) > 0 {
		set = make(map[int]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
	}

	switch {
	case set == nil && predicate == nil:
		return StatusMatcher{kind: MatchDefaultOK}
	case predicate == nil:
		return StatusMatcher{kind: MatchStatusSet, codes: set}
	case set == nil:
		return StatusMatcher{kind: MatchPredicate, predicate: predicate}
	default:
		return StatusMatcher{kind: MatchEither, codes: set, predicate: predicate}
	}
}

// Kind reports which combination rule the matcher applies.
func (m StatusMatcher) Kind() MatchKind {
	return m.kind
}

// Codes returns the accepted status set in ascending order.
func (m StatusMatcher) Codes() []int {
	if len(m.codes) == 0 {
		return nil
	}
	codes := make([]int, 0, len(m.codes))
	for code := range m.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Match reports whether status satisfies the matcher.
func (m StatusMatcher) Match(status int) bool {
	switch m.kind {
	case MatchStatusSet:
		return m.inSet(status)
	case MatchPredicate:
		return m.predicate(status)
	case MatchEither:
		return m.predicate(status) || m.inSet(status)
	default:
		return status == http.StatusOK
	}
}

// String describes the expected status for diagnostics.
func (m StatusMatcher) String() string {
	switch m.kind {
	case MatchStatusSet:
		return fmt.Sprint(m.Codes())
	case MatchPredicate:
		return "matching predicate"
	case MatchEither:
		return fmt.Sprintf("%v or matching predicate", m.Codes())
	default:
		return fmt.Sprint(http.StatusOK)
	}
}

func (m StatusMatcher) inSet(status int) bool {
	_, ok := m.codes[status]
	return ok
}
