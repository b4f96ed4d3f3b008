// Package ranker orders arbitrary payloads by a floating-point score,
// highest score first.
package ranker

import "cmp"

// ScorePair binds a priority to a payload. Its ordering is the reverse of
// numeric priority order, so an ascending container of pairs yields the
// highest priority first. Payloads never take part in Compare.
type ScorePair[T any] struct {
	Priority float64
	Payload  T
}

// NewScorePair returns a pair for payload with the given priority.
func NewScorePair[T any](priority float64, payload T) ScorePair[T] {
	return ScorePair[T]{Priority: priority, Payload: payload}
}

// Compare returns -1 when p ranks before o (higher priority), +1 when it
// ranks after, and 0 for equal priorities. NaN ranks after every number and
// equal to another NaN.
func (p ScorePair[T]) Compare(o ScorePair[T]) int {
	return cmp.Compare(o.Priority, p.Priority)
}

// Less reports whether p ranks strictly before o.
func (p ScorePair[T]) Less(o ScorePair[T]) bool {
	return p.Compare(o) < 0
}
