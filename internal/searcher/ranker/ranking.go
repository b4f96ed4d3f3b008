package ranker

import "container/heap"

// Ranking collects ScorePairs and yields them in ascending Compare order,
// i.e. descending priority. Pairs with equal priority are ordered by the
// optional tie-break function and then by insertion order, so the output is
// deterministic.
type Ranking[T any] struct {
	h       pairHeap[T]
	nextSeq int
}

// NewRanking creates an empty Ranking. tieBreak may be nil.
func NewRanking[T any](tieBreak func(a, b T) int) *Ranking[T] {
	return &Ranking[T]{h: pairHeap[T]{tieBreak: tieBreak}}
}

// Insert adds a pair.
func (r *Ranking[T]) Insert(p ScorePair[T]) {
	heap.Push(&r.h, entry[T]{pair: p, seq: r.nextSeq})
	r.nextSeq++
}

func (r *Ranking[T]) Len() int { return len(r.h.items) }

// Sorted returns every inserted pair, highest priority first. The Ranking
// itself is left unchanged.
func (r *Ranking[T]) Sorted() []ScorePair[T] {
	work := pairHeap[T]{
		items:    make([]entry[T], len(r.h.items)),
		tieBreak: r.h.tieBreak,
	}
	copy(work.items, r.h.items)
	out := make([]ScorePair[T], 0, len(work.items))
	for work.Len() > 0 {
		out = append(out, heap.Pop(&work).(entry[T]).pair)
	}
	return out
}

type entry[T any] struct {
	pair ScorePair[T]
	seq  int
}

type pairHeap[T any] struct {
	items    []entry[T]
	tieBreak func(a, b T) int
}

func (h pairHeap[T]) Len() int { return len(h.items) }

func (h pairHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if c := a.pair.Compare(b.pair); c != 0 {
		return c < 0
	}
	if h.tieBreak != nil {
		if c := h.tieBreak(a.pair.Payload, b.pair.Payload); c != 0 {
			return c < 0
		}
	}
	return a.seq < b.seq
}

func (h pairHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *pairHeap[T]) Push(x interface{}) {
	h.items = append(h.items, x.(entry[T]))
}

func (h *pairHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
