package schedule

import (
	"container/heap"
)

// Prioritized pairs a tick source with its target's priority.
// Lower priority values are emitted first on equal dates.
type Prioritized struct {
	Source   Source
	Priority int
}

type pending struct {
	tick     Tick
	priority int
	index    int
}

type tickHeap []pending

func (h tickHeap) Len() int { return len(h) }

func (h tickHeap) Less(i, j int) bool {
	if c := h[i].tick.Date.Compare(h[j].tick.Date); c != 0 {
		return c < 0
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].index < h[j].index
}

func (h tickHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *tickHeap) Push(x any) { *h = append(*h, x.(pending)) }

func (h *tickHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merger is a k-way merge of tick sources ordered by date, then priority,
// then source order. It buffers one tick per source.
type Merger struct {
	sources []Prioritized
	heap    tickHeap
}

// Merge pulls the first tick from every source. Sources that are already
// exhausted are dropped.
func Merge(sources ...Prioritized) *Merger {
	m := &Merger{sources: sources, heap: make(tickHeap, 0, len(sources))}
	for i, s := range sources {
		if t, ok := s.Source.Next(); ok {
			m.heap = append(m.heap, pending{tick: t, priority: s.Priority, index: i})
		}
	}
	heap.Init(&m.heap)
	return m
}

// Next emits the smallest buffered tick and refills only its source.
func (m *Merger) Next() (Tick, bool) {
	if m.heap.Len() == 0 {
		return Tick{}, false
	}
	top := m.heap[0]
	if t, ok := m.sources[top.index].Source.Next(); ok {
		m.heap[0].tick = t
		heap.Fix(&m.heap, 0)
	} else {
		heap.Pop(&m.heap)
	}
	return top.tick, true
}

// Combined merges the generators of every target, in registry order.
func Combined(targets Targets) (*Merger, error) {
	sources := make([]Prioritized, 0, targets.Len())
	for _, t := range targets.All() {
		g, err := t.Generator()
		if err != nil {
			return nil, err
		}
		sources = append(sources, Prioritized{Source: g, Priority: t.Priority})
	}
	return Merge(sources...), nil
}
