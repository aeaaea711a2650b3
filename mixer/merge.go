package mixer

import (
	"container/heap"

	"github.com/poiesic/omnisearch/core"
)

// cursor points at the next unread result of one stream.
type cursor struct {
	stream   int
	pos      int
	rank     float64
	priority int
}

// cursorHeap orders cursors so the next result to emit is on top.
type cursorHeap []cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.rank != b.rank {
		return a.rank > b.rank
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.stream != b.stream {
		return a.stream < b.stream
	}
	return a.pos < b.pos
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) { *h = append(*h, x.(cursor)) }

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// merger is the working state of one mix pass. It is confined to whichever
// goroutine is currently running the pass.
type merger struct {
	streams []Stream
	ceiling int
	heap    cursorHeap
	ranked  core.Results
	more    core.Results
	seen    map[core.ID][]int
	merged  int
}

func newMerger(streams []Stream, ceiling int) *merger {
	m := &merger{
		streams: streams,
		ceiling: ceiling,
		seen:    make(map[core.ID][]int),
	}
	for i, s := range streams {
		if len(s.Results) > 0 {
			m.heap = append(m.heap, m.cursorAt(i, 0))
		}
	}
	heap.Init(&m.heap)
	return m
}

func (m *merger) cursorAt(stream, pos int) cursor {
	rank := -1.0
	if r := m.streams[stream].Results[pos]; r != nil {
		rank = r.EffectiveRank()
	}
	return cursor{
		stream:   stream,
		pos:      pos,
		rank:     rank,
		priority: m.streams[stream].Priority,
	}
}

func (m *merger) done() bool { return len(m.heap) == 0 }

func (m *merger) full() bool {
	return m.ceiling >= 0 && len(m.ranked) >= m.ceiling
}

// step moves one result from the inputs to the output.
func (m *merger) step() {
	top := m.heap[0]
	r := m.streams[top.stream].Results[top.pos]
	if next := top.pos + 1; next < len(m.streams[top.stream].Results) {
		m.heap[0] = m.cursorAt(top.stream, next)
		heap.Fix(&m.heap, 0)
	} else {
		heap.Pop(&m.heap)
	}

	if r == nil {
		return
	}
	if m.full() {
		m.more = append(m.more, r)
		return
	}
	m.add(r)
}

func (m *merger) add(r *core.Result) {
	hash := r.IDHash()
	for _, i := range m.seen[hash] {
		if m.ranked[i].IsDuplicate(r) {
			m.ranked[i] = m.ranked[i].MergeWith(r)
			m.merged++
			return
		}
	}
	m.seen[hash] = append(m.seen[hash], len(m.ranked))
	m.ranked = append(m.ranked, r)
}

func (m *merger) output() *Output {
	return &Output{
		Ranked:     m.ranked,
		ByCategory: m.ranked.ByCategory(),
		More:       m.more,
		Total:      len(m.ranked) + len(m.more),
		Merged:     m.merged,
	}
}
