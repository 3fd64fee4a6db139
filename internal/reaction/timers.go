package reaction

import "container/heap"

// timerAction is what a timer does when it fires
type timerAction uint8

const (
	actionLookEnd timerAction = iota + 1
	actionFleeEnd
)

// timer is a deferred transition for one entity. It carries a handle and a
// session generation rather than the entity itself, so a timer that outlives
// its entity or session fires as a no-op.
type timer struct {
	due        uint64
	seq        uint64
	target     handle
	action     timerAction
	sessionGen uint32
}

// timerQueue is a min-heap ordered by due tick, then insertion order
type timerQueue []timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(timer)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	*q = old[:n-1]
	return t
}

type scheduler struct {
	queue timerQueue
	seq   uint64
}

func (s *scheduler) schedule(t timer) {
	s.seq++
	t.seq = s.seq
	heap.Push(&s.queue, t)
}

// due pops every timer due at or before tick, in order
func (s *scheduler) due(tick uint64) []timer {
	var out []timer
	for len(s.queue) > 0 && s.queue[0].due <= tick {
		out = append(out, heap.Pop(&s.queue).(timer))
	}
	return out
}

func (s *scheduler) len() int {
	return len(s.queue)
}
