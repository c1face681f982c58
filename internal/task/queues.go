package task

import "github.com/Rob9999/ethos-ai-clim/internal/state"

// Queues holds one FIFO per priority tier.
// Not safe for concurrent use; the scheduler's lock guards it.
type Queues struct {
	tiers map[state.Priority][]*Task
}

// NewQueues returns empty queues.
func NewQueues() *Queues {
	return &Queues{tiers: make(map[state.Priority][]*Task)}
}

// Push appends t to its tier.
func (q *Queues) Push(t *Task) {
	q.tiers[t.Priority] = append(q.tiers[t.Priority], t)
}

// PushFront puts tasks back at the head of tier p, keeping their order.
func (q *Queues) PushFront(p state.Priority, tasks ...*Task) {
	if len(tasks) == 0 {
		return
	}
	head := make([]*Task, 0, len(tasks)+len(q.tiers[p]))
	head = append(head, tasks...)
	q.tiers[p] = append(head, q.tiers[p]...)
}

// Drain removes and returns every task of tier p in order.
func (q *Queues) Drain(p state.Priority) []*Task {
	tasks := q.tiers[p]
	delete(q.tiers, p)
	return tasks
}

// Len returns the number of tasks in tier p.
func (q *Queues) Len(p state.Priority) int {
	return len(q.tiers[p])
}

// Total returns the number of queued tasks across all tiers.
func (q *Queues) Total() int {
	n := 0
	for _, tasks := range q.tiers {
		n += len(tasks)
	}
	return n
}

// Snapshot returns the queue lengths keyed by priority name.
func (q *Queues) Snapshot() map[string]int {
	out := make(map[string]int, len(q.tiers))
	for p, tasks := range q.tiers {
		if len(tasks) > 0 {
			out[p.String()] = len(tasks)
		}
	}
	return out
}
