// Package pending holds the timers of attempts that have been scheduled but
// not yet launched.
package pending

import (
	"slices"
	"time"
)

type entry struct {
	seq   int
	timer *time.Timer
}

// Queue is an ordered set of armed timers keyed by attempt sequence number.
//
// A Queue is not safe for concurrent use. The fire callbacks passed to Arm run
// on their own goroutines and must not touch the Queue; they are expected to
// hand the sequence number back to the owner, which then calls Remove to learn
// whether the timer is still live.
type Queue struct {
	entries []entry
}

func New() *Queue {
	return &Queue{}
}

// Arm schedules fire(seq) after d. Arming a sequence number that is already
// pending replaces its timer.
func (q *Queue) Arm(seq int, d time.Duration, fire func(int)) {
	q.Remove(seq)
	t := time.AfterFunc(d, func() { fire(seq) })
	i, _ := slices.BinarySearchFunc(q.entries, seq, cmpSeq)
	q.entries = slices.Insert(q.entries, i, entry{seq: seq, timer: t})
}

// Remove stops and forgets the timer for seq. It reports whether seq was
// pending, so a timer event for a cancelled entry can be recognised as stale.
func (q *Queue) Remove(seq int) bool {
	i, ok := slices.BinarySearchFunc(q.entries, seq, cmpSeq)
	if !ok {
		return false
	}
	q.entries[i].timer.Stop()
	q.entries = slices.Delete(q.entries, i, i+1)
	return true
}

// Pop removes the lowest pending sequence number and stops its timer.
func (q *Queue) Pop() (int, bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	head := q.entries[0]
	head.timer.Stop()
	q.entries = slices.Delete(q.entries, 0, 1)
	return head.seq, true
}

// Stop cancels every pending timer and returns how many there were.
func (q *Queue) Stop() int {
	n := len(q.entries)
	for _, e := range q.entries {
		e.timer.Stop()
	}
	q.entries = q.entries[:0]
	return n
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Seqs returns the pending sequence numbers in firing order.
func (q *Queue) Seqs() []int {
	out := make([]int, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.seq
	}
	return out
}

func cmpSeq(e entry, seq int) int {
	return e.seq - seq
}
