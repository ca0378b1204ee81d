package syncprim

import (
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// Semaphore is a counting semaphore with a FIFO of blocked waiters,
// mirroring semaphore.c's Semaphore/SemWaitNode.
type Semaphore struct {
	value int
	wait  waitQueue
}

// NewSemaphore returns a Semaphore with the given initial count, clamped
// to zero if negative (semaphore_init's "if (initial < 0) initial = 0").
func NewSemaphore(initial int) *Semaphore {
	if initial < 0 {
		initial = 0
	}
	return &Semaphore{value: initial}
}

// Value returns the current count.
func (s *Semaphore) Value() int {
	return s.value
}

// Wait acquires a unit of s for current. If current is nil (anonymous
// mode) and no unit is available, Wait leaves the count at zero and
// returns false without blocking anything — the I/O manager's "treat this
// as a saturated resource counter" case. Otherwise, with no unit
// available, current is blocked (BLOCKED_SEM) and enqueued on s's wait
// queue.
func (s *Semaphore) Wait(b Blocker, current *pcb.PCB) (acquired bool) {
	if s.value > 0 {
		s.value--
		return true
	}
	if current == nil {
		return false
	}
	current.Cause = pcb.BlockedOnSemaphore
	current.BlockedUntil = pcb.Infinite
	b.Block(current, pcb.BlockedOnSemaphore)
	s.wait.push(current)
	return false
}

// Signal releases a unit of s. If a waiter is queued, the unit transfers
// directly to it and it is placed back on the ready queue; otherwise the
// count is simply incremented.
func (s *Semaphore) Signal(b Blocker) {
	next := s.wait.pop()
	if next == nil {
		s.value++
		return
	}

	b.RemoveBlocked(next)
	next.Cause = pcb.NotBlocked
	next.BlockedUntil = -1

	b.AddReady(next)
	b.EmitUnblocked(next, trace.ReasonSemaphore)
}
