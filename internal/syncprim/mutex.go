package syncprim

import (
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// Mutex is a binary lock with a FIFO of blocked waiters, mirroring
// mutex.c's Mutex/MutexWaitNode.
type Mutex struct {
	locked bool
	owner  *pcb.PCB
	wait   waitQueue
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	return m.locked
}

// Owner returns the current holder, or nil if unlocked or held
// anonymously.
func (m *Mutex) Owner() *pcb.PCB {
	return m.owner
}

// Lock acquires m for current. If current is nil (anonymous mode), Lock
// never blocks: it takes the lock if free and otherwise leaves it held by
// whoever already has it, reporting false. Otherwise, if m is already
// locked, current is blocked (BLOCKED_MUTEX) and enqueued on m's wait
// queue; Lock returns false and the caller must not proceed until woken.
func (m *Mutex) Lock(b Blocker, current *pcb.PCB) (acquired bool) {
	if !m.locked {
		m.locked = true
		m.owner = current
		// current.Cause is intentionally left untouched here: it records why
		// a BLOCKED process is blocked, and current isn't blocked on this
		// path (see DESIGN.md's Mutex section).
		return true
	}
	if current == nil {
		return false
	}
	current.Cause = pcb.BlockedOnMutex
	current.BlockedUntil = pcb.Infinite
	b.Block(current, pcb.BlockedOnMutex)
	m.wait.push(current)
	return false
}

// Unlock releases m. Only the recorded owner may unlock it; any other
// caller (a caller that never held it, or a nil caller while a PCB holds
// it) is a no-op, matching mutex_unlock's owner check. A nil caller
// releases a mutex that was taken anonymously. If a waiter is queued, ownership
// transfers directly to it and it is placed back on the ready queue
// without ever observing the mutex as unlocked.
func (m *Mutex) Unlock(b Blocker, current *pcb.PCB) {
	if m.owner != current {
		return
	}

	next := m.wait.pop()
	if next == nil {
		m.locked = false
		m.owner = nil
		return
	}

	b.RemoveBlocked(next)
	next.Cause = pcb.NotBlocked
	next.BlockedUntil = -1
	m.owner = next

	b.AddReady(next)
	b.EmitUnblocked(next, trace.ReasonMutex)
}
