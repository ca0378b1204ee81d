// Package syncprim implements the mutex and counting semaphore primitives
// of spec.md §4.3/§4.4, grounded on Nestro503/miniOS's src/sync/mutex.c and
// src/sync/semaphore.c.
//
// Both primitives support an "anonymous" mode: a nil caller reserves or
// releases a unit of the resource without any PCB to block, the mode the
// I/O manager uses to treat a device's mutex/semaphore purely as a
// capacity counter (io.c's `semaphore_wait(&io_device_sems[dev], NULL)`).
// The original only wires this through semaphore_wait; this port extends
// the same nil-caller convention to Mutex so the I/O manager can model its
// capacity-1 devices (PRINTER, SCREEN) with either primitive uniformly —
// see DESIGN.md.
package syncprim

import (
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// Blocker is the slice of *kernel.Kernel that syncprim needs: enough to
// block the calling process and to wake a waiter back to READY.
type Blocker interface {
	Block(p *pcb.PCB, cause pcb.BlockCause)
	AddReady(p *pcb.PCB)
	RemoveBlocked(p *pcb.PCB) bool
	EmitUnblocked(p *pcb.PCB, reason trace.Reason)
	Now() int
}

// waitQueue is a plain FIFO of waiters. It cannot reuse pcb.PCB.Next (the
// intrusive link belongs exclusively to whichever queue.Queue currently
// holds the blocked PCB), so a waiting process is simultaneously linked
// into the kernel's blocked queue via Next and into this slice by pointer.
type waitQueue []*pcb.PCB

func (q *waitQueue) push(p *pcb.PCB) {
	*q = append(*q, p)
}

func (q *waitQueue) pop() *pcb.PCB {
	if len(*q) == 0 {
		return nil
	}
	p := (*q)[0]
	*q = (*q)[1:]
	return p
}
