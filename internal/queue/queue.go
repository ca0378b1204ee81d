// Package queue implements the intrusive singly-linked FIFO used for every
// ready/blocked/terminated queue in the kernel. It threads PCBs through
// their own Next field, exactly as the original scheduler's PCBQueue does,
// so a PCB is never copied. A PCB carries no back-pointer to its queue.
package queue

import "github.com/joeycumines/go-ossim/internal/pcb"

// Queue is a FIFO of *pcb.PCB. The zero value is an empty queue, ready to
// use.
type Queue struct {
	head *pcb.PCB
	tail *pcb.PCB
	size int
}

// PushBack appends p to the tail of the queue. The caller must ensure p is
// not already linked into any other queue (spec.md's "enqueued in exactly
// one location" invariant) — PushBack clears p.Next unconditionally, which
// would otherwise silently truncate whatever queue p used to belong to.
func (q *Queue) PushBack(p *pcb.PCB) {
	if p == nil {
		return
	}
	p.Next = nil
	if q.tail == nil {
		q.head = p
		q.tail = p
	} else {
		q.tail.Next = p
		q.tail = p
	}
	q.size++
}

// PopFront removes and returns the head of the queue, or nil if empty.
func (q *Queue) PopFront() *pcb.PCB {
	if q.head == nil {
		return nil
	}
	p := q.head
	q.head = p.Next
	if q.head == nil {
		q.tail = nil
	}
	p.Next = nil
	q.size--
	return p
}

// Empty reports whether the queue has no elements.
func (q *Queue) Empty() bool {
	return q.head == nil
}

// Size returns the number of elements currently queued.
func (q *Queue) Size() int {
	return q.size
}

// Remove does a linear scan for p and unlinks it, reporting whether it was
// found. Used by the mutex/semaphore unblock path, which must pull a
// specific PCB out of the global blocked queue by identity rather than by
// position.
func (q *Queue) Remove(p *pcb.PCB) bool {
	if p == nil {
		return false
	}
	var prev *pcb.PCB
	cur := q.head
	for cur != nil {
		if cur == p {
			if prev != nil {
				prev.Next = cur.Next
			} else {
				q.head = cur.Next
			}
			if q.tail == cur {
				q.tail = prev
			}
			cur.Next = nil
			q.size--
			return true
		}
		prev = cur
		cur = cur.Next
	}
	return false
}

// Each calls fn once per element, head to tail, without removing anything.
func (q *Queue) Each(fn func(*pcb.PCB)) {
	for cur := q.head; cur != nil; cur = cur.Next {
		fn(cur)
	}
}
