// Package heap implements the simulated byte-arena allocator described in
// spec.md §4.1: a fixed-size arena, a linked free-list of block headers,
// first-fit allocation with split, and coalesce-on-free. It is a plain
// bookkeeping structure — the "bytes" are never actually addressed, only
// accounted for — so blocks are tracked as a slice of header records rather
// than literal offsets into a `[64 << 20]byte` array, which would otherwise
// just sit there unused.
package heap

import (
	"errors"
	"strconv"

	"github.com/joeycumines/go-ossim/internal/trace"
)

// DefaultSize is the compile-time arena size from spec.md §6: 64 MiB.
const DefaultSize = 64 * 1024 * 1024

// headerSize is the simulated per-block bookkeeping overhead charged against
// the arena, matching the original's `sizeof(block_t)`: two ints plus a
// pointer. It only matters for the split/coalesce accounting below.
const headerSize = 24

// minSplitRemainder is the smallest residual a split may leave behind
// (spec.md: "leave a residual free block only if it can hold at least
// sizeof(header) + 8 bytes").
const minSplitRemainder = headerSize + 8

// Address identifies an allocated block. It has no relation to real memory;
// it is an opaque handle returned by Alloc and consumed by Free.
type Address int

// ErrOOM is returned by Alloc when no free block is large enough.
var ErrOOM = errors.New("heap: out of memory")

type block struct {
	addr Address
	size int
	free bool
}

// Heap is the simulated arena. The zero value is not usable; construct with
// New.
type Heap struct {
	size   int
	blocks []*block // ordered by address, contiguous coverage of the arena
	sink   trace.Sink
}

// New creates a Heap of the given size (use DefaultSize in production) as a
// single free block, and wires it to sink for MEMORY trace records.
func New(size int, sink trace.Sink) *Heap {
	if sink == nil {
		sink = trace.NopSink{}
	}
	h := &Heap{size: size, sink: sink}
	h.blocks = []*block{{addr: 0, size: size, free: true}}
	return h
}

// Size returns the total arena size.
func (h *Heap) Size() int {
	return h.size
}

// align rounds size up to an 8-byte boundary, per spec.md's "8-byte size
// alignment".
func align(size int) int {
	const a = 8
	return (size + a - 1) &^ (a - 1)
}

// Alloc reserves size bytes using first-fit, splitting the chosen block when
// the remainder is large enough to be useful on its own. owner is the PID of
// the currently RUNNING process, or -1 if none (the "system"); it is only
// used to tag the emitted MEMORY record. now is the current simulated tick.
//
// Alloc returns ErrOOM if no free block is large enough; it never panics and
// never grows the arena.
func (h *Heap) Alloc(size int, owner int, now int) (Address, error) {
	if size <= 0 {
		return 0, ErrOOM
	}
	size = align(size)

	for i, b := range h.blocks {
		if !b.free || b.size < size {
			continue
		}

		if b.size >= size+minSplitRemainder {
			residual := &block{
				addr: b.addr + Address(size) + headerSize,
				size: b.size - size - headerSize,
				free: true,
			}
			b.size = size
			h.blocks = append(h.blocks, nil)
			copy(h.blocks[i+2:], h.blocks[i+1:])
			h.blocks[i+1] = residual
		}

		b.free = false

		h.sink.Emit(trace.Record{
			Time:   now,
			PID:    owner,
			Event:  trace.EventMemory,
			Reason: trace.Reason(strconv.Itoa(b.size)),
			CPU:    trace.CPUNotRunning,
			Queue:  trace.QueueMem,
		})

		return b.addr, nil
	}

	return 0, ErrOOM
}

// Free releases the block at addr. Invalid addresses (unknown, or already
// free) are silently ignored per spec.md §7 — "double free, free of foreign
// pointer: silently ignored; never aborts".
func (h *Heap) Free(addr Address, owner int, now int) {
	idx := -1
	for i, b := range h.blocks {
		if b.addr == addr {
			idx = i
			break
		}
	}
	if idx < 0 || h.blocks[idx].free {
		return
	}

	b := h.blocks[idx]
	b.free = true

	h.sink.Emit(trace.Record{
		Time:   now,
		PID:    owner,
		Event:  trace.EventMemory,
		Reason: trace.Reason(strconv.Itoa(b.size)),
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueMem,
	})

	// Coalesce with the successor first, then the predecessor, matching the
	// order spec.md documents.
	if idx+1 < len(h.blocks) && h.blocks[idx+1].free {
		next := h.blocks[idx+1]
		b.size += headerSize + next.size
		h.blocks = append(h.blocks[:idx+1], h.blocks[idx+2:]...)
	}
	if idx > 0 && h.blocks[idx-1].free {
		prev := h.blocks[idx-1]
		prev.size += headerSize + b.size
		h.blocks = append(h.blocks[:idx], h.blocks[idx+1:]...)
	}
}

// BlockInfo is one entry of a heap dump.
type BlockInfo struct {
	Addr  Address
	Size  int
	Free  bool
	Owner int // only meaningful when Free is false and an owner was found
	Known bool
}

// Dump returns the free-list in address order, without owner information.
func (h *Heap) Dump() []BlockInfo {
	out := make([]BlockInfo, 0, len(h.blocks))
	for _, b := range h.blocks {
		out = append(out, BlockInfo{Addr: b.addr, Size: b.size, Free: b.free})
	}
	return out
}

// DumpAnnotated is Dump, with owner resolved via lookup for every used
// block (mirrors the original's memory_dump_with_processes, which scans the
// live process list for whoever holds mem_base == this address).
func (h *Heap) DumpAnnotated(lookup func(Address) (pid int, ok bool)) []BlockInfo {
	out := h.Dump()
	for i := range out {
		if out[i].Free {
			continue
		}
		if pid, ok := lookup(out[i].Addr); ok {
			out[i].Owner = pid
			out[i].Known = true
		}
	}
	return out
}

// FreeBytes sums the size of every free block, for invariant checks (§8:
// "the free-list ... covers the arena exactly").
func (h *Heap) FreeBytes() int {
	total := 0
	for _, b := range h.blocks {
		if b.free {
			total += b.size
		}
	}
	return total
}

