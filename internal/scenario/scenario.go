// Package scenario builds NEW PCBs from a declarative process list — the
// typed counterpart of scenario.c's scenario_build_interactive, with the
// interactive scanf prompting (out of scope per spec.md) replaced by a
// plain in-memory spec list that can come from a JSON file or one of the
// canned end-to-end scenarios A-E (spec.md §8).
package scenario

import (
	"github.com/joeycumines/go-ossim/internal/heap"
	"github.com/joeycumines/go-ossim/internal/iodev"
	"github.com/joeycumines/go-ossim/internal/kernel"
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// ProcessSpec is one process's declarative description, independent of
// PID assignment (performed by Builder.Build).
type ProcessSpec struct {
	Priority pcb.Priority
	Burst    int
	Arrival  int
	MemSize  int // bytes reserved on the heap; 0 for none

	// IO is the zero value when the process performs no blocking I/O.
	IO IOSpec
}

// IOSpec describes a single blocking I/O operation a process issues once,
// at StartTime (clamped up to Arrival by Build).
type IOSpec struct {
	Device      iodev.Device
	Duration    int
	StartTime   int
	HasRequest  bool
}

// Builder constructs PCBs from ProcessSpecs against a Kernel (for PID
// allocation and creation bookkeeping) and a Heap (for the primary memory
// reservation).
type Builder struct {
	Kernel *kernel.Kernel
	Heap   *heap.Heap
	Sink   trace.Sink
}

// NewBuilder constructs a Builder. sink may be nil, in which case CREATE
// records are discarded.
func NewBuilder(k *kernel.Kernel, h *heap.Heap, sink trace.Sink) *Builder {
	if sink == nil {
		sink = trace.NopSink{}
	}
	return &Builder{Kernel: k, Heap: h, Sink: sink}
}

// Build constructs one NEW PCB from spec. Under ROUND_ROBIN, any declared
// priority is coerced to MEDIUM (spec.md §6: "When policy is ROUND_ROBIN,
// any user-specified priority is coerced to MEDIUM"). The I/O start tick
// is clamped up to the arrival time.
//
// If spec.MemSize is positive and the heap has no block large enough, the
// returned PCB is TERMINATED on the spot with a CREATE_FAIL_OOM record
// instead of CREATE/NEW (spec.md §7) and registered directly into the
// kernel's terminated queue (Kernel.RegisterCreateFailed), so
// Kernel.IsFinished accounts for it without it ever being handed to
// admission.
func (b *Builder) Build(spec ProcessSpec, now int) *pcb.PCB {
	priority := spec.Priority
	if b.Kernel.Policy() == kernel.RoundRobin {
		priority = pcb.Medium
	}

	p := pcb.NewPCB(b.Kernel.NextPID(), priority, spec.Arrival, spec.Burst)
	b.Kernel.RegisterCreated()

	if spec.IO.HasRequest {
		p.IODevice = int(spec.IO.Device)
		p.IODuration = spec.IO.Duration
		p.IOStartTime = max(spec.IO.StartTime, spec.Arrival)
	}

	if spec.MemSize > 0 {
		addr, err := b.Heap.Alloc(spec.MemSize, p.PID, now)
		if err != nil {
			p.State = pcb.Terminated
			p.FinishTime = now
			b.Sink.Emit(trace.Record{
				Time:   now,
				PID:    p.PID,
				Event:  trace.EventCreateFailOOM,
				State:  trace.StateTerminated,
				Reason: trace.ReasonNone,
				CPU:    trace.CPUNotRunning,
				Queue:  trace.QueueNone,
			})
			b.Kernel.RegisterCreateFailed(p)
			return p
		}
		p.MemBase = int(addr)
		p.MemBaseSet = true
		p.MemSize = spec.MemSize
	}

	b.Sink.Emit(trace.Record{
		Time:   now,
		PID:    p.PID,
		Event:  trace.EventCreate,
		State:  trace.StateNew,
		Reason: trace.ReasonNone,
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueNew,
	})

	return p
}
