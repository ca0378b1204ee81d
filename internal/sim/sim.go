// Package sim wires the kernel, heap, I/O manager, event trace and
// scenario builder together and drives them tick-by-tick, exactly as
// spec.md §6 describes the external driver loop: admission, then optional
// I/O issuance from the RUNNING process, then Kernel.Tick.
package sim

import (
	"github.com/joeycumines/go-ossim/internal/config"
	"github.com/joeycumines/go-ossim/internal/heap"
	"github.com/joeycumines/go-ossim/internal/iodev"
	"github.com/joeycumines/go-ossim/internal/kernel"
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/scenario"
	"github.com/joeycumines/go-ossim/internal/telemetry"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// Simulation owns every moving part of one run.
type Simulation struct {
	Kernel  *kernel.Kernel
	Heap    *heap.Heap
	IO      *iodev.Manager
	Sink    trace.Sink
	Builder *scenario.Builder
	log     *telemetry.Logger

	pending []*pcb.PCB // NEW processes awaiting admission, in spec order
}

// New constructs a Simulation from c, writing trace records to sink (may
// be trace.NopSink{}) and logging to log (may be nil).
func New(c config.Config, sink trace.Sink, log *telemetry.Logger) *Simulation {
	if sink == nil {
		sink = trace.NopSink{}
	}
	h := heap.New(c.HeapSize, sink)
	k := kernel.New(c.Policy, c.Quantum, h, sink, log)
	io := iodev.NewManager(k, sink)
	k.SetIOReleaser(io)

	return &Simulation{
		Kernel:  k,
		Heap:    h,
		IO:      io,
		Sink:    sink,
		Builder: scenario.NewBuilder(k, h, sink),
		log:     log,
	}
}

// Admit builds a PCB for every spec and queues it for time-gated
// admission; specs may arrive at any tick (Arrival is evaluated lazily in
// Run/Step, not at Admit time).
func (s *Simulation) Admit(specs []scenario.ProcessSpec) {
	for _, sp := range specs {
		p := s.Builder.Build(sp, s.Kernel.Now())
		if p.State == pcb.Terminated {
			continue // CREATE_FAIL_OOM: never participates in scheduling
		}
		s.pending = append(s.pending, p)
	}
}

// Step runs one iteration of the driver loop: admits arrived processes,
// issues any due I/O request from the RUNNING process, then ticks the
// kernel once.
func (s *Simulation) Step() {
	now := s.Kernel.Now()

	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.ArrivalTime <= now {
			s.Kernel.AddReady(p)
		} else {
			kept = append(kept, p)
		}
	}
	s.pending = kept

	if cur := s.Kernel.Current(); cur != nil &&
		cur.IODevice != pcb.NoDevice &&
		cur.IODuration > 0 &&
		!cur.WaitingForIO &&
		now >= cur.IOStartTime {
		s.IO.Request(cur, iodev.Device(cur.IODevice), cur.IODuration, now)
	}

	s.Kernel.Tick()
}

// Run admits specs and steps until every created process has terminated,
// returning the number of ticks executed. maxTicks bounds a runaway
// simulation (e.g. a misconfigured scenario with an unreachable I/O
// device); 0 means unbounded.
func (s *Simulation) Run(specs []scenario.ProcessSpec, maxTicks int) int {
	s.Admit(specs)

	ticks := 0
	for !s.Kernel.IsFinished() {
		s.Step()
		ticks++
		if maxTicks > 0 && ticks >= maxTicks {
			break
		}
	}
	return ticks
}

// Report summarizes a finished (or in-progress) run.
type Report struct {
	Stats      kernel.Stats
	Devices    []iodev.Snapshot
	HeapBlocks []heap.BlockInfo
	FreeBytes  int
}

// Report snapshots the current state for end-of-run output.
func (s *Simulation) Report() Report {
	return Report{
		Stats:      s.Kernel.Stats(),
		Devices:    s.IO.Snapshot(),
		HeapBlocks: s.Heap.Dump(),
		FreeBytes:  s.Heap.FreeBytes(),
	}
}
