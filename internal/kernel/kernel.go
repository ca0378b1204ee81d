// Package kernel implements the scheduling kernel of spec.md §4.6: the
// per-priority ready queues, the blocked/terminated queues, admission,
// preemption, quantum handling, termination and the tick loop that ties
// them together.
//
// Kernel deliberately has no notion of mutexes, semaphores or I/O devices.
// Those live in internal/syncprim and internal/iodev and depend on Kernel
// through narrow interfaces (syncprim.Blocker, and IOReleaser below) — the inverse of
// the original C source's single global_scheduler reachable from every
// other translation unit (spec.md §9, "Global scheduler singleton").
package kernel

import (
	"github.com/joeycumines/go-ossim/internal/heap"
	"github.com/joeycumines/go-ossim/internal/pcb"
	"github.com/joeycumines/go-ossim/internal/queue"
	"github.com/joeycumines/go-ossim/internal/telemetry"
	"github.com/joeycumines/go-ossim/internal/trace"
)

// DefaultQuantum is substituted whenever a positive quantum is required but
// not supplied (spec.md §7: "non-positive quantum ... replaced with
// documented defaults (quantum=2)").
const DefaultQuantum = 2

// IOReleaser is satisfied by the I/O manager. It exists so Kernel can wake
// I/O-blocked processes during its blocked-queue sweep without importing
// internal/iodev; see SetIOReleaser.
type IOReleaser interface {
	Release(p *pcb.PCB)
}

// blockLabel names the reason/queue-label pair spec.md assigns to each
// blocking cause.
type blockLabel struct {
	reason trace.Reason
	queue  trace.Queue
}

var blockLabels = map[pcb.BlockCause]blockLabel{
	pcb.BlockedOnMutex:     {trace.ReasonMutex, trace.QueueBlockedMutex},
	pcb.BlockedOnSemaphore: {trace.ReasonSemaphore, trace.QueueBlockedSem},
	pcb.BlockedOnIO:        {trace.ReasonIO, trace.QueueIO},
}

// Kernel is the single authoritative scheduler instance for one simulation
// run. The zero value is not usable; construct with New.
type Kernel struct {
	policy  Policy
	quantum int

	currentTime int
	current     *pcb.PCB

	ready      [pcb.NumPriorities]queue.Queue
	blocked    queue.Queue
	terminated queue.Queue

	contextSwitches int
	totalCreated    int
	nextPID         int

	heap *heap.Heap
	sink trace.Sink
	log  *telemetry.Logger
	io   IOReleaser
}

// New constructs a Kernel. For policies that use a quantum, a non-positive
// quantum is replaced by DefaultQuantum, with a warning; other policies
// ignore quantum.
func New(policy Policy, quantum int, h *heap.Heap, sink trace.Sink, log *telemetry.Logger) *Kernel {
	if sink == nil {
		sink = trace.NopSink{}
	}
	if policy.UsesQuantum() && quantum <= 0 {
		if log != nil {
			log.Warning().Int(`requested`, quantum).Log(`non-positive quantum, defaulting`)
		}
		quantum = DefaultQuantum
	}
	return &Kernel{
		policy:  policy,
		quantum: quantum,
		heap:    h,
		sink:    sink,
		log:     log,
		nextPID: 1,
	}
}

// SetIOReleaser wires the I/O manager in after construction, breaking the
// Kernel<->IOManager dependency cycle; see the package doc.
func (k *Kernel) SetIOReleaser(io IOReleaser) {
	k.io = io
}

// Now returns the current simulated tick.
func (k *Kernel) Now() int {
	return k.currentTime
}

// Policy returns the configured scheduling policy.
func (k *Kernel) Policy() Policy {
	return k.policy
}

// Current returns the RUNNING PCB, or nil if the CPU is idle.
func (k *Kernel) Current() *pcb.PCB {
	return k.current
}

// NextPID allocates and returns the next monotonically increasing PID.
func (k *Kernel) NextPID() int {
	pid := k.nextPID
	k.nextPID++
	return pid
}

// RegisterCreated records that one more PCB now exists, for IsFinished's
// accounting. Called once per PCB, including those that fail creation with
// CREATE_FAIL_OOM (those go straight to the terminated queue).
func (k *Kernel) RegisterCreated() {
	k.totalCreated++
}

// Stats summarizes run-level counters.
type Stats struct {
	CurrentTime     int
	ContextSwitches int
	TotalCreated    int
	Terminated      int
}

func (k *Kernel) Stats() Stats {
	return Stats{
		CurrentTime:     k.currentTime,
		ContextSwitches: k.contextSwitches,
		TotalCreated:    k.totalCreated,
		Terminated:      k.terminated.Size(),
	}
}

// readyIndex returns which ready queue p belongs in, under the current
// policy.
func (k *Kernel) readyIndex(p *pcb.PCB) int {
	if k.policy == RoundRobin {
		return int(pcb.Medium)
	}
	return int(p.Priority)
}

// AddReady transitions p to READY and enqueues it under the policy's
// indexing rule, emitting a READY trace record. Under PRIORITY/PRIORITY_RR,
// if p outranks the currently RUNNING process, that process is preempted
// back to the tail of its own ready queue (spec.md §4.6).
func (k *Kernel) AddReady(p *pcb.PCB) {
	if p == nil {
		return
	}
	p.State = pcb.Ready
	k.ready[k.readyIndex(p)].PushBack(p)

	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    p.PID,
		Event:  trace.EventStateChange,
		State:  trace.StateReady,
		Reason: trace.ReasonNone,
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueReady,
	})

	if !k.policy.UsesPriority() || k.current == nil {
		return
	}
	cur := k.current
	if p.Priority <= cur.Priority {
		return
	}

	cur.State = pcb.Ready
	k.ready[k.readyIndex(cur)].PushBack(cur)
	k.current = nil

	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    cur.PID,
		Event:  trace.EventPreempted,
		State:  trace.StateReady,
		Reason: trace.ReasonHigherPriority,
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueReady,
	})
	if k.log != nil {
		k.log.Debug().Int(`pid`, cur.PID).Int(`preemptor`, p.PID).Log(`preempted`)
	}
}

// Block transitions p to BLOCKED for the given cause, appending it to the
// blocked queue and emitting a STATE_CHANGE record. Callers (syncprim,
// iodev) are responsible for setting p.Cause and p.BlockedUntil first.
func (k *Kernel) Block(p *pcb.PCB, cause pcb.BlockCause) {
	if p == nil {
		return
	}
	p.State = pcb.Blocked
	k.blocked.PushBack(p)

	lbl := blockLabels[cause]
	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    p.PID,
		Event:  trace.EventStateChange,
		State:  trace.StateBlocked,
		Reason: lbl.reason,
		CPU:    trace.CPUNotRunning,
		Queue:  lbl.queue,
	})

	if k.current == p {
		k.current = nil
	}
}

// RemoveBlocked pulls p out of the global blocked queue by identity,
// reporting whether it was found there. Used by mutex/semaphore wakeups,
// which locate the waiter through their own FIFO, not the blocked queue's
// order.
func (k *Kernel) RemoveBlocked(p *pcb.PCB) bool {
	return k.blocked.Remove(p)
}

// EmitUnblocked records an UNBLOCKED trace event for p, for the given
// reason. Mutex and semaphore wakeups call it after AddReady; Tick's
// blocked-queue sweep calls it just before AddReady.
func (k *Kernel) EmitUnblocked(p *pcb.PCB, reason trace.Reason) {
	if p == nil {
		return
	}
	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    p.PID,
		Event:  trace.EventUnblocked,
		State:  trace.StateReady,
		Reason: reason,
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueReady,
	})
}

// Terminate frees p's memory (its primary reservation plus every incidental
// allocation it made), marks it TERMINATED, appends it to the terminated
// queue and emits a TERMINATED record.
func (k *Kernel) Terminate(p *pcb.PCB) {
	if p == nil {
		return
	}
	if p.MemBaseSet {
		k.heap.Free(heap.Address(p.MemBase), p.PID, k.currentTime)
		p.MemBaseSet = false
	}
	for _, a := range p.Allocations {
		k.heap.Free(heap.Address(a), p.PID, k.currentTime)
	}
	p.Allocations = nil

	p.State = pcb.Terminated
	p.FinishTime = k.currentTime
	k.terminated.PushBack(p)

	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    p.PID,
		Event:  trace.EventTerminated,
		State:  trace.StateTerminated,
		Reason: trace.ReasonNone,
		CPU:    trace.CPUNotRunning,
		Queue:  trace.QueueTerm,
	})

	if k.current == p {
		k.current = nil
	}
	if k.log != nil {
		k.log.Info().Int(`pid`, p.PID).Int(`finish`, p.FinishTime).Log(`terminated`)
	}
}

// RegisterCreateFailed accounts for a PCB that never reached admission
// because its initial memory reservation failed: scenario.Builder has
// already marked it TERMINATED and emitted CREATE_FAIL_OOM in place of
// CREATE, so this only appends it to the terminated queue (no allocation
// to free, and TERMINATED was never emitted for it, unlike Terminate).
func (k *Kernel) RegisterCreateFailed(p *pcb.PCB) {
	if p == nil {
		return
	}
	k.terminated.PushBack(p)
}

// IsFinished reports whether every created process has reached TERMINATED.
func (k *Kernel) IsFinished() bool {
	return k.terminated.Size() == k.totalCreated
}

// PickNext selects and dispatches the next RUNNING process, per policy:
// ROUND_ROBIN always pops the MEDIUM queue; PRIORITY/PRIORITY_RR scan
// HIGH->MEDIUM->LOW and take the first non-empty queue's head. It sets
// start_time on first dispatch, recharges the quantum only when exhausted
// (spec.md's documented "leftover-slice" interpretation — see DESIGN.md),
// and emits a RUNNING record.
func (k *Kernel) PickNext() *pcb.PCB {
	var next *pcb.PCB

	if k.policy == RoundRobin {
		next = k.ready[pcb.Medium].PopFront()
	} else {
		for pr := pcb.High; pr >= pcb.Low; pr-- {
			if q := &k.ready[pr]; !q.Empty() {
				next = q.PopFront()
				break
			}
		}
	}

	if next == nil {
		k.current = nil
		return nil
	}

	next.State = pcb.Running
	if next.StartTime == -1 {
		next.StartTime = k.currentTime
	}
	if k.policy.UsesQuantum() && next.QuantumRemaining <= 0 {
		next.QuantumRemaining = k.quantum
	}

	k.current = next
	k.contextSwitches++

	k.sink.Emit(trace.Record{
		Time:   k.currentTime,
		PID:    next.PID,
		Event:  trace.EventStateChange,
		State:  trace.StateRunning,
		Reason: trace.ReasonNone,
		CPU:    trace.CPURunning,
		Queue:  trace.QueueCPU,
	})

	return next
}

// Tick advances simulated time by one unit. It runs, in order: the
// blocked-queue sweep for expired I/O deadlines, dispatch of a new
// process if the CPU is idle, and the charge of whichever process is now
// current (including one just dispatched this same tick).
//
// This ordering is the one documented in DESIGN.md as reconciling spec.md
// §8's worked scenarios exactly: a process becomes RUNNING and is
// immediately charged for the tick it is dispatched on, and a process
// only becomes eligible to wake once current_time has moved strictly
// past its blocked_until (not merely reached it) — both load-bearing
// for Scenario B/C/D's stated finish ticks and wake ticks.
func (k *Kernel) Tick() {
	k.currentTime++

	n := k.blocked.Size()
	for i := 0; i < n; i++ {
		b := k.blocked.PopFront()
		if b.BlockedUntil != pcb.Infinite && b.BlockedUntil < k.currentTime {
			if b.Cause == pcb.BlockedOnIO && k.io != nil {
				k.io.Release(b)
			}
			reason := blockLabels[b.Cause].reason
			b.Cause = pcb.NotBlocked
			k.EmitUnblocked(b, reason)
			k.AddReady(b)
		} else {
			k.blocked.PushBack(b)
		}
	}

	if k.current == nil {
		k.PickNext()
	}

	if p := k.current; p != nil {
		p.RemainingTime--
		if k.policy.UsesQuantum() {
			p.QuantumRemaining--
		}
		p.LastRunTime = k.currentTime

		switch {
		case p.RemainingTime <= 0:
			k.Terminate(p)
		case k.policy.UsesQuantum() && p.QuantumRemaining <= 0:
			p.State = pcb.Ready
			k.ready[k.readyIndex(p)].PushBack(p)
			k.current = nil
			k.sink.Emit(trace.Record{
				Time:   k.currentTime,
				PID:    p.PID,
				Event:  trace.EventTimeSliceExpired,
				State:  trace.StateReady,
				Reason: trace.ReasonNone,
				CPU:    trace.CPUNotRunning,
				Queue:  trace.QueueReady,
			})
		}
	}
}
