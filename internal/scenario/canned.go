package scenario

import (
	"github.com/joeycumines/go-ossim/internal/iodev"
	"github.com/joeycumines/go-ossim/internal/kernel"
	"github.com/joeycumines/go-ossim/internal/pcb"
)

// Canned is one of the named end-to-end scenarios of spec.md §8, paired
// with the policy and quantum it was authored against.
type Canned struct {
	Name    string
	Policy  kernel.Policy
	Quantum int
	Procs   []ProcessSpec
}

// CannedScenarios indexes every scenario from spec.md §8 by its letter.
// Scenario F (heap behavior) is exercised directly against internal/heap
// in its own test and has no process list here.
var CannedScenarios = map[string]Canned{
	"A": {
		Name:    "round_robin_basic",
		Policy:  kernel.RoundRobin,
		Quantum: 2,
		Procs: []ProcessSpec{
			{Priority: pcb.Medium, Burst: 5, Arrival: 0},
			{Priority: pcb.Medium, Burst: 3, Arrival: 2},
			{Priority: pcb.Medium, Burst: 4, Arrival: 4},
		},
	},
	"B": {
		Name:    "priority_no_preemption",
		Policy:  kernel.Priority,
		Quantum: 0,
		Procs: []ProcessSpec{
			{Priority: pcb.High, Burst: 5, Arrival: 0},
			{Priority: pcb.Medium, Burst: 3, Arrival: 2},
			{Priority: pcb.Low, Burst: 4, Arrival: 4},
		},
	},
	"C": {
		Name:    "priority_preemption",
		Policy:  kernel.Priority,
		Quantum: 0,
		Procs: []ProcessSpec{
			{Priority: pcb.Low, Burst: 5, Arrival: 0},
			{Priority: pcb.High, Burst: 2, Arrival: 2},
		},
	},
	"D": {
		Name:    "io_block_wake",
		Policy:  kernel.Priority,
		Quantum: 0,
		Procs: []ProcessSpec{
			{
				Priority: pcb.Medium, Burst: 4, Arrival: 0,
				IO: IOSpec{HasRequest: true, Device: iodev.Disk, Duration: 3, StartTime: 2},
			},
		},
	},
	"E": {
		Name:    "mutex_contention",
		Policy:  kernel.Priority,
		Quantum: 0,
		Procs: []ProcessSpec{
			{Priority: pcb.Medium, Burst: 4, Arrival: 0},
			{Priority: pcb.Medium, Burst: 4, Arrival: 0},
		},
	},
}
