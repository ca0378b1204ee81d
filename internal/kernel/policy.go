package kernel

import "fmt"

// Policy selects how the ready queues are indexed and whether a quantum
// applies.
type Policy int

const (
	RoundRobin Policy = iota
	Priority
	PriorityRR
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "ROUND_ROBIN"
	case Priority:
		return "PRIORITY"
	case PriorityRR:
		return "PRIORITY_RR"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// UsesQuantum reports whether the policy preempts on quantum expiry.
func (p Policy) UsesQuantum() bool {
	return p == RoundRobin || p == PriorityRR
}

// UsesPriority reports whether the policy dispatches HIGH before MEDIUM
// before LOW, rather than funnelling everything through the MEDIUM queue.
func (p Policy) UsesPriority() bool {
	return p == Priority || p == PriorityRR
}
