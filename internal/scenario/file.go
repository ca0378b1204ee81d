package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joeycumines/go-ossim/internal/iodev"
	"github.com/joeycumines/go-ossim/internal/pcb"
)

// fileSpec is the on-disk JSON shape for one process, independent of
// ProcessSpec's internal types so the file format stays stable even if
// the in-memory representation changes.
type fileSpec struct {
	Priority string `json:"priority"` // HIGH, MEDIUM or LOW
	Burst    int    `json:"burst"`
	Arrival  int    `json:"arrival"`
	MemSize  int    `json:"mem_size,omitempty"`

	IODevice   string `json:"io_device,omitempty"` // e.g. "DISK"; omitted for no I/O
	IODuration int    `json:"io_duration,omitempty"`
	IOStart    int    `json:"io_start,omitempty"`
}

func parsePriority(s string) (pcb.Priority, error) {
	switch s {
	case "HIGH":
		return pcb.High, nil
	case "MEDIUM", "":
		return pcb.Medium, nil
	case "LOW":
		return pcb.Low, nil
	default:
		return 0, fmt.Errorf("scenario: unrecognized priority %q", s)
	}
}

// LoadFile reads a JSON-encoded process list from path, for scenarios that
// don't fit one of the canned letters in CannedScenarios.
func LoadFile(path string) ([]ProcessSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}

	var raw []fileSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}

	out := make([]ProcessSpec, 0, len(raw))
	for i, r := range raw {
		priority, err := parsePriority(r.Priority)
		if err != nil {
			return nil, fmt.Errorf("scenario: process %d: %w", i, err)
		}

		spec := ProcessSpec{
			Priority: priority,
			Burst:    r.Burst,
			Arrival:  r.Arrival,
			MemSize:  r.MemSize,
		}

		if r.IODevice != "" {
			dev, ok := iodev.ParseDevice(r.IODevice)
			if !ok {
				return nil, fmt.Errorf("scenario: process %d: unrecognized io_device %q", i, r.IODevice)
			}
			spec.IO = IOSpec{
				HasRequest: true,
				Device:     dev,
				Duration:   r.IODuration,
				StartTime:  r.IOStart,
			}
		}

		out = append(out, spec)
	}

	return out, nil
}
