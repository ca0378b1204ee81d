// Command ossim runs one discrete-event single-CPU scheduler simulation
// and writes its event trace to disk, per spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-ossim/internal/config"
	"github.com/joeycumines/go-ossim/internal/scenario"
	"github.com/joeycumines/go-ossim/internal/sim"
	"github.com/joeycumines/go-ossim/internal/telemetry"
	"github.com/joeycumines/go-ossim/internal/trace"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	c := config.FromFlags(args, stderr)

	log := telemetry.New(stderr, c.LogLevel)
	config.Validate(&c, log)

	procs, err := loadProcs(c.Scenario)
	if err != nil {
		log.Err().Err(err).Log(`failed to load scenario`)
		return 1
	}

	sink, err := trace.NewCSVSink(c.TracePath)
	if err != nil {
		log.Err().Err(err).Str(`path`, c.TracePath).Log(`failed to open trace file`)
		return 1
	}
	defer sink.Close()

	s := sim.New(c, sink, log)
	ticks := s.Run(procs, 0)

	report := s.Report()
	fmt.Fprintf(stdout, "policy=%s quantum=%d ticks=%d\n", c.Policy, c.Quantum, ticks)
	fmt.Fprintf(stdout, "context_switches=%d created=%d terminated=%d\n",
		report.Stats.ContextSwitches, report.Stats.TotalCreated, report.Stats.Terminated)
	fmt.Fprintf(stdout, "heap_free_bytes=%d\n", report.FreeBytes)
	for _, d := range report.Devices {
		fmt.Fprintf(stdout, "device=%s capacity=%d in_use=%d\n", d.Device, d.Capacity, d.InUse)
	}

	return 0
}

// loadProcs resolves scenario into a process list: either one of the
// canned letters A-E, or a path to a JSON scenario file.
func loadProcs(scenarioArg string) ([]scenario.ProcessSpec, error) {
	if c, ok := scenario.CannedScenarios[scenarioArg]; ok {
		return c.Procs, nil
	}
	return scenario.LoadFile(scenarioArg)
}
