// Package config defines the simulator's run configuration and the
// error-handling taxonomy of spec.md §7: configuration problems are never
// fatal, they are logged and replaced with documented defaults.
package config

import (
	"flag"
	"io"
	"strconv"

	"github.com/joeycumines/go-ossim/internal/kernel"
	"github.com/joeycumines/go-ossim/internal/telemetry"
	"github.com/joeycumines/logiface"
)

// Defaults, per spec.md §6/§7.
const (
	DefaultQuantum   = kernel.DefaultQuantum
	DefaultHeapSize  = 64 * 1024 * 1024
	DefaultMaxProcs  = 32
	DefaultTracePath = "trace.csv"
	DefaultScenario  = "A"
)

// DefaultLogLevel is the level new loggers start at absent -verbose.
var DefaultLogLevel = logiface.LevelInformational

// Config is the fully-resolved configuration for one simulation run.
type Config struct {
	Policy       kernel.Policy
	Quantum      int
	HeapSize     int
	MaxProcesses int
	TracePath    string
	LogLevel     logiface.Level
	Scenario     string // canned scenario letter, or a path to a JSON scenario file
}

// Default returns the documented-default configuration.
func Default() Config {
	return Config{
		Policy:       kernel.RoundRobin,
		Quantum:      DefaultQuantum,
		HeapSize:     DefaultHeapSize,
		MaxProcesses: DefaultMaxProcs,
		TracePath:    DefaultTracePath,
		LogLevel:     DefaultLogLevel,
		Scenario:     DefaultScenario,
	}
}

// Validate normalizes c in place, replacing any invalid field with its
// documented default and reporting each fallback at Warning level. log may
// be nil, in which case fallbacks are silent. Validate never returns an
// error: per spec.md §7, configuration problems are reported, not fatal.
func Validate(c *Config, log *telemetry.Logger) {
	warn := func(field, fallback string) {
		if log == nil {
			return
		}
		log.Warning().
			Str(`field`, field).
			Str(`fallback`, fallback).
			Log(`invalid configuration, using documented default`)
	}

	if c.Policy < kernel.RoundRobin || c.Policy > kernel.PriorityRR {
		warn(`policy`, kernel.RoundRobin.String())
		c.Policy = kernel.RoundRobin
	}
	if c.Policy.UsesQuantum() && c.Quantum <= 0 {
		warn(`quantum`, strconv.Itoa(DefaultQuantum))
		c.Quantum = DefaultQuantum
	}
	if c.HeapSize <= 0 {
		warn(`heap_size`, strconv.Itoa(DefaultHeapSize))
		c.HeapSize = DefaultHeapSize
	}
	if c.MaxProcesses <= 0 {
		warn(`max_processes`, strconv.Itoa(DefaultMaxProcs))
		c.MaxProcesses = DefaultMaxProcs
	}
	if c.TracePath == "" {
		warn(`trace_path`, DefaultTracePath)
		c.TracePath = DefaultTracePath
	}
	if c.Scenario == "" {
		warn(`scenario`, DefaultScenario)
		c.Scenario = DefaultScenario
	}
}

// FromFlags parses args (typically os.Args[1:]) into a Config, starting
// from Default. Parse errors fall back to Default entirely; flag already
// prints its own diagnostics to stderr.
func FromFlags(args []string, stderr io.Writer) Config {
	c := Default()

	fs := flag.NewFlagSet("ossim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	policy := fs.String("policy", c.Policy.String(), "ROUND_ROBIN, PRIORITY or PRIORITY_RR")
	quantum := fs.Int("quantum", c.Quantum, "time quantum for ROUND_ROBIN/PRIORITY_RR")
	heapSize := fs.Int("heap-size", c.HeapSize, "simulated heap size in bytes")
	maxProcs := fs.Int("max-processes", c.MaxProcesses, "maximum processes per run (validated; the simulation does not enforce it)")
	tracePath := fs.String("trace", c.TracePath, "path to write the CSV event trace")
	scenario := fs.String("scenario", c.Scenario, "canned scenario letter (A-E) or a JSON scenario file path")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")

	if err := fs.Parse(args); err != nil {
		return c
	}

	switch *policy {
	case "ROUND_ROBIN":
		c.Policy = kernel.RoundRobin
	case "PRIORITY":
		c.Policy = kernel.Priority
	case "PRIORITY_RR":
		c.Policy = kernel.PriorityRR
	default:
		c.Policy = kernel.RoundRobin
	}
	c.Quantum = *quantum
	c.HeapSize = *heapSize
	c.MaxProcesses = *maxProcs
	c.TracePath = *tracePath
	c.Scenario = *scenario
	if *verbose {
		c.LogLevel = logiface.LevelDebug
	}

	return c
}
