package config_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-ossim/internal/config"
	"github.com/joeycumines/go-ossim/internal/kernel"
	"github.com/joeycumines/go-ossim/internal/telemetry"
	"github.com/joeycumines/logiface"
)

func TestDefault_IsAlreadyValid(t *testing.T) {
	c := config.Default()
	before := c
	config.Validate(&c, nil)
	assert.Equal(t, before, c)
}

func TestValidate_NilLoggerIsSilent(t *testing.T) {
	c := config.Config{}
	assert.NotPanics(t, func() { config.Validate(&c, nil) })
	assert.Equal(t, kernel.RoundRobin, c.Policy)
}

func TestValidate_ReplacesEveryInvalidField(t *testing.T) {
	var buf bytes.Buffer
	log := telemetry.New(&buf, logiface.LevelDebug)

	c := config.Config{
		Policy:       kernel.Policy(99),
		Quantum:      -1,
		HeapSize:     0,
		MaxProcesses: -5,
		TracePath:    "",
		Scenario:     "",
	}
	config.Validate(&c, log)

	assert.Equal(t, kernel.RoundRobin, c.Policy)
	assert.Equal(t, config.DefaultQuantum, c.Quantum)
	assert.Equal(t, config.DefaultHeapSize, c.HeapSize)
	assert.Equal(t, config.DefaultMaxProcs, c.MaxProcesses)
	assert.Equal(t, config.DefaultTracePath, c.TracePath)
	assert.Equal(t, config.DefaultScenario, c.Scenario)
	assert.Contains(t, buf.String(), "invalid configuration")
}

func TestValidate_QuantumIgnoredForNonQuantumPolicy(t *testing.T) {
	c := config.Config{Policy: kernel.Priority, Quantum: 0, HeapSize: 1, MaxProcesses: 1, TracePath: "x", Scenario: "A"}
	config.Validate(&c, nil)
	assert.Equal(t, 0, c.Quantum, "PRIORITY never consults quantum")
}

func TestFromFlags_ParsesAllFlags(t *testing.T) {
	var stderr bytes.Buffer
	c := config.FromFlags([]string{
		"-policy", "PRIORITY_RR",
		"-quantum", "3",
		"-heap-size", "2048",
		"-max-processes", "5",
		"-trace", "out.csv",
		"-scenario", "C",
		"-verbose",
	}, &stderr)

	assert.Equal(t, kernel.PriorityRR, c.Policy)
	assert.Equal(t, 3, c.Quantum)
	assert.Equal(t, 2048, c.HeapSize)
	assert.Equal(t, 5, c.MaxProcesses)
	assert.Equal(t, "out.csv", c.TracePath)
	assert.Equal(t, "C", c.Scenario)
	assert.Equal(t, logiface.LevelDebug, c.LogLevel)
}

func TestFromFlags_UnknownPolicyFallsBackToRoundRobin(t *testing.T) {
	var stderr bytes.Buffer
	c := config.FromFlags([]string{"-policy", "NONSENSE"}, &stderr)
	assert.Equal(t, kernel.RoundRobin, c.Policy)
}

func TestFromFlags_ParseErrorReturnsDefault(t *testing.T) {
	var stderr bytes.Buffer
	c := config.FromFlags([]string{"-quantum", "notanumber"}, &stderr)
	assert.Equal(t, config.Default(), c)
	assert.NotEmpty(t, stderr.String(), "flag package reports the parse error itself")
}
