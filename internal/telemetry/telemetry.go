// Package telemetry wires the simulator's structured logging, built on
// github.com/joeycumines/logiface with the github.com/joeycumines/stumpy
// JSON backend — the same pairing the teacher package's own example tests
// use.
package telemetry

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the concrete logger type threaded through every package that
// needs to log: a logiface.Logger instantiated over stumpy's event type.
type Logger = logiface.Logger[*stumpy.Event]

// New builds a Logger writing newline-delimited JSON to w at the given
// minimum level. Pass io.Discard to silence logging entirely (still useful
// for its typed no-op cost in tests).
func New(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}
