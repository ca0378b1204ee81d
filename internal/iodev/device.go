// Package iodev models the simulated I/O devices of spec.md §4.5, each
// backed by either a syncprim.Mutex or a syncprim.Semaphore acting as a
// capacity counter — the same role io.c's per-device `io_device_sems`
// array plays in Nestro503/miniOS, here split across both primitive
// kinds so each gets real exercise.
package iodev

import "fmt"

// Device identifies one of the six simulated peripherals. The ordering
// matches io.h's io_device_t enum exactly.
type Device int

const (
	Printer Device = iota
	Keyboard
	Mouse
	Disk
	Screen
	Network

	numDevices
)

func (d Device) String() string {
	switch d {
	case Printer:
		return "PRINTER"
	case Keyboard:
		return "KEYBOARD"
	case Mouse:
		return "MOUSE"
	case Disk:
		return "DISK"
	case Screen:
		return "SCREEN"
	case Network:
		return "NETWORK"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// Capacity is the number of requests a device can service concurrently.
func (d Device) Capacity() int {
	switch d {
	case Printer, Keyboard, Screen:
		return 1
	case Mouse, Disk:
		return 2
	case Network:
		return 3
	default:
		return 0
	}
}

// usesMutex reports whether d's capacity is enforced with a Mutex rather
// than a Semaphore. Capacity-1 devices get a real exercise of both
// primitive kinds (spec.md §4.5); every other device is a counting
// semaphore since a Mutex has no notion of counts above one.
func (d Device) usesMutex() bool {
	return d == Printer || d == Screen
}

// ParseDevice looks up a Device by its String() name, for config/scenario
// parsing. It reports ok=false for an unrecognized name.
func ParseDevice(name string) (Device, bool) {
	for d := Device(0); d < numDevices; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}
