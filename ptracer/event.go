package ptracer

import (
	"github.com/criyle/go-stracer/pkg/syscalls"
)

// Phase tells whether a syscall stop is the entry or the exit of the call
type Phase int

// Syscall phases
const (
	PhaseEntry Phase = iota
	PhaseExit
)

func (p Phase) String() string {
	if p == PhaseExit {
		return "exit"
	}
	return "entry"
}

// Toggle returns the phase of the next syscall stop
func (p Phase) Toggle() Phase {
	if p == PhaseEntry {
		return PhaseExit
	}
	return PhaseEntry
}

// Event is a syscall observed at one syscall stop
type Event struct {
	Pid   int
	Nr    int    // syscall number decoded from registers
	Name  string // catalog name, empty if Known is false
	Known bool
	Phase Phase
	// Return is the raw return register, only set on exit
	Return int64
}

// DisplayName returns the name or the unresolved marker for unknown numbers
func (e Event) DisplayName() string {
	if e.Known {
		return e.Name
	}
	return syscalls.UnresolvedName(e.Nr)
}
