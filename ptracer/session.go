//go:build linux && (amd64 || arm64)

package ptracer

import (
	"sync"
)

// sessionState is the state of the tracer loop
type sessionState int

const (
	stateAwaitingInitialStop sessionState = iota
	stateRunning
	stateTerminated
)

var sessionStateString = []string{
	"awaiting_initial_stop",
	"running",
	"terminated",
}

func (s sessionState) String() string {
	if int(s) >= 0 && int(s) < len(sessionStateString) {
		return sessionStateString[s]
	}
	return "unknown"
}

// session is the state of one traced process, owned by the tracer loop
type session struct {
	pid   int
	state sessionState

	// phase is the phase of the next syscall stop; the kernel does not
	// tell entry from exit so it is toggled on every syscall stop
	phase Phase

	// execved is set once the target image is running; events before
	// that belong to the launcher and wait in pending
	execved bool
	pending []Event

	stops, reported uint64

	// pidfd pins the tracee so a kill after wait4 reaped it fails with
	// ESRCH instead of hitting a recycled pid; -1 on kernels before 5.3
	pidfd int

	// guards reaped and pidfd against the cancel goroutine
	mu     sync.Mutex
	reaped bool
}

func newSession(pid int) *session {
	return &session{
		pid:   pid,
		state: stateAwaitingInitialStop,
		phase: PhaseEntry,
		pidfd: -1,
	}
}

// open takes a pidfd of the tracee, it must run before the first wait
func (s *session) open(ops ptraceOps) error {
	fd, err := ops.PidfdOpen(s.pid)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pidfd = fd
	s.mu.Unlock()
	return nil
}

// close releases the pidfd
func (s *session) close(ops ptraceOps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pidfd >= 0 {
		ops.Close(s.pidfd)
		s.pidfd = -1
	}
}

// emit reports ev now or keeps it until the exec event
func (s *session) emit(ev Event, h Handler) {
	if !s.execved {
		s.pending = append(s.pending, ev)
		return
	}
	s.report(ev, h)
}

func (s *session) report(ev Event, h Handler) {
	s.reported++
	if h != nil {
		h.Report(ev)
	}
}

// exec marks the target as running and flushes the pending events
func (s *session) exec(h Handler) int {
	if s.execved {
		return 0
	}
	n := len(s.pending)
	s.execved = true
	for _, ev := range s.pending {
		s.report(ev, h)
	}
	s.pending = nil
	return n
}

// kill sends SIGKILL unless the tracee was already reaped. Without a
// pidfd the tracee may be reaped but not yet marked, the pid is then
// signalled as is.
func (s *session) kill(ops ptraceOps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reaped {
		ops.Kill(s.pid, s.pidfd)
	}
}

func (s *session) setReaped() {
	s.mu.Lock()
	s.reaped = true
	s.mu.Unlock()
}

func (s *session) isReaped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reaped
}
