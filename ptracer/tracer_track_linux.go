//go:build linux && (amd64 || arm64)

package ptracer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/criyle/go-stracer/pkg/seccomp"
	"github.com/criyle/go-stracer/runner"
)

// ptrace options set on the initial stop:
// syscall stops carry SIGTRAP|0x80, the tracee dies with the tracer and
// execve of the target is reported as PTRACE_EVENT_EXEC instead of a
// plain SIGTRAP
const ptraceFlags = unix.PTRACE_O_TRACESYSGOOD | unix.PTRACE_O_EXITKILL | unix.PTRACE_O_TRACEEXEC

// TraceRun start and traces the child process by runner in the calling goroutine
// canceling c kills the tracee
func (t *Tracer) TraceRun(c context.Context) (result runner.Result) {
	var (
		ops   = t.ops
		log   = t.log()
		sTime = time.Now() // records start time for trace process
		fTime time.Time    // records finish time for execve
	)
	if ops == nil {
		ops = linuxOps{}
	}

	// ptrace is thread based (kernel proc)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Start the runner
	pid, err := t.Runner.Start()
	if err != nil {
		log.WithError(err).Debug("start tracee failed")
		result.Status = runner.StatusLaunchError
		result.Error = err.Error()
		return
	}
	log.WithField("pid", pid).Debug("tracer started")

	s := newSession(pid)
	if err := s.open(ops); err != nil {
		log.WithError(err).Debug("pidfd_open failed, killing by pid")
	}
	defer s.close(ops)
	finish := make(chan struct{})
	defer close(finish)

	// handle cancelation
	go func() {
		select {
		case <-c.Done():
			log.WithField("pid", pid).Debug("canceled, killing tracee")
			s.kill(ops)
		case <-finish:
		}
	}()

	// handler potential panic
	// also ensure the tracee was terminated
	defer func() {
		if err := recover(); err != nil {
			log.WithField("panic", err).Debug("tracer panic")
			result.Status = runner.StatusTracerError
			result.Error = fmt.Sprintf("%v", err)
		}
		if !s.isReaped() {
			s.kill(ops)
			collectZombie(ops, s)
		}
		t.childError()
		if fTime.IsZero() {
			fTime = time.Now()
		}
		result.Stops = s.stops
		result.Reported = s.reported
		result.SetUpTime = fTime.Sub(sTime)
		result.RunningTime = time.Since(fTime)
	}()

	for {
		wstatus, rusage, err := ops.Wait(pid)
		if err != nil {
			return t.fail(fatal("wait4", pid, err))
		}
		st := classify(wstatus)
		log.WithFields(logrus.Fields{
			"pid":   pid,
			"state": s.state,
			"phase": s.phase,
			"stop":  st,
		}).Debug("------ stop ------")

		if st.Kind == StopExited {
			s.state = stateTerminated
			s.setReaped()
			return t.terminate(s, st, rusage)
		}

		switch s.state {
		case stateAwaitingInitialStop:
			if st.Kind != StopSignal || st.Signal != unix.SIGSTOP {
				return t.fail(fatal("initial stop", pid, fmt.Errorf("%w: %v", ErrUnsupportedStop, st)))
			}
			opts := ptraceFlags
			if t.Seccomp {
				opts |= unix.PTRACE_O_TRACESECCOMP
			}
			// Ptrace set option valid if the tracee is stopped
			s.state = stateRunning
			if err := ops.SetOptions(pid, opts); err == unix.ESRCH {
				// killed by cancel, wait4 reports it next
				continue
			} else if err != nil {
				return t.fail(fatal("setoptions", pid, err))
			}
			// the handshake SIGSTOP is not delivered
			err = t.resume(ops, s, 0)

		case stateRunning:
			err = t.handleStop(ops, s, st)
			if err == nil && s.execved && fTime.IsZero() {
				fTime = time.Now()
			}
		}
		if err != nil {
			return t.fail(err)
		}
	}
}

// handleStop processes one stop of a running tracee and resumes it
func (t *Tracer) handleStop(ops ptraceOps, s *session, st Stop) error {
	switch st.Kind {
	case StopSyscall:
		if err := t.handleSyscall(ops, s); err != nil {
			return err
		}
		return t.resume(ops, s, 0)

	case StopSeccomp:
		if !t.Seccomp {
			return fatal("seccomp stop", s.pid, ErrUnsupportedStop)
		}
		msg, err := ops.EventMsg(s.pid)
		if t.vanished(s, err) {
			return nil
		}
		if err != nil {
			return fatal("geteventmsg", s.pid, err)
		}
		if uint16(msg) != seccomp.MsgTrace {
			// undefined seccomp message, possible set up filter wrong
			t.log().WithField("msg", msg).Debug("unknown seccomp trap message")
		}
		if s.phase != PhaseEntry {
			t.log().WithField("pid", s.pid).Debug("seccomp stop while an exit was pending")
			s.phase = PhaseEntry
		}
		if err := t.handleSyscall(ops, s); err != nil {
			return err
		}
		// PTRACE_SYSCALL from the seccomp stop reaches the syscall exit
		return t.resume(ops, s, 0)

	case StopSignal:
		sig := st.Signal
		if isStopSignal(sig) {
			group, err := ops.GroupStop(s.pid)
			if t.vanished(s, err) {
				return nil
			}
			if err != nil {
				return fatal("getsiginfo", s.pid, err)
			}
			if group {
				t.log().WithField("signal", sig).Debug("group stop")
				sig = 0
			}
		}
		// signal stop is not a syscall boundary, phase unchanged
		return t.resume(ops, s, int(sig))

	case StopEvent:
		if st.Event != unix.PTRACE_EVENT_EXEC {
			return fatal("event stop", s.pid, fmt.Errorf("%w: %v", ErrUnsupportedStop, st))
		}
		if n := s.exec(t.Handler); n > 0 {
			t.log().WithField("events", n).Debug("flushed events before exec")
		}
		t.log().WithField("pid", s.pid).Debug("ptrace stop exec")
		return t.resume(ops, s, 0)

	case StopContinued:
		// not stopped, nothing to resume
		return nil

	default:
		return fatal("wait4", s.pid, fmt.Errorf("%w: %v", ErrUnsupportedStop, st))
	}
}

// handleSyscall decodes, filters and reports the current syscall stop,
// then toggles the phase
func (t *Tracer) handleSyscall(ops ptraceOps, s *session) error {
	regs, err := ops.Registers(s.pid)
	if t.vanished(s, err) {
		return nil
	}
	if err != nil {
		return fatal("getregs", s.pid, err)
	}
	ev := decode(s.pid, s.phase, regs, t.Catalog)
	s.stops++

	if t.Filter == nil || t.Filter.ShouldTraceEvent(ev.Name, ev.Known) {
		s.emit(ev, t.Handler)
	}
	s.phase = s.phase.Toggle()
	return nil
}

// resume restarts the tracee until its next stop. Between traced syscalls
// of a seccomp-filtered tracee PTRACE_CONT is enough, otherwise every
// syscall boundary must stop.
func (t *Tracer) resume(ops ptraceOps, s *session, sig int) error {
	var (
		op  = "syscall"
		err error
	)
	if t.Seccomp && s.phase == PhaseEntry {
		op = "cont"
		err = ops.Cont(s.pid, sig)
	} else {
		err = ops.Syscall(s.pid, sig)
	}
	if t.vanished(s, err) {
		return nil
	}
	if err != nil {
		return fatal(op, s.pid, err)
	}
	return nil
}

// vanished reports a ptrace request failing with ESRCH: the tracee was
// killed while stopped and wait4 reports its death next
func (t *Tracer) vanished(s *session, err error) bool {
	if err != unix.ESRCH {
		return false
	}
	t.log().WithField("pid", s.pid).Debug("tracee vanished while stopped")
	return true
}

// terminate fills result from the final wait status
func (t *Tracer) terminate(s *session, st Stop, rusage unix.Rusage) (result runner.Result) {
	result.Time = time.Duration(rusage.Utime.Nano())
	result.Memory = runner.Size(rusage.Maxrss << 10)

	if !s.execved && len(s.pending) > 0 {
		t.log().WithField("events", len(s.pending)).Debug("tracee exited before exec, dropping events")
		s.pending = nil
	}

	switch {
	case st.Signal != 0:
		result.Status = runner.StatusSignalled
		result.ExitStatus = int(st.Signal)
	case !s.execved:
		result.Status = runner.StatusLaunchError
		result.ExitStatus = st.ExitStatus
		result.Error = "child process exit before execve"
		if err := t.childError(); err != nil {
			result.Error = err.Error()
		}
	case st.ExitStatus == 0:
		result.Status = runner.StatusNormal
	default:
		result.Status = runner.StatusNonzeroExitStatus
		result.ExitStatus = st.ExitStatus
	}
	t.log().WithField("pid", s.pid).WithField("result", result.Status).Debug("process exited")
	return result
}

func (t *Tracer) fail(err error) runner.Result {
	t.log().WithError(err).Debug("tracer failed")
	return runner.Result{
		Status: runner.StatusTracerError,
		Error:  err.Error(),
	}
}

func (t *Tracer) childError() error {
	if ce, ok := t.Runner.(ChildErrorer); ok {
		return ce.ChildError()
	}
	return nil
}

// decode builds the event of a syscall stop from the register snapshot
func decode(pid int, phase Phase, regs Registers, catalog Catalog) Event {
	ev := Event{
		Pid:   pid,
		Nr:    regs.SyscallNo(),
		Phase: phase,
	}
	if catalog != nil {
		ev.Name, ev.Known = catalog.Name(ev.Nr)
	}
	if phase == PhaseExit {
		ev.Return = regs.ReturnValue()
	}
	return ev
}

// collect the killed tracee
func collectZombie(ops ptraceOps, s *session) {
	for {
		wstatus, _, err := ops.Wait(s.pid)
		if err != nil || wstatus.Exited() || wstatus.Signaled() {
			break
		}
	}
	s.setReaped()
}
