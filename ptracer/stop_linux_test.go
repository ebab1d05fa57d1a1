//go:build linux && (amd64 || arm64)

package ptracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ws   unix.WaitStatus
		want Stop
	}{
		{"exited", wsExited(0), Stop{Kind: StopExited}},
		{"exited nonzero", wsExited(3), Stop{Kind: StopExited, ExitStatus: 3}},
		{"killed", wsKilled(unix.SIGKILL), Stop{Kind: StopExited, Signal: unix.SIGKILL}},
		{"syscall", wsSyscall, Stop{Kind: StopSyscall}},
		{"sigtrap", wsStopped(unix.SIGTRAP), Stop{Kind: StopSignal, Signal: unix.SIGTRAP}},
		{"sigstop", wsStopped(unix.SIGSTOP), Stop{Kind: StopSignal, Signal: unix.SIGSTOP}},
		{"exec", wsEvent(unix.PTRACE_EVENT_EXEC), Stop{Kind: StopEvent, Event: unix.PTRACE_EVENT_EXEC}},
		{"seccomp", wsEvent(unix.PTRACE_EVENT_SECCOMP), Stop{Kind: StopSeccomp, Event: unix.PTRACE_EVENT_SECCOMP}},
		{"continued", wsContinued, Stop{Kind: StopContinued}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.ws))
		})
	}
}

func TestStopString(t *testing.T) {
	assert.Equal(t, "exited(3)", Stop{Kind: StopExited, ExitStatus: 3}.String())
	assert.Equal(t, "killed(killed)", Stop{Kind: StopExited, Signal: unix.SIGKILL}.String())
	assert.Equal(t, "syscall", Stop{Kind: StopSyscall}.String())
	assert.Equal(t, "event(4)", Stop{Kind: StopEvent, Event: 4}.String())
	assert.Equal(t, "unsupported", StopKind(42).String())
}

func TestIsStopSignal(t *testing.T) {
	assert.True(t, isStopSignal(unix.SIGSTOP))
	assert.True(t, isStopSignal(unix.SIGTTOU))
	assert.False(t, isStopSignal(unix.SIGCHLD))
	assert.False(t, isStopSignal(unix.SIGTRAP))
}

func TestSessionPending(t *testing.T) {
	h := &collector{}
	s := newSession(testPid)

	s.emit(Event{Nr: 59, Name: "execve", Known: true}, h)
	assert.Empty(t, h.events)
	assert.Len(t, s.pending, 1)

	assert.Equal(t, 1, s.exec(h))
	assert.Len(t, h.events, 1)
	assert.Nil(t, s.pending)
	assert.Equal(t, 0, s.exec(h))

	s.emit(Event{Nr: 0, Name: "read", Known: true}, h)
	assert.Len(t, h.events, 2)
	assert.EqualValues(t, 2, s.reported)
}

func TestSessionKillAfterReap(t *testing.T) {
	ops := &fakeOps{}
	s := newSession(testPid)
	s.setReaped()
	s.kill(ops)
	assert.False(t, ops.killed)
	assert.Equal(t, "awaiting_initial_stop", s.state.String())
}

func TestSessionPidfd(t *testing.T) {
	ops := &fakeOps{}
	s := newSession(testPid)
	assert.Equal(t, -1, s.pidfd)

	require.NoError(t, s.open(ops))
	assert.Equal(t, testPidfd, s.pidfd)

	s.kill(ops)
	assert.True(t, ops.killed)
	assert.Equal(t, testPidfd, ops.killedFd)

	s.close(ops)
	s.close(ops)
	assert.Equal(t, []int{testPidfd}, ops.closed)
	assert.Equal(t, -1, s.pidfd)
}

func TestSessionPidfdUnavailable(t *testing.T) {
	ops := &fakeOps{pidfdErr: unix.ENOSYS}
	s := newSession(testPid)

	assert.ErrorIs(t, s.open(ops), unix.ENOSYS)
	s.kill(ops)
	assert.Equal(t, -1, ops.killedFd)
	s.close(ops)
	assert.Empty(t, ops.closed)
}
