package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   int
	}{
		{"normal", Result{Status: StatusNormal}, 0},
		{"nonzero", Result{Status: StatusNonzeroExitStatus, ExitStatus: 3}, 3},
		{"signalled", Result{Status: StatusSignalled, ExitStatus: 9}, 137},
		{"launch error from child", Result{Status: StatusLaunchError, ExitStatus: 127}, 127},
		{"launch error in parent", Result{Status: StatusLaunchError}, ExitLaunchError},
		{"tracer error", Result{Status: StatusTracerError, ExitStatus: 4}, ExitTracerError},
		{"invalid", Result{}, ExitTracerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.ExitCode())
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Signalled", StatusSignalled.String())
	assert.Equal(t, "Tracer Error", StatusTracerError.Error())
	assert.Equal(t, "Invalid", Status(-1).String())
	assert.Equal(t, "Invalid", Status(100).String())
}

func TestResultString(t *testing.T) {
	r := Result{Status: StatusLaunchError, Error: "execve: no such file or directory"}
	assert.Contains(t, r.String(), "Launch Error(execve: no such file or directory)")

	r = Result{Status: StatusNormal, Time: time.Millisecond, Memory: 2 << 10, Reported: 3, Stops: 10}
	assert.Contains(t, r.String(), "2.0 KiB")
	assert.Contains(t, r.String(), "[3/10]")
}

func TestSize(t *testing.T) {
	assert.Equal(t, "512 B", Size(512).String())
	assert.Equal(t, "1.5 MiB", Size(3<<19).String())
	assert.Equal(t, "2.0 GiB", Size(2<<30).String())
	assert.Equal(t, uint64(42), Size(42).Byte())
}
