//go:build linux && (amd64 || arm64)

package ptrace

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criyle/go-stracer/pkg/seccomp"
	"github.com/criyle/go-stracer/pkg/syscalls"
	"github.com/criyle/go-stracer/pkg/tracefilter"
	"github.com/criyle/go-stracer/ptracer"
	"github.com/criyle/go-stracer/runner"
)

type recorder struct {
	mu     sync.Mutex
	events []ptracer.Event
}

func (r *recorder) Report(ev ptracer.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) names() []string {
	var n []string
	for _, ev := range r.events {
		n = append(n, ev.DisplayName()+"("+ev.Phase.String()+")")
	}
	return n
}

func nativeCatalog(t *testing.T) *syscalls.Catalog {
	t.Helper()
	c, err := syscalls.Native()
	require.NoError(t, err)
	return c
}

// run traces args and skips the test when the environment forbids ptrace
// or seccomp
func run(t *testing.T, r *Runner) (runner.Result, *recorder) {
	t.Helper()
	h := &recorder{}
	logger, _ := test.NewNullLogger()
	r.Handler = h
	r.Log = logger
	r.Env = []string{"PATH=/usr/local/bin:/usr/bin:/bin"}

	result := r.Run(context.Background())
	if result.Status == runner.StatusLaunchError {
		for _, loc := range []string{"ptrace_me", "set_no_new_privs", "seccomp"} {
			if strings.HasPrefix(result.Error, loc+":") {
				t.Skipf("tracing not permitted: %s", result.Error)
			}
		}
	}
	if result.Status == runner.StatusTracerError && strings.Contains(result.Error, "operation not permitted") {
		t.Skipf("tracing not permitted: %s", result.Error)
	}
	return result, h
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found", name)
	}
	return p
}

func TestRunTrue(t *testing.T) {
	lookPath(t, "true")
	result, h := run(t, &Runner{Args: []string{"true"}})

	require.Equal(t, runner.StatusNormal, result.Status, result.Error)
	assert.Equal(t, 0, result.ExitCode())
	require.NotEmpty(t, h.events)

	names := h.names()
	assert.Equal(t, "execve(entry)", names[0])
	assert.Equal(t, "exit_group(entry)", names[len(names)-1])
	assert.Equal(t, uint64(len(h.events)), result.Reported)

	// entries and exits alternate, exit_group never returns
	for i, ev := range h.events[:len(h.events)-1] {
		want := ptracer.PhaseEntry
		if i%2 == 1 {
			want = ptracer.PhaseExit
		}
		assert.Equal(t, want, ev.Phase, "event %d %v", i, ev)
	}
}

func TestRunExitStatus(t *testing.T) {
	lookPath(t, "sh")
	result, _ := run(t, &Runner{Args: []string{"sh", "-c", "exit 3"}})

	assert.Equal(t, runner.StatusNonzeroExitStatus, result.Status)
	assert.Equal(t, 3, result.ExitCode())
}

func TestRunNotFound(t *testing.T) {
	result, h := run(t, &Runner{Args: []string{"/nonexistent/stracer-test-binary"}})

	assert.Equal(t, runner.StatusLaunchError, result.Status)
	assert.Equal(t, runner.ExitLaunchError, result.ExitCode())
	assert.Contains(t, result.Error, "execve")
	assert.Empty(t, h.events)
}

func TestRunEmptyArgs(t *testing.T) {
	result := (&Runner{}).Run(context.Background())
	assert.Equal(t, runner.StatusLaunchError, result.Status)
}

func TestRunIncludeSeccompMatches(t *testing.T) {
	lookPath(t, "true")
	catalog := nativeCatalog(t)
	f, err := tracefilter.New(catalog, []string{"exit_group"}, nil)
	require.NoError(t, err)

	for _, useSeccomp := range []bool{false, true} {
		result, h := run(t, &Runner{
			Args:    []string{"true"},
			Catalog: catalog,
			Filter:  f,
			Seccomp: useSeccomp,
		})
		require.Equal(t, runner.StatusNormal, result.Status, result.Error)
		assert.Equal(t, []string{"exit_group(entry)"}, h.names(), "seccomp=%v", useSeccomp)
	}
}

func TestRunSeccompMatchesPtrace(t *testing.T) {
	lookPath(t, "true")
	catalog := nativeCatalog(t)
	exclude, err := tracefilter.New(catalog, nil, []string{"brk", "mmap"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter *tracefilter.Filter
	}{
		{"all", nil},
		{"exclude", exclude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, hp := run(t, &Runner{Args: []string{"true"}, Catalog: catalog, Filter: tt.filter})
			require.Equal(t, runner.StatusNormal, want.Status, want.Error)

			got, hs := run(t, &Runner{Args: []string{"true"}, Catalog: catalog, Filter: tt.filter, Seccomp: true})
			require.Equal(t, runner.StatusNormal, got.Status, got.Error)

			require.NotEmpty(t, hs.events)
			assert.Equal(t, hp.names(), hs.names())
			assert.Equal(t, "execve(entry)", hs.names()[0])
			for _, ev := range hs.events {
				assert.NotContains(t, []string{"brk", "mmap"}, ev.Name)
			}
		})
	}
}

func TestRunRepeatable(t *testing.T) {
	lookPath(t, "true")
	catalog := nativeCatalog(t)

	first, h1 := run(t, &Runner{Args: []string{"true"}, Catalog: catalog})
	require.Equal(t, runner.StatusNormal, first.Status, first.Error)
	second, h2 := run(t, &Runner{Args: []string{"true"}, Catalog: catalog})
	require.Equal(t, runner.StatusNormal, second.Status, second.Error)

	assert.Equal(t, h1.names(), h2.names())
	assert.Equal(t, first.Reported, second.Reported)
}

func TestRunCancel(t *testing.T) {
	lookPath(t, "sleep")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &recorder{}
	logger, _ := test.NewNullLogger()
	r := &Runner{Args: []string{"sleep", "10"}, Handler: h, Log: logger}
	result := r.Run(ctx)
	if result.Status == runner.StatusLaunchError {
		t.Skipf("tracing not permitted: %s", result.Error)
	}
	assert.Equal(t, runner.StatusSignalled, result.Status)
}

func TestBuilderFor(t *testing.T) {
	catalog := syscalls.New("test", map[int]string{0: "read", 1: "write", 2: "open"})
	include, err := tracefilter.New(catalog, []string{"open", "read"}, nil)
	require.NoError(t, err)
	exclude, err := tracefilter.New(catalog, nil, []string{"write"})
	require.NoError(t, err)
	all, err := tracefilter.New(catalog, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		f    *tracefilter.Filter
		want seccomp.Builder
	}{
		{"nil", nil, seccomp.Builder{Default: seccomp.ActionTrace}},
		{"all", all, seccomp.Builder{Default: seccomp.ActionTrace}},
		{"include", include, seccomp.Builder{Trace: []string{"open", "read"}, Default: seccomp.ActionAllow}},
		{"exclude", exclude, seccomp.Builder{Allow: []string{"write"}, Default: seccomp.ActionTrace}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, builderFor(tt.f))
		})
	}
}
