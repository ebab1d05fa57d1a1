package report

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/criyle/go-stracer/ptracer"
)

// maxErrno bounds the raw return values treated as -errno
const maxErrno = 4095

// Count is the summary line of one syscall
type Count struct {
	Name   string
	Calls  int
	Errors int
}

// Summary counts calls per syscall, entries are calls and exits returning
// -errno are errors
type Summary struct {
	mu     sync.Mutex
	counts map[string]*Count
}

// NewSummary creates an empty Summary
func NewSummary() *Summary {
	return &Summary{counts: make(map[string]*Count)}
}

// Report implements ptracer.Handler
func (s *Summary) Report(ev ptracer.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ev.DisplayName()
	c, ok := s.counts[name]
	if !ok {
		c = &Count{Name: name}
		s.counts[name] = c
	}
	switch ev.Phase {
	case ptracer.PhaseEntry:
		c.Calls++
	case ptracer.PhaseExit:
		if ev.Return < 0 && ev.Return >= -maxErrno {
			c.Errors++
		}
	}
}

// Counts returns the counts ordered by calls descending then name
func (s *Summary) Counts() []Count {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt := make([]Count, 0, len(s.counts))
	for _, c := range s.counts {
		rt = append(rt, *c)
	}
	sort.Slice(rt, func(i, j int) bool {
		if rt[i].Calls != rt[j].Calls {
			return rt[i].Calls > rt[j].Calls
		}
		return rt[i].Name < rt[j].Name
	})
	return rt
}

// WriteTo writes the summary table
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)

	var calls, errs int
	fmt.Fprintln(tw, "CALLS\tERRORS\tSYSCALL")
	for _, c := range s.Counts() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.Calls, errorCount(c.Errors), c.Name)
		calls += c.Calls
		errs += c.Errors
	}
	fmt.Fprintf(tw, "%d\t%s\ttotal\n", calls, errorCount(errs))
	err := tw.Flush()
	return cw.n, err
}

func errorCount(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
