// Package report renders traced syscall events as text or JSON lines and
// keeps the per-syscall summary.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/criyle/go-stracer/ptracer"
)

// Format is the output format of the event lines
type Format string

// Output formats
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ErrInvalidFormat is returned by ParseFormat for unknown formats
var ErrInvalidFormat = errors.New("invalid output format")

// ParseFormat parses text or json, empty means text
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q (want text or json)", ErrInvalidFormat, s)
}

// Writer writes one line per event. It implements ptracer.Handler.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	enc    *json.Encoder
	err    error
}

// NewWriter creates a Writer in the given format
func NewWriter(w io.Writer, format Format) *Writer {
	rw := &Writer{w: w, format: format}
	if format == FormatJSON {
		rw.enc = json.NewEncoder(w)
	}
	return rw
}

// record is the JSON line of an event
type record struct {
	Pid   int    `json:"pid"`
	Nr    int    `json:"nr"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
	Ret   *int64 `json:"ret,omitempty"`
}

// Report writes ev, the first write error is kept and later events dropped
func (w *Writer) Report(ev ptracer.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if w.format == FormatJSON {
		r := record{
			Pid:   ev.Pid,
			Nr:    ev.Nr,
			Name:  ev.DisplayName(),
			Phase: ev.Phase.String(),
		}
		if ev.Phase == ptracer.PhaseExit {
			ret := ev.Return
			r.Ret = &ret
		}
		w.err = w.enc.Encode(r)
		return
	}
	_, w.err = io.WriteString(w.w, FormatEvent(ev)+"\n")
}

// Err returns the first write error
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// FormatEvent renders ev as a text line without the newline
func FormatEvent(ev ptracer.Event) string {
	if ev.Phase == ptracer.PhaseExit {
		return fmt.Sprintf("[%d] %s(exit) = %d", ev.Pid, ev.DisplayName(), ev.Return)
	}
	return fmt.Sprintf("[%d] %s(entry)", ev.Pid, ev.DisplayName())
}

// Multi fans events out to several handlers
type Multi []ptracer.Handler

// Report implements ptracer.Handler
func (m Multi) Report(ev ptracer.Event) {
	for _, h := range m {
		h.Report(ev)
	}
}
