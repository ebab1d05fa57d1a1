package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criyle/go-stracer/ptracer"
)

var (
	openatEntry = ptracer.Event{Pid: 7, Nr: 257, Name: "openat", Known: true, Phase: ptracer.PhaseEntry}
	openatExit  = ptracer.Event{Pid: 7, Nr: 257, Name: "openat", Known: true, Phase: ptracer.PhaseExit, Return: -2}
	unknownExit = ptracer.Event{Pid: 7, Nr: 1000, Phase: ptracer.PhaseExit, Return: 0}
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)
	w.Report(openatEntry)
	w.Report(openatExit)
	w.Report(unknownExit)

	require.NoError(t, w.Err())
	assert.Equal(t, "[7] openat(entry)\n[7] openat(exit) = -2\n[7] syscall_1000(exit) = 0\n", buf.String())
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON)
	w.Report(openatEntry)
	w.Report(openatExit)

	require.NoError(t, w.Err())
	assert.Equal(t,
		`{"pid":7,"nr":257,"name":"openat","phase":"entry"}`+"\n"+
			`{"pid":7,"nr":257,"name":"openat","phase":"exit","ret":-2}`+"\n",
		buf.String())
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("disk full")
}

func TestWriterKeepsFirstError(t *testing.T) {
	fw := &failWriter{}
	w := NewWriter(fw, FormatText)
	w.Report(openatEntry)
	w.Report(openatExit)

	assert.EqualError(t, w.Err(), "disk full")
	assert.Equal(t, 1, fw.n)
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	var m Multi = []ptracer.Handler{s}
	for i := 0; i < 2; i++ {
		m.Report(openatEntry)
		m.Report(openatExit)
	}
	read := ptracer.Event{Nr: 0, Name: "read", Known: true}
	m.Report(read)
	read.Phase, read.Return = ptracer.PhaseExit, 12
	m.Report(read)

	assert.Equal(t, []Count{
		{Name: "openat", Calls: 2, Errors: 2},
		{Name: "read", Calls: 1},
	}, s.Counts())

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, ""+
		"CALLS  ERRORS  SYSCALL\n"+
		"2      2       openat\n"+
		"1              read\n"+
		"3      2       total\n", buf.String())
}
