package ptracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase(t *testing.T) {
	assert.Equal(t, PhaseExit, PhaseEntry.Toggle())
	assert.Equal(t, PhaseEntry, PhaseExit.Toggle())
	assert.Equal(t, "entry", PhaseEntry.String())
	assert.Equal(t, "exit", PhaseExit.String())
}

func TestEventDisplayName(t *testing.T) {
	assert.Equal(t, "openat", Event{Nr: 257, Name: "openat", Known: true}.DisplayName())
	assert.Equal(t, "syscall_1000", Event{Nr: 1000}.DisplayName())
}
