// Package syscalls provides the syscall number / name table for the host
// architecture.
package syscalls

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/elastic/go-seccomp-bpf/arch"
)

// Catalog maps syscall numbers to names and back. It is read-only once
// created.
type Catalog struct {
	arch    string
	numbers map[int]string
	names   map[string]int
}

var (
	nativeOnce sync.Once
	native     *Catalog
	nativeErr  error
)

// Native returns the catalog of the architecture the program is running on
func Native() (*Catalog, error) {
	nativeOnce.Do(func() {
		native, nativeErr = ForArch("")
	})
	return native, nativeErr
}

// ForArch returns the catalog for the named architecture (GOARCH style
// name); empty name selects the native one
func ForArch(name string) (*Catalog, error) {
	info, err := arch.GetInfo(name)
	if err != nil {
		return nil, fmt.Errorf("syscall catalog: %w", err)
	}
	if name == "" {
		name = runtime.GOARCH
	}
	return New(name, info.SyscallNumbers), nil
}

// New creates a catalog from a number to name table
func New(archName string, numbers map[int]string) *Catalog {
	c := &Catalog{
		arch:    archName,
		numbers: make(map[int]string, len(numbers)),
		names:   make(map[string]int, len(numbers)),
	}
	for nr, n := range numbers {
		c.numbers[nr] = n
		c.names[n] = nr
	}
	return c
}

// Arch returns the architecture name of the catalog
func (c *Catalog) Arch() string {
	return c.arch
}

// Name returns the syscall name for nr
func (c *Catalog) Name(nr int) (string, bool) {
	n, ok := c.numbers[nr]
	return n, ok
}

// Number returns the syscall number for name
func (c *Catalog) Number(name string) (int, bool) {
	nr, ok := c.names[name]
	return nr, ok
}

// Contains reports whether name is a syscall of this architecture
func (c *Catalog) Contains(name string) bool {
	_, ok := c.names[name]
	return ok
}

// Names returns all syscall names sorted
func (c *Catalog) Names() []string {
	rt := make([]string, 0, len(c.names))
	for n := range c.names {
		rt = append(rt, n)
	}
	sort.Strings(rt)
	return rt
}

// Len returns the number of known syscalls
func (c *Catalog) Len() int {
	return len(c.numbers)
}

// UnresolvedName is how a syscall number missing from the catalog is
// displayed
func UnresolvedName(nr int) string {
	return fmt.Sprintf("syscall_%d", nr)
}
