// Package tracefilter decides which syscalls are reported by the tracer.
//
// A Spec is either an inclusion list or an exclusion list of syscall
// names; both empty means every syscall is reported.
package tracefilter

import (
	"sort"

	"github.com/criyle/go-stracer/pkg/syscalls"
)

// Mode is how a filter selects syscalls
type Mode int

// Filter modes
const (
	ModeAll Mode = iota
	ModeInclude
	ModeExclude
)

var modeString = []string{"all", "include", "exclude"}

func (m Mode) String() string {
	if int(m) >= 0 && int(m) < len(modeString) {
		return modeString[m]
	}
	return "unknown"
}

// Spec is the validated inclusion / exclusion configuration
type Spec struct {
	Include []string
	Exclude []string
}

// Filter is the syscall predicate built from a Spec
type Filter struct {
	spec    Spec
	mode    Mode
	set     map[string]struct{}
	catalog *syscalls.Catalog
}

// New validates include and exclude against the catalog and creates the
// filter. At most one of them may be non-empty.
func New(catalog *syscalls.Catalog, include, exclude []string) (*Filter, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, &InvalidConfigurationError{Err: ErrConflictingLists}
	}
	if err := validate(catalog, ListTrace, include); err != nil {
		return nil, err
	}
	if err := validate(catalog, ListExclude, exclude); err != nil {
		return nil, err
	}

	f := &Filter{
		spec: Spec{
			Include: dedup(include),
			Exclude: dedup(exclude),
		},
		catalog: catalog,
	}
	switch {
	case len(include) > 0:
		f.mode = ModeInclude
		f.set = toSet(include)
	case len(exclude) > 0:
		f.mode = ModeExclude
		f.set = toSet(exclude)
	default:
		f.mode = ModeAll
	}
	return f, nil
}

// ShouldTrace reports whether a syscall named name is to be reported
func (f *Filter) ShouldTrace(name string) bool {
	switch f.mode {
	case ModeInclude:
		_, ok := f.set[name]
		return ok
	case ModeExclude:
		_, ok := f.set[name]
		return !ok
	default:
		return true
	}
}

// ShouldTraceEvent is ShouldTrace for a decoded syscall whose name may be
// unknown to the catalog. Unknown syscalls never match an inclusion list
// and are never excluded.
func (f *Filter) ShouldTraceEvent(name string, known bool) bool {
	if !known {
		return f.mode != ModeInclude
	}
	return f.ShouldTrace(name)
}

// Mode returns the selection mode
func (f *Filter) Mode() Mode {
	return f.mode
}

// Spec returns a copy of the validated spec
func (f *Filter) Spec() Spec {
	return Spec{
		Include: append([]string(nil), f.spec.Include...),
		Exclude: append([]string(nil), f.spec.Exclude...),
	}
}

// Resolve returns the sorted set of catalog names that are reported
func (f *Filter) Resolve() []string {
	if f.mode == ModeInclude {
		return append([]string(nil), f.spec.Include...)
	}
	rt := make([]string, 0, f.catalog.Len())
	for _, n := range f.catalog.Names() {
		if f.ShouldTrace(n) {
			rt = append(rt, n)
		}
	}
	return rt
}

func validate(catalog *syscalls.Catalog, list string, names []string) error {
	for _, n := range names {
		if !catalog.Contains(n) {
			return &InvalidConfigurationError{List: list, Name: n, Err: ErrUnknownSyscall}
		}
	}
	return nil
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func dedup(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	s := toSet(names)
	rt := make([]string, 0, len(s))
	for n := range s {
		rt = append(rt, n)
	}
	sort.Strings(rt)
	return rt
}
