package tracefilter

import (
	"errors"
	"fmt"
)

// List names used in configuration errors
const (
	ListTrace   = "trace"
	ListExclude = "exclude"
)

// Configuration error causes
var (
	ErrConflictingLists = errors.New("cannot set both trace and exclude lists")
	ErrUnknownSyscall   = errors.New("unknown syscall")
)

// InvalidConfigurationError is returned when a Spec cannot be built
type InvalidConfigurationError struct {
	List string // offending list, empty for conflicts
	Name string // offending syscall name
	Err  error
}

func (e *InvalidConfigurationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid %s list: %v: %q", e.List, e.Err, e.Name)
	}
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return e.Err
}
