package runner

// Status is the result Status
type Status int

// Result Status for the traced program
const (
	StatusInvalid Status = iota // 0 not initialized
	// Normal
	StatusNormal // 1 normal

	// Program ended abnormally
	StatusSignalled         // 2 signalled
	StatusNonzeroExitStatus // 3 nonzero exit status

	// Launcher failed before or at execve
	StatusLaunchError // 4 launch error

	// Tracer lost track of the tracee
	StatusTracerError // 5 tracer error
)

var (
	statusString = []string{
		"Invalid",
		"",
		"Signalled",
		"Nonzero Exit Status",
		"Launch Error",
		"Tracer Error",
	}
)

func (t Status) String() string {
	i := int(t)
	if i >= 0 && i < len(statusString) {
		return statusString[i]
	}
	return statusString[0]
}

func (t Status) Error() string {
	return t.String()
}
