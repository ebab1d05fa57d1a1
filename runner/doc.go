// Package runner provides common interface for the traced program runner
// together with the Result and Status types.
//
// Status
//
// Status defines the traced program result status including
//  Normal
//  Program Error
//      Runtime Error (Signaled / Nonzero Exit Status)
//  Launch Error (ptrace_me / execve failed in the child)
//  Tracer Error
//
// Result
//
// Result defines the traced program result including
// Status, ExitStatus, Detailed Error, Time, Memory, syscall stop counters,
// SetupTime and RunningTime (in real clock). ExitCode maps it to the exit
// code of the tracer process.
package runner
