package runner

import "context"

// Runner interface defines method to run a traced program
type Runner interface {
	// Run runs the program until it terminates or the context is canceled
	Run(context.Context) Result
}
