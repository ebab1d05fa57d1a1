// Command stracer runs a program under ptrace and prints its syscall
// entries and exits.
//
//	stracer [flags] -- <exe> [args...]
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
