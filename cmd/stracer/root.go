package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/criyle/go-stracer/config"
	"github.com/criyle/go-stracer/pkg/syscalls"
	"github.com/criyle/go-stracer/report"
	"github.com/criyle/go-stracer/runner"
	"github.com/criyle/go-stracer/runner/ptrace"
)

// exitError carries the exit status of the tracer process
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: runner.ExitInvalidUsage, err: err}
}

// flag names of the config keys
var flagNames = map[string]string{
	config.KeyTrace:      "trace",
	config.KeyExclude:    "exclude",
	config.KeyOutput:     "output",
	config.KeyFormat:     "format",
	config.KeySummary:    "summary",
	config.KeySeccompBPF: "seccomp-bpf",
	config.KeyVerbose:    "verbose",
}

type options struct {
	config.Config
	configFile   string
	listSyscalls bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "stracer [flags] -- <exe> [args...]",
		Short: "Trace the syscalls of a program with ptrace",
		Long: `stracer runs a program as a ptrace tracee and reports every syscall
entry and exit it makes. The exit status of stracer is the exit status of
the program, 128+signal if it was killed, 127 if it could not be started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	f := cmd.Flags()
	// flags after the program belong to the program
	f.SetInterspersed(false)
	f.StringSliceVarP(&opts.Trace, "trace", "t", nil, "Trace only these syscalls (repeatable, comma separated)")
	f.StringSliceVarP(&opts.Exclude, "exclude", "d", nil, "Trace all but these syscalls (repeatable, comma separated)")
	f.StringVarP(&opts.Output, "output", "o", "", "Write the report to file instead of stdout")
	f.StringVar(&opts.Format, "format", string(report.FormatText), "Report format (text, json)")
	f.BoolVarP(&opts.Summary, "summary", "c", false, "Print a per-syscall count table to stderr at the end")
	f.BoolVar(&opts.SeccompBPF, "seccomp-bpf", false, "Stop the program only on traced syscalls using a seccomp filter")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show tracer debug output")
	f.StringVar(&opts.configFile, "config", "", "Load settings from a YAML file, flags take precedence")
	f.BoolVar(&opts.listSyscalls, "list-syscalls", false, "Print the syscall names of this architecture and exit")
	return cmd
}

// execute runs the command line and returns the exit status
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var ee *exitError
	if !errors.As(err, &ee) {
		ee = &exitError{code: runner.ExitInvalidUsage, err: err}
	}
	if ee.err != nil {
		fmt.Fprintln(stderr, "stracer:", ee.err)
		if ee.code == runner.ExitInvalidUsage {
			fmt.Fprintln(stderr, "Run 'stracer --help' for usage.")
		}
	}
	return ee.code
}

func run(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	cfg := &config.Config{}
	if opts.configFile != "" {
		c, err := config.Load(opts.configFile)
		if err != nil {
			return usageError(err)
		}
		cfg = c
	}
	cfg.Merge(&opts.Config, func(key string) bool {
		return opts.configFile == "" || cmd.Flags().Changed(flagNames[key])
	})

	log := newLogger(stderr, cfg.Verbose)

	catalog, err := syscalls.Native()
	if err != nil {
		return &exitError{code: runner.ExitTracerError, err: err}
	}
	if opts.listSyscalls {
		for _, name := range catalog.Names() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	// everything is validated before the program is started
	if len(args) == 0 {
		return usageError(errors.New("no program to trace"))
	}
	filter, err := cfg.Filter(catalog)
	if err != nil {
		return usageError(err)
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return usageError(err)
	}

	out := stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return usageError(err)
		}
		defer f.Close()
		out = f
	}
	writer := report.NewWriter(out, format)
	handler := report.Multi{writer}

	var summary *report.Summary
	if cfg.Summary {
		summary = report.NewSummary()
		handler = append(handler, summary)
	}

	log.WithFields(logrus.Fields{
		"args":    args,
		"arch":    catalog.Arch(),
		"mode":    filter.Mode(),
		"seccomp": cfg.SeccompBPF,
	}).Debug("starting tracer")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &ptrace.Runner{
		Args:    args,
		Env:     os.Environ(),
		Catalog: catalog,
		Filter:  filter,
		Seccomp: cfg.SeccompBPF,
		Handler: handler,
		Log:     log,
	}
	result := r.Run(ctx)

	if err := writer.Err(); err != nil {
		log.WithError(err).Error("failed to write report")
	}
	if summary != nil {
		if _, err := summary.WriteTo(stderr); err != nil {
			log.WithError(err).Error("failed to write summary")
		}
	}

	log.WithFields(logrus.Fields{
		"stops":    result.Stops,
		"reported": result.Reported,
		"setup":    result.SetUpTime,
		"running":  result.RunningTime,
	}).Debug(result)

	switch result.Status {
	case runner.StatusLaunchError:
		log.Errorf("failed to start %s: %s", args[0], result.Error)
	case runner.StatusTracerError:
		log.Errorf("tracer error: %s", result.Error)
	}
	if code := result.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
