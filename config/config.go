// Package config loads the YAML configuration file of stracer and merges
// it with the command line.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/criyle/go-stracer/pkg/syscalls"
	"github.com/criyle/go-stracer/pkg/tracefilter"
	"github.com/criyle/go-stracer/report"
)

// Keys of the configuration file
const (
	KeyTrace      = "trace"
	KeyExclude    = "exclude"
	KeyOutput     = "output"
	KeyFormat     = "format"
	KeySummary    = "summary"
	KeySeccompBPF = "seccomp_bpf"
	KeyVerbose    = "verbose"
)

// Config is the tracer configuration
type Config struct {
	Trace      []string `yaml:"trace"`
	Exclude    []string `yaml:"exclude"`
	Output     string   `yaml:"output"`
	Format     string   `yaml:"format"`
	Summary    bool     `yaml:"summary"`
	SeccompBPF bool     `yaml:"seccomp_bpf"`
	Verbose    bool     `yaml:"verbose"`
}

// Load reads the configuration file at path
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a configuration, unknown keys are errors
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return c, nil
}

// Merge overwrites the fields of c with those of o whose key is set
func (c *Config) Merge(o *Config, set func(key string) bool) {
	if set(KeyTrace) {
		c.Trace = o.Trace
	}
	if set(KeyExclude) {
		c.Exclude = o.Exclude
	}
	if set(KeyOutput) {
		c.Output = o.Output
	}
	if set(KeyFormat) {
		c.Format = o.Format
	}
	if set(KeySummary) {
		c.Summary = o.Summary
	}
	if set(KeySeccompBPF) {
		c.SeccompBPF = o.SeccompBPF
	}
	if set(KeyVerbose) {
		c.Verbose = o.Verbose
	}
}

// Filter builds the trace filter of c against catalog
func (c *Config) Filter(catalog *syscalls.Catalog) (*tracefilter.Filter, error) {
	return tracefilter.New(catalog, c.Trace, c.Exclude)
}

// OutputFormat parses the format of c
func (c *Config) OutputFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}
