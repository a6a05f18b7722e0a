package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
)

// Result holds the structured outcome of a finished subprocess, replacing
// text-parsing of interleaved output.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (result *Result) Success() bool {
	return result.ExitCode == 0
}

// command abstracts a runnable subprocess so tests can substitute a fake
type command interface {
	Run() error
}

type commandFactory func(ctx context.Context, stdout *bytes.Buffer, stderr *bytes.Buffer, name string, args ...string) command

func defaultCommandFactory(ctx context.Context, stdout *bytes.Buffer, stderr *bytes.Buffer, name string, args ...string) command {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd
}

// Runner executes external tools (docker, compose, the build command) as
// typed subprocess invocations.
type Runner struct {
	workDir  string
	extraEnv []string
	factory  commandFactory
}

type RunnerOption func(*Runner)

func WithWorkDir(workDir string) RunnerOption {
	return func(runner *Runner) {
		runner.workDir = workDir
	}
}

func WithExtraEnv(extraEnv []string) RunnerOption {
	return func(runner *Runner) {
		runner.extraEnv = extraEnv
	}
}

// withCommandFactory is a package-private option for testing
func withCommandFactory(factory commandFactory) RunnerOption {
	return func(runner *Runner) {
		runner.factory = factory
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	runner := &Runner{
		factory: defaultCommandFactory,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes the given command synchronously. A non-zero exit is reported
// through Result.ExitCode rather than the error return; the error return is
// reserved for failures to run the command at all (e.g. binary not on PATH).
func (runner *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := runner.factory(ctx, &stdout, &stderr, name, args...)
	if osCmd, ok := cmd.(*exec.Cmd); ok {
		osCmd.Dir = runner.workDir
		if len(runner.extraEnv) > 0 {
			osCmd.Env = append(osCmd.Environ(), runner.extraEnv...)
		}
	}

	logrus.Debugf("Running command '%v %v'", name, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}, nil
		}
		return nil, stacktrace.Propagate(err, "An error occurred running command '%v'", name)
	}

	return &Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
