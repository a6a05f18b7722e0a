package stack

import (
	"context"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/runner"
)

const (
	dockerBinary    = "docker"
	composeCommand  = "compose"
	projectFlag     = "-p"
	composeFileFlag = "-f"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*runner.Result, error)
}

// ComposeRunner drives `docker compose` for a service group. Containers are
// started detached; waiting for them to actually run is the launcher's job,
// since process-up and application-ready are deliberately separate signals.
type ComposeRunner struct {
	runner commandRunner
}

func NewComposeRunner(cmdRunner commandRunner) *ComposeRunner {
	return &ComposeRunner{runner: cmdRunner}
}

func (compose *ComposeRunner) Up(ctx context.Context, group *ServiceGroup) error {
	result, err := compose.runner.Run(
		ctx,
		dockerBinary,
		composeCommand,
		projectFlag, group.Project.Name,
		composeFileFlag, group.Params.ComposeFile,
		"up", "-d",
	)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred running compose up for group '%v'", group.Name())
	}
	if !result.Success() {
		return stacktrace.NewError(
			"Compose up for group '%v' exited with code %v; stderr:\n%v",
			group.Name(),
			result.ExitCode,
			result.Stderr,
		)
	}
	return nil
}

func (compose *ComposeRunner) Down(ctx context.Context, group *ServiceGroup) error {
	result, err := compose.runner.Run(
		ctx,
		dockerBinary,
		composeCommand,
		projectFlag, group.Project.Name,
		composeFileFlag, group.Params.ComposeFile,
		"down", "--remove-orphans",
	)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred running compose down for group '%v'", group.Name())
	}
	if !result.Success() {
		return stacktrace.NewError(
			"Compose down for group '%v' exited with code %v; stderr:\n%v",
			group.Name(),
			result.ExitCode,
			result.Stderr,
		)
	}
	return nil
}
