package readiness

import (
	"context"
	"os"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/config"
	"github.com/rkb-chain/rkb-devnet/internal/rpc"
	"github.com/rkb-chain/rkb-devnet/internal/runner"
)

const (
	dockerBinary   = "docker"
	dockerExecVerb = "exec"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*runner.Result, error)
}

// DefaultSteps wires a group's init params to the real world: probe and init
// are docker-exec invocations inside the target container, the credential is
// the token file on the shared volume mount, and verification is one
// authenticated JSON-RPC call.
func DefaultSteps(initParams *config.InitParams, cmdRunner commandRunner) Steps {
	steps := Steps{
		Probe: execStep(cmdRunner, initParams.Container, initParams.ProbeCommand),
		Credential: func(ctx context.Context) (string, error) {
			contents, err := os.ReadFile(initParams.TokenPath)
			if err != nil {
				return "", stacktrace.Propagate(err, "An error occurred reading token file '%v'", initParams.TokenPath)
			}
			return string(contents), nil
		},
	}
	if len(initParams.SetupCommand) > 0 {
		setupContainer := initParams.SetupContainer
		if setupContainer == "" {
			setupContainer = initParams.Container
		}
		steps.Init = execStep(cmdRunner, setupContainer, initParams.SetupCommand)
	}
	if initParams.VerifyRpcUrl != "" && initParams.VerifyMethod != "" {
		steps.Verify = func(ctx context.Context, token string) error {
			client := rpc.NewClient(initParams.VerifyRpcUrl, rpc.WithAuthToken(token))
			return client.Call(ctx, initParams.VerifyMethod, []interface{}{}, nil)
		}
	}
	return steps
}

func execStep(cmdRunner commandRunner, container string, command []string) StepFunc {
	return func(ctx context.Context) error {
		args := append([]string{dockerExecVerb, container}, command...)
		result, err := cmdRunner.Run(ctx, dockerBinary, args...)
		if err != nil {
			return stacktrace.Propagate(err, "An error occurred exec-ing '%v' in container '%v'", strings.Join(command, " "), container)
		}
		if !result.Success() {
			return stacktrace.NewError(
				"Command '%v' in container '%v' exited with code %v; stderr:\n%v",
				strings.Join(command, " "),
				container,
				result.ExitCode,
				result.Stderr,
			)
		}
		return nil
	}
}
