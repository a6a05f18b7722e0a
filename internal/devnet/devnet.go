package devnet

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docker/docker/client"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/build"
	"github.com/rkb-chain/rkb-devnet/internal/config"
	"github.com/rkb-chain/rkb-devnet/internal/launcher"
	"github.com/rkb-chain/rkb-devnet/internal/network"
	"github.com/rkb-chain/rkb-devnet/internal/readiness"
	"github.com/rkb-chain/rkb-devnet/internal/runner"
	"github.com/rkb-chain/rkb-devnet/internal/stack"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	stateDirname         = ".rkb-devnet"
	buildFingerprintFile = "build-fingerprint"
	credentialScopeAdmin = "admin"
	dockerBuildkitEnv    = "DOCKER_BUILDKIT=1"
)

type networkProvisioner interface {
	Ensure(ctx context.Context, name string) error
}

type buildTask interface {
	RunIfChanged(ctx context.Context) (build.Outcome, error)
}

type groupLauncher interface {
	LaunchAll(ctx context.Context, groups []*stack.ServiceGroup) (map[string]*launcher.Handle, error)
}

type composeDowner interface {
	Down(ctx context.Context, group *stack.ServiceGroup) error
}

type groupLoader func(ctx context.Context, params *config.GroupParams, projectName string) (*stack.ServiceGroup, error)

type pipelineRunner interface {
	Run(ctx context.Context) (*readiness.Credential, error)
	State() readiness.State
}

type pipelineFactory func(group *stack.ServiceGroup) pipelineRunner

// Devnet is the orchestration context threaded through every bootstrap
// stage: config, collaborators, and accumulated results. It replaces the
// ambient state a shell script would scatter across environment and stdout
// ordering.
type Devnet struct {
	cfg            *config.Config
	out            io.Writer
	provisioner    networkProvisioner
	builder        buildTask
	launcher       groupLauncher
	compose        composeDowner
	inspector      launcher.ContainerInspector
	loadGroup      groupLoader
	newPipeline    pipelineFactory
	getBlockNumber blockNumberGetter
	results        *Results
}

// New wires a Devnet against the real docker daemon and subprocess runner.
func New(cfg *config.Config) (*Devnet, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating the docker client")
	}

	cmdRunner := runner.NewRunner()
	composeRunner := stack.NewComposeRunner(cmdRunner)

	var builder buildTask
	buildParams := cfg.Manifest.Build
	if buildParams != nil && len(buildParams.Command) > 0 {
		buildRunner := runner.NewRunner(
			runner.WithWorkDir(buildParams.WorkDir),
			runner.WithExtraEnv([]string{dockerBuildkitEnv}),
		)
		builder = build.NewTask(
			buildParams.Command,
			buildParams.WatchedPaths,
			filepath.Join(stateDirname, buildFingerprintFile),
			buildRunner,
		)
	}

	return &Devnet{
		cfg:            cfg,
		out:            os.Stdout,
		provisioner:    network.NewProvisioner(dockerClient),
		builder:        builder,
		launcher:       launcher.NewLauncher(composeRunner, dockerClient),
		compose:        composeRunner,
		inspector:      dockerClient,
		getBlockNumber: defaultBlockNumberGetter,
		loadGroup:      stack.LoadGroup,
		newPipeline: func(group *stack.ServiceGroup) pipelineRunner {
			initParams := group.Params.Init
			return readiness.NewPipeline(
				group.Name(),
				credentialScopeAdmin,
				readiness.DefaultSteps(initParams, cmdRunner),
				initParams.PollInterval.Std(),
				initParams.MaxWait.Std(),
			)
		},
		results: NewResults(),
	}, nil
}

// Up runs the full bootstrap: network and build concurrently, then the
// gated service groups, then a readiness pipeline per group that declares
// post-start init, then the connection summary. Readiness failures are
// isolated per group; build and launch failures abort.
func (devnet *Devnet) Up(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return devnet.provisioner.Ensure(egCtx, devnet.cfg.Manifest.NetworkName)
	})
	if devnet.builder != nil {
		eg.Go(func() error {
			outcome, err := devnet.builder.RunIfChanged(egCtx)
			if err != nil {
				return stacktrace.Propagate(err, "An error occurred building the execution-layer binary")
			}
			logrus.Infof("Build stage finished: %v", outcome)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	groups, err := devnet.includedGroups(ctx)
	if err != nil {
		return err
	}

	handles, err := devnet.launcher.LaunchAll(ctx, groups)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred launching the service groups")
	}

	var wg sync.WaitGroup
	for _, group := range groups {
		group := group
		handle := handles[group.Name()]
		if group.Params.Init == nil {
			devnet.results.Record(group.Name(), &GroupResult{
				Group:     group,
				State:     readiness.StateReady,
				RunningAt: handle.RunningAt,
			})
			continue
		}

		// One pipeline exclusively owns its group's state; siblings are
		// isolated from each other's failures
		wg.Add(1)
		go func() {
			defer wg.Done()
			pipeline := devnet.newPipeline(group)
			credential, pipelineErr := pipeline.Run(ctx)
			if pipelineErr != nil {
				logrus.Errorf("Readiness pipeline for group '%v' failed: %v", group.Name(), pipelineErr)
			}
			devnet.results.Record(group.Name(), &GroupResult{
				Group:      group,
				State:      pipeline.State(),
				Credential: credential,
				RunningAt:  handle.RunningAt,
				Err:        pipelineErr,
			})
		}()
	}
	wg.Wait()

	devnet.printSummary()

	if failedGroups := devnet.results.FailedGroups(); len(failedGroups) > 0 {
		return stacktrace.NewError("Groups %v failed to become ready", strings.Join(failedGroups, ", "))
	}
	return nil
}

// Down tears down every declared group in reverse declaration order,
// including optional groups, so a stack brought up without reth-only can
// still be cleaned up with it.
func (devnet *Devnet) Down(ctx context.Context) error {
	groupParams := devnet.cfg.Manifest.Groups
	downErrors := []string{}
	for idx := len(groupParams) - 1; idx >= 0; idx-- {
		params := groupParams[idx]
		group, err := devnet.loadGroup(ctx, params, devnet.projectName(params))
		if err != nil {
			downErrors = append(downErrors, err.Error())
			continue
		}
		logrus.Infof("Stopping service group '%v'", group.Name())
		if err := devnet.compose.Down(ctx, group); err != nil {
			downErrors = append(downErrors, err.Error())
		}
	}
	if len(downErrors) > 0 {
		return stacktrace.NewError("Errors occurred tearing the stack down:\n%v", strings.Join(downErrors, "\n"))
	}
	return nil
}

func (devnet *Devnet) includedGroups(ctx context.Context) ([]*stack.ServiceGroup, error) {
	groups := []*stack.ServiceGroup{}
	for _, params := range devnet.cfg.Manifest.Groups {
		if !config.ShouldInclude(params, devnet.cfg) {
			logrus.Infof("Skipping service group '%v'", params.Name)
			continue
		}
		group, err := devnet.loadGroup(ctx, params, devnet.projectName(params))
		if err != nil {
			return nil, stacktrace.Propagate(err, "An error occurred loading service group '%v'", params.Name)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// projectName gives each group its own compose project so groups can be
// started and stopped independently.
func (devnet *Devnet) projectName(params *config.GroupParams) string {
	return devnet.cfg.Manifest.NetworkName + "-" + params.Name
}
