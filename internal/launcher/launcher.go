package launcher

import (
	"context"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/stack"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRunningPollInterval = 500 * time.Millisecond
	defaultRunningTimeout      = 60 * time.Second
)

// ContainerInspector is the slice of the docker engine API needed to tell
// whether a container's process is up.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
}

type composeUpper interface {
	Up(ctx context.Context, group *stack.ServiceGroup) error
}

// Handle is the launch result for one service group. RunningAt is when every
// container in the group was observed running, which is the signal dependents
// wait on. Running means process-up only; application readiness is the
// readiness pipeline's concern.
type Handle struct {
	Group     *stack.ServiceGroup
	RunningAt time.Time
}

type Launcher struct {
	compose             composeUpper
	docker              ContainerInspector
	runningPollInterval time.Duration
	runningTimeout      time.Duration
}

type LauncherOption func(*Launcher)

func WithRunningPollInterval(interval time.Duration) LauncherOption {
	return func(launcher *Launcher) {
		launcher.runningPollInterval = interval
	}
}

func WithRunningTimeout(timeout time.Duration) LauncherOption {
	return func(launcher *Launcher) {
		launcher.runningTimeout = timeout
	}
}

func NewLauncher(compose composeUpper, docker ContainerInspector, opts ...LauncherOption) *Launcher {
	launcher := &Launcher{
		compose:             compose,
		docker:              docker,
		runningPollInterval: defaultRunningPollInterval,
		runningTimeout:      defaultRunningTimeout,
	}
	for _, opt := range opts {
		opt(launcher)
	}
	return launcher
}

// LaunchAll starts every group, independent groups concurrently. A group
// with dependsOn edges is held back until each dependency's containers are
// all running. Any launch failure cancels the whole call; the error names
// the group that failed.
func (launcher *Launcher) LaunchAll(ctx context.Context, groups []*stack.ServiceGroup) (map[string]*Handle, error) {
	runningSignals := map[string]chan struct{}{}
	for _, group := range groups {
		runningSignals[group.Name()] = make(chan struct{})
	}

	var mutex sync.Mutex
	handles := map[string]*Handle{}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, group := range groups {
		group := group
		eg.Go(func() error {
			for _, dependencyName := range group.Params.DependsOn {
				signal, found := runningSignals[dependencyName]
				if !found {
					return stacktrace.NewError("Group '%v' depends on '%v', which isn't being launched", group.Name(), dependencyName)
				}
				logrus.Debugf("Group '%v' waiting for dependency '%v' to be running", group.Name(), dependencyName)
				select {
				case <-signal:
				case <-egCtx.Done():
					return egCtx.Err()
				}
			}

			logrus.Infof("Launching service group '%v'", group.Name())
			if err := launcher.compose.Up(egCtx, group); err != nil {
				return stacktrace.Propagate(err, "An error occurred launching service group '%v'", group.Name())
			}

			runningAt, err := launcher.waitRunning(egCtx, group)
			if err != nil {
				return stacktrace.Propagate(err, "An error occurred waiting for service group '%v' to be running", group.Name())
			}

			mutex.Lock()
			handles[group.Name()] = &Handle{Group: group, RunningAt: runningAt}
			mutex.Unlock()
			close(runningSignals[group.Name()])
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// waitRunning polls container state until every container of the group has a
// running process, bounded by runningTimeout.
func (launcher *Launcher) waitRunning(ctx context.Context, group *stack.ServiceGroup) (time.Time, error) {
	deadline := time.Now().Add(launcher.runningTimeout)
	containerNames := group.ContainerNames()

	for {
		allRunning := true
		for _, containerName := range containerNames {
			inspectResult, err := launcher.docker.ContainerInspect(ctx, containerName)
			if err != nil || inspectResult.State == nil || !inspectResult.State.Running {
				allRunning = false
				break
			}
		}
		if allRunning {
			return time.Now(), nil
		}

		if time.Now().After(deadline) {
			return time.Time{}, stacktrace.NewError(
				"Containers %v of group '%v' didn't all report running within %v",
				containerNames,
				group.Name(),
				launcher.runningTimeout,
			)
		}
		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-time.After(launcher.runningPollInterval):
		}
	}
}
