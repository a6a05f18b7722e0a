package readiness

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
)

// State is where a service group's post-start initialization currently is.
// The split exists so a stuck bootstrap points at one of four concrete
// failure points instead of one opaque timeout.
type State string

const (
	StateStarting             State = "starting"
	StatePolling              State = "polling"
	StateInitializing         State = "initializing"
	StateExtractingCredential State = "extracting-credential"
	StateVerifying            State = "verifying"
	StateReady                State = "ready"
	StateFailed               State = "failed"
)

type FailureReason string

const (
	FailureNone              FailureReason = ""
	FailureTimeout           FailureReason = "timeout"
	FailureInitError         FailureReason = "init-error"
	FailureCredentialMissing FailureReason = "credential-missing"
)

// Credential is the opaque token a service issues during initialization.
// It's handed to the verification probe and reported in the summary; this
// tool never persists it anywhere.
type Credential struct {
	Value    string
	IssuedBy string
	Scope    string
}

// StepFunc is a side-effecting step against the service (probe or setup);
// success is a nil error.
type StepFunc func(ctx context.Context) error

// CredentialFunc reads the issued token from its well-known location.
type CredentialFunc func(ctx context.Context) (string, error)

// VerifyFunc makes one authenticated call against the service's RPC surface.
type VerifyFunc func(ctx context.Context, token string) error

type Steps struct {
	Probe      StepFunc
	Init       StepFunc
	Credential CredentialFunc
	Verify     VerifyFunc
}

// Pipeline drives one service group from process-up to ready:
//
//	Starting -> Polling -> Initializing -> ExtractingCredential -> Verifying -> Ready | Failed
//
// Polling is bounded by maxWait and interruptible via ctx. Verification is
// diagnostic only: a failed verify call is logged and the pipeline still
// lands on Ready, so a flaky RPC surface can't wedge the bootstrap.
type Pipeline struct {
	groupName       string
	credentialScope string
	steps           Steps
	pollInterval    time.Duration
	maxWait         time.Duration

	mutex  sync.Mutex
	state  State
	reason FailureReason
}

func NewPipeline(groupName string, credentialScope string, steps Steps, pollInterval time.Duration, maxWait time.Duration) *Pipeline {
	return &Pipeline{
		groupName:       groupName,
		credentialScope: credentialScope,
		steps:           steps,
		pollInterval:    pollInterval,
		maxWait:         maxWait,
		state:           StateStarting,
	}
}

func (pipeline *Pipeline) State() State {
	pipeline.mutex.Lock()
	defer pipeline.mutex.Unlock()
	return pipeline.state
}

func (pipeline *Pipeline) FailureReason() FailureReason {
	pipeline.mutex.Lock()
	defer pipeline.mutex.Unlock()
	return pipeline.reason
}

func (pipeline *Pipeline) setState(state State) {
	pipeline.mutex.Lock()
	pipeline.state = state
	pipeline.mutex.Unlock()
	logrus.Debugf("Readiness pipeline for group '%v' entered state '%v'", pipeline.groupName, state)
}

func (pipeline *Pipeline) fail(reason FailureReason, err error) error {
	pipeline.mutex.Lock()
	pipeline.state = StateFailed
	pipeline.reason = reason
	pipeline.mutex.Unlock()
	return err
}

// Run executes the pipeline once and returns the issued credential on Ready.
// It owns its group's state exclusively; no other goroutine mutates it.
func (pipeline *Pipeline) Run(ctx context.Context) (*Credential, error) {
	if err := pipeline.poll(ctx); err != nil {
		return nil, err
	}

	pipeline.setState(StateInitializing)
	if pipeline.steps.Init != nil {
		if err := pipeline.steps.Init(ctx); err != nil {
			return nil, pipeline.fail(FailureInitError, stacktrace.Propagate(
				err,
				"An error occurred running the one-shot init action for group '%v'",
				pipeline.groupName,
			))
		}
	}

	pipeline.setState(StateExtractingCredential)
	tokenValue, err := pipeline.steps.Credential(ctx)
	if err != nil {
		return nil, pipeline.fail(FailureCredentialMissing, stacktrace.Propagate(
			err,
			"An error occurred extracting the credential for group '%v'",
			pipeline.groupName,
		))
	}
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return nil, pipeline.fail(FailureCredentialMissing, stacktrace.NewError(
			"Group '%v' issued an empty credential",
			pipeline.groupName,
		))
	}
	credential := &Credential{
		Value:    tokenValue,
		IssuedBy: pipeline.groupName,
		Scope:    pipeline.credentialScope,
	}

	pipeline.setState(StateVerifying)
	if pipeline.steps.Verify != nil {
		if err := pipeline.steps.Verify(ctx, credential.Value); err != nil {
			// Verification is reporting, not gating
			logrus.Warnf("Verification call for group '%v' failed (continuing anyway): %v", pipeline.groupName, err)
		}
	}

	pipeline.setState(StateReady)
	return credential, nil
}

// poll probes the control surface at pollInterval until the first success,
// giving up after maxWait.
func (pipeline *Pipeline) poll(ctx context.Context) error {
	pipeline.setState(StatePolling)

	deadline := time.NewTimer(pipeline.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(pipeline.pollInterval)
	defer ticker.Stop()

	// First attempt happens immediately rather than one tick in
	if err := pipeline.steps.Probe(ctx); err == nil {
		return nil
	} else {
		logrus.Debugf("Probe for group '%v' not yet succeeding; retrying every %v: %v", pipeline.groupName, pipeline.pollInterval, err)
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.fail(FailureTimeout, stacktrace.Propagate(
				ctx.Err(),
				"Polling for group '%v' was cancelled",
				pipeline.groupName,
			))
		case <-deadline.C:
			return pipeline.fail(FailureTimeout, stacktrace.NewError(
				"Group '%v' didn't become available within %v (polling every %v)",
				pipeline.groupName,
				pipeline.maxWait,
				pipeline.pollInterval,
			))
		case <-ticker.C:
			if err := pipeline.steps.Probe(ctx); err == nil {
				return nil
			} else {
				logrus.Debugf("Probe for group '%v' not yet succeeding: %v", pipeline.groupName, err)
			}
		}
	}
}
