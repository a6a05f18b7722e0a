package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testPollInterval = 5 * time.Millisecond
	testMaxWait      = 50 * time.Millisecond
)

func succeed(ctx context.Context) error { return nil }

func alwaysFail(ctx context.Context) error { return errors.New("not yet") }

func staticToken(token string) CredentialFunc {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func TestHappyPathReachesReady(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      succeed,
		Init:       succeed,
		Credential: staticToken("tok-123\n"),
		Verify:     func(ctx context.Context, token string) error { return nil },
	}, testPollInterval, testMaxWait)

	credential, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, pipeline.State())
	require.Equal(t, "tok-123", credential.Value)
	require.Equal(t, "celestia", credential.IssuedBy)
	require.Equal(t, "admin", credential.Scope)
}

func TestProbeNeverSucceedingTimesOut(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      alwaysFail,
		Credential: staticToken("unused"),
	}, testPollInterval, testMaxWait)

	start := time.Now()
	_, err := pipeline.Run(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	require.Equal(t, StateFailed, pipeline.State())
	require.Equal(t, FailureTimeout, pipeline.FailureReason())
	require.GreaterOrEqual(t, elapsed, testMaxWait)
	require.Less(t, elapsed, 10*testMaxWait, "polling must stop promptly at maxWait")
}

func TestProbeSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe: func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		},
		Credential: staticToken("tok"),
	}, testPollInterval, testMaxWait)

	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, pipeline.State())
	require.Equal(t, 3, attempts)
}

func TestInitFailure(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      succeed,
		Init:       alwaysFail,
		Credential: staticToken("unused"),
	}, testPollInterval, testMaxWait)

	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, pipeline.State())
	require.Equal(t, FailureInitError, pipeline.FailureReason())
}

func TestMissingCredential(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe: succeed,
		Credential: func(ctx context.Context) (string, error) {
			return "", errors.New("no such file")
		},
	}, testPollInterval, testMaxWait)

	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, FailureCredentialMissing, pipeline.FailureReason())
}

func TestEmptyCredentialIsMissing(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      succeed,
		Credential: staticToken("   \n"),
	}, testPollInterval, testMaxWait)

	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, FailureCredentialMissing, pipeline.FailureReason())
}

func TestVerificationFailureStillReady(t *testing.T) {
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      succeed,
		Init:       succeed,
		Credential: staticToken("tok"),
		Verify: func(ctx context.Context, token string) error {
			return errors.New("rpc unreachable")
		},
	}, testPollInterval, testMaxWait)

	credential, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, pipeline.State())
	require.NotNil(t, credential)
}

func TestCancellationInterruptsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pipeline := NewPipeline("celestia", "admin", Steps{
		Probe:      alwaysFail,
		Credential: staticToken("unused"),
	}, testPollInterval, 10*time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := pipeline.Run(ctx)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, StateFailed, pipeline.State())
}
