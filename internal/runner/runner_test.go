package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	runner := NewRunner()
	result, err := runner.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2; exit 3")
	require.NoError(t, err)
	require.Equal(t, 3, result.ExitCode)
	require.Equal(t, "out\n", result.Stdout)
	require.Equal(t, "err\n", result.Stderr)
	require.False(t, result.Success())
}

func TestRunSuccess(t *testing.T) {
	runner := NewRunner()
	result, err := runner.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, "hello", result.Stdout)
}

func TestRunUsesConfiguredWorkDir(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "marker.txt"), []byte("x"), 0644))

	runner := NewRunner(WithWorkDir(workDir))
	result, err := runner.Run(context.Background(), "sh", "-c", "ls")
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, "marker.txt\n", result.Stdout)
}

func TestRunAppendsExtraEnv(t *testing.T) {
	runner := NewRunner(WithExtraEnv([]string{"RKB_DEVNET_TEST_VALUE=from-extra-env"}))
	result, err := runner.Run(context.Background(), "sh", "-c", "printf '%s' \"$RKB_DEVNET_TEST_VALUE\"")
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, "from-extra-env", result.Stdout)
}

func TestRunMissingBinaryIsAnError(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err)
}

type fakeCommand struct {
	stdout *bytes.Buffer
	output string
}

func (cmd *fakeCommand) Run() error {
	cmd.stdout.WriteString(cmd.output)
	return nil
}

func TestRunUsesInjectedFactory(t *testing.T) {
	var gotName string
	factory := func(ctx context.Context, stdout *bytes.Buffer, stderr *bytes.Buffer, name string, args ...string) command {
		gotName = name
		return &fakeCommand{stdout: stdout, output: "faked"}
	}
	runner := NewRunner(withCommandFactory(factory))
	result, err := runner.Run(context.Background(), "docker", "compose", "up")
	require.NoError(t, err)
	require.Equal(t, "docker", gotName)
	require.Equal(t, "faked", result.Stdout)
}
