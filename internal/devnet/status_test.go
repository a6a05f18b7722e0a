package devnet

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/require"
)

type fakeInspector struct {
	running map[string]bool
}

func (inspector *fakeInspector) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	if !inspector.running[containerID] {
		return types.ContainerJSON{}, errors.New("no such container")
	}
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			State: &types.ContainerState{Running: true},
		},
	}, nil
}

func TestStatusReportsContainerStateAndHeight(t *testing.T) {
	cfg := testConfig(false)
	cfg.Manifest.Groups[0].RpcUrl = "http://localhost:8545"

	devnet, _, _, _, out := testDevnet(cfg, nil)
	devnet.inspector = &fakeInspector{running: map[string]bool{"reth": true}}
	devnet.getBlockNumber = func(ctx context.Context, rpcUrl string) (uint64, error) {
		return 1234, nil
	}

	require.NoError(t, devnet.Status(context.Background()))
	output := out.String()
	require.Contains(t, output, "reth")
	require.Contains(t, output, "celestia")
	require.Contains(t, output, "1234")
	require.Contains(t, output, "true")
	require.Contains(t, output, "false")
}

func TestStatusToleratesUnreachableRpc(t *testing.T) {
	cfg := testConfig(false)
	cfg.Manifest.Groups[0].RpcUrl = "http://localhost:8545"

	devnet, _, _, _, _ := testDevnet(cfg, nil)
	devnet.inspector = &fakeInspector{running: map[string]bool{}}
	devnet.getBlockNumber = func(ctx context.Context, rpcUrl string) (uint64, error) {
		return 0, errors.New("connection refused")
	}

	require.NoError(t, devnet.Status(context.Background()))
}
