package network

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	dockernetwork "github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	existing    map[string]bool
	createCalls int
	createErr   error
}

func (api *fakeAPI) NetworkInspect(ctx context.Context, networkID string, options dockernetwork.InspectOptions) (types.NetworkResource, error) {
	if api.existing[networkID] {
		return types.NetworkResource{Name: networkID}, nil
	}
	return types.NetworkResource{}, errdefs.NotFound(errors.New("no such network"))
}

func (api *fakeAPI) NetworkCreate(ctx context.Context, name string, options dockernetwork.CreateOptions) (dockernetwork.CreateResponse, error) {
	api.createCalls++
	if api.createErr != nil {
		return dockernetwork.CreateResponse{}, api.createErr
	}
	api.existing[name] = true
	return dockernetwork.CreateResponse{ID: "abc123"}, nil
}

func TestEnsureCreatesMissingNetwork(t *testing.T) {
	api := &fakeAPI{existing: map[string]bool{}}
	provisioner := NewProvisioner(api)

	require.NoError(t, provisioner.Ensure(context.Background(), "rkb-devnet"))
	require.Equal(t, 1, api.createCalls)
}

func TestEnsureIsIdempotent(t *testing.T) {
	api := &fakeAPI{existing: map[string]bool{}}
	provisioner := NewProvisioner(api)

	require.NoError(t, provisioner.Ensure(context.Background(), "rkb-devnet"))
	require.NoError(t, provisioner.Ensure(context.Background(), "rkb-devnet"))
	require.Equal(t, 1, api.createCalls)
}

func TestEnsureSwallowsConcurrentCreateConflict(t *testing.T) {
	api := &fakeAPI{
		existing:  map[string]bool{},
		createErr: errdefs.Conflict(errors.New("network already exists")),
	}
	provisioner := NewProvisioner(api)

	require.NoError(t, provisioner.Ensure(context.Background(), "rkb-devnet"))
}

func TestEnsurePropagatesOtherCreateErrors(t *testing.T) {
	api := &fakeAPI{
		existing:  map[string]bool{},
		createErr: errors.New("daemon unavailable"),
	}
	provisioner := NewProvisioner(api)

	require.Error(t, provisioner.Ensure(context.Background(), "rkb-devnet"))
}
