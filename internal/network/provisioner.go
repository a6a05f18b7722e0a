package network

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
)

const (
	networkDriver = "bridge"
)

// API is the slice of the docker engine API that provisioning needs.
type API interface {
	NetworkInspect(ctx context.Context, networkID string, options network.InspectOptions) (types.NetworkResource, error)
	NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error)
}

// Provisioner makes sure the shared devnet network exists before any service
// group is started. All compose files reference the network as external.
type Provisioner struct {
	docker API
}

func NewProvisioner(docker API) *Provisioner {
	return &Provisioner{docker: docker}
}

// Ensure is idempotent: an already-existing network (including one created
// concurrently between the inspect and the create) is success, not an error.
func (provisioner *Provisioner) Ensure(ctx context.Context, name string) error {
	if _, err := provisioner.docker.NetworkInspect(ctx, name, network.InspectOptions{}); err == nil {
		logrus.Debugf("Network '%v' already exists; nothing to do", name)
		return nil
	} else if !errdefs.IsNotFound(err) {
		return stacktrace.Propagate(err, "An error occurred inspecting network '%v'", name)
	}

	if _, err := provisioner.docker.NetworkCreate(ctx, name, network.CreateOptions{Driver: networkDriver}); err != nil {
		if errdefs.IsConflict(err) {
			logrus.Debugf("Network '%v' was created concurrently; nothing to do", name)
			return nil
		}
		return stacktrace.Propagate(err, "An error occurred creating network '%v'", name)
	}

	logrus.Infof("Created network '%v'", name)
	return nil
}
