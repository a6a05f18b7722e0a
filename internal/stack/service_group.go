package stack

import (
	"context"
	"fmt"
	"sort"

	"github.com/compose-spec/compose-go/v2/cli"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/config"
)

// ServiceGroup is one named set of containers started together: a service
// group's compose descriptor resolved against the project name it will run
// under.
type ServiceGroup struct {
	Params  *config.GroupParams
	Project *composetypes.Project
}

// Endpoint is a host-published port of one service in the group.
type Endpoint struct {
	Service  string
	HostPort string
	Target   uint32
}

// LoadGroup parses the group's compose file so the launcher knows which
// containers to watch and the summary knows which ports are published.
func LoadGroup(ctx context.Context, params *config.GroupParams, projectName string) (*ServiceGroup, error) {
	options, err := cli.NewProjectOptions(
		[]string{params.ComposeFile},
		cli.WithOsEnv,
		cli.WithName(projectName),
	)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating compose project options for group '%v'", params.Name)
	}

	project, err := options.LoadProject(ctx)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred loading compose file '%v' for group '%v'", params.ComposeFile, params.Name)
	}

	return &ServiceGroup{
		Params:  params,
		Project: project,
	}, nil
}

func (group *ServiceGroup) Name() string {
	return group.Params.Name
}

// ContainerNames returns the container name of every service in the group,
// honoring an explicit container_name and falling back to compose's
// "<project>-<service>-1" convention.
func (group *ServiceGroup) ContainerNames() []string {
	names := []string{}
	for serviceName, service := range group.Project.Services {
		if service.ContainerName != "" {
			names = append(names, service.ContainerName)
			continue
		}
		names = append(names, fmt.Sprintf("%s-%s-1", group.Project.Name, serviceName))
	}
	sort.Strings(names)
	return names
}

// PublishedEndpoints returns the host-reachable ports of the group, sorted
// by service name for stable summary output.
func (group *ServiceGroup) PublishedEndpoints() []Endpoint {
	endpoints := []Endpoint{}
	for serviceName, service := range group.Project.Services {
		for _, port := range service.Ports {
			if port.Published == "" {
				continue
			}
			endpoints = append(endpoints, Endpoint{
				Service:  serviceName,
				HostPort: port.Published,
				Target:   port.Target,
			})
		}
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Service != endpoints[j].Service {
			return endpoints[i].Service < endpoints[j].Service
		}
		return endpoints[i].HostPort < endpoints[j].HostPort
	})
	return endpoints
}
