package config

import "time"

const (
	DefaultNetworkName = "rkb-devnet"

	rethGroupName     = "reth"
	celestiaGroupName = "celestia"

	rethComposeFile     = "docker/compose.reth.yaml"
	celestiaComposeFile = "docker/compose.celestia.yaml"

	celestiaContainerName          = "celestia-light"
	celestiaValidatorContainerName = "celestia-validator"

	// The light node writes its admin token into the shared volume mount so
	// host-side tooling can authenticate against its RPC port
	celestiaTokenPath = ".rkb-devnet/celestia/auth-token"

	rethRpcUrl = "http://localhost:8545"

	celestiaRpcUrl       = "http://localhost:26658"
	celestiaVerifyMethod = "header.LocalHead"

	defaultPollInterval = Duration(2 * time.Second)
	defaultMaxWait      = Duration(90 * time.Second)
)

// GetDefaultManifest returns the stack definition used when no devnet.yaml
// override is present: the reth execution node built from the local source
// tree, plus an optional Celestia DA light node that needs funding and an
// auth token before it's usable.
func GetDefaultManifest() *Manifest {
	return &Manifest{
		NetworkName: DefaultNetworkName,
		Build: &BuildParams{
			Command:      []string{"docker", "build", "-t", "rkb-reth:local", "."},
			WatchedPaths: []string{"bin/reth", "crates/rkb", "Cargo.toml", "Cargo.lock", "Dockerfile"},
		},
		Groups: []*GroupParams{
			{
				Name:        rethGroupName,
				ComposeFile: rethComposeFile,
				Labels:      []string{"execution"},
				RpcUrl:      rethRpcUrl,
			},
			{
				Name:        celestiaGroupName,
				ComposeFile: celestiaComposeFile,
				Labels:      []string{"data-availability"},
				Optional:    true,
				RpcUrl:      celestiaRpcUrl,
				Init: &InitParams{
					Container:      celestiaContainerName,
					ProbeCommand:   []string{"celestia", "state", "account-address", "--node.store", "/home/celestia/.celestia-light"},
					SetupContainer: celestiaValidatorContainerName,
					SetupCommand:   []string{"/bin/sh", "/scripts/fund-dev-account.sh"},
					TokenPath:      celestiaTokenPath,
					VerifyRpcUrl:   celestiaRpcUrl,
					VerifyMethod:   celestiaVerifyMethod,
					PollInterval:   defaultPollInterval,
					MaxWait:        defaultMaxWait,
				},
			},
		},
	}
}
