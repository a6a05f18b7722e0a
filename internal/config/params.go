package config

import (
	"time"

	"github.com/kurtosis-tech/stacktrace"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so manifest values can be written as "30s"
type Duration time.Duration

func (duration *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return stacktrace.Propagate(err, "An error occurred decoding a duration value")
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred parsing duration '%v'", raw)
	}
	*duration = Duration(parsed)
	return nil
}

func (duration Duration) Std() time.Duration {
	return time.Duration(duration)
}

// Manifest declares the full devnet stack: the shared network, the build task
// for the execution-layer binary, and the service groups to bring up.
type Manifest struct {
	NetworkName string         `yaml:"network"`
	Build       *BuildParams   `yaml:"build"`
	Groups      []*GroupParams `yaml:"groups"`
}

type BuildParams struct {
	Command []string `yaml:"command"`
	// WorkDir is where the build command runs; empty means the current
	// directory. Watched paths are resolved against the current directory
	// either way.
	WorkDir      string   `yaml:"workDir"`
	WatchedPaths []string `yaml:"watch"`
}

type GroupParams struct {
	Name        string      `yaml:"name"`
	ComposeFile string      `yaml:"composeFile"`
	Labels      []string    `yaml:"labels"`
	DependsOn   []string    `yaml:"dependsOn"`
	Optional    bool        `yaml:"optional"`
	// RpcUrl is the group's host-reachable JSON-RPC endpoint, used for
	// status reporting
	RpcUrl string      `yaml:"rpcUrl"`
	Init   *InitParams `yaml:"init"`
}

// InitParams describes the post-start initialization a service group needs
// before it counts as ready: a liveness probe executed inside a container,
// a one-shot setup command, the location of the issued auth token, and the
// RPC call used to verify the token works.
type InitParams struct {
	Container    string   `yaml:"container"`
	ProbeCommand []string `yaml:"probeCommand"`
	// SetupContainer is where the setup command runs; defaults to Container.
	// The funding action runs in the validator, which holds the funded key.
	SetupContainer string   `yaml:"setupContainer"`
	SetupCommand   []string `yaml:"setupCommand"`
	TokenPath      string   `yaml:"tokenPath"`
	VerifyRpcUrl   string   `yaml:"verifyRpcUrl"`
	VerifyMethod   string   `yaml:"verifyMethod"`
	PollInterval   Duration `yaml:"pollInterval"`
	MaxWait        Duration `yaml:"maxWait"`
}

// Config is the fully resolved runtime configuration: the manifest plus the
// command-line flags. Immutable once parsed.
type Config struct {
	Manifest *Manifest

	// RethOnly skips every optional service group (the DA node), leaving
	// just the execution-layer node.
	RethOnly bool

	Verbose bool
}
