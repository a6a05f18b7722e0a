package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultManifestIsValid(t *testing.T) {
	require.NoError(t, ValidateManifest(GetDefaultManifest()))
}

func TestShouldIncludeOptionalGroupByDefault(t *testing.T) {
	group := &GroupParams{Name: "celestia", Optional: true}
	require.True(t, ShouldInclude(group, &Config{RethOnly: false}))
}

func TestShouldExcludeOptionalGroupWhenRethOnly(t *testing.T) {
	group := &GroupParams{Name: "celestia", Optional: true}
	require.False(t, ShouldInclude(group, &Config{RethOnly: true}))
}

func TestShouldAlwaysIncludeRequiredGroup(t *testing.T) {
	group := &GroupParams{Name: "reth"}
	require.True(t, ShouldInclude(group, &Config{RethOnly: true}))
}

func TestLoadManifestParsesDurations(t *testing.T) {
	manifestYaml := `
network: test-net
groups:
  - name: reth
    composeFile: docker/compose.reth.yaml
  - name: celestia
    composeFile: docker/compose.celestia.yaml
    optional: true
    init:
      container: celestia-light
      probeCommand: ["celestia", "state", "account-address"]
      tokenPath: .state/auth-token
      pollInterval: 250ms
      maxWait: 30s
`
	manifestFilepath := filepath.Join(t.TempDir(), "devnet.yaml")
	require.NoError(t, os.WriteFile(manifestFilepath, []byte(manifestYaml), 0644))

	manifest, err := LoadManifest(manifestFilepath)
	require.NoError(t, err)
	require.Equal(t, "test-net", manifest.NetworkName)
	require.Len(t, manifest.Groups, 2)

	init := manifest.Groups[1].Init
	require.NotNil(t, init)
	require.Equal(t, 250*time.Millisecond, init.PollInterval.Std())
	require.Equal(t, 30*time.Second, init.MaxWait.Std())
}

func TestLoadManifestEmptyPathReturnsDefaults(t *testing.T) {
	manifest, err := LoadManifest("")
	require.NoError(t, err)
	require.Equal(t, DefaultNetworkName, manifest.NetworkName)
}

func TestValidateManifestRejectsUnknownDependency(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "reth", ComposeFile: "a.yaml", DependsOn: []string{"nope"}},
		},
	}
	require.Error(t, ValidateManifest(manifest))
}

func TestValidateManifestRejectsSelfDependency(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "reth", ComposeFile: "a.yaml", DependsOn: []string{"reth"}},
		},
	}
	require.Error(t, ValidateManifest(manifest))
}

func TestValidateManifestRejectsDependencyCycle(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "reth", ComposeFile: "a.yaml", DependsOn: []string{"celestia"}},
			{Name: "celestia", ComposeFile: "b.yaml", DependsOn: []string{"reth"}},
		},
	}
	err := ValidateManifest(manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestValidateManifestRejectsTransitiveDependencyCycle(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "a", ComposeFile: "a.yaml", DependsOn: []string{"b"}},
			{Name: "b", ComposeFile: "b.yaml", DependsOn: []string{"c"}},
			{Name: "c", ComposeFile: "c.yaml", DependsOn: []string{"a"}},
		},
	}
	require.Error(t, ValidateManifest(manifest))
}

func TestValidateManifestAcceptsAcyclicDependencies(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "reth", ComposeFile: "a.yaml"},
			{Name: "celestia", ComposeFile: "b.yaml", DependsOn: []string{"reth"}},
			{Name: "faucet", ComposeFile: "c.yaml", DependsOn: []string{"reth", "celestia"}},
		},
	}
	require.NoError(t, ValidateManifest(manifest))
}

func TestValidateManifestRejectsDuplicateGroupNames(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{Name: "reth", ComposeFile: "a.yaml"},
			{Name: "reth", ComposeFile: "b.yaml"},
		},
	}
	require.Error(t, ValidateManifest(manifest))
}

func TestValidateManifestRejectsMaxWaitShorterThanPollInterval(t *testing.T) {
	manifest := &Manifest{
		NetworkName: "test-net",
		Groups: []*GroupParams{
			{
				Name:        "celestia",
				ComposeFile: "a.yaml",
				Init: &InitParams{
					Container:    "celestia-light",
					ProbeCommand: []string{"true"},
					TokenPath:    "token",
					PollInterval: Duration(10 * time.Second),
					MaxWait:      Duration(1 * time.Second),
				},
			},
		},
	}
	require.Error(t, ValidateManifest(manifest))
}
