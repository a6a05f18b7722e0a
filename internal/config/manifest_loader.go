package config

import (
	"os"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LoadManifest reads and validates a devnet.yaml manifest. An empty path
// returns the built-in default stack.
func LoadManifest(manifestFilepath string) (*Manifest, error) {
	if manifestFilepath == "" {
		return GetDefaultManifest(), nil
	}

	contents, err := os.ReadFile(manifestFilepath)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred reading manifest file '%v'", manifestFilepath)
	}

	manifestObj := &Manifest{}
	if err := yaml.Unmarshal(contents, manifestObj); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing manifest file '%v'", manifestFilepath)
	}
	if manifestObj.NetworkName == "" {
		manifestObj.NetworkName = DefaultNetworkName
	}

	if err := ValidateManifest(manifestObj); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred validating manifest file '%v'", manifestFilepath)
	}
	return manifestObj, nil
}

func ValidateManifest(manifest *Manifest) error {
	if len(strings.TrimSpace(manifest.NetworkName)) == 0 {
		return stacktrace.NewError("Network name must not be empty")
	}

	// Validate groups
	if len(manifest.Groups) == 0 {
		return stacktrace.NewError("At least one service group is required")
	}
	groupNames := map[string]bool{}
	for idx, group := range manifest.Groups {
		if len(strings.TrimSpace(group.Name)) == 0 {
			return stacktrace.NewError("Service group %v declares an empty name", idx)
		}
		if groupNames[group.Name] {
			return stacktrace.NewError("Service group name '%v' is declared more than once", group.Name)
		}
		groupNames[group.Name] = true

		if len(strings.TrimSpace(group.ComposeFile)) == 0 {
			return stacktrace.NewError("Service group '%v' declares no compose file", group.Name)
		}

		if group.Init != nil {
			if err := validateInitParams(group.Name, group.Init); err != nil {
				return err
			}
		}
	}

	// Dependency edges must point at declared groups, and a group can't
	// depend on itself
	for _, group := range manifest.Groups {
		for _, dependencyName := range group.DependsOn {
			if dependencyName == group.Name {
				return stacktrace.NewError("Service group '%v' declares a dependency on itself", group.Name)
			}
			if !groupNames[dependencyName] {
				return stacktrace.NewError("Service group '%v' depends on undeclared group '%v'", group.Name, dependencyName)
			}
		}
	}
	if err := validateAcyclicDependencies(manifest.Groups); err != nil {
		return err
	}

	if manifest.Build != nil && len(manifest.Build.Command) == 0 {
		logrus.Warnf("The manifest declares a build section with no command; the build stage will be skipped")
	}

	return nil
}

// validateAcyclicDependencies rejects dependency cycles up front; a cycle
// would leave every group in it waiting on another member at launch time,
// so launch order must be a DAG.
func validateAcyclicDependencies(groups []*GroupParams) error {
	dependenciesByGroup := map[string][]string{}
	for _, group := range groups {
		dependenciesByGroup[group.Name] = group.DependsOn
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	visitStates := map[string]int{}
	var visit func(groupName string, path []string) error
	visit = func(groupName string, path []string) error {
		switch visitStates[groupName] {
		case visited:
			return nil
		case visiting:
			return stacktrace.NewError(
				"Service group dependencies form a cycle: %v -> %v",
				strings.Join(path, " -> "),
				groupName,
			)
		}
		visitStates[groupName] = visiting
		for _, dependencyName := range dependenciesByGroup[groupName] {
			if err := visit(dependencyName, append(path, groupName)); err != nil {
				return err
			}
		}
		visitStates[groupName] = visited
		return nil
	}
	for _, group := range groups {
		if err := visit(group.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

func validateInitParams(groupName string, init *InitParams) error {
	if len(strings.TrimSpace(init.Container)) == 0 {
		return stacktrace.NewError("Service group '%v' declares init params without a target container", groupName)
	}
	if len(init.ProbeCommand) == 0 {
		return stacktrace.NewError("Service group '%v' declares init params without a probe command", groupName)
	}
	if len(strings.TrimSpace(init.TokenPath)) == 0 {
		return stacktrace.NewError("Service group '%v' declares init params without a token path", groupName)
	}
	if init.PollInterval <= 0 {
		return stacktrace.NewError("Service group '%v' must poll at an interval >= 1ns", groupName)
	}
	if init.MaxWait <= 0 {
		return stacktrace.NewError("Service group '%v' must declare a positive max wait", groupName)
	}
	if init.MaxWait.Std() < init.PollInterval.Std() {
		return stacktrace.NewError(
			"Service group '%v' declares max wait '%v' shorter than its poll interval '%v'",
			groupName,
			init.MaxWait.Std(),
			init.PollInterval.Std(),
		)
	}
	return nil
}
