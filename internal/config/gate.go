package config

// ShouldInclude reports whether a service group should be instantiated under
// the given config. Optional groups are on by default; the reth-only flag
// opts them out. Pure function, so gating decisions are testable without a
// docker daemon anywhere near.
func ShouldInclude(group *GroupParams, cfg *Config) bool {
	if !group.Optional {
		return true
	}
	return !cfg.RethOnly
}
