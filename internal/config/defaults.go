package config

import "time"

// DefaultConfig returns sensible defaults for all configuration.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			DescriptionTTL:  5 * time.Minute,
			IssuesTTL:       time.Minute,
			PruneInterval:   time.Minute,
			PullRequestsTTL: time.Minute,
			RepositoryTTL:   30 * time.Minute,
		},
		GH: GHConfig{
			Command: "gh",
		},
		Git: GitConfig{
			Timeout: 5 * time.Second,
		},
	}
}
