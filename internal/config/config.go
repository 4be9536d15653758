package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/shlex"
)

// Config represents the complete ghui configuration.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	GH    GHConfig    `toml:"gh"`
	Git   GitConfig   `toml:"git"`
}

// Validate checks that all config values are valid.
// Returns an error describing the first invalid value found.
func (c Config) Validate() error {
	if _, err := c.GH.CommandArgs(); err != nil {
		return err
	}
	if c.GH.Timeout < 0 {
		return errors.New("gh.timeout cannot be negative")
	}
	if c.Git.Timeout < 0 {
		return errors.New("git.timeout cannot be negative")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"cache.pull_requests_ttl", c.Cache.PullRequestsTTL},
		{"cache.issues_ttl", c.Cache.IssuesTTL},
		{"cache.description_ttl", c.Cache.DescriptionTTL},
		{"cache.repository_ttl", c.Cache.RepositoryTTL},
		{"cache.prune_interval", c.Cache.PruneInterval},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%s cannot be negative", d.name)
		}
	}
	return nil
}

// CacheConfig configures how long results stay fresh. A zero TTL keeps
// results until they are invalidated; a zero prune interval disables pruning.
type CacheConfig struct {
	DescriptionTTL  time.Duration `toml:"description_ttl"`
	IssuesTTL       time.Duration `toml:"issues_ttl"`
	PruneInterval   time.Duration `toml:"prune_interval"`
	PullRequestsTTL time.Duration `toml:"pull_requests_ttl"`
	RepositoryTTL   time.Duration `toml:"repository_ttl"`
}

// GHConfig configures gh command execution.
type GHConfig struct {
	// Command is the gh invocation, split like a shell would,
	// e.g. "op run -- gh" to run gh through a wrapper.
	Command string        `toml:"command"`
	Timeout time.Duration `toml:"timeout"` // 0 = no timeout
}

// CommandArgs splits Command into the binary and its leading arguments.
func (g GHConfig) CommandArgs() ([]string, error) {
	args, err := shlex.Split(g.Command)
	if err != nil {
		return nil, fmt.Errorf("gh.command is invalid: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("gh.command cannot be empty")
	}
	return args, nil
}

// GitConfig configures git command execution.
type GitConfig struct {
	Timeout time.Duration `toml:"timeout"` // Timeout for git commands (e.g., "5s")
}
