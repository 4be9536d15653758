package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// gh defaults
	assert.Equal(t, "gh", cfg.GH.Command)
	assert.Zero(t, cfg.GH.Timeout)

	// Git defaults
	assert.Equal(t, 5*time.Second, cfg.Git.Timeout)

	// Cache defaults
	assert.Equal(t, time.Minute, cfg.Cache.PullRequestsTTL)
	assert.Equal(t, time.Minute, cfg.Cache.IssuesTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DescriptionTTL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.RepositoryTTL)
	assert.Equal(t, time.Minute, cfg.Cache.PruneInterval)

	// Default config should be valid
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name: "negative git timeout",
			modify: func(c *Config) {
				c.Git.Timeout = -1 * time.Second
			},
			wantErr: "git.timeout cannot be negative",
		},
		{
			name: "negative gh timeout",
			modify: func(c *Config) {
				c.GH.Timeout = -1 * time.Second
			},
			wantErr: "gh.timeout cannot be negative",
		},
		{
			name: "empty gh command",
			modify: func(c *Config) {
				c.GH.Command = "   "
			},
			wantErr: "gh.command cannot be empty",
		},
		{
			name: "unterminated quote in gh command",
			modify: func(c *Config) {
				c.GH.Command = `op run -- "gh`
			},
			wantErr: "gh.command is invalid",
		},
		{
			name: "negative pull request ttl",
			modify: func(c *Config) {
				c.Cache.PullRequestsTTL = -time.Minute
			},
			wantErr: "cache.pull_requests_ttl cannot be negative",
		},
		{
			name: "negative prune interval",
			modify: func(c *Config) {
				c.Cache.PruneInterval = -time.Second
			},
			wantErr: "cache.prune_interval cannot be negative",
		},
		{
			name: "zero timeout is valid",
			modify: func(c *Config) {
				c.Git.Timeout = 0
			},
			wantErr: "",
		},
		{
			name: "zero ttl is valid",
			modify: func(c *Config) {
				c.Cache.RepositoryTTL = 0
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestGHConfig_CommandArgs(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{command: "gh", want: []string{"gh"}},
		{command: "/usr/local/bin/gh", want: []string{"/usr/local/bin/gh"}},
		{command: "op run -- gh", want: []string{"op", "run", "--", "gh"}},
		{command: `"/opt/GitHub CLI/gh"`, want: []string{"/opt/GitHub CLI/gh"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := GHConfig{Command: tt.command}.CommandArgs()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocations_Paths(t *testing.T) {
	tests := []struct {
		name         string
		loc          Locations
		wantContains []string // paths that should be in result
		wantOrder    []string // expected order (subset, for key paths)
		wantLast     string
	}{
		{
			name: "all paths same directory",
			loc: Locations{
				Cwd:          "/home/dev/widgets",
				WorktreeRoot: "/home/dev/widgets",
				GitRoot:      "/home/dev/widgets",
				HomeDir:      "/home/dev",
			},
			wantOrder: []string{
				"/home/dev/ghui.toml",
				"/home/dev/widgets/.github/ghui.toml",
				"/home/dev/widgets/ghui.toml",
			},
		},
		{
			name: "worktree in sibling directory",
			loc: Locations{
				Cwd:          "/home/dev/widgets-review",
				WorktreeRoot: "/home/dev/widgets-review",
				GitRoot:      "/home/dev/widgets",
				HomeDir:      "/home/dev",
			},
			wantOrder: []string{
				"/home/dev/ghui.toml",                        // lowest priority
				"/home/dev/widgets/ghui.toml",                // git root
				"/home/dev/widgets-review/.github/ghui.toml", // worktree
				"/home/dev/widgets-review/ghui.toml",         // cwd (highest)
			},
		},
		{
			name: "nested project structure",
			loc: Locations{
				Cwd:          "/home/dev/code/acme/widgets",
				WorktreeRoot: "/home/dev/code/acme/widgets",
				GitRoot:      "/home/dev/code/acme/widgets",
				HomeDir:      "/home/dev",
			},
			wantOrder: []string{
				"/home/dev/ghui.toml",
				"/home/dev/code/ghui.toml",
				"/home/dev/code/acme/ghui.toml",
				"/home/dev/code/acme/widgets/ghui.toml",
			},
		},
		{
			name: "repository outside home",
			loc: Locations{
				Cwd:          "/srv/widgets",
				WorktreeRoot: "/srv/widgets",
				GitRoot:      "/srv/widgets",
				HomeDir:      "/home/dev",
			},
			wantContains: []string{"/srv/widgets/ghui.toml"},
		},
		{
			name: "outside a repository",
			loc:  Locations{Cwd: "/tmp/scratch", HomeDir: "/home/dev"},
			wantContains: []string{
				"/tmp/scratch/ghui.toml",
			},
		},
		{
			name: "cwd differs from worktree root",
			loc: Locations{
				Cwd:          "/home/dev/widgets/internal/cache",
				WorktreeRoot: "/home/dev/widgets",
				GitRoot:      "/home/dev/widgets",
				HomeDir:      "/home/dev",
			},
			wantOrder: []string{
				"/home/dev/ghui.toml",
				"/home/dev/widgets/ghui.toml",
				"/home/dev/widgets/internal/cache/ghui.toml",
			},
		},
		{
			name: "explicit file applies last",
			loc: Locations{
				Cwd:      "/home/dev/widgets",
				GitRoot:  "/home/dev/widgets",
				HomeDir:  "/home/dev",
				Explicit: "/etc/ghui/override.toml",
			},
			wantLast: "/etc/ghui/override.toml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := tt.loc.Paths()

			for _, want := range tt.wantContains {
				assert.Contains(t, paths, want, "expected path to be present")
			}

			if len(tt.wantOrder) > 0 {
				var foundOrder []string
				for _, p := range paths {
					for _, expected := range tt.wantOrder {
						if p == expected {
							foundOrder = append(foundOrder, p)
						}
					}
				}
				assert.Equal(t, tt.wantOrder, foundOrder, "paths should be in priority order (lowest to highest)")
			}

			if tt.wantLast != "" {
				require.NotEmpty(t, paths)
				assert.Equal(t, tt.wantLast, paths[len(paths)-1])
			}

			seen := make(map[string]bool)
			for _, p := range paths {
				assert.False(t, seen[p], "duplicate path: %s", p)
				seen[p] = true
			}
		})
	}
}

func TestLocations_RepositoryOutsideHomeHasNoAncestors(t *testing.T) {
	paths := Locations{GitRoot: "/srv/widgets", HomeDir: "/home/dev"}.Paths()
	assert.NotContains(t, paths, "/home/dev/ghui.toml")
	assert.NotContains(t, paths, "/srv/ghui.toml")
}

func TestLocations_UserConfigDirFirst(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := Locations{Cwd: "/home/dev/widgets", GitRoot: "/home/dev/widgets", HomeDir: "/home/dev"}.Paths()
	require.NotEmpty(t, paths)
	if userDir, err := os.UserConfigDir(); err == nil && userDir == xdg {
		assert.Equal(t, filepath.Join(xdg, "ghui", "ghui.toml"), paths[0])
	}
}

// fakeFileSystem is a test double for FileSystem
type fakeFileSystem struct {
	files map[string]string
}

func (f *fakeFileSystem) ReadFile(path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func TestLoad_MissingFile(t *testing.T) {
	loader := NewLoader(&fakeFileSystem{})

	result, err := loader.Load([]string{"/nonexistent/ghui.toml"})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), result.Config)
	assert.Empty(t, result.SourcePaths)
}

func TestLoad_SingleFile(t *testing.T) {
	const configPath = "/home/dev/widgets/ghui.toml"

	tests := []struct {
		name    string
		content string
		check   func(*testing.T, Config)
	}{
		{
			name: "gh command wrapper",
			content: `[gh]
command = "op run -- gh"
timeout = "30s"
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "op run -- gh", cfg.GH.Command)
				assert.Equal(t, 30*time.Second, cfg.GH.Timeout)
				// Other defaults should remain
				assert.Equal(t, 5*time.Second, cfg.Git.Timeout)
			},
		},
		{
			name: "git timeout",
			content: `[git]
timeout = "10s"
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 10*time.Second, cfg.Git.Timeout)
			},
		},
		{
			name: "cache ttls",
			content: `[cache]
pull_requests_ttl = "30s"
description_ttl = "1h"
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 30*time.Second, cfg.Cache.PullRequestsTTL)
				assert.Equal(t, time.Hour, cfg.Cache.DescriptionTTL)
				// Defaults preserved for unset fields
				assert.Equal(t, time.Minute, cfg.Cache.IssuesTTL)
				assert.Equal(t, 30*time.Minute, cfg.Cache.RepositoryTTL)
			},
		},
		{
			name:    "empty file",
			content: "",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(&fakeFileSystem{files: map[string]string{configPath: tt.content}})
			result, err := loader.Load([]string{configPath})
			require.NoError(t, err)

			tt.check(t, result.Config)
			assert.Equal(t, []string{configPath}, result.SourcePaths)
		})
	}
}

func TestLoad_SequentialOverlay(t *testing.T) {
	loader := NewLoader(&fakeFileSystem{files: map[string]string{
		"/low.toml": `[gh]
command = "gh-low"

[cache]
issues_ttl = "2m"
`,
		"/high.toml": `[gh]
command = "gh-high"
`,
	}})

	result, err := loader.Load([]string{"/low.toml", "/high.toml"})
	require.NoError(t, err)

	// High priority should override gh.command
	assert.Equal(t, "gh-high", result.Config.GH.Command)
	// Low priority should still apply for non-overridden fields
	assert.Equal(t, 2*time.Minute, result.Config.Cache.IssuesTTL)
	assert.Equal(t, []string{"/low.toml", "/high.toml"}, result.SourcePaths)
}

func TestLoad_ZeroValueOverwrite(t *testing.T) {
	loader := NewLoader(&fakeFileSystem{files: map[string]string{
		"/first.toml":  "[cache]\nprune_interval = \"5m\"\n",
		"/second.toml": "[cache]\nprune_interval = \"0s\"\n",
	}})

	result, err := loader.Load([]string{"/first.toml", "/second.toml"})
	require.NoError(t, err)

	// Zero value from second file should override
	assert.Zero(t, result.Config.Cache.PruneInterval)
}

func TestLoad_InvalidTOML(t *testing.T) {
	const configPath = "/home/dev/ghui.toml"
	loader := NewLoader(&fakeFileSystem{files: map[string]string{
		configPath: `[gh
command = "broken`,
	}})

	_, err := loader.Load([]string{configPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
}

func TestLoad_InvalidConfigValues(t *testing.T) {
	const configPath = "/home/dev/ghui.toml"

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "empty command",
			content: `[gh]
command = ""
`,
			wantErr: "gh.command cannot be empty",
		},
		{
			name: "negative ttl",
			content: `[cache]
description_ttl = "-1m"
`,
			wantErr: "cache.description_ttl cannot be negative",
		},
		{
			name: "negative timeout",
			content: `[git]
timeout = "-5s"
`,
			wantErr: "git.timeout cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(&fakeFileSystem{files: map[string]string{configPath: tt.content}})
			_, err := loader.Load([]string{configPath})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReturnsSourcePaths(t *testing.T) {
	tmpDir := t.TempDir()

	path1 := filepath.Join(tmpDir, "one.toml")
	path2 := filepath.Join(tmpDir, "two.toml")
	path3 := filepath.Join(tmpDir, "nonexistent.toml")

	require.NoError(t, os.WriteFile(path1, []byte("[gh]\ncommand = \"gh\""), 0644))
	require.NoError(t, os.WriteFile(path2, []byte("[gh]\ncommand = \"gh\""), 0644))

	loader := NewDefaultLoader()
	result, err := loader.Load([]string{path1, path3, path2})
	require.NoError(t, err)

	// Only existing files should be in source paths
	assert.Equal(t, []string{path1, path2}, result.SourcePaths)
}

func TestLoad_PathIsDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	dirPath := filepath.Join(tmpDir, "ghui.toml")
	require.NoError(t, os.Mkdir(dirPath, 0755))

	loader := NewDefaultLoader()
	result, err := loader.Load([]string{dirPath})
	require.NoError(t, err)

	assert.Empty(t, result.SourcePaths)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadLocations_Explicit(t *testing.T) {
	const explicit = "/etc/ghui/override.toml"

	t.Run("applied last", func(t *testing.T) {
		loader := NewLoader(&fakeFileSystem{files: map[string]string{
			"/home/dev/widgets/ghui.toml": "[gh]\ncommand = \"gh-repo\"\n",
			explicit:                      "[gh]\ncommand = \"gh-explicit\"\n",
		}})

		result, err := loader.LoadLocations(Locations{Cwd: "/home/dev/widgets", Explicit: explicit})
		require.NoError(t, err)
		assert.Equal(t, "gh-explicit", result.Config.GH.Command)
		assert.Equal(t, []string{"/home/dev/widgets/ghui.toml", explicit}, result.SourcePaths)
	})

	t.Run("must exist", func(t *testing.T) {
		loader := NewLoader(&fakeFileSystem{})

		_, err := loader.LoadLocations(Locations{Explicit: explicit})
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvConfigFile)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	tmpDir := t.TempDir()

	filePath := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("test"), 0644))

	dirPath := filepath.Join(tmpDir, "testdir")
	require.NoError(t, os.Mkdir(dirPath, 0755))

	files := OSFileSystem{}

	data, err := files.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "test", string(data))

	_, err = files.ReadFile(dirPath)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = files.ReadFile(filepath.Join(tmpDir, "nonexistent"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewDefaultLoader(t *testing.T) {
	loader := NewDefaultLoader()
	assert.NotNil(t, loader)
	assert.IsType(t, OSFileSystem{}, loader.files)
}
