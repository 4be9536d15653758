package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appName        = "ghui"
	configFileName = "ghui.toml"

	// EnvConfigFile names a config file applied after every discovered one.
	EnvConfigFile = "GHUI_CONFIG"
)

// Locations describes where ghui.toml files are looked up. Empty fields are
// skipped, so the zero value finds only the user config file.
type Locations struct {
	Cwd          string
	WorktreeRoot string
	GitRoot      string // root of the main worktree
	HomeDir      string
	Explicit     string // usually the value of GHUI_CONFIG
}

// Paths returns the candidate files from lowest to highest priority:
//
//  1. ~/.config/ghui/ghui.toml
//  2. ghui.toml in each directory from HomeDir down to the parent of GitRoot
//  3. .github/ghui.toml, then ghui.toml, in GitRoot
//  4. the same two files in WorktreeRoot
//  5. ghui.toml in Cwd
//  6. Explicit
//
// Each path appears once, at its first position.
func (l Locations) Paths() []string {
	var paths []string
	seen := make(map[string]bool)

	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	addDir := func(dir string) {
		if dir != "" {
			add(filepath.Join(dir, configFileName))
		}
	}
	addRepo := func(root string) {
		if root != "" {
			add(filepath.Join(root, ".github", configFileName))
			addDir(root)
		}
	}

	if userDir, err := os.UserConfigDir(); err == nil {
		addDir(filepath.Join(userDir, appName))
	}
	for _, dir := range ancestorsBelow(l.HomeDir, l.GitRoot) {
		addDir(dir)
	}
	addRepo(l.GitRoot)
	addRepo(l.WorktreeRoot)
	addDir(l.Cwd)
	add(l.Explicit)

	return paths
}

// ancestorsBelow returns home and every directory below it down to the parent
// of root. It returns nil when root is not inside home.
func ancestorsBelow(home, root string) []string {
	if home == "" || root == "" {
		return nil
	}
	rel, err := filepath.Rel(home, filepath.Dir(root))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	dirs := []string{home}
	if rel == "." {
		return dirs
	}
	current := home
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}
