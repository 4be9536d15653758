package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	clog "github.com/charmbracelet/log"
)

// LoadResult contains the loaded config and the files it came from.
type LoadResult struct {
	Config      Config
	SourcePaths []string // files that were applied, lowest priority first
}

// FileSystem reads config files. ReadFile reports missing files and
// directories with an error matching fs.ErrNotExist.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileSystem implements FileSystem using the real OS.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, fs.ErrNotExist)
	}
	return os.ReadFile(path)
}

// Loader overlays config files on top of DefaultConfig.
type Loader struct {
	files FileSystem
	log   *clog.Logger
}

func NewLoader(files FileSystem) *Loader {
	return &Loader{files: files, log: clog.Default().WithPrefix("config")}
}

func NewDefaultLoader() *Loader {
	return NewLoader(OSFileSystem{})
}

// LoadLocations loads the files found at loc. Unlike discovered files, an
// explicit file must exist.
func (l *Loader) LoadLocations(loc Locations) (LoadResult, error) {
	if loc.Explicit != "" {
		if _, err := l.files.ReadFile(loc.Explicit); err != nil {
			return LoadResult{}, fmt.Errorf("failed to read config file %s (from %s): %w", loc.Explicit, EnvConfigFile, err)
		}
	}
	return l.Load(loc.Paths())
}

// Load decodes paths in order, each overriding the keys it sets, and
// validates the result. Missing files are skipped.
func (l *Loader) Load(paths []string) (LoadResult, error) {
	cfg := DefaultConfig()
	var sourcePaths []string

	for _, path := range paths {
		data, err := l.files.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to read %s: %w", path, err)
		}

		metadata, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
			l.log.Warn("Unknown config keys", "path", path, "keys", undecoded)
		}

		l.log.Debug("Loaded config", "path", path)
		sourcePaths = append(sourcePaths, path)
	}

	if err := cfg.Validate(); err != nil {
		return LoadResult{}, fmt.Errorf("invalid config: %w", err)
	}

	return LoadResult{
		Config:      cfg,
		SourcePaths: sourcePaths,
	}, nil
}
