// Package workspace handles ruc.toml project files.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	"github.com/xplshn/gruc/pkg/config"
)

// FileName is the name of the workspace file looked up by FindAndLoad.
const FileName = "ruc.toml"

var log = commonlog.GetLogger("gruc.workspace")

// Workspace represents a ruc.toml project configuration.
type Workspace struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`

	// Dir is the directory containing the ruc.toml file (set at load time).
	Dir string `toml:"-"`
}

type Project struct {
	Name string `toml:"name"`
}

// Build lists the sources of the translation unit, in order, and the
// compiler settings for it.
type Build struct {
	Sources    []string `toml:"sources"`
	Output     string   `toml:"output"`
	Backend    string   `toml:"backend"`
	Std        string   `toml:"std"`
	Lang       string   `toml:"lang"`
	Flags      []string `toml:"flags"`
	MaxThreads int      `toml:"max-threads"`
}

// Load parses the ruc.toml file in dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var ws Workspace
	if err := toml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	ws.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if ws.Build.Output == "" {
		ws.Build.Output = "export.txt"
	}
	log.Debugf("loaded %s: %d source(s)", path, len(ws.Build.Sources))
	return &ws, nil
}

// FindAndLoad walks up from startDir to find a ruc.toml file. It returns
// nil if there is none.
func FindAndLoad(startDir string) (*Workspace, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SourcePaths returns the sources resolved against the workspace directory.
func (ws *Workspace) SourcePaths() []string {
	paths := make([]string, 0, len(ws.Build.Sources))
	for _, s := range ws.Build.Sources {
		if filepath.IsAbs(s) {
			paths = append(paths, s)
			continue
		}
		paths = append(paths, filepath.Join(ws.Dir, s))
	}
	return paths
}

// OutputPath returns the image path resolved against the workspace
// directory.
func (ws *Workspace) OutputPath() string {
	if filepath.IsAbs(ws.Build.Output) {
		return ws.Build.Output
	}
	return filepath.Join(ws.Dir, ws.Build.Output)
}

// Apply copies the workspace settings into cfg. Settings the file leaves
// empty keep their current values.
func (ws *Workspace) Apply(cfg *config.Config) error {
	b := ws.Build
	if b.Std != "" {
		if err := cfg.ApplyStd(b.Std); err != nil {
			return fmt.Errorf("%s: %w", FileName, err)
		}
	}
	if b.Lang != "" {
		if err := cfg.SetLang(b.Lang); err != nil {
			return fmt.Errorf("%s: %w", FileName, err)
		}
	}
	if b.Backend != "" {
		cfg.Backend = b.Backend
	}
	if b.MaxThreads > 0 {
		cfg.MaxThreads = b.MaxThreads
	}
	cfg.ProcessFlags(b.Flags)
	return nil
}
