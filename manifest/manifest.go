// Package manifest handles dexpatch.toml patch-bundle configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/dexpatch/patcher"
	"github.com/chazu/dexpatch/pkg/dex"
)

// Manifest represents a dexpatch.toml patch-bundle configuration.
type Manifest struct {
	Bundle     Bundle      `toml:"bundle"`
	Input      Input       `toml:"input"`
	Output     Output      `toml:"output"`
	Apply      Apply       `toml:"apply"`
	Signatures []Signature `toml:"signature"`

	// Dir is the directory containing the dexpatch.toml file (set at load time).
	Dir string `toml:"-"`
}

// Bundle contains bundle metadata.
type Bundle struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Input configures the containers to load and the merge policy.
type Input struct {
	Containers        []string `toml:"containers"`
	AllowedOverwrites []string `toml:"allowed-overwrites"`
	StrictDuplicates  bool     `toml:"strict-duplicates"`
}

// Output configures where patched containers and the output store go.
type Output struct {
	Dir   string `toml:"dir"`
	Store string `toml:"store"`
}

// Apply configures pipeline behavior.
type Apply struct {
	StopOnError bool `toml:"stop-on-error"`
}

// Signature is one declarative method fingerprint in manifest form: flag
// names instead of a bit mask, mnemonics instead of opcodes.
type Signature struct {
	Name    string   `toml:"name"`
	Flags   []string `toml:"flags"`
	Return  string   `toml:"return"`
	Params  []string `toml:"params"`
	Pattern []string `toml:"pattern"`
}

// Load parses a dexpatch.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "dexpatch.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Output.Dir == "" {
		m.Output.Dir = "out"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a dexpatch.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "dexpatch.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ContainerPaths returns absolute paths for the configured input containers.
func (m *Manifest) ContainerPaths() []string {
	var paths []string
	for _, c := range m.Input.Containers {
		if filepath.IsAbs(c) {
			paths = append(paths, c)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, c))
	}
	return paths
}

// OutputDir returns the absolute output directory.
func (m *Manifest) OutputDir() string {
	if filepath.IsAbs(m.Output.Dir) {
		return m.Output.Dir
	}
	return filepath.Join(m.Dir, m.Output.Dir)
}

// StorePath returns the absolute path of the output store, or "" if no
// store is configured.
func (m *Manifest) StorePath() string {
	if m.Output.Store == "" {
		return ""
	}
	if filepath.IsAbs(m.Output.Store) {
		return m.Output.Store
	}
	return filepath.Join(m.Dir, m.Output.Store)
}

// CompileSignatures converts the manifest's declarative signature entries
// into method fingerprints: flag names become a mask, mnemonics become
// opcode pattern slots. An absent params key is a wildcard; an explicitly
// empty list means "no parameters".
func (m *Manifest) CompileSignatures() ([]*patcher.MethodSignature, error) {
	sigs := make([]*patcher.MethodSignature, 0, len(m.Signatures))
	for _, entry := range m.Signatures {
		if entry.Name == "" {
			return nil, fmt.Errorf("signature without a name in %s", m.Dir)
		}

		var mask dex.AccessFlags
		for _, name := range entry.Flags {
			flag, ok := dex.FlagFromName(name)
			if !ok {
				return nil, fmt.Errorf("signature %q: unknown access flag %q", entry.Name, name)
			}
			mask |= flag
		}

		pattern, err := patcher.ParsePattern(entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", entry.Name, err)
		}

		sigs = append(sigs, &patcher.MethodSignature{
			Name:       entry.Name,
			FlagsMask:  mask,
			ReturnType: entry.Return,
			Params:     entry.Params,
			Pattern:    pattern,
		})
	}
	return sigs, nil
}
