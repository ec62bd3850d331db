package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

//go:embed defaults
var defaultsFS embed.FS

// Extensions are tried in this order when looking up a config name.
var Extensions = []string{".yaml", ".yml", ".json"}

// Source reads configuration documents of a given kind (a sub-directory such
// as "config") by name. A missing document is an empty mapping, not an error.
type Source interface {
	Read(kind, name string) (map[string]any, error)
	Name() string
}

// FSSource reads documents from a file system.
type FSSource struct {
	fsys  fs.FS
	label string
	dir   string
}

// NewFSSource creates a source over fsys. label is used in error messages.
func NewFSSource(fsys fs.FS, label string) *FSSource {
	return &FSSource{fsys: fsys, label: label}
}

// DirSource creates a source rooted at a directory on disk.
func DirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir), label: dir, dir: dir}
}

// Framework returns the source of the framework's built-in defaults.
func Framework() *FSSource {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic(fmt.Errorf("config: embedded defaults: %w", err))
	}
	return NewFSSource(sub, "framework")
}

// Name returns the source label.
func (s *FSSource) Name() string {
	return s.label
}

// Dir returns the on-disk directory of the source, or "" for virtual ones.
func (s *FSSource) Dir() string {
	return s.dir
}

// Read loads kind/name with the first extension that exists.
func (s *FSSource) Read(kind, name string) (map[string]any, error) {
	for _, ext := range Extensions {
		file := path.Join(kind, name+ext)

		data, err := fs.ReadFile(s.fsys, file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: reading %s from %s: %w", file, s.label, err)
		}

		tree, err := Parse(data, ext)
		if err != nil {
			return nil, fmt.Errorf("%s (%s): %w", file, s.label, err)
		}
		return tree, nil
	}

	return map[string]any{}, nil
}

// Parse decodes a YAML or JSON (comments allowed) document. The document
// must be a mapping; an empty document is an empty mapping.
func Parse(data []byte, ext string) (map[string]any, error) {
	var doc any

	switch ext {
	case ".json":
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
		}
	}

	if doc == nil {
		return map[string]any{}, nil
	}

	tree, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is %T, not a mapping", ErrInvalidConfigFormat, doc)
	}
	return tree, nil
}

// MapSource serves documents from memory, keyed by "kind/name".
type MapSource map[string]map[string]any

// Read returns a copy of the stored document.
func (m MapSource) Read(kind, name string) (map[string]any, error) {
	if tree, ok := m[path.Join(kind, name)]; ok {
		return DeepCopyMap(tree), nil
	}
	return map[string]any{}, nil
}

// Name returns "memory".
func (m MapSource) Name() string {
	return "memory"
}
