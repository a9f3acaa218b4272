package patterns

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the embedded patterns sorted by ID.
func Builtin() []*Pattern {
	var out []*Pattern
	entries, _ := fs.ReadDir(builtinFS, "builtin")
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			continue
		}
		p, err := Parse(data)
		if err != nil {
			continue
		}
		p.FilePath = "builtin/" + e.Name()
		out = append(out, p)
	}
	sortByID(out)
	return out
}

// Loader loads patterns from a directory tree.
type Loader struct {
	Root string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Root: dir}
}

// LoadAll recursively loads every .yaml/.yml file under Root, skipping
// files that do not parse. The result is sorted by ID.
func (l *Loader) LoadAll() ([]*Pattern, error) {
	var out []*Pattern
	err := filepath.WalkDir(l.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		p, err := l.LoadFile(path)
		if err != nil {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", l.Root, err)
	}
	sortByID(out)
	return out, nil
}

// LoadFile loads a single pattern file.
func (l *Loader) LoadFile(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}
	p.FilePath = path
	return p, nil
}

// Lookup finds a pattern by ID, first under dir (if not empty) and then
// among the built-ins. A path to a YAML file is also accepted.
func Lookup(id, dir string) (*Pattern, error) {
	if ext := strings.ToLower(filepath.Ext(id)); ext == ".yaml" || ext == ".yml" {
		return NewLoader(filepath.Dir(id)).LoadFile(id)
	}
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			ps, err := NewLoader(dir).LoadAll()
			if err != nil {
				return nil, err
			}
			for _, p := range ps {
				if p.ID == id {
					return p, nil
				}
			}
		}
	}
	for _, p := range Builtin() {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("patterns: pattern not found: %s", id)
}

func sortByID(ps []*Pattern) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
