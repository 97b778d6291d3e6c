package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/stepwise/internal/compiler"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Extensions tried, in order, when a path is given without one.
var Extensions = []string{".yaml", ".yml", ".json"}

// Source implements ports.ConfigSource over a directory of description files.
// Paths are slash-separated and relative to the directory.
type Source struct {
	root   string
	parser *compiler.Parser
}

// NewSource creates a source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{root: dir, parser: compiler.NewParser()}
}

// Root returns the source directory.
func (s *Source) Root() string {
	return s.root
}

func (s *Source) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes source directory", path)
	}
	candidates := []string{clean}
	if filepath.Ext(clean) == "" {
		candidates = candidates[:0]
		for _, ext := range Extensions {
			candidates = append(candidates, clean+ext)
		}
	}
	for _, c := range candidates {
		full := filepath.Join(s.root, c)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrDescriptionNotFound, path)
}

// Load reads and parses the description stored at path.
func (s *Source) Load(ctx context.Context, path string) (*domain.Description, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDescriptionNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", full, err)
	}
	desc, err := s.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// List returns the paths of every description file, without extension.
func (s *Source) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(p)
		if !isDescription(ext) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(strings.TrimSuffix(rel, ext)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptions: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func isDescription(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
