package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/stepwise/internal/compiler"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Source implements ports.ConfigSource using an in-memory map.
// Raw documents are parsed on every Load; descriptions added directly are returned as is.
type Source struct {
	mu     sync.RWMutex
	raw    map[string][]byte
	descs  map[string]*domain.Description
	loads  map[string]int
	parser *compiler.Parser
}

// NewSource creates a source from raw YAML (or JSON) documents keyed by path.
func NewSource(data map[string]string) *Source {
	s := &Source{
		raw:    make(map[string][]byte, len(data)),
		descs:  make(map[string]*domain.Description),
		loads:  make(map[string]int),
		parser: compiler.NewParser(),
	}
	for k, v := range data {
		s.raw[k] = []byte(v)
	}
	return s
}

// NewFromDescriptions creates a source from already parsed descriptions.
// Every description is validated up front.
func NewFromDescriptions(descs map[string]*domain.Description) (*Source, error) {
	s := NewSource(nil)
	for path, d := range descs {
		if d == nil {
			return nil, fmt.Errorf("description %q is nil", path)
		}
		if err := compiler.Validate(d); err != nil {
			return nil, fmt.Errorf("invalid description %q: %w", path, err)
		}
		s.descs[path] = d
	}
	return s, nil
}

// Put adds or replaces a raw document.
func (s *Source) Put(path, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.descs, path)
	s.raw[path] = []byte(raw)
}

// Load returns the description stored at path.
func (s *Source) Load(ctx context.Context, path string) (*domain.Description, error) {
	s.mu.Lock()
	s.loads[path]++
	d, isDesc := s.descs[path]
	raw, isRaw := s.raw[path]
	s.mu.Unlock()

	switch {
	case isDesc:
		return d, nil
	case isRaw:
		desc, err := s.parser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("description %q: %w", path, err)
		}
		return desc, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrDescriptionNotFound, path)
	}
}

// List returns all available paths.
func (s *Source) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.raw)+len(s.descs))
	for k := range s.raw {
		keys = append(keys, k)
	}
	for k := range s.descs {
		if _, dup := s.raw[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// Loads reports how many times path was requested.
func (s *Source) Loads(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads[path]
}
