package dsl

import (
	"fmt"
	"sort"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/hashicorp/go-multierror"
)

// Builder manages the graph construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	errs  *multierror.Error
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Menu adds an options node stored at path.
// If the path already exists, it returns the existing builder.
func (b *Builder) Menu(path string) *NodeBuilder {
	return b.add(path, domain.KindOptions)
}

// Form adds a context node stored at path.
// If the path already exists, it returns the existing builder.
func (b *Builder) Form(path string) *NodeBuilder {
	return b.add(path, domain.KindContext)
}

func (b *Builder) add(path, kind string) *NodeBuilder {
	if nb, ok := b.nodes[path]; ok {
		if nb.desc.Kind != kind {
			nb.fail("%q redeclared as %s", path, kind)
		}
		return nb
	}
	nb := &NodeBuilder{
		desc:    &domain.Description{Name: path, Kind: kind},
		builder: b,
	}
	b.nodes[path] = nb
	return nb
}

// Paths returns the declared paths in sorted order.
func (b *Builder) Paths() []string {
	paths := make([]string, 0, len(b.nodes))
	for p := range b.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Descriptions returns the declared descriptions keyed by path.
func (b *Builder) Descriptions() map[string]*domain.Description {
	out := make(map[string]*domain.Description, len(b.nodes))
	for p, nb := range b.nodes {
		out[p] = nb.desc
	}
	return out
}

// Build compiles the graph into a memory source.
// Misuse of the builder and structural problems are reported together.
func (b *Builder) Build() (*memory.Source, error) {
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	source, err := memory.NewFromDescriptions(b.Descriptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return source, nil
}
