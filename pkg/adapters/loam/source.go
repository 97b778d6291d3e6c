package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepwise/internal/compiler"
	"github.com/aretw0/stepwise/pkg/domain"
)

// WatchPattern selects the documents whose changes are reported by Watch.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Source adapts a Loam repository to ports.ConfigSource.
// Markdown documents carry the description in their frontmatter; the body,
// when present, is used as the node description.
type Source struct {
	Repo   *loam.TypedRepository[Metadata]
	parser *compiler.Parser
}

// New creates a new Loam source.
func New(repo *loam.TypedRepository[Metadata]) *Source {
	return &Source{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repo: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo)), nil
}

// Load retrieves the document at path and decodes it into a description.
func (s *Source) Load(ctx context.Context, path string) (*domain.Description, error) {
	doc, err := s.Repo.Get(ctx, path)
	if err != nil {
		if s.missing(ctx, path, err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDescriptionNotFound, path)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", path, err)
	}

	raw := toRaw(doc.ID, doc.Data, doc.Content)
	desc, err := s.parser.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// missing reports whether a failed Get means the document does not exist,
// as opposed to existing but being unreadable.
func (s *Source) missing(ctx context.Context, path string, err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	ids, listErr := s.List(ctx)
	if listErr != nil {
		return false
	}
	want := trimExtension(path)
	for _, id := range ids {
		if id == want {
			return false
		}
	}
	return true
}

func toRaw(docID string, meta Metadata, content string) map[string]any {
	raw := map[string]any{
		"kind": meta.Kind,
	}

	name := meta.Name
	if name == "" {
		id := meta.ID
		if id == "" {
			id = docID
		}
		name = filepath.Base(trimExtension(id))
	}
	raw["name"] = name

	description := meta.Description
	if description == "" {
		description = strings.TrimSpace(content)
	}
	if description != "" {
		raw["description"] = description
	}

	if len(meta.Options) > 0 {
		raw["options"] = meta.Options
	}
	if len(meta.Fields) > 0 {
		raw["fields"] = meta.Fields
	}
	if meta.Next != nil {
		raw["next"] = meta.Next
	}
	if meta.Submit {
		raw["submit"] = true
	}
	return raw
}

// List returns every document ID, without extension.
func (s *Source) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: path '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. It emits the path of every changed document.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
