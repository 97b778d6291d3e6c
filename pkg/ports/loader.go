package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ConfigSource turns a path into a parsed node description.
// The engine calls Load at most once per distinct path per session and never retries on its own.
// Implementations return an error wrapping domain.ErrDescriptionNotFound when the path is unknown.
type ConfigSource interface {
	Load(ctx context.Context, path string) (*domain.Description, error)
}

// Lister is implemented by sources that can enumerate their paths.
// It is used by validation and introspection tooling.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the path of each changed description.
	Watch(ctx context.Context) (<-chan string, error)
}
