package cli

import (
	"fmt"

	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/adapters/redis"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/aretw0/stepwise/pkg/ports"
)

// OpenStore returns a Redis store when redisURL is set, a file store when
// persist is set, and nil otherwise.
func OpenStore(redisURL, sessionDir string, persist bool) (ports.SessionStore, error) {
	if redisURL != "" {
		store, err := redis.NewFromURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil
	}
	if persist {
		return file.NewStore(sessionDir), nil
	}
	return nil, nil
}

// SealStore wraps store with snapshot encryption when keys are given.
// A nil store or an empty key list returns store unchanged.
func SealStore(store ports.SessionStore, keys []string) (ports.SessionStore, error) {
	if store == nil || len(keys) == 0 {
		return store, nil
	}
	cfg := middleware.EncryptionConfig{}
	for i, encoded := range keys {
		key, err := middleware.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("session key %d: %w", i, err)
		}
		if i == 0 {
			cfg.ActiveKey = key
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
	}
	seal, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, seal), nil
}
