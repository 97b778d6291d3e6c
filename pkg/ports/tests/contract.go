package tests

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// ConfigSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.ConfigSource.
// expected maps every path the source holds to the name of the description stored there.
func ConfigSourceContractTest(t *testing.T, source ports.ConfigSource, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for path, name := range expected {
			desc, err := source.Load(ctx, path)
			if err != nil {
				t.Fatalf("unexpected error loading %s: %v", path, err)
			}
			if desc.Name != name {
				t.Errorf("name mismatch for %s. got %q, want %q", path, desc.Name, name)
			}
			if desc.Kind != domain.KindOptions && desc.Kind != domain.KindContext {
				t.Errorf("unexpected kind for %s: %q", path, desc.Kind)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := source.Load(ctx, "non-existent-description")
		if err == nil {
			t.Fatal("expected error for non-existent path, got nil")
		}
		if !errors.Is(err, domain.ErrDescriptionNotFound) {
			t.Errorf("expected ErrDescriptionNotFound, got %v", err)
		}
	})

	lister, ok := source.(ports.Lister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		paths, err := lister.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing: %v", err)
		}
		want := make([]string, 0, len(expected))
		for p := range expected {
			want = append(want, p)
		}
		sort.Strings(want)
		sort.Strings(paths)
		if len(paths) != len(want) {
			t.Fatalf("expected %d paths, got %d (%v)", len(want), len(paths), paths)
		}
		for i := range want {
			if paths[i] != want[i] {
				t.Errorf("path %d: got %q, want %q", i, paths[i], want[i])
			}
		}
	})
}
