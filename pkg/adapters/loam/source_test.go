package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/stepwise/internal/testutils"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Contract(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()

	docs := []core.Document{
		{
			ID: "start.md",
			Content: `---
kind: options
options:
  - name: Profile
    target: profile
---
Welcome`,
		},
		{
			ID: "profile.md",
			Content: `---
name: profile
kind: context
fields:
  - name: email
---`,
		},
	}
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc))
	}

	source := New(loam.NewTypedRepository[Metadata](repo))
	tests.ConfigSourceContractTest(t, source, map[string]string{
		"start":   "start",
		"profile": "profile",
	})
}

func TestSource_BodyBecomesDescription(t *testing.T) {
	_, repo := testutils.SetupFlowRepo(t, map[string]string{
		"intro.md": `---
kind: context
submit: true
fields:
  - name: nickname
  - name: plan
    kind: verified
    choices:
      - name: Free
      - name: Pro
        target: upsell
next:
  path: outro
  lazy: true
---
Tell us **who** you are.`,
	})

	source := New(loam.NewTypedRepository[Metadata](repo))
	desc, err := source.Load(context.Background(), "intro")
	require.NoError(t, err)

	assert.Equal(t, "intro", desc.Name)
	assert.Equal(t, "Tell us **who** you are.", desc.Description)
	assert.True(t, desc.Submit)
	require.Len(t, desc.Fields, 2)
	assert.True(t, desc.Fields[1].IsVerified())
	assert.Equal(t, "upsell", desc.Fields[1].Choices[1].Target.Path)
	require.NotNil(t, desc.Next)
	assert.Equal(t, "outro", desc.Next.Path)
	assert.True(t, desc.Next.Lazy)
}

func TestSource_InvalidDocument(t *testing.T) {
	_, repo := testutils.SetupFlowRepo(t, map[string]string{
		"broken.md": `---
kind: options
---`,
	})

	source := New(loam.NewTypedRepository[Metadata](repo))
	_, err := source.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDescriptionNotFound)

	var cerr *domain.ConstructionError
	assert.ErrorAs(t, err, &cerr)
}

func TestSource_List_NormalizesIDs(t *testing.T) {
	_, repo := testutils.SetupFlowRepo(t, map[string]string{
		"start.md":        "---\nkind: context\nfields:\n  - name: a\n---\n",
		"forms/choice.md": "---\nkind: context\nfields:\n  - name: b\n---\n",
	})

	source := New(loam.NewTypedRepository[Metadata](repo))
	ids, err := source.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"forms/choice", "start"}, ids)
}

func TestSource_List_DetectsCollisions(t *testing.T) {
	_, repo := testutils.SetupFlowRepo(t, map[string]string{
		"foo.md":   "---\nkind: context\nfields:\n  - name: a\n---\n",
		"foo.json": `{"kind": "context", "fields": [{"name": "a"}]}`,
	})

	source := New(loam.NewTypedRepository[Metadata](repo))
	_, err := source.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "a/b", trimExtension("a/b.md"))
	assert.Equal(t, "plain", trimExtension("plain"))
}
