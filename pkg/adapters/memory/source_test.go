package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	contract "github.com/aretw0/stepwise/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuDoc = `
name: start
kind: options
options:
  - name: Profile
    target: profile
`

const profileDoc = `
name: profile
kind: context
submit: true
fields:
  - name: email
`

func TestMemorySource_Contract(t *testing.T) {
	source := memory.NewSource(map[string]string{
		"start":   menuDoc,
		"profile": profileDoc,
	})

	contract.ConfigSourceContractTest(t, source, map[string]string{
		"start":   "start",
		"profile": "profile",
	})
}

func TestMemorySource_CountsLoads(t *testing.T) {
	source := memory.NewSource(map[string]string{"start": menuDoc})
	ctx := context.Background()

	_, err := source.Load(ctx, "start")
	require.NoError(t, err)
	_, err = source.Load(ctx, "start")
	require.NoError(t, err)

	assert.Equal(t, 2, source.Loads("start"))
	assert.Equal(t, 0, source.Loads("profile"))
}

func TestMemorySource_MalformedDocument(t *testing.T) {
	source := memory.NewSource(map[string]string{"bad": "name: bad\nkind: options\n"})

	_, err := source.Load(context.Background(), "bad")
	require.Error(t, err)

	var cerr *domain.ConstructionError
	assert.ErrorAs(t, err, &cerr)
}

func TestNewFromDescriptions_Validates(t *testing.T) {
	_, err := memory.NewFromDescriptions(map[string]*domain.Description{
		"broken": {Name: "broken", Kind: domain.KindContext},
	})
	assert.Error(t, err)

	source, err := memory.NewFromDescriptions(map[string]*domain.Description{
		"ok": {Name: "ok", Kind: domain.KindContext, Fields: []domain.FieldDescription{{Name: "f1"}}},
	})
	require.NoError(t, err)

	desc, err := source.Load(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "f1", desc.Fields[0].Name)
}
