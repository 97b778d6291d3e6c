package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/dsl"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signup() *dsl.Builder {
	b := dsl.New()
	b.Menu("start").
		Describe("Welcome").
		Option("Sign up", dsl.To("account"), dsl.ResetOnEnter()).
		Option("Leave", dsl.Lazy("bye"), dsl.Submit())

	b.Form("account").
		Field("email").
		Verified("plan", dsl.Choice("Free"), dsl.Choice("Pro", dsl.Goto(dsl.Lazy("billing")))).
		Other("Something else", "Which plan?").
		Next(dsl.To("confirm"))

	b.Form("confirm").Field("nickname", "anon").SubmitOnComplete()
	b.Form("bye").Field("reason")
	b.Form("billing").Field("card")
	return b
}

func TestBuilder_Descriptions(t *testing.T) {
	b := signup()
	assert.Equal(t, []string{"account", "billing", "bye", "confirm", "start"}, b.Paths())

	descs := b.Descriptions()
	start := descs["start"]
	assert.Equal(t, domain.KindOptions, start.Kind)
	assert.Equal(t, "Welcome", start.Description)
	require.Len(t, start.Options, 2)
	assert.True(t, start.Options[0].ResetOnEnter)
	assert.Equal(t, &domain.RefDescription{Path: "bye", Lazy: true}, start.Options[1].Target)
	assert.True(t, start.Options[1].Submit)

	account := descs["account"]
	require.Len(t, account.Fields, 2)
	plan := account.Fields[1]
	assert.True(t, plan.IsVerified())
	assert.Equal(t, "Something else", plan.Other)
	assert.Equal(t, "Which plan?", plan.OtherPrompt)
	assert.Equal(t, "billing", plan.Choices[1].Target.Path)

	confirm := descs["confirm"]
	assert.True(t, confirm.Submit)
	assert.Equal(t, "anon", confirm.Fields[0].Value)
}

func TestBuilder_BuildsAWalkableSource(t *testing.T) {
	source, err := signup().Build()
	require.NoError(t, err)

	ctx := context.Background()
	engine := runtime.NewEngine()
	loader := runtime.NewLoader([]ports.ConfigSource{source})
	root, err := loader.Root(ctx, "start")
	require.NoError(t, err)

	res, err := engine.Input(ctx, root, "Sign up")
	require.NoError(t, err)
	require.True(t, res.InputRecognized)
	assert.Equal(t, "account", domain.NameOf(res.Next))

	ids, err := source.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 5)
}

func TestBuilder_Misuse(t *testing.T) {
	b := dsl.New()
	b.Menu("start").Field("oops")
	b.Form("form").Option("nope", dsl.To("start")).Other("x", "y")
	b.Form("start")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "oops" on menu "start"`)
	assert.Contains(t, err.Error(), `option "nope" on form "form"`)
	assert.Contains(t, err.Error(), `other on "form" without a verified field`)
	assert.Contains(t, err.Error(), `"start" redeclared as context`)
}

func TestBuilder_InvalidDescription(t *testing.T) {
	b := dsl.New()
	b.Menu("empty")

	_, err := b.Build()
	var ce *domain.ConstructionError
	assert.ErrorAs(t, err, &ce)
}

func TestBuilder_InlineAndNamed(t *testing.T) {
	inner := dsl.New().Form("inline").Named("Details").Field("note")

	b := dsl.New()
	b.Menu("start").Option("Go", dsl.Inline(inner))

	source, err := b.Build()
	require.NoError(t, err)

	root, err := runtime.NewLoader([]ports.ConfigSource{source}).Root(context.Background(), "start")
	require.NoError(t, err)
	target := root.(*domain.OptionsNode).Options[0].Target
	assert.Equal(t, "Details", domain.NameOf(target))
}
