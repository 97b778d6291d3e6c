package dsl

import (
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/hashicorp/go-multierror"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	desc    *domain.Description
	builder *Builder
}

// Ref selects the node an option, choice or successor leads to.
type Ref func() *domain.RefDescription

// To references the node stored at path, built eagerly.
func To(path string) Ref {
	return func() *domain.RefDescription { return &domain.RefDescription{Path: path} }
}

// Lazy references the node stored at path, built on first use.
func Lazy(path string) Ref {
	return func() *domain.RefDescription { return &domain.RefDescription{Path: path, Lazy: true} }
}

// FromSource references path in the ConfigSource at index source.
func FromSource(source int, path string, lazy bool) Ref {
	return func() *domain.RefDescription {
		return &domain.RefDescription{Path: path, Source: source, Lazy: lazy}
	}
}

// Inline embeds the node built by nb instead of referencing a path.
// nb should come from a separate Builder so it is not also stored on its own.
func Inline(nb *NodeBuilder) Ref {
	return func() *domain.RefDescription { return &domain.RefDescription{Node: nb.desc} }
}

// OptionSetting tweaks an option or a choice.
type OptionSetting func(*domain.OptionDescription)

// Submit finishes the flow when the option is taken.
func Submit() OptionSetting {
	return func(o *domain.OptionDescription) { o.Submit = true }
}

// ResetOnEnter clears the target's progress every time the option is taken.
func ResetOnEnter() OptionSetting {
	return func(o *domain.OptionDescription) { o.ResetOnEnter = true }
}

// Goto sends a verified-field choice somewhere other than back to its form.
func Goto(ref Ref) OptionSetting {
	return func(o *domain.OptionDescription) { o.Target = ref() }
}

// Choice declares one answer of a verified field.
func Choice(name string, settings ...OptionSetting) domain.OptionDescription {
	o := domain.OptionDescription{Name: name}
	for _, s := range settings {
		s(&o)
	}
	return o
}

// Describe sets the text shown with the node.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.desc.Description = text
	return n
}

// Named overrides the display name, which defaults to the path.
func (n *NodeBuilder) Named(name string) *NodeBuilder {
	n.desc.Name = name
	return n
}

// Option adds a menu entry leading to target.
func (n *NodeBuilder) Option(name string, target Ref, settings ...OptionSetting) *NodeBuilder {
	if n.desc.Kind != domain.KindOptions {
		return n.fail("option %q on form %q", name, n.desc.Name)
	}
	o := domain.OptionDescription{Name: name, Target: target()}
	for _, s := range settings {
		s(&o)
	}
	n.desc.Options = append(n.desc.Options, o)
	return n
}

// Field adds a free-text field. An optional value pre-fills it.
func (n *NodeBuilder) Field(name string, value ...string) *NodeBuilder {
	if n.desc.Kind != domain.KindContext {
		return n.fail("field %q on menu %q", name, n.desc.Name)
	}
	fd := domain.FieldDescription{Name: name, Kind: domain.FieldPlain}
	if len(value) > 0 {
		fd.Value = value[0]
	}
	n.desc.Fields = append(n.desc.Fields, fd)
	return n
}

// Verified adds a field answered from a closed menu plus a free-text fallback.
func (n *NodeBuilder) Verified(name string, choices ...domain.OptionDescription) *NodeBuilder {
	if n.desc.Kind != domain.KindContext {
		return n.fail("field %q on menu %q", name, n.desc.Name)
	}
	n.desc.Fields = append(n.desc.Fields, domain.FieldDescription{
		Name:    name,
		Kind:    domain.FieldVerified,
		Choices: choices,
	})
	return n
}

// Other customizes the fallback of the last verified field.
func (n *NodeBuilder) Other(label, prompt string) *NodeBuilder {
	last := len(n.desc.Fields) - 1
	if last < 0 || !n.desc.Fields[last].IsVerified() {
		return n.fail("other on %q without a verified field", n.desc.Name)
	}
	n.desc.Fields[last].Other = label
	n.desc.Fields[last].OtherPrompt = prompt
	return n
}

// Next sets the node that follows a completed form.
func (n *NodeBuilder) Next(ref Ref) *NodeBuilder {
	if n.desc.Kind != domain.KindContext {
		return n.fail("next on menu %q", n.desc.Name)
	}
	n.desc.Next = ref()
	return n
}

// SubmitOnComplete finishes the flow when the form completes.
func (n *NodeBuilder) SubmitOnComplete() *NodeBuilder {
	n.desc.Submit = true
	return n
}

// Build returns the underlying description.
func (n *NodeBuilder) Build() *domain.Description {
	return n.desc
}

func (n *NodeBuilder) fail(format string, args ...any) *NodeBuilder {
	n.builder.errs = multierror.Append(n.builder.errs, fmt.Errorf("dsl: "+format, args...))
	return n
}
