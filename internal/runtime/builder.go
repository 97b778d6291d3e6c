package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Build turns a description into a node attached to parent.
// Eager references are materialized before Build returns; lazy ones become holders.
// path identifies the description for error reporting.
func (l *Loader) Build(ctx context.Context, desc *domain.Description, path string, parent domain.Node, backSteps int) (domain.Node, error) {
	switch desc.Kind {
	case domain.KindOptions:
		return l.buildOptions(ctx, desc, path, parent, backSteps)
	case domain.KindContext:
		return l.buildContext(ctx, desc, path, parent, backSteps)
	default:
		return nil, &domain.ConstructionError{Path: path, Node: desc.Name, Reason: fmt.Sprintf("unknown kind %q", desc.Kind)}
	}
}

func (l *Loader) buildOptions(ctx context.Context, desc *domain.Description, path string, parent domain.Node, backSteps int) (domain.Node, error) {
	if len(desc.Options) == 0 {
		return nil, &domain.ConstructionError{Path: path, Node: desc.Name, Reason: "options node without options"}
	}

	node := domain.NewOptionsNode(desc.Name, desc.Description, parent, backSteps)
	options := make([]domain.Option, 0, len(desc.Options))
	for _, od := range desc.Options {
		if od.Target == nil {
			return nil, &domain.ConstructionError{Path: path, Node: desc.Name, Reason: fmt.Sprintf("option %q has no target", od.Name)}
		}
		target, err := l.ref(ctx, od.Target, path, node, domain.StepsFromOption)
		if err != nil {
			return nil, err
		}
		options = append(options, domain.Option{
			Name:         od.Name,
			Submit:       od.Submit,
			ResetOnEnter: od.ResetOnEnter,
			Target:       target,
		})
	}
	node.Options = options
	return node, nil
}

func (l *Loader) buildContext(ctx context.Context, desc *domain.Description, path string, parent domain.Node, backSteps int) (domain.Node, error) {
	if len(desc.Fields) == 0 {
		return nil, &domain.ConstructionError{Path: path, Node: desc.Name, Reason: "context node without fields"}
	}

	node := domain.NewContextNode(desc.Name, desc.Description, parent, backSteps)
	node.SubmitOnComplete = desc.Submit

	fields := make([]domain.Field, 0, len(desc.Fields))
	for _, fd := range desc.Fields {
		field, err := l.buildField(fd, path, desc.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	node.Fields = fields

	if desc.Next != nil {
		next, err := l.ref(ctx, desc.Next, path, node, domain.StepsFromField)
		if err != nil {
			return nil, err
		}
		node.Next = next
	}
	return node, nil
}

func (l *Loader) buildField(fd domain.FieldDescription, path, owner string) (domain.Field, error) {
	switch fd.Kind {
	case "", domain.FieldPlain:
		return domain.NewPlainField(fd.Name, fd.Value), nil
	case domain.FieldVerified:
		if len(fd.Choices) == 0 {
			return nil, &domain.ConstructionError{Path: path, Node: owner, Reason: fmt.Sprintf("verified field %q without choices", fd.Name)}
		}
		choices := make([]domain.Option, 0, len(fd.Choices))
		for _, cd := range fd.Choices {
			choice := domain.Option{Name: cd.Name, Submit: cd.Submit, ResetOnEnter: cd.ResetOnEnter}
			if cd.Target != nil {
				if cd.Target.Node != nil || cd.Target.Path == "" {
					return nil, &domain.ConstructionError{Path: path, Node: owner, Reason: fmt.Sprintf("choice %q of %q must target a path", cd.Name, fd.Name)}
				}
				// Re-parented onto the menu when the field is first reached.
				choice.Target = l.Holder(cd.Target.Path, cd.Target.Source, true, nil, domain.StepsFromOption)
			}
			choices = append(choices, choice)
		}
		other := fd.Other
		if other == "" {
			other = domain.DefaultOtherLabel
		}
		prompt := fd.OtherPrompt
		if prompt == "" {
			prompt = fd.Name
		}
		return domain.NewVerifiedField(fd.Name, fd.Value, choices, other, prompt), nil
	default:
		return nil, &domain.ConstructionError{Path: path, Node: owner, Reason: fmt.Sprintf("field %q has unknown kind %q", fd.Name, fd.Kind)}
	}
}

// ref builds an inline node or creates a holder, forcing it unless lazy.
func (l *Loader) ref(ctx context.Context, ref *domain.RefDescription, path string, parent domain.Node, backSteps int) (domain.Node, error) {
	if ref.Node != nil {
		return l.Build(ctx, ref.Node, path, parent, backSteps)
	}
	if ref.Path == "" {
		return nil, &domain.ConstructionError{Path: path, Node: domain.NameOf(parent), Reason: "reference without path"}
	}
	h := l.Holder(ref.Path, ref.Source, ref.Lazy, parent, backSteps)
	if !ref.Lazy {
		if _, err := h.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return h, nil
}
