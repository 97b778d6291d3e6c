package runtime

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

func (e *Engine) outputContext(ctx context.Context, n *domain.ContextNode) (domain.OutputResult, error) {
	if n.TakePendingBack() && n.Parent != nil {
		rewind(n.Parent, n.BackSteps)
		e.transition(ctx, n, n.Parent)
		return domain.OutputResult{StateChanged: true, Next: n.Parent}, nil
	}

	cursor, _ := n.Position()
	if cursor == len(n.Fields) {
		return e.complete(ctx, n)
	}
	if cursor > len(n.Fields) {
		panic(domain.InvariantViolation{Node: n.Name, Detail: "cursor past last field"})
	}

	vf, ok := n.Fields[cursor].(*domain.VerifiedField)
	if !ok {
		return domain.OutputResult{Prompt: fieldPrompt(n, cursor)}, nil
	}

	menu, err := vf.EnsureSubGraph(func() (*domain.OptionsNode, *domain.ContextNode, error) {
		menu, fallback := verifiedSubGraph(n, vf)
		return menu, fallback, nil
	})
	if err != nil {
		return domain.OutputResult{}, err
	}
	_, fallback := vf.SubGraph()
	menu.Reset()
	fallback.Reset()

	n.Advance()
	e.transition(ctx, n, menu)
	return domain.OutputResult{StateChanged: true, Next: menu}, nil
}

// verifiedSubGraph builds the menu offered for a verified field.
// Choices without an explicit target return to the owning context, which
// resumes after the field. The last option leads to a single free-text field
// whose successor is again the owning context.
func verifiedSubGraph(owner *domain.ContextNode, vf *domain.VerifiedField) (*domain.OptionsNode, *domain.ContextNode) {
	menu := domain.NewOptionsNode(vf.Name, owner.Description, owner, domain.StepsFromOption)

	fallback := domain.NewContextNode(owner.Name, vf.Name, menu, domain.StepsFromOption)
	fallback.Fields = []domain.Field{domain.NewPlainField(vf.OtherPrompt, "")}
	fallback.Next = owner

	options := make([]domain.Option, 0, len(vf.Choices)+1)
	for _, c := range vf.Choices {
		opt := domain.Option{Name: c.Name, Submit: c.Submit, ResetOnEnter: c.ResetOnEnter, Target: owner}
		if h, ok := c.Target.(*domain.HolderNode); ok {
			opt.Target = &domain.HolderNode{
				Path:      h.Path,
				Source:    h.Source,
				Lazy:      true,
				Parent:    menu,
				BackSteps: domain.StepsFromOption,
				Loader:    h.Loader,
			}
		}
		options = append(options, opt)
	}
	options = append(options, domain.Option{Name: vf.OtherLabel, Target: fallback})
	menu.Options = options

	return menu, fallback
}
