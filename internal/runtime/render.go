package runtime

import "github.com/aretw0/stepwise/pkg/domain"

func menuPrompt(n *domain.OptionsNode) domain.Prompt {
	items := make([]string, len(n.Options))
	for i, opt := range n.Options {
		items[i] = opt.Name
	}
	return domain.Prompt{
		Kind:        domain.PromptMenu,
		Title:       n.Name,
		Description: n.Description,
		Items:       items,
	}
}

// fieldPrompt shows the context description only before the first field.
func fieldPrompt(n *domain.ContextNode, cursor int) domain.Prompt {
	p := domain.Prompt{
		Kind:  domain.PromptField,
		Title: n.Name,
		Items: []string{n.Fields[cursor].FieldName()},
	}
	if cursor == 0 {
		p.Description = n.Description
	}
	return p
}
