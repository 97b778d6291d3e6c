package runtime

import "github.com/aretw0/stepwise/pkg/domain"

// Collect walks from n to the root along parent links and gathers the values
// entered on the way. Entries come out leaf-to-root: the contribution of n
// first, the root last. Within one context, fields keep their declared order.
// A menu at n always contributes its selection, so a submit option is
// collected; menus further up the chain only with WithMenuEntries.
//
// A cycle in parent links is a construction bug and panics.
func (e *Engine) Collect(n domain.Node) []domain.Entry {
	var entries []domain.Entry
	visited := make(map[domain.Node]bool)
	leaf := materialized(n)

	for cur := leaf; cur != nil; cur = materialized(domain.ParentOf(cur)) {
		if visited[cur] {
			panic(domain.InvariantViolation{Node: domain.NameOf(cur), Detail: "cycle in parent links"})
		}
		visited[cur] = true

		switch c := cur.(type) {
		case *domain.ContextNode:
			for _, f := range c.Fields {
				entries = append(entries, domain.Entry{
					Node:  c.Name,
					Field: f.FieldName(),
					Value: domain.FieldValue(f),
				})
			}
		case *domain.OptionsNode:
			if !e.menuEntries && cur != leaf {
				continue
			}
			if idx, ok := c.Selection(); ok {
				entries = append(entries, domain.Entry{
					Node:  c.Name,
					Field: c.Name,
					Value: c.Options[idx].Name,
				})
			}
		default:
			panic(domain.InvariantViolation{Node: domain.NameOf(cur), Detail: "unexpected node kind on parent chain"})
		}
	}
	return entries
}
