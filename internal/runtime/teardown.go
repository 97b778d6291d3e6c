package runtime

import "github.com/aretw0/stepwise/pkg/domain"

// Reset rewinds a node entered through a reset-on-enter option. Only the
// target itself is rewound; successors it has materialized keep their state
// until they are entered again.
func Reset(n domain.Node) {
	switch c := materialized(n).(type) {
	case *domain.OptionsNode:
		c.Reset()
	case *domain.ContextNode:
		c.Reset()
	}
}

// Teardown releases a session tree, walking downward from the root and
// breaking parent, successor and holder references, then empties the cache.
// Long-lived hosts call it when a session ends.
func Teardown(root domain.Node, cache *Cache) {
	seen := make(map[domain.Node]bool)
	var walk func(n domain.Node)
	walk = func(n domain.Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true

		switch n := n.(type) {
		case *domain.OptionsNode:
			for i := range n.Options {
				walk(n.Options[i].Target)
				n.Options[i].Target = nil
			}
			n.Parent = nil
		case *domain.ContextNode:
			for _, f := range n.Fields {
				if vf, ok := f.(*domain.VerifiedField); ok {
					if menu, fallback := vf.SubGraph(); menu != nil {
						walk(menu)
						walk(fallback)
					}
				}
			}
			walk(n.Next)
			n.Next = nil
			n.Parent = nil
		case *domain.HolderNode:
			walk(n.Resolved())
			n.Release()
		}
	}
	walk(root)
	if cache != nil {
		cache.Clear()
	}
}
