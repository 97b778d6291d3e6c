package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	Current domain.Node
}

// GenerateMermaid produces a Mermaid flowchart of the tree reachable from root.
// Only materialized nodes are walked; lazy holders that were never resolved are
// drawn as dashed placeholders and are not forced. Shapes:
// - Root: ((Circle))
// - Options: [Rectangle]
// - Context: [/Parallelogram/]
// - Unresolved holder: ([Stadium]), dashed edge
func GenerateMermaid(root domain.Node, overlay *GraphOverlay) string {
	w := &walker{ids: make(map[domain.Node]string)}
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	w.sb = &sb
	w.visit(follow(root), true)

	if len(w.lazy) > 0 {
		sb.WriteString("    classDef lazy stroke-dasharray: 5 5;\n")
		fmt.Fprintf(&sb, "    class %s lazy;\n", strings.Join(w.lazy, ","))
	}

	if overlay != nil && overlay.Current != nil {
		if id, ok := w.ids[follow(overlay.Current)]; ok {
			sb.WriteString("\n    %% Overlay Styles\n")
			// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
			sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}
	return sb.String()
}

type walker struct {
	sb   *strings.Builder
	ids  map[domain.Node]string
	lazy []string
}

// follow returns the node a resolved holder stands for.
func follow(n domain.Node) domain.Node {
	for {
		h, ok := n.(*domain.HolderNode)
		if !ok {
			return n
		}
		r := h.Resolved()
		if r == nil {
			return h
		}
		n = r
	}
}

// visit declares n once and walks its edges. It returns the Mermaid ID of n.
func (w *walker) visit(n domain.Node, root bool) string {
	if id, ok := w.ids[n]; ok {
		return id
	}
	id := fmt.Sprintf("n%d", len(w.ids))
	w.ids[n] = id

	label := escape(domain.NameOf(n))
	switch n := n.(type) {
	case *domain.OptionsNode:
		w.declare(id, label, "[", "]", root)
		for _, opt := range n.Options {
			name := opt.Name
			if opt.Submit {
				name += " ✓"
			}
			w.edge(id, opt.Target, name)
		}
	case *domain.ContextNode:
		if n.SubmitOnComplete || n.Next == nil {
			label += " ✓"
		}
		w.declare(id, label, "[/", "/]", root)
		for _, f := range n.Fields {
			vf, ok := f.(*domain.VerifiedField)
			if !ok {
				continue
			}
			if menu, _ := vf.SubGraph(); menu != nil {
				w.edge(id, menu, vf.Name)
				continue
			}
			for _, c := range vf.Choices {
				if c.Target != nil {
					w.edge(id, c.Target, vf.Name+": "+c.Name)
				}
			}
		}
		if n.Next != nil {
			w.edge(id, n.Next, "next")
		}
	case *domain.HolderNode:
		w.declare(id, label, "([", "])", root)
		w.lazy = append(w.lazy, id)
	}
	return id
}

func (w *walker) declare(id, label, opener, closer string, root bool) {
	if root {
		opener, closer = "((", "))"
	}
	fmt.Fprintf(w.sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
}

func (w *walker) edge(from string, target domain.Node, label string) {
	if target == nil {
		return
	}
	target = follow(target)
	to := w.visit(target, false)

	arrow := fmt.Sprintf("-- \"%s\" -->", escape(label))
	if _, unresolved := target.(*domain.HolderNode); unresolved {
		arrow = fmt.Sprintf("-. \"%s\" .->", escape(label))
	}
	fmt.Fprintf(w.sb, "    %s %s %s\n", from, arrow, to)
}

// escape replaces double quotes so labels stay inside Mermaid strings.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
