package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/nodechain/pkg/dsl"
)

// GraphOverlay marks nodes that already exist in the host.
type GraphOverlay struct {
	CreatedPaths []string
}

type renderer struct {
	sb      strings.Builder
	ids     map[*dsl.Node]string
	ext     map[string]string
	edges   map[string]bool
	created map[string]bool
	order   []*dsl.Node
}

// GenerateMermaid produces a Mermaid flowchart (left to right) of the given definitions and
// everything they feed from. Edge labels are input slots:
// - Declared input: solid arrow
// - Chain auto-wiring: dotted arrow
// - Existing host node: [[Subroutine]]
// - Root: ((Circle))
// Definitions whose path is listed in the overlay are styled as created.
func GenerateMermaid(nodes []*dsl.Node, chains []*dsl.Chain, overlay *GraphOverlay) string {
	r := &renderer{
		ids:     make(map[*dsl.Node]string),
		ext:     make(map[string]string),
		edges:   make(map[string]bool),
		created: make(map[string]bool),
	}
	if overlay != nil {
		for _, p := range overlay.CreatedPaths {
			r.created[p] = true
		}
	}

	r.sb.WriteString("graph LR\n")
	for _, n := range nodes {
		r.node(n)
	}
	for _, c := range chains {
		r.chain(c)
	}

	if len(r.created) > 0 {
		r.sb.WriteString("\n    %% Overlay Styles\n")
		r.sb.WriteString("    classDef created fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, n := range r.order {
			if r.created[n.Path()] {
				fmt.Fprintf(&r.sb, "    class %s created;\n", r.ids[n])
			}
		}
	}
	return r.sb.String()
}

func (r *renderer) node(n *dsl.Node) string {
	if id, ok := r.ids[n]; ok {
		return id
	}
	id := fmt.Sprintf("n%d", len(r.ids))
	r.ids[n] = id
	r.order = append(r.order, n)

	opener, closer := "[", "]"
	switch {
	case n.IsRoot():
		opener, closer = "((", "))"
	case n.Handle() != nil:
		opener, closer = "[[", "]]"
	}
	fmt.Fprintf(&r.sb, "    %s%s\"%s<br/>%s\"%s\n", id, opener, n.Type(), escape(n.Path()), closer)

	for slot, in := range n.Inputs() {
		if in == nil {
			continue
		}
		if src := r.input(in); src != "" {
			r.edge(src, id, slot, "-->")
		}
	}
	return id
}

func (r *renderer) input(in dsl.Input) string {
	switch v := in.(type) {
	case *dsl.Node:
		return r.node(v)
	case *dsl.Chain:
		last := r.chain(v)
		return last
	case dsl.External:
		if v.Handle == nil {
			return ""
		}
		return r.external(v.Handle.Path(), v.Handle.TypeName())
	}
	return ""
}

func (r *renderer) external(path, typ string) string {
	if id, ok := r.ext[path]; ok {
		return id
	}
	id := "ext_" + sanitizeMermaidID(path)
	r.ext[path] = id
	fmt.Fprintf(&r.sb, "    %s[[\"%s<br/>%s\"]]\n", id, typ, escape(path))
	return id
}

// chain renders the flattened chain and returns the id of its last node.
func (r *renderer) chain(c *dsl.Chain) string {
	flat, err := c.Flatten()
	if err != nil || len(flat) == 0 {
		return ""
	}
	prev := ""
	for i, n := range flat {
		id := r.node(n)
		if i == 0 {
			for slot, in := range c.Inputs() {
				if in == nil {
					continue
				}
				if src := r.input(in); src != "" {
					r.edge(src, id, slot, "-->")
				}
			}
		} else {
			r.edge(prev, id, 0, "-.->")
		}
		prev = id
	}
	return prev
}

func (r *renderer) edge(from, to string, slot int, arrow string) {
	line := fmt.Sprintf("    %s %s|%d| %s\n", from, arrow, slot, to)
	if r.edges[line] {
		return
	}
	r.edges[line] = true
	r.sb.WriteString(line)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
