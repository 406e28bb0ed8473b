// Package render turns broadcast state into role-specific surface content.
//
// A surface's static structure is described once per activation by a Skeleton,
// a typed node tree whose IDs become the named update handles. Every later
// render produces only a Patch: a map from handle to the field updates for
// that node. Renderers are pure; applying a patch is the surface's job.
package render

import "time"

// Kind classifies a skeleton node.
type Kind string

const (
	KindContainer Kind = "container"
	KindText      Kind = "text"
	KindImage     Kind = "image"
)

// Node is one element of a surface skeleton. ID is the update handle used by
// patches; Class is a styling hint for the surface client.
type Node struct {
	ID       string  `json:"id,omitempty"`
	Kind     Kind    `json:"kind"`
	Class    string  `json:"class,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Skeleton is the static structure built exactly once per activation.
type Skeleton struct {
	Title string `json:"title"`
	Root  *Node  `json:"root"`
}

// Handles returns the IDs of all addressable nodes in the skeleton.
func (s *Skeleton) Handles() []string {
	var ids []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.ID != "" {
			ids = append(ids, n.ID)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return ids
}

// Update is the set of data-bearing field mutations for one node. Nil fields
// are left as-is on the surface.
type Update struct {
	Text       *string `json:"text,omitempty"`
	Src        *string `json:"src,omitempty"`
	Visible    *bool   `json:"visible,omitempty"`
	Background *string `json:"background,omitempty"`
	Color      *string `json:"color,omitempty"`
	FontFamily *string `json:"font_family,omitempty"`
	FontSize   *int    `json:"font_size,omitempty"`
}

// Patch maps update handles to their field mutations for one render pass.
type Patch map[string]Update

// Clock is the wall-clock dependency of the stage renderer.
type Clock interface {
	Now() time.Time
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }
func vis(v bool) *bool     { return &v }
