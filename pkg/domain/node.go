package domain

import "strings"

// RootPath is the path of the topmost node of every host scene graph.
const RootPath = "/"

// RootType is the type tag reported for the topmost node.
const RootType = "root"

// Handle is a concrete node living in the host scene graph.
// Implementations must be comparable: they are used as map keys by the identifier registry.
type Handle interface {
	// Path returns the absolute, slash-separated location of the node (e.g. "/obj/geo1/box1").
	Path() string
	// TypeName returns the host's node type (e.g. "box").
	TypeName() string
}

// SplitPath splits an absolute node path into its parent path and leaf name.
// The parent of a top-level node is RootPath; the root itself has an empty name.
func SplitPath(p string) (parent, name string) {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", ""
	}
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return RootPath, p[idx+1:]
	}
	return p[:idx], p[idx+1:]
}

// JoinPath appends a child name to a parent path.
func JoinPath(parent, name string) string {
	if parent == "" || parent == RootPath {
		return RootPath + name
	}
	return strings.TrimRight(parent, "/") + "/" + name
}
