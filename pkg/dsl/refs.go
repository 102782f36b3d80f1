package dsl

import "github.com/aretw0/nodechain/pkg/domain"

// Parent is the location a Node is created under.
// Implemented by Path, *Node and External only.
type Parent interface {
	isParent()
}

// Input feeds one input slot of a Node.
// Implemented by *Node, *Chain (its last node) and External only. A nil Input is a sparse slot.
type Input interface {
	isInput()
}

// Element is one member of a Chain.
// Implemented by *Node, *Chain (spliced in place) and External only.
type Element interface {
	isElement()
}

// Path locates a parent by its absolute host path (e.g. "/obj/geo1").
type Path string

func (Path) isParent() {}

// External refers to a concrete host node that was not necessarily created by a definition.
type External struct {
	Handle domain.Handle
}

// Existing refers to an already existing host node.
func Existing(h domain.Handle) External {
	return External{Handle: h}
}

func (External) isParent()  {}
func (External) isInput()   {}
func (External) isElement() {}

func (*Node) isParent()  {}
func (*Node) isInput()   {}
func (*Node) isElement() {}

func (*Chain) isInput()   {}
func (*Chain) isElement() {}
