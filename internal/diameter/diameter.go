// Package diameter decides which shape and diameters a tank should take from what is
// attached above and below it.
package diameter

import (
	"github.com/SmartTank/extension/pkg/core"
)

const (
	// TinyDiameter is the diameter of size-0 nodes.
	TinyDiameter = 0.625
	// SizeStep is the diameter added per node size step.
	SizeStep = 1.25
)

// SizeToDiameter converts a node size code into a diameter.
func SizeToDiameter(size uint8) float64 {
	if size == 0 {
		return TinyDiameter
	}
	return SizeStep * float64(size)
}

// Resolve picks the shape for the given opposing diameters. A nil pointer means nothing
// usable is attached at that end. ok is false when neither end is attached, in which case
// the current shape must be left alone.
func Resolve(top, bottom *float64) (sel core.ShapeSelection, ok bool) {
	top, bottom = positive(top), positive(bottom)
	switch {
	case top != nil && bottom != nil:
		if *top == *bottom {
			return core.Cylinder(*top), true
		}
		return core.Cone(*top, *bottom), true
	case top != nil:
		return core.Cylinder(*top), true
	case bottom != nil:
		return core.Cylinder(*bottom), true
	}
	return core.ShapeSelection{}, false
}

func positive(d *float64) *float64 {
	if d == nil || !(*d > 0) {
		return nil
	}
	return d
}

// OpposingDiameter returns the diameter of whatever is joined to node, or false when
// nothing is attached or its matching node cannot be found.
func OpposingDiameter(g core.Graph, node *core.AttachNode) (float64, bool) {
	oppo := FindOpposingNode(g, node)
	if oppo == nil {
		return 0, false
	}
	return SizeToDiameter(oppo.Size), true
}

// FindOpposingNode finds the node on the neighbouring part that is joined to node.
//
// The neighbour's own nodes are searched first for one whose back-reference points at
// node's owner. Radial and some re-rooted joints do not keep that reference symmetric,
// so when that fails every part in the assembly is scanned for a stack node pointing at
// the owner.
func FindOpposingNode(g core.Graph, node *core.AttachNode) *core.AttachNode {
	if node == nil || g == nil || node.Owner == 0 {
		return nil
	}

	if node.Attached() {
		if neighbour, ok := g.Part(node.AttachedPart); ok {
			for i := range neighbour.Nodes {
				other := &neighbour.Nodes[i]
				if other.AttachedPart == node.Owner {
					return other
				}
			}
		}
	}

	for _, p := range g.Parts() {
		if p == nil {
			continue
		}
		for i := range p.Nodes {
			other := &p.Nodes[i]
			if other.AttachedPart == node.Owner &&
				other.Type == core.NodeStack &&
				other.ID != node.ID {
				return other
			}
		}
	}
	return nil
}

// Match resolves the shape for tank from its top and bottom nodes.
func Match(g core.Graph, tank *core.Part) (core.ShapeSelection, bool) {
	return Resolve(endDiameter(g, tank, core.NodeTop), endDiameter(g, tank, core.NodeBottom))
}

func endDiameter(g core.Graph, tank *core.Part, id string) *float64 {
	node, ok := tank.FindNode(id)
	if !ok {
		return nil
	}
	d, ok := OpposingDiameter(g, node)
	if !ok {
		return nil
	}
	return &d
}
