// pkg/core/assembly.go
package core

import (
	"encoding/json"
	"fmt"
)

// PartID identifies a part within one assembly snapshot. Zero means "no part".
type PartID uint32

// NodeType distinguishes stack joints from surface (radial) attachments.
type NodeType uint8

const (
	NodeStack NodeType = iota
	NodeSurface
	NodeDock
)

func (t NodeType) String() string {
	switch t {
	case NodeStack:
		return "stack"
	case NodeSurface:
		return "surface"
	case NodeDock:
		return "dock"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stack", "Stack":
		*t = NodeStack
	case "surface", "Surface":
		*t = NodeSurface
	case "dock", "Dock":
		*t = NodeDock
	default:
		return fmt.Errorf("unknown node type: %q", string(b))
	}
	return nil
}

// Well-known node IDs on a tank.
const (
	NodeTop    = "top"
	NodeBottom = "bottom"
)

// AttachNode is a connection site on a part. Owner defaults to the part's ID
// when the assembly is built.
// AttachedPart is the back-reference the host keeps to whatever is joined at this node.
type AttachNode struct {
	ID           string   `json:"id"`
	Owner        PartID   `json:"owner"`
	AttachedPart PartID   `json:"attachedPart,omitempty"`
	Size         uint8    `json:"size"`
	Type         NodeType `json:"type"`
}

// Attached reports whether something is joined at the node.
func (n *AttachNode) Attached() bool {
	return n != nil && n.AttachedPart != 0
}

// Engine is the engine capability of a part.
type Engine struct {
	ConsumedResources []string `json:"consumedResources"`
	ThrustVacuum      float64  `json:"thrustVacuum"`
	ThrustASL         float64  `json:"thrustASL"`
}

// Part is one component of the assembly.
type Part struct {
	ID     PartID       `json:"id"`
	Name   string       `json:"name"`
	Mass   float64      `json:"mass"`
	Nodes  []AttachNode `json:"nodes"`
	Engine *Engine      `json:"engine,omitempty"`
}

// FindNode returns the node with the given ID.
func (p *Part) FindNode(id string) (*AttachNode, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// Graph is a read-only view of the construction graph, valid for one call.
type Graph interface {
	Part(id PartID) (*Part, bool)
	Parts() []*Part
}

// Assembly is a snapshot of every part in the vessel being edited.
type Assembly struct {
	parts []*Part
	index map[PartID]*Part
}

// NewAssembly builds an indexed snapshot. Parts keep the given order.
func NewAssembly(parts ...*Part) *Assembly {
	a := &Assembly{}
	a.reset(parts)
	return a
}

func (a *Assembly) reset(parts []*Part) {
	a.parts = parts
	a.index = make(map[PartID]*Part, len(parts))
	for _, p := range parts {
		if p == nil {
			continue
		}
		a.index[p.ID] = p
		for i := range p.Nodes {
			if p.Nodes[i].Owner == 0 {
				p.Nodes[i].Owner = p.ID
			}
		}
	}
}

// Part looks a part up by ID.
func (a *Assembly) Part(id PartID) (*Part, bool) {
	if a == nil || id == 0 {
		return nil, false
	}
	p, ok := a.index[id]
	return p, ok
}

// Parts returns every part in snapshot order.
func (a *Assembly) Parts() []*Part {
	if a == nil {
		return nil
	}
	return a.parts
}

// MarshalJSON encodes the assembly as a plain list of parts.
func (a *Assembly) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.parts)
}

// UnmarshalJSON decodes a list of parts and rebuilds the index.
func (a *Assembly) UnmarshalJSON(b []byte) error {
	var parts []*Part
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	a.reset(parts)
	return nil
}
