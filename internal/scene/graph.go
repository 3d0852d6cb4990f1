// Package scene owns the tree of renderable nodes and their parent-relative transforms.
//
// Every node except the root has exactly one owner. World transforms are
// composed through the ancestor chain on every query and never cached, so a
// caller always sees the transforms written by the most recent kinematics pass.
package scene

import (
	"errors"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDuplicateIdentifier is returned when an identifier is already indexed.
	ErrDuplicateIdentifier = errors.New("duplicate node identifier")
	// ErrUnknownParent is returned when the parent does not exist or was disposed.
	ErrUnknownParent = errors.New("unknown parent node")
	// ErrClosed is returned by CreateNode after Close.
	ErrClosed = errors.New("scene graph closed")
)

// NodeID identifies a node within one graph.
type NodeID int

// NoParent attaches a new node directly to the root.
const NoParent NodeID = 0

// Kind tags what a node represents. Picking and rendering switch on it
// instead of inspecting node contents.
type Kind int

const (
	KindRoot Kind = iota
	KindStar
	KindPlanet
	KindMoon
	KindOrbitGuide
	KindRing
	KindStarfield
	KindAsteroids
)

// String returns the node kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindStar:
		return "star"
	case KindPlanet:
		return "planet"
	case KindMoon:
		return "moon"
	case KindOrbitGuide:
		return "orbit-guide"
	case KindRing:
		return "ring"
	case KindStarfield:
		return "starfield"
	case KindAsteroids:
		return "asteroids"
	default:
		return "unknown"
	}
}

// Point is one particle of a point-cloud node (starfield, asteroid swarm),
// positioned in the node's local frame.
type Point struct {
	Position  r3.Vec
	Velocity  r3.Vec
	Magnitude float64 // Apparent magnitude for stars; unused for asteroids
}

// NodeSpec describes a node to create.
type NodeSpec struct {
	Kind        Kind
	Identifier  string // Optional; indexed for Lookup when set
	Name        string
	Pickable    bool
	Labeled     bool
	Radius      float64 // Display radius; orbit radius for guides; outer radius for rings
	InnerRadius float64 // Rings only
	Color       colorful.Color
	Local       Transform
	Points      []Point
}

// Node is one element of the scene. Callers outside the kinematics pass must
// treat nodes as read-only.
type Node struct {
	ID          NodeID
	Parent      NodeID
	Kind        Kind
	Identifier  string
	Name        string
	Pickable    bool
	Labeled     bool
	Radius      float64
	InnerRadius float64
	Color       colorful.Color

	// Local is the transform relative to the parent; it is inherited by children.
	Local Transform
	// Spin is the node's own rotation about its local Y axis. It orients the
	// body's surface only and is not inherited by children.
	Spin float64

	Points []Point

	children []NodeID
}

// Children returns the node's direct children in creation order.
func (n *Node) Children() []NodeID {
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// Graph owns all nodes of one scene and the identifier index.
type Graph struct {
	nodes  map[NodeID]*Node
	index  map[string]NodeID
	root   NodeID
	next   NodeID
	closed bool
}

// NewGraph creates a graph holding only the root node.
func NewGraph() *Graph {
	g := &Graph{
		nodes: make(map[NodeID]*Node),
		index: make(map[string]NodeID),
		next:  1,
	}
	g.root = g.alloc(NodeSpec{Kind: KindRoot, Local: Identity()}, 0)
	return g
}

func (g *Graph) alloc(spec NodeSpec, parent NodeID) NodeID {
	id := g.next
	g.next++
	local := spec.Local
	if local.Rotation == (r3.Rotation{}) {
		local.Rotation = identityRotation
	}
	g.nodes[id] = &Node{
		ID:          id,
		Parent:      parent,
		Kind:        spec.Kind,
		Identifier:  spec.Identifier,
		Name:        spec.Name,
		Pickable:    spec.Pickable,
		Labeled:     spec.Labeled,
		Radius:      spec.Radius,
		InnerRadius: spec.InnerRadius,
		Color:       spec.Color,
		Local:       local,
		Points:      spec.Points,
	}
	return id
}

// Root returns the root node ID.
func (g *Graph) Root() NodeID {
	return g.root
}

// CreateNode adds a node under parent (NoParent means the root) and indexes
// its identifier, if any.
func (g *Graph) CreateNode(parent NodeID, spec NodeSpec) (NodeID, error) {
	if g.closed {
		return 0, ErrClosed
	}
	if parent == NoParent {
		parent = g.root
	}
	p, ok := g.nodes[parent]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownParent, parent)
	}
	if spec.Identifier != "" {
		if _, dup := g.index[spec.Identifier]; dup {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, spec.Identifier)
		}
	}

	id := g.alloc(spec, parent)
	p.children = append(p.children, id)
	if spec.Identifier != "" {
		g.index[spec.Identifier] = id
	}
	return id, nil
}

// Node returns a live node.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Lookup resolves an identifier to a live node.
func (g *Graph) Lookup(identifier string) (NodeID, bool) {
	id, ok := g.index[identifier]
	return id, ok
}

// LookupNode resolves an identifier straight to its node.
func (g *Graph) LookupNode(identifier string) (*Node, bool) {
	id, ok := g.index[identifier]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// WorldTransform composes the node's local transform with every ancestor's.
func (g *Graph) WorldTransform(id NodeID) (Transform, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Transform{}, false
	}
	if n.Parent == 0 {
		return n.Local, true
	}
	parent, ok := g.WorldTransform(n.Parent)
	if !ok {
		return Transform{}, false
	}
	return parent.Compose(n.Local), true
}

// WorldPosition returns the node's origin in world coordinates.
func (g *Graph) WorldPosition(id NodeID) (r3.Vec, bool) {
	t, ok := g.WorldTransform(id)
	return t.Position, ok
}

// Locate returns the world position of the node indexed under identifier.
func (g *Graph) Locate(identifier string) (r3.Vec, bool) {
	id, ok := g.index[identifier]
	if !ok {
		return r3.Vec{}, false
	}
	return g.WorldPosition(id)
}

// Orientation returns the node's world rotation including its own spin.
func (g *Graph) Orientation(id NodeID) (r3.Rotation, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return r3.Rotation{}, false
	}
	t, _ := g.WorldTransform(id)
	return t.Compose(Rotated(n.Spin, r3.Vec{Y: 1})).Rotation, true
}

// ForEachDescendant visits every live descendant of id in pre-order,
// children in creation order. The node itself is not visited.
func (g *Graph) ForEachDescendant(id NodeID, visit func(*Node)) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		child, ok := g.nodes[c]
		if !ok {
			continue
		}
		visit(child)
		g.ForEachDescendant(c, visit)
	}
}

// Dispose releases the subtree rooted at id and drops its index entries.
// Disposing an unknown or already disposed node is a no-op. Disposing the
// root closes the graph.
func (g *Graph) Dispose(id NodeID) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	if p, ok := g.nodes[n.Parent]; ok {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	g.release(n)
	if id == g.root {
		g.closed = true
	}
}

func (g *Graph) release(n *Node) {
	for _, c := range n.children {
		if child, ok := g.nodes[c]; ok {
			g.release(child)
		}
	}
	if n.Identifier != "" {
		if indexed, ok := g.index[n.Identifier]; ok && indexed == n.ID {
			delete(g.index, n.Identifier)
		}
	}
	n.children = nil
	n.Points = nil
	delete(g.nodes, n.ID)
}

// Close disposes every node. It is safe to call more than once.
func (g *Graph) Close() {
	g.Dispose(g.root)
	g.closed = true
}

// Closed reports whether the graph has been torn down.
func (g *Graph) Closed() bool {
	return g.closed
}

// Len returns the number of live nodes, including the root.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IndexLen returns the number of indexed identifiers.
func (g *Graph) IndexLen() int {
	return len(g.index)
}
