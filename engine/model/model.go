package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// model is the implementation of the Model interface.
type model struct {
	name       string
	root       *Node
	meshes     []*Mesh
	animations []*AnimationClip

	nodes         []*Node
	nodesByID     map[uint32]*Node
	nodesBySource map[int]*Node
}

// Model defines the interface for a loaded model.
// A Model exclusively owns its scene graph, the joint hierarchies hanging off skinned nodes,
// its meshes and its animation clips. Joints refer back to nodes by glTF index only.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Root retrieves the artificial scene root (ID 0) whose children are the scene's nodes.
	//
	// Returns:
	//   - *Node: the root node
	Root() *Node

	// Nodes returns every node including the root in pre-order.
	//
	// Returns:
	//   - []*Node: the nodes ordered by ID
	Nodes() []*Node

	// Node looks up a node by its viewer-assigned ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the node ID
	//
	// Returns:
	//   - *Node: the node or nil
	Node(id uint32) *Node

	// NodeBySourceIndex looks up a node by its glTF node index. Returns nil if not found.
	//
	// Parameters:
	//   - index: the glTF node index
	//
	// Returns:
	//   - *Node: the node or nil
	NodeBySourceIndex(index int) *Node

	// Meshes retrieves all meshes, indexed by glTF mesh index.
	//
	// Returns:
	//   - []*Mesh: the meshes
	Meshes() []*Mesh

	// Skinned reports whether any node carries a joint hierarchy.
	//
	// Returns:
	//   - bool: true if the model has at least one skinned node
	Skinned() bool

	// SkinnedNodes returns every skinned node with the accumulated transform of its ancestors.
	// The skinned node's own transform is not part of Outer.
	//
	// Returns:
	//   - []SkinnedNode: the skinned nodes in pre-order
	SkinnedNodes() []SkinnedNode

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// Validate checks cross-structure invariants: every channel targets a node of the scene,
	// every channel is well formed and every joint hierarchy is parent-before-child.
	//
	// Returns:
	//   - error: the first violation found, or nil
	Validate() error
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.root == nil {
		m.root = &Node{ID: 0, SourceIndex: -1, Name: "Root", Transform: IdentityTransform()}
	}
	m.index()
	return m
}

// index rebuilds the flat node lookups from the tree.
func (m *model) index() {
	m.nodes = m.nodes[:0]
	m.nodesByID = make(map[uint32]*Node)
	m.nodesBySource = make(map[int]*Node)

	var walk func(n *Node)
	walk = func(n *Node) {
		m.nodes = append(m.nodes, n)
		m.nodesByID[n.ID] = n
		if n.SourceIndex >= 0 {
			if _, seen := m.nodesBySource[n.SourceIndex]; !seen {
				m.nodesBySource[n.SourceIndex] = n
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(m.root)
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Root() *Node {
	return m.root
}

func (m *model) Nodes() []*Node {
	return m.nodes
}

func (m *model) Node(id uint32) *Node {
	return m.nodesByID[id]
}

func (m *model) NodeBySourceIndex(index int) *Node {
	return m.nodesBySource[index]
}

func (m *model) Meshes() []*Mesh {
	return m.meshes
}

func (m *model) Skinned() bool {
	for _, n := range m.nodes {
		if n.Skin != nil {
			return true
		}
	}
	return false
}

func (m *model) SkinnedNodes() []SkinnedNode {
	var out []SkinnedNode

	var walk func(n *Node, outer mgl32.Mat4)
	walk = func(n *Node, outer mgl32.Mat4) {
		if n.Skin != nil {
			out = append(out, SkinnedNode{Node: n, Outer: outer})
		}
		world := outer.Mul4(n.Transform.Matrix())
		for _, c := range n.Children {
			walk(c, world)
		}
	}
	walk(m.root, mgl32.Ident4())

	return out
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, anim := range m.animations {
		names[i] = anim.Name
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, anim := range m.animations {
		if anim.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Validate() error {
	for _, clip := range m.animations {
		for i := range clip.Channels {
			ch := &clip.Channels[i]
			if m.nodesBySource[ch.Node] == nil {
				return common.Invariantf("animation %q channel %d targets node %d which is not in the scene", clip.Name, i, ch.Node)
			}
			if err := ch.Validate(); err != nil {
				return err
			}
		}
	}

	for _, n := range m.nodes {
		if n.Skin == nil {
			continue
		}
		if err := n.Skin.Validate(); err != nil {
			return err
		}
	}
	return nil
}
