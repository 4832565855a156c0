package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// JointHierarchy is the flat, parent-indexed joint array of one skin.
// Parents always precede their children in Joints.
type JointHierarchy struct {
	Joints []Joint
}

// hierarchyBuilder carries the state of one JointHierarchy construction walk.
type hierarchyBuilder struct {
	skin      SkinDefinition
	positions map[int]int
	joints    []Joint
}

// NewJointHierarchy derives the joint hierarchy of a skin from the scene's node tree.
//
// The scene is walked depth-first in pre-order starting at roots. Joint nodes are appended with
// the carried parent joint index and become the carried parent of their subtree; other nodes pass
// the carried parent through unchanged, so joints below a non-joint node attach to the nearest
// joint ancestor. Only one skeleton per skin is supported: the walk ends once the subtree of the
// first root-level joint is complete. The stop applies to the whole walk, not just the sibling list
// it occurs in, so a second skeleton under a later scene root is never reached.
//
// Parameters:
//   - roots: the scene's top-level nodes
//   - skin: the skin's joint node indices and inverse bind matrices in declared order
//
// Returns:
//   - *JointHierarchy: the constructed hierarchy
//   - error: ErrMalformedAsset if an inverse bind matrix is missing for a declared joint,
//     ErrInvariantViolation if none of the skin's joints are part of the scene
func NewJointHierarchy(roots []*Node, skin SkinDefinition) (*JointHierarchy, error) {
	b := &hierarchyBuilder{
		skin:      skin,
		positions: make(map[int]int, len(skin.Joints)),
	}
	for i, nodeIndex := range skin.Joints {
		if _, dup := b.positions[nodeIndex]; !dup {
			b.positions[nodeIndex] = i
		}
	}

	for _, root := range roots {
		stop, err := b.visit(root, -1)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}

	if len(skin.Joints) > 0 && len(b.joints) == 0 {
		return nil, common.Invariantf("none of the %d skin joints are reachable from the scene", len(skin.Joints))
	}

	return &JointHierarchy{Joints: b.joints}, nil
}

// visit processes one node and its subtree. It reports true once a root-level joint subtree completed.
func (b *hierarchyBuilder) visit(n *Node, parent int) (bool, error) {
	pos, isJoint := b.positions[n.SourceIndex]
	if !isJoint {
		for _, child := range n.Children {
			stop, err := b.visit(child, parent)
			if err != nil || stop {
				return stop, err
			}
		}
		return false, nil
	}

	ibm := mgl32.Ident4()
	if len(b.skin.InverseBindMatrices) > 0 {
		if pos >= len(b.skin.InverseBindMatrices) {
			return false, common.Malformedf("joint node %d: no inverse bind matrix at skin position %d (have %d)",
				n.SourceIndex, pos, len(b.skin.InverseBindMatrices))
		}
		ibm = b.skin.InverseBindMatrices[pos]
	}

	name := n.Name
	if name == "" {
		name = fmt.Sprintf("Joint-%d", n.SourceIndex)
	}

	index := len(b.joints)
	b.joints = append(b.joints, Joint{
		NodeIndex:   n.SourceIndex,
		Name:        name,
		Parent:      parent,
		InverseBind: ibm,
		Local:       n.Transform,
	})

	for _, child := range n.Children {
		if _, err := b.visit(child, index); err != nil {
			return false, err
		}
	}

	return parent < 0, nil
}

// Len returns the number of joints.
func (h *JointHierarchy) Len() int {
	return len(h.Joints)
}

// Validate checks that every parent index refers to an earlier joint.
//
// Returns:
//   - error: ErrInvariantViolation describing the first offending joint, or nil
func (h *JointHierarchy) Validate() error {
	for i, j := range h.Joints {
		if j.Parent < -1 || j.Parent >= i {
			return common.Invariantf("joint %d (%s): parent index %d is not an earlier joint", i, j.Name, j.Parent)
		}
	}
	return nil
}

// IndexOfNode returns the index of the joint created from a glTF node, or -1.
func (h *JointHierarchy) IndexOfNode(nodeIndex int) int {
	for i := range h.Joints {
		if h.Joints[i].NodeIndex == nodeIndex {
			return i
		}
	}
	return -1
}

// Children returns the indices of the direct children of joint i in array order.
func (h *JointHierarchy) Children(i int) []int {
	var out []int
	for c := i + 1; c < len(h.Joints); c++ {
		if h.Joints[c].Parent == i {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits every joint in pre-order together with its depth below the root joint.
// Array order is already pre-order, so this is a single pass.
//
// Parameters:
//   - fn: called with the joint index, the joint and its depth
func (h *JointHierarchy) Walk(fn func(index int, joint *Joint, depth int)) {
	depths := make([]int, len(h.Joints))
	for i := range h.Joints {
		if p := h.Joints[i].Parent; p >= 0 && p < i {
			depths[i] = depths[p] + 1
		}
		fn(i, &h.Joints[i], depths[i])
	}
}
