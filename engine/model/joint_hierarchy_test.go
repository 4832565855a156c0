package model

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(source int, name string, children ...*Node) *Node {
	return &Node{
		ID:          uint32(source + 1),
		SourceIndex: source,
		Name:        name,
		Transform:   IdentityTransform(),
		Children:    children,
	}
}

// armature builds:
//
//	0 Armature
//	└── 1 Hips (joint)
//	    ├── 2 Spine (joint)
//	    └── 3 Helper
//	        └── 4 Hand (joint)
func armature() []*Node {
	return []*Node{
		node(0, "Armature",
			node(1, "Hips",
				node(2, "Spine"),
				node(3, "Helper",
					node(4, "Hand"),
				),
			),
		),
	}
}

func TestNewJointHierarchy_PreOrderWithPassThrough(t *testing.T) {
	ibms := []mgl32.Mat4{
		mgl32.Translate3D(4, 0, 0),
		mgl32.Translate3D(2, 0, 0),
		mgl32.Translate3D(1, 0, 0),
	}
	h, err := NewJointHierarchy(armature(), SkinDefinition{
		Joints:              []int{4, 2, 1},
		InverseBindMatrices: ibms,
	})
	require.NoError(t, err)
	require.Equal(t, 3, h.Len())

	assert.Equal(t, []int{1, 2, 4}, []int{h.Joints[0].NodeIndex, h.Joints[1].NodeIndex, h.Joints[2].NodeIndex})
	assert.Equal(t, -1, h.Joints[0].Parent)
	assert.Equal(t, 0, h.Joints[1].Parent)
	assert.Equal(t, 0, h.Joints[2].Parent, "joint below a non-joint attaches to the nearest joint ancestor")

	// Inverse bind matrices follow the skin's declared order, not the walk order.
	assert.Equal(t, ibms[2], h.Joints[0].InverseBind)
	assert.Equal(t, ibms[1], h.Joints[1].InverseBind)
	assert.Equal(t, ibms[0], h.Joints[2].InverseBind)

	assert.Equal(t, "Hips", h.Joints[0].Name)
	require.NoError(t, h.Validate())
}

func TestNewJointHierarchy_ParentBeforeChild(t *testing.T) {
	roots := []*Node{
		node(0, "",
			node(1, "", node(2, "", node(3, "")), node(4, "", node(5, ""), node(6, ""))),
		),
	}
	h, err := NewJointHierarchy(roots, SkinDefinition{Joints: []int{6, 5, 4, 3, 2, 1, 0}})
	require.NoError(t, err)
	require.Equal(t, 7, h.Len())

	for i, j := range h.Joints {
		if j.Parent >= 0 {
			assert.Less(t, j.Parent, i, "joint %d", i)
		}
	}
}

func TestNewJointHierarchy_IdentityWithoutInverseBindMatrices(t *testing.T) {
	h, err := NewJointHierarchy(armature(), SkinDefinition{Joints: []int{1, 2}})
	require.NoError(t, err)

	for _, j := range h.Joints {
		assert.Equal(t, mgl32.Ident4(), j.InverseBind)
	}
}

func TestNewJointHierarchy_MissingInverseBindMatrix(t *testing.T) {
	_, err := NewJointHierarchy(armature(), SkinDefinition{
		Joints:              []int{1, 2, 4},
		InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4()},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedAsset))
}

func TestNewJointHierarchy_StopsAfterFirstRootJoint(t *testing.T) {
	roots := []*Node{
		node(0, "A", node(1, "A1")),
		node(2, "B", node(3, "B1")),
	}
	h, err := NewJointHierarchy(roots, SkinDefinition{Joints: []int{0, 1, 2, 3}})
	require.NoError(t, err)

	require.Equal(t, 2, h.Len())
	assert.Equal(t, 0, h.Joints[0].NodeIndex)
	assert.Equal(t, 1, h.Joints[1].NodeIndex)
}

func TestNewJointHierarchy_DefaultName(t *testing.T) {
	h, err := NewJointHierarchy([]*Node{node(7, "")}, SkinDefinition{Joints: []int{7}})
	require.NoError(t, err)
	assert.Equal(t, "Joint-7", h.Joints[0].Name)
}

func TestNewJointHierarchy_UnreachableJoints(t *testing.T) {
	_, err := NewJointHierarchy(armature(), SkinDefinition{Joints: []int{42}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
}

func TestNewJointHierarchy_CopiesLocalTransform(t *testing.T) {
	roots := armature()
	roots[0].Children[0].Transform.Translation = mgl32.Vec3{0, 1, 0}

	h, err := NewJointHierarchy(roots, SkinDefinition{Joints: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, h.Joints[0].Local.Translation)
}

func TestJointHierarchy_Validate(t *testing.T) {
	h := &JointHierarchy{Joints: []Joint{{Parent: -1}, {Parent: 2}, {Parent: 0}}}
	err := h.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
}

func TestJointHierarchy_Traversal(t *testing.T) {
	h, err := NewJointHierarchy(armature(), SkinDefinition{Joints: []int{1, 2, 4}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, h.Children(0))
	assert.Empty(t, h.Children(1))
	assert.Equal(t, 2, h.IndexOfNode(4))
	assert.Equal(t, -1, h.IndexOfNode(3))

	var depths []int
	h.Walk(func(_ int, _ *Joint, depth int) {
		depths = append(depths, depth)
	})
	assert.Equal(t, []int{0, 1, 1}, depths)
}
