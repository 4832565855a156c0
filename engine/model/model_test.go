package model

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel_DefaultRoot(t *testing.T) {
	m := NewModel(WithName("empty"))

	require.NotNil(t, m.Root())
	assert.Equal(t, uint32(0), m.Root().ID)
	assert.Equal(t, -1, m.Root().SourceIndex)
	assert.Equal(t, "empty", m.Name())
	assert.False(t, m.Skinned())
	assert.Len(t, m.Nodes(), 1)
}

func TestModel_SkinnedNodesExcludeOwnTransform(t *testing.T) {
	skinned := node(1, "Body")
	skinned.Transform.Translation = mgl32.Vec3{100, 0, 0}
	skinned.Skin = &JointHierarchy{Joints: []Joint{{Parent: -1, InverseBind: mgl32.Ident4(), Local: IdentityTransform()}}}

	parent := node(0, "Scaled", skinned)
	parent.Transform.Translation = mgl32.Vec3{0, 2, 0}

	root := &Node{ID: 0, SourceIndex: -1, Name: "Root", Transform: IdentityTransform(), Children: []*Node{parent}}
	m := NewModel(WithRoot(root))

	nodes := m.SkinnedNodes()
	require.Len(t, nodes, 1)
	assert.Same(t, skinned, nodes[0].Node)
	assert.True(t, nodes[0].Outer.ApproxEqual(mgl32.Translate3D(0, 2, 0)))
	assert.True(t, m.Skinned())
}

func TestModel_Lookups(t *testing.T) {
	child := node(3, "Child")
	top := node(2, "Top", child)
	root := &Node{ID: 0, SourceIndex: -1, Name: "Root", Transform: IdentityTransform(), Children: []*Node{top}}

	clip := NewAnimationClip("Walk", nil)
	m := NewModel(WithRoot(root), WithAnimations([]*AnimationClip{clip}))

	assert.Same(t, child, m.NodeBySourceIndex(3))
	assert.Same(t, top, m.Node(top.ID))
	assert.Nil(t, m.Node(99))
	assert.Equal(t, 0, m.GetAnimationIndex("Walk"))
	assert.Equal(t, -1, m.GetAnimationIndex("Run"))
	assert.Equal(t, []string{"Walk"}, m.AnimationNames())
	assert.Equal(t, 1, m.AnimationCount())
}

func TestModel_ValidateChannelTarget(t *testing.T) {
	root := &Node{ID: 0, SourceIndex: -1, Transform: IdentityTransform(), Children: []*Node{node(0, "A")}}
	clip := NewAnimationClip("Bad", []Channel{{
		Node:   5,
		Times:  []float32{0},
		Values: TranslationKeyframes{{}},
	}})
	m := NewModel(WithRoot(root), WithAnimations([]*AnimationClip{clip}))

	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
}

func TestModel_WithImported(t *testing.T) {
	root := &Node{ID: 0, SourceIndex: -1, Transform: IdentityTransform()}
	m := NewModel(WithImported(&ImportedModel{Name: "fox", Root: root, Meshes: []*Mesh{{Name: "body"}}}))

	assert.Equal(t, "fox", m.Name())
	assert.Same(t, root, m.Root())
	require.Len(t, m.Meshes(), 1)
	assert.Equal(t, "body", m.Meshes()[0].Name)
}
