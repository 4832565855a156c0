package animator

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJointTransforms_Pack(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	jt, err := NewJointTransforms([]mgl32.Mat4{m})
	require.NoError(t, err)

	assert.Equal(t, uint32(1), jt.Count)
	assert.Equal(t, m, jt.Matrix(0))
	assert.Equal(t, mgl32.Ident4(), jt.Matrix(1), "unused entries are identity")
	assert.Equal(t, MaxJointTransforms*64, jt.Size())

	buf := jt.Marshal()
	require.Len(t, buf, MaxJointTransforms*64)
	// Column-major: the translation sits in floats 12..14 of the first matrix.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[48:52])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[56:60])))
	// Second matrix starts with identity's 1.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:68])))
}

func TestJointTransforms_MarshalReusesBuffer(t *testing.T) {
	jt, err := NewJointTransforms([]mgl32.Mat4{mgl32.Translate3D(1, 0, 0)})
	require.NoError(t, err)

	first := jt.Marshal()
	require.NoError(t, jt.Set([]mgl32.Mat4{mgl32.Translate3D(5, 0, 0)}))
	second := jt.Marshal()

	require.Len(t, second, MaxJointTransforms*64)
	assert.Same(t, &first[0], &second[0], "marshal writes into the same backing array")
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(second[48:52])))
}

func TestJointTransforms_Limits(t *testing.T) {
	_, err := NewJointTransforms(make([]mgl32.Mat4, MaxJointTransforms+1))
	assert.True(t, errors.Is(err, common.ErrUnsupportedFeature))

	jt, err := NewJointTransforms([]mgl32.Mat4{mgl32.Scale3D(2, 2, 2), mgl32.Scale3D(3, 3, 3)})
	require.NoError(t, err)
	require.NoError(t, jt.Set([]mgl32.Mat4{mgl32.Translate3D(1, 0, 0)}))
	assert.Equal(t, mgl32.Ident4(), jt.Matrix(1), "shrinking resets the tail")

	require.NoError(t, jt.SetIdentity(2))
	assert.Equal(t, uint32(2), jt.Count)
	assert.Equal(t, mgl32.Ident4(), jt.Matrix(0))
	assert.True(t, errors.Is(jt.SetIdentity(MaxJointTransforms+1), common.ErrUnsupportedFeature))
}

func TestDebugSkeleton(t *testing.T) {
	h := &model.JointHierarchy{Joints: []model.Joint{
		joint(0, -1, mgl32.Vec3{1, 0, 0}),
		joint(1, 0, mgl32.Vec3{0, 1, 0}),
		joint(2, 1, mgl32.Vec3{0, 1, 0}),
	}}
	e := NewSkinningEngine()
	_, err := e.ComputeSkinMatrices(h, mgl32.Ident4())
	require.NoError(t, err)

	s, err := BuildDebugSkeleton(h, e.WorldTransforms())
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{1, 0, 0}, {1, 1, 0}, {1, 2, 0}}, s.Points)
	assert.Equal(t, []int{0, 1, 2}, s.Depths)
	assert.Equal(t, [][2]mgl32.Vec3{
		{{1, 0, 0}, {1, 1, 0}},
		{{1, 1, 0}, {1, 2, 0}},
	}, s.Lines)

	verts := s.LineVertices()
	require.Len(t, verts, 4)
	assert.Equal(t, GPUDebugLineVertex{Position: [3]float32{1, 1, 0}, Depth: 1}, verts[1])
	assert.Equal(t, float32(1), verts[2].Depth)
	assert.Len(t, s.Marshal(), 4*16)

	_, err = BuildDebugSkeleton(h, e.WorldTransforms()[:1])
	assert.True(t, errors.Is(err, common.ErrInvariantViolation))
}
