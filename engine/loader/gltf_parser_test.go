package loader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedDecode(t *testing.T) {
	assert.Equal(t, float32(1), gltfDecodeNormalizedUshort(65535))
	assert.Equal(t, float32(0), gltfDecodeNormalizedUshort(0))
	assert.Equal(t, float32(1), gltfDecodeNormalizedUbyte(255))
	assert.InDelta(t, 0.5, float64(gltfDecodeNormalizedUbyte(128)), 0.01)

	assert.Equal(t, float32(-1), gltfDecodeNormalizedByte(-128))
	assert.Equal(t, float32(-1), gltfDecodeNormalizedByte(-127))
	assert.Equal(t, float32(1), gltfDecodeNormalizedByte(127))

	assert.Equal(t, float32(-1), gltfDecodeNormalizedShort(-32768))
	assert.Equal(t, float32(1), gltfDecodeNormalizedShort(32767))
	assert.Equal(t, float32(0), gltfDecodeNormalizedShort(0))
}

func TestGLTFComponentSizes(t *testing.T) {
	assert.Equal(t, 1, gltfComponentTypeSize(gltf.ComponentUbyte))
	assert.Equal(t, 2, gltfComponentTypeSize(gltf.ComponentShort))
	assert.Equal(t, 4, gltfComponentTypeSize(gltf.ComponentFloat))
	assert.Equal(t, 16, gltfAccessorTypeComponentCount(gltf.AccessorMat4))
	assert.Equal(t, 3, gltfAccessorTypeComponentCount(gltf.AccessorVec3))
	assert.Equal(t, "UNSIGNED_SHORT", gltfComponentTypeName(gltf.ComponentUshort))
}

func TestParser_ReadVec4Normalized(t *testing.T) {
	b := newDocBuilder()
	acc := b.accessor(gltf.ComponentUshort, gltf.AccessorVec4, 2, false, le([]uint16{
		65535, 0, 0, 0,
		0, 32768, 0, 65535,
	}))
	p := newGLTFParserFromDocument(b.build(), "")

	normalized, err := p.ReadVec4Accessor(int(acc), true)
	require.NoError(t, err)
	require.Len(t, normalized, 2)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, normalized[0])
	assert.InDelta(t, 0.5, float64(normalized[1][1]), 0.001)

	cast, err := p.ReadVec4Accessor(int(acc), false)
	require.NoError(t, err)
	assert.Equal(t, float32(65535), cast[0][0])
}

func TestParser_ReadInterleaved(t *testing.T) {
	b := newDocBuilder()
	// Two vec3 positions interleaved with a vec2 each: stride 20 bytes.
	data := le([]float32{
		1, 2, 3, 9, 9,
		4, 5, 6, 9, 9,
	})
	bv := b.view(data, 20)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(bv),
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         2,
	})
	p := newGLTFParserFromDocument(b.build(), "")

	got, err := p.ReadVec3Accessor(0)
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{1, 2, 3}, {4, 5, 6}}, got)
}

func TestParser_AccessorWithoutBufferViewReadsZeros(t *testing.T) {
	doc := &gltf.Document{Accessors: []*gltf.Accessor{{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         2,
	}}}
	p := newGLTFParserFromDocument(doc, "")

	got, err := p.ReadVec3Accessor(0)
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{}, {}}, got)
}

func TestParser_Errors(t *testing.T) {
	b := newDocBuilder()
	short := b.accessor(gltf.ComponentFloat, gltf.AccessorVec3, 4, false, le([]float32{1, 2, 3}))
	intTimes := b.accessor(gltf.ComponentUshort, gltf.AccessorScalar, 1, false, le([]uint16{1, 0}))
	sparse := b.floats(gltf.AccessorScalar, 1)
	floatJoints := b.floats(gltf.AccessorVec4, 0, 1, 2, 3)
	doc := b.build()
	doc.Accessors[sparse].Sparse = &gltf.Sparse{Count: 1}
	p := newGLTFParserFromDocument(doc, "")

	_, err := p.ReadVec3Accessor(int(short))
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "short buffer: %v", err)

	_, err = p.ReadScalarAccessor(int(intTimes))
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "integer times: %v", err)

	_, err = p.ReadScalarAccessor(int(sparse))
	assert.True(t, errors.Is(err, common.ErrUnsupportedFeature), "sparse: %v", err)

	_, err = p.ReadJointsAccessor(int(floatJoints))
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "float joints: %v", err)

	_, err = p.ReadVec2Accessor(int(short))
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "type mismatch: %v", err)

	_, err = p.ReadMat4Accessor(99)
	assert.True(t, errors.Is(err, common.ErrMalformedAsset), "out of range: %v", err)
}

func TestParser_ReadIndicesAndJoints(t *testing.T) {
	b := newDocBuilder()
	idx8 := b.accessor(gltf.ComponentUbyte, gltf.AccessorScalar, 3, false, le([]uint8{2, 1, 0}))
	idx32 := b.accessor(gltf.ComponentUint, gltf.AccessorScalar, 2, false, le([]uint32{70000, 1}))
	joints := b.accessor(gltf.ComponentUshort, gltf.AccessorVec4, 1, false, le([]uint16{300, 2, 1, 0}))
	p := newGLTFParserFromDocument(b.build(), "")

	got, err := p.ReadIndicesAccessor(int(idx8))
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0}, got)

	got, err = p.ReadIndicesAccessor(int(idx32))
	require.NoError(t, err)
	assert.Equal(t, []uint32{70000, 1}, got)

	j, err := p.ReadJointsAccessor(int(joints))
	require.NoError(t, err)
	assert.Equal(t, [][4]uint16{{300, 2, 1, 0}}, j)
}
