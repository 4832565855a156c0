package loader

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// docBuilder assembles an in-memory glTF document backed by a single buffer.
type docBuilder struct {
	doc *gltf.Document
	buf []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{
		doc: &gltf.Document{
			Buffers: []*gltf.Buffer{{}},
			Scenes:  []*gltf.Scene{{Name: "Scene"}},
		},
	}
}

// view appends data as a new buffer view and returns its index.
func (b *docBuilder) view(data []byte, stride uint32) uint32 {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	offset := len(b.buf)
	b.buf = append(b.buf, data...)
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(offset),
		ByteLength: uint32(len(data)),
		ByteStride: stride,
	})
	return uint32(len(b.doc.BufferViews) - 1)
}

// accessor appends data as a tightly packed accessor and returns its index.
func (b *docBuilder) accessor(ct gltf.ComponentType, typ gltf.AccessorType, count int, normalized bool, data []byte) uint32 {
	bv := b.view(data, 0)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(bv),
		ComponentType: ct,
		Type:          typ,
		Count:         uint32(count),
		Normalized:    normalized,
	})
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *docBuilder) floats(typ gltf.AccessorType, values ...float32) uint32 {
	return b.accessor(gltf.ComponentFloat, typ, len(values)/gltfAccessorTypeComponentCount(typ), false, le(values))
}

func (b *docBuilder) node(n *gltf.Node) uint32 {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return uint32(len(b.doc.Nodes) - 1)
}

func (b *docBuilder) build() *gltf.Document {
	b.doc.Buffers[0].Data = b.buf
	b.doc.Buffers[0].ByteLength = uint32(len(b.buf))
	return b.doc
}

// le encodes values little-endian.
func le[T float32 | uint8 | uint16 | int8 | int16 | uint32](values []T) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		switch x := any(v).(type) {
		case float32:
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
		case uint32:
			out = binary.LittleEndian.AppendUint32(out, x)
		case uint16:
			out = binary.LittleEndian.AppendUint16(out, x)
		case int16:
			out = binary.LittleEndian.AppendUint16(out, uint16(x))
		case uint8:
			out = append(out, x)
		case int8:
			out = append(out, byte(x))
		}
	}
	return out
}

func mat4Floats(ms ...mgl32.Mat4) []float32 {
	var out []float32
	for _, m := range ms {
		out = append(out, m[:]...)
	}
	return out
}

// triangle adds a single-triangle mesh and returns its index. Extra attributes are merged in.
func (b *docBuilder) triangle(extra map[string]uint32) uint32 {
	pos := b.floats(gltf.AccessorVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	nrm := b.floats(gltf.AccessorVec3, 0, 0, 1, 0, 0, 1, 0, 0, 1)
	idx := b.accessor(gltf.ComponentUshort, gltf.AccessorScalar, 3, false, le([]uint16{0, 1, 2}))

	attrs := map[string]uint32{gltfAttrPosition: pos, gltfAttrNormal: nrm}
	for k, v := range extra {
		attrs[k] = v
	}
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(idx),
			Mode:       gltf.PrimitiveTriangles,
		}},
	})
	return uint32(len(b.doc.Meshes) - 1)
}

// skinnedFixture builds a single scene with two roots:
//
//	Armature
//	└── Hips (joint)
//	    └── Spine (joint)
//	Body (mesh 0, skin 0)
//
// Node indices are Spine 0, Hips 1, Armature 2, Body 3.
// The skin declares its joints as [Spine, Hips], the reverse of the walk order. A rotation channel
// on Spine stores normalized shorts.
func skinnedFixture() *gltf.Document {
	b := newDocBuilder()

	joints := b.accessor(gltf.ComponentUbyte, gltf.AccessorVec4, 3, false, le([]uint8{
		0, 1, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
	}))
	weights := b.floats(gltf.AccessorVec4,
		0.5, 0.5, 0, 0,
		1, 0, 0, 0,
		1, 0, 0, 0,
	)
	mesh := b.triangle(map[string]uint32{gltfAttrJoints0: joints, gltfAttrWeights0: weights})

	spine := b.node(&gltf.Node{Name: "Spine", Translation: [3]float32{0, 1, 0}})
	hips := b.node(&gltf.Node{Name: "Hips", Children: []uint32{spine}})
	armature := b.node(&gltf.Node{Name: "Armature", Children: []uint32{hips}})
	body := b.node(&gltf.Node{Name: "Body", Mesh: gltf.Index(mesh), Skin: gltf.Index(0)})
	b.doc.Scenes[0].Nodes = []uint32{armature, body}

	ibm := b.floats(gltf.AccessorMat4, mat4Floats(mgl32.Translate3D(0, -1, 0), mgl32.Ident4())...)
	b.doc.Skins = []*gltf.Skin{{Name: "Skin", Joints: []uint32{spine, hips}, InverseBindMatrices: gltf.Index(ibm)}}

	times := b.floats(gltf.AccessorScalar, 0, 1)
	rot := b.accessor(gltf.ComponentShort, gltf.AccessorVec4, 2, true, le([]int16{
		0, 0, 0, 32767,
		0, 0, 32767, 0,
	}))
	b.doc.Animations = []*gltf.Animation{{
		Name:     "Bend",
		Samplers: []*gltf.AnimationSampler{{Input: gltf.Index(times), Output: gltf.Index(rot), Interpolation: gltf.InterpolationLinear}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(spine), Path: gltf.TRSRotation},
		}},
	}}

	return b.build()
}
