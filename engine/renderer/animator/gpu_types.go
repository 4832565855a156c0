package animator

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxJointTransforms is the capacity of the joint matrix buffer bound for a skinned draw.
// The vertex shader declares array<mat4x4<f32>, 256>.
const MaxJointTransforms = 256

// jointMatrixSize is the byte size of one column-major mat4x4<f32>.
const jointMatrixSize = 64

// JointTransforms is the GPU-aligned joint matrix array for one skinned node.
// Matrices are column-major, matching mgl32 and WGSL. Entries past Count are identity.
// Size: 16384 bytes (256 × mat4x4<f32>).
type JointTransforms struct {
	Count    uint32
	Matrices [MaxJointTransforms][16]float32

	buf []byte
}

// NewJointTransforms packs skin matrices into a fixed-capacity buffer.
//
// Parameters:
//   - skin: the skin matrices in joint array order
//
// Returns:
//   - *JointTransforms: the packed matrices
//   - error: ErrUnsupportedFeature if there are more than MaxJointTransforms matrices
func NewJointTransforms(skin []mgl32.Mat4) (*JointTransforms, error) {
	jt := &JointTransforms{}
	if err := jt.Set(skin); err != nil {
		return nil, err
	}
	return jt, nil
}

// Set overwrites the packed matrices with skin and resets the unused tail to identity.
//
// Parameters:
//   - skin: the skin matrices in joint array order
//
// Returns:
//   - error: ErrUnsupportedFeature if there are more than MaxJointTransforms matrices
func (g *JointTransforms) Set(skin []mgl32.Mat4) error {
	if len(skin) > MaxJointTransforms {
		return common.Unsupportedf("%d joints exceed the maximum of %d", len(skin), MaxJointTransforms)
	}
	ident := mgl32.Ident4()
	for i := range g.Matrices {
		if i < len(skin) {
			g.Matrices[i] = skin[i]
		} else {
			g.Matrices[i] = ident
		}
	}
	g.Count = uint32(len(skin))
	return nil
}

// SetIdentity fills the first n entries, and the tail, with identity.
//
// Parameters:
//   - n: the joint count to report
//
// Returns:
//   - error: ErrUnsupportedFeature if n exceeds MaxJointTransforms
func (g *JointTransforms) SetIdentity(n int) error {
	if n > MaxJointTransforms {
		return common.Unsupportedf("%d joints exceed the maximum of %d", n, MaxJointTransforms)
	}
	ident := mgl32.Ident4()
	for i := range g.Matrices {
		g.Matrices[i] = ident
	}
	g.Count = uint32(n)
	return nil
}

// Matrix returns packed matrix i as an mgl32.Mat4.
func (g *JointTransforms) Matrix(i int) mgl32.Mat4 {
	return mgl32.Mat4(g.Matrices[i])
}

// Size returns the size of the matrix array in bytes.
//
// Returns:
//   - int: The size of the matrix array in bytes.
func (g *JointTransforms) Size() int {
	return int(unsafe.Sizeof(g.Matrices))
}

// Marshal serializes the full matrix array into a little-endian byte buffer suitable for GPU upload.
// Count is not part of the buffer. The returned slice is owned by g and is overwritten by the next Marshal.
//
// Returns:
//   - []byte: 16384-byte buffer ready for GPU upload.
func (g *JointTransforms) Marshal() []byte {
	if len(g.buf) != MaxJointTransforms*jointMatrixSize {
		g.buf = make([]byte, MaxJointTransforms*jointMatrixSize)
	}
	buf := g.buf
	for i := range g.Matrices {
		base := i * jointMatrixSize
		for j, f := range g.Matrices[i] {
			binary.LittleEndian.PutUint32(buf[base+j*4:base+j*4+4], math.Float32bits(f))
		}
	}
	return buf
}

// GPUDebugLineVertex is one endpoint of a debug skeleton line.
// Size: 16 bytes (vec3<f32> position + f32 depth in the joint tree).
type GPUDebugLineVertex struct {
	Position [3]float32 // offset 0
	Depth    float32    // offset 12
}

// Size returns the size of the GPUDebugLineVertex struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUDebugLineVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDebugLineVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUDebugLineVertex) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Depth))
	return buf
}
