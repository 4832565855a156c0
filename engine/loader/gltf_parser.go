package loader

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir  string
	document *gltf.Document
}

// gltfParser defines the interface for loading glTF/GLB documents and reading typed accessor data.
// Document decoding and buffer resolution are delegated to github.com/qmuntal/gltf; the parser
// adds the accessor decoding rules the viewer relies on (normalized integers, strides, bounds).
// This is internal to the loader package.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// External buffers are resolved relative to the file's directory.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - baseDir: the directory external URIs are resolved against
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, baseDir string) error

	// Document returns the parsed glTF document, or nil before a successful Parse.
	//
	// Returns:
	//   - *gltf.Document: the parsed document or nil
	Document() *gltf.Document

	// BaseDir returns the directory used to resolve relative URIs.
	//
	// Returns:
	//   - string: the base directory path
	BaseDir() string

	// ReadScalarAccessor reads a SCALAR FLOAT accessor, such as keyframe times.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []float32: the scalar data
	//   - error: error if reading fails
	ReadScalarAccessor(accessorIndex int) ([]float32, error)

	// ReadVec2Accessor reads a VEC2 accessor, such as texture coordinates.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][2]float32: the vec2 data
	//   - error: error if reading fails
	ReadVec2Accessor(accessorIndex int) ([][2]float32, error)

	// ReadVec3Accessor reads a VEC3 accessor. Integer components are decoded as normalized
	// values when the accessor says so and cast otherwise.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][3]float32: the vec3 data
	//   - error: error if reading fails
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)

	// ReadVec4Accessor reads a VEC4 accessor. When normalize is true, integer components are
	// always decoded as normalized values, as required for rotations and weights.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - normalize: force normalized decoding of integer components
	//
	// Returns:
	//   - [][4]float32: the vec4 data
	//   - error: error if reading fails
	ReadVec4Accessor(accessorIndex int, normalize bool) ([][4]float32, error)

	// ReadMat4Accessor reads a MAT4 FLOAT accessor in column-major order.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][16]float32: the mat4 data
	//   - error: error if reading fails
	ReadMat4Accessor(accessorIndex int) ([][16]float32, error)

	// ReadIndicesAccessor reads an accessor as index data.
	// Handles UNSIGNED_BYTE, UNSIGNED_SHORT and UNSIGNED_INT component types.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []uint32: the index data
	//   - error: error if reading fails
	ReadIndicesAccessor(accessorIndex int) ([]uint32, error)

	// ReadJointsAccessor reads a VEC4 UNSIGNED_BYTE or UNSIGNED_SHORT accessor of joint indices.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][4]uint16: the joint indices
	//   - error: error if reading fails
	ReadJointsAccessor(accessorIndex int) ([][4]uint16, error)

	// ReadBufferView returns the bytes covered by a buffer view.
	//
	// Parameters:
	//   - bufferViewIndex: the index of the buffer view
	//
	// Returns:
	//   - []byte: the buffer view bytes
	//   - error: error if the view is out of range
	ReadBufferView(bufferViewIndex int) ([]byte, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser.
//
// Returns:
//   - gltfParser: the parser
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

// newGLTFParserFromDocument wraps an already decoded document.
func newGLTFParserFromDocument(doc *gltf.Document, baseDir string) gltfParser {
	return &gltfParserImpl{document: doc, baseDir: baseDir}
}

func (p *gltfParserImpl) Document() *gltf.Document {
	return p.document
}

func (p *gltfParserImpl) BaseDir() string {
	return p.baseDir
}

func (p *gltfParserImpl) Parse(path string) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	p.document = doc
	p.baseDir = filepath.Dir(path)
	return nil
}

func (p *gltfParserImpl) ParseReader(r io.Reader, baseDir string) error {
	doc := new(gltf.Document)
	dec := gltf.NewDecoderFS(r, os.DirFS(common.Coalesce(baseDir, ".")))
	if err := dec.Decode(doc); err != nil {
		return errors.Wrap(err, "failed to decode glTF stream")
	}
	p.document = doc
	p.baseDir = baseDir
	return nil
}

// accessor resolves an accessor by index and checks its element type.
func (p *gltfParserImpl) accessor(accessorIndex int, want gltf.AccessorType) (*gltf.Accessor, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, common.Malformedf("accessor %d out of range (have %d)", accessorIndex, len(p.document.Accessors))
	}
	acc := p.document.Accessors[accessorIndex]
	if acc.Type != want {
		return nil, common.Malformedf("accessor %d: expected type %s, got %s", accessorIndex, want, acc.Type)
	}
	if acc.Sparse != nil {
		return nil, common.Unsupportedf("accessor %d: sparse accessors", accessorIndex)
	}
	return acc, nil
}

// elements returns the accessor's backing bytes and the distance between two elements.
// An accessor without a buffer view reads as zeros.
func (p *gltfParserImpl) elements(accessorIndex int, acc *gltf.Accessor) ([]byte, int, error) {
	compSize := gltfComponentTypeSize(acc.ComponentType)
	if compSize == 0 {
		return nil, 0, common.Malformedf("accessor %d: unknown component type %d", accessorIndex, acc.ComponentType)
	}
	elemSize := compSize * gltfAccessorTypeComponentCount(acc.Type)
	count := int(acc.Count)

	if acc.BufferView == nil {
		return make([]byte, count*elemSize), elemSize, nil
	}

	view, err := p.ReadBufferView(int(*acc.BufferView))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "accessor %d", accessorIndex)
	}

	stride := elemSize
	if s := int(p.document.BufferViews[*acc.BufferView].ByteStride); s > 0 {
		stride = s
	}

	offset := int(acc.ByteOffset)
	if count == 0 {
		return nil, stride, nil
	}
	end := offset + (count-1)*stride + elemSize
	if end > len(view) {
		return nil, 0, common.Malformedf("accessor %d: needs %d bytes, buffer view has %d", accessorIndex, end, len(view))
	}
	return view[offset:end], stride, nil
}

// readFloats decodes every component of an accessor to float32, element by element.
func (p *gltfParserImpl) readFloats(accessorIndex int, want gltf.AccessorType, normalize bool) ([]float32, error) {
	acc, err := p.accessor(accessorIndex, want)
	if err != nil {
		return nil, err
	}
	data, stride, err := p.elements(accessorIndex, acc)
	if err != nil {
		return nil, err
	}

	normalize = normalize || acc.Normalized
	n := gltfAccessorTypeComponentCount(acc.Type)
	compSize := gltfComponentTypeSize(acc.ComponentType)

	out := make([]float32, 0, int(acc.Count)*n)
	for e := 0; e < int(acc.Count); e++ {
		base := e * stride
		for c := 0; c < n; c++ {
			out = append(out, gltfReadComponent(data[base+c*compSize:], acc.ComponentType, normalize))
		}
	}
	return out, nil
}

// gltfReadComponent decodes one little-endian component. Integer components are decoded with the
// normalized formulas when normalize is set and cast to float otherwise.
func gltfReadComponent(b []byte, componentType gltf.ComponentType, normalize bool) float32 {
	switch componentType {
	case gltf.ComponentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltf.ComponentByte:
		if normalize {
			return gltfDecodeNormalizedByte(int8(b[0]))
		}
		return float32(int8(b[0]))
	case gltf.ComponentUbyte:
		if normalize {
			return gltfDecodeNormalizedUbyte(b[0])
		}
		return float32(b[0])
	case gltf.ComponentShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalize {
			return gltfDecodeNormalizedShort(v)
		}
		return float32(v)
	case gltf.ComponentUshort:
		v := binary.LittleEndian.Uint16(b)
		if normalize {
			return gltfDecodeNormalizedUshort(v)
		}
		return float32(v)
	case gltf.ComponentUint:
		return float32(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

func (p *gltfParserImpl) ReadScalarAccessor(accessorIndex int) ([]float32, error) {
	acc, err := p.accessor(accessorIndex, gltf.AccessorScalar)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, common.Malformedf("accessor %d: scalar data must be FLOAT, got %s",
			accessorIndex, gltfComponentTypeName(acc.ComponentType))
	}
	return p.readFloats(accessorIndex, gltf.AccessorScalar, false)
}

func (p *gltfParserImpl) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	flat, err := p.readFloats(accessorIndex, gltf.AccessorVec2, false)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		copy(out[i][:], flat[i*2:])
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	flat, err := p.readFloats(accessorIndex, gltf.AccessorVec3, false)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		copy(out[i][:], flat[i*3:])
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec4Accessor(accessorIndex int, normalize bool) ([][4]float32, error) {
	flat, err := p.readFloats(accessorIndex, gltf.AccessorVec4, normalize)
	if err != nil {
		return nil, err
	}
	out := make([][4]float32, len(flat)/4)
	for i := range out {
		copy(out[i][:], flat[i*4:])
	}
	return out, nil
}

func (p *gltfParserImpl) ReadMat4Accessor(accessorIndex int) ([][16]float32, error) {
	acc, err := p.accessor(accessorIndex, gltf.AccessorMat4)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, common.Malformedf("accessor %d: matrix data must be FLOAT, got %s",
			accessorIndex, gltfComponentTypeName(acc.ComponentType))
	}
	flat, err := p.readFloats(accessorIndex, gltf.AccessorMat4, false)
	if err != nil {
		return nil, err
	}
	out := make([][16]float32, len(flat)/16)
	for i := range out {
		copy(out[i][:], flat[i*16:])
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	acc, err := p.accessor(accessorIndex, gltf.AccessorScalar)
	if err != nil {
		return nil, err
	}
	switch acc.ComponentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return nil, common.Malformedf("accessor %d: index data must be unsigned, got %s",
			accessorIndex, gltfComponentTypeName(acc.ComponentType))
	}

	data, stride, err := p.elements(accessorIndex, acc)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		b := data[i*stride:]
		switch acc.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(b[0])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		default:
			out[i] = binary.LittleEndian.Uint32(b)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadJointsAccessor(accessorIndex int) ([][4]uint16, error) {
	acc, err := p.accessor(accessorIndex, gltf.AccessorVec4)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentUbyte && acc.ComponentType != gltf.ComponentUshort {
		return nil, common.Malformedf("accessor %d: joint indices must be UNSIGNED_BYTE or UNSIGNED_SHORT, got %s",
			accessorIndex, gltfComponentTypeName(acc.ComponentType))
	}

	data, stride, err := p.elements(accessorIndex, acc)
	if err != nil {
		return nil, err
	}
	out := make([][4]uint16, acc.Count)
	for i := range out {
		b := data[i*stride:]
		for c := 0; c < 4; c++ {
			if acc.ComponentType == gltf.ComponentUbyte {
				out[i][c] = uint16(b[c])
			} else {
				out[i][c] = binary.LittleEndian.Uint16(b[c*2:])
			}
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadBufferView(bufferViewIndex int) ([]byte, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if bufferViewIndex < 0 || bufferViewIndex >= len(p.document.BufferViews) {
		return nil, common.Malformedf("buffer view %d out of range (have %d)", bufferViewIndex, len(p.document.BufferViews))
	}
	bv := p.document.BufferViews[bufferViewIndex]
	if int(bv.Buffer) >= len(p.document.Buffers) {
		return nil, common.Malformedf("buffer view %d references missing buffer %d", bufferViewIndex, bv.Buffer)
	}
	data := p.document.Buffers[bv.Buffer].Data
	start := int(bv.ByteOffset)
	end := start + int(bv.ByteLength)
	if end > len(data) {
		return nil, common.Malformedf("buffer view %d: range [%d, %d) exceeds buffer %d of %d bytes",
			bufferViewIndex, start, end, bv.Buffer, len(data))
	}
	return data[start:end], nil
}
