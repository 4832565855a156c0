package loader

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser    gltfParser
	materials gltfMaterialExtractor
}

// gltfMeshExtractor defines the interface for extracting mesh data from a parsed glTF document.
// Primitives must be indexed triangle lists carrying POSITION and NORMAL attributes.
type gltfMeshExtractor interface {
	// ExtractMesh extracts a single mesh by index with all of its primitives.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - *model.Mesh: the extracted mesh
	//   - error: ErrMalformedAsset or ErrUnsupportedFeature describing the first rejected primitive
	ExtractMesh(meshIndex int) (*model.Mesh, error)

	// ExtractAllMeshes extracts all meshes from the document, indexed by glTF mesh index.
	//
	// Returns:
	//   - []*model.Mesh: all meshes
	//   - error: error if extraction fails
	ExtractAllMeshes() ([]*model.Mesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - materials: the extractor resolving each primitive's base color source
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser, materials gltfMaterialExtractor) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, materials: materials}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) (*model.Mesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, errors.Errorf("mesh index %d out of range", meshIndex)
	}

	src := doc.Meshes[meshIndex]
	mesh := &model.Mesh{
		Index:      meshIndex,
		Name:       src.Name,
		Primitives: make([]model.Primitive, 0, len(src.Primitives)),
	}
	for primIdx, prim := range src.Primitives {
		p, err := e.extractPrimitive(prim)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d (%s) primitive %d", meshIndex, src.Name, primIdx)
		}
		mesh.Primitives = append(mesh.Primitives, *p)
	}
	return mesh, nil
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]*model.Mesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}

	meshes := make([]*model.Mesh, len(doc.Meshes))
	for i := range doc.Meshes {
		mesh, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

// extractPrimitive validates and reads a single primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltf.Primitive) (*model.Primitive, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, common.Malformedf("unsupported primitive mode %d (only triangles supported)", prim.Mode)
	}
	if gltfCountTexCoordSets(prim.Attributes) > 1 {
		return nil, common.Unsupportedf("more than one texture coordinate set")
	}

	posAccessor, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return nil, common.Malformedf("primitive has no %s attribute", gltfAttrPosition)
	}
	normalAccessor, ok := prim.Attributes[gltfAttrNormal]
	if !ok {
		return nil, common.Malformedf("primitive has no %s attribute", gltfAttrNormal)
	}
	if prim.Indices == nil {
		return nil, common.Malformedf("primitive has no indices")
	}

	out := &model.Primitive{}
	var err error

	if out.Positions, err = e.parser.ReadVec3Accessor(int(posAccessor)); err != nil {
		return nil, errors.Wrap(err, "positions")
	}
	if out.Normals, err = e.parser.ReadVec3Accessor(int(normalAccessor)); err != nil {
		return nil, errors.Wrap(err, "normals")
	}
	if len(out.Normals) != len(out.Positions) {
		return nil, common.Malformedf("%d normals for %d positions", len(out.Normals), len(out.Positions))
	}
	if out.Indices, err = e.parser.ReadIndicesAccessor(int(*prim.Indices)); err != nil {
		return nil, errors.Wrap(err, "indices")
	}
	if len(out.Indices)%3 != 0 {
		return nil, common.Malformedf("index count %d is not a multiple of 3", len(out.Indices))
	}
	for _, idx := range out.Indices {
		if int(idx) >= len(out.Positions) {
			return nil, common.Malformedf("index %d out of range (%d vertices)", idx, len(out.Positions))
		}
	}

	if uvAccessor, ok := prim.Attributes[gltfAttrTexCoord0]; ok {
		if out.TexCoords, err = e.parser.ReadVec2Accessor(int(uvAccessor)); err != nil {
			return nil, errors.Wrap(err, "texture coordinates")
		}
	}

	jointsAccessor, hasJoints := prim.Attributes[gltfAttrJoints0]
	weightsAccessor, hasWeights := prim.Attributes[gltfAttrWeights0]
	if hasJoints != hasWeights {
		return nil, common.Malformedf("%s and %s must be present together", gltfAttrJoints0, gltfAttrWeights0)
	}
	if hasJoints {
		if out.Joints, err = e.parser.ReadJointsAccessor(int(jointsAccessor)); err != nil {
			return nil, errors.Wrap(err, "joints")
		}
		if out.Weights, err = e.parser.ReadVec4Accessor(int(weightsAccessor), true); err != nil {
			return nil, errors.Wrap(err, "weights")
		}
		if len(out.Joints) != len(out.Positions) || len(out.Weights) != len(out.Positions) {
			return nil, common.Malformedf("joint influences do not cover all %d vertices", len(out.Positions))
		}
	}

	if out.Texture, err = e.materials.ExtractPrimitiveTexture(prim.Material); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Helper Functions ---

// gltfCountTexCoordSets counts TEXCOORD_n attributes.
func gltfCountTexCoordSets(attributes map[string]uint32) int {
	n := 0
	for name := range attributes {
		if strings.HasPrefix(name, "TEXCOORD_") {
			n++
		}
	}
	return n
}
