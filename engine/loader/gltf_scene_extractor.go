package loader

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfSceneExtractorImpl is the implementation of the gltfSceneExtractor interface.
type gltfSceneExtractorImpl struct {
	parser gltfParser
	nextID uint32
}

// gltfSceneExtractor defines the interface for converting the glTF node graph into the viewer's scene tree.
type gltfSceneExtractor interface {
	// ExtractScene builds the node tree of the document's scene below an artificial root node.
	// Node IDs are assigned in pre-order starting at 1; the root has ID 0 and SourceIndex -1.
	// Meshes are attached by glTF mesh index from the given slice.
	//
	// Parameters:
	//   - meshes: the extracted meshes indexed by glTF mesh index
	//
	// Returns:
	//   - *model.Node: the artificial root node
	//   - error: ErrMalformedAsset if the file does not have exactly one scene or the node graph is not a tree
	ExtractScene(meshes []*model.Mesh) (*model.Node, error)
}

var _ gltfSceneExtractor = &gltfSceneExtractorImpl{}

// newGLTFSceneExtractor creates a new scene extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSceneExtractor: the scene extractor
func newGLTFSceneExtractor(parser gltfParser) gltfSceneExtractor {
	return &gltfSceneExtractorImpl{parser: parser}
}

func (e *gltfSceneExtractorImpl) ExtractScene(meshes []*model.Mesh) (*model.Node, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	switch {
	case len(doc.Scenes) == 0:
		return nil, common.Malformedf("glTF file contains no scene")
	case len(doc.Scenes) > 1:
		return nil, common.Malformedf("glTF file contains more than 1 scene (found %d)", len(doc.Scenes))
	}

	e.nextID = 0
	root := &model.Node{
		ID:          e.allocID(),
		SourceIndex: -1,
		Name:        "Root",
		Transform:   model.IdentityTransform(),
	}

	onPath := make(map[int]bool)
	for _, idx := range gltfSceneRoots(doc) {
		child, err := e.buildNode(doc, idx, meshes, onPath)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

func (e *gltfSceneExtractorImpl) allocID() uint32 {
	id := e.nextID
	e.nextID++
	return id
}

// buildNode converts one glTF node and its subtree.
func (e *gltfSceneExtractorImpl) buildNode(doc *gltf.Document, index int, meshes []*model.Mesh, onPath map[int]bool) (*model.Node, error) {
	if index < 0 || index >= len(doc.Nodes) {
		return nil, common.Malformedf("node %d out of range (have %d)", index, len(doc.Nodes))
	}
	if onPath[index] {
		return nil, common.Malformedf("node %d is its own ancestor", index)
	}
	onPath[index] = true
	defer delete(onPath, index)

	src := doc.Nodes[index]
	n := &model.Node{
		ID:          e.allocID(),
		SourceIndex: index,
		Name:        src.Name,
		Transform:   gltfExtractNodeTransform(src),
	}

	if src.Mesh != nil {
		mi := int(*src.Mesh)
		if mi >= len(meshes) || meshes[mi] == nil {
			return nil, common.Malformedf("node %d references missing mesh %d", index, mi)
		}
		n.Mesh = meshes[mi]
	}

	for _, c := range src.Children {
		child, err := e.buildNode(doc, int(c), meshes, onPath)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// --- Helper Functions ---

// gltfSceneRoots returns the root node indices of the document's only scene.
func gltfSceneRoots(doc *gltf.Document) []int {
	roots := make([]int, len(doc.Scenes[0].Nodes))
	for i, n := range doc.Scenes[0].Nodes {
		roots[i] = int(n)
	}
	return roots
}

// gltfExtractNodeTransform extracts the local transform of a glTF node. A non-identity matrix
// takes precedence over TRS properties; zero rotation and scale read as their glTF defaults.
func gltfExtractNodeTransform(node *gltf.Node) model.Transform {
	m := mgl32.Mat4(node.Matrix)
	if m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return model.TransformFromMatrix(m)
	}

	t := model.IdentityTransform()
	t.Translation = mgl32.Vec3(node.Translation)
	if node.Rotation != [4]float32{} {
		t.Rotation = common.QuatFromXYZW(node.Rotation)
	}
	if node.Scale != [3]float32{} {
		t.Scale = mgl32.Vec3(node.Scale)
	}
	return t
}
