package loader

import (
	"log"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
	skins  map[int]model.SkinDefinition
}

// gltfSkeletonExtractor defines the interface for turning glTF skins into joint hierarchies.
type gltfSkeletonExtractor interface {
	// ExtractSkinDefinition reads the declared joint node indices and inverse bind matrices of a skin.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - model.SkinDefinition: the raw skin data in declared order
	//   - error: ErrMalformedAsset if the inverse bind matrix data cannot be read
	ExtractSkinDefinition(skinIndex int) (model.SkinDefinition, error)

	// AttachSkins builds a JointHierarchy for every skinned node below root and stores it on the node.
	// Skinned primitives get a copy of their mesh whose joint indices address the hierarchy order
	// instead of the skin's declared order.
	//
	// Parameters:
	//   - root: the artificial scene root
	//
	// Returns:
	//   - error: error if a skin cannot be read or its hierarchy cannot be built
	AttachSkins(root *model.Node) error
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{
		parser: parser,
		skins:  make(map[int]model.SkinDefinition),
	}
}

func (e *gltfSkeletonExtractorImpl) ExtractSkinDefinition(skinIndex int) (model.SkinDefinition, error) {
	if def, ok := e.skins[skinIndex]; ok {
		return def, nil
	}

	doc := e.parser.Document()
	if doc == nil {
		return model.SkinDefinition{}, errors.New("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return model.SkinDefinition{}, common.Malformedf("skin %d out of range (have %d)", skinIndex, len(doc.Skins))
	}
	skin := doc.Skins[skinIndex]

	def := model.SkinDefinition{Joints: make([]int, len(skin.Joints))}
	for i, j := range skin.Joints {
		def.Joints[i] = int(j)
	}

	if skin.InverseBindMatrices != nil {
		raw, err := e.parser.ReadMat4Accessor(int(*skin.InverseBindMatrices))
		if err != nil {
			return model.SkinDefinition{}, errors.Wrapf(err, "skin %d: inverse bind matrices", skinIndex)
		}
		def.InverseBindMatrices = make([]mgl32.Mat4, len(raw))
		for i, m := range raw {
			def.InverseBindMatrices[i] = mgl32.Mat4(m)
		}
	}

	e.skins[skinIndex] = def
	return def, nil
}

func (e *gltfSkeletonExtractorImpl) AttachSkins(root *model.Node) error {
	doc := e.parser.Document()
	if doc == nil {
		return errors.New("no document loaded")
	}

	var attach func(n *model.Node) error
	attach = func(n *model.Node) error {
		if n.SourceIndex >= 0 {
			if src := doc.Nodes[n.SourceIndex]; src.Skin != nil {
				skinIndex := int(*src.Skin)
				def, err := e.ExtractSkinDefinition(skinIndex)
				if err != nil {
					return err
				}
				h, err := model.NewJointHierarchy(root.Children, def)
				if err != nil {
					return errors.Wrapf(err, "node %d skin %d", n.SourceIndex, skinIndex)
				}
				if h.Len() < len(def.Joints) {
					log.Printf("[Loader] node %d skin %d: %d of %d declared joints reachable from the first skeleton",
						n.SourceIndex, skinIndex, h.Len(), len(def.Joints))
				}
				n.Skin = h
				if n.Mesh != nil {
					n.Mesh = gltfRemapMeshJoints(n.Mesh, def, h)
				}
			}
		}
		for _, c := range n.Children {
			if err := attach(c); err != nil {
				return err
			}
		}
		return nil
	}
	return attach(root)
}

// --- Helper Functions ---

// gltfRemapMeshJoints returns a copy of mesh whose JOINTS_0 values index the hierarchy instead of
// the skin's declared joint list. Influences on joints that are not part of the hierarchy fall back
// to joint 0.
func gltfRemapMeshJoints(mesh *model.Mesh, skin model.SkinDefinition, h *model.JointHierarchy) *model.Mesh {
	declaredToHierarchy := make([]uint16, len(skin.Joints))
	for pos, nodeIndex := range skin.Joints {
		if i := h.IndexOfNode(nodeIndex); i >= 0 {
			declaredToHierarchy[pos] = uint16(i)
		}
	}

	out := &model.Mesh{Index: mesh.Index, Name: mesh.Name, Primitives: make([]model.Primitive, len(mesh.Primitives))}
	for p, prim := range mesh.Primitives {
		out.Primitives[p] = prim
		if len(prim.Joints) == 0 {
			continue
		}
		joints := make([][4]uint16, len(prim.Joints))
		for v, influence := range prim.Joints {
			for k, declared := range influence {
				if int(declared) < len(declaredToHierarchy) {
					joints[v][k] = declaredToHierarchy[declared]
				}
			}
		}
		out.Primitives[p].Joints = joints
	}
	return out
}
