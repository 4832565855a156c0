package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Scene Types ---

// Transform represents a decomposed local transform. Matrix composes it as T * R * S.
type Transform struct {
	// Translation is the position offset relative to the parent.
	Translation mgl32.Vec3

	// Rotation is the orientation relative to the parent.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// Node is a single element of the scene graph. Children are owned exclusively by their parent.
type Node struct {
	// ID is the viewer-assigned identifier, unique within a model. The artificial root is 0.
	ID uint32

	// SourceIndex is the glTF node index this node was built from, or -1 for the artificial root.
	SourceIndex int

	// Name is the display name of the node.
	Name string

	// Transform is the node's local transform.
	Transform Transform

	// Children are the owned child nodes in document order.
	Children []*Node

	// Mesh is the mesh drawn at this node, if any.
	Mesh *Mesh

	// Skin is the joint hierarchy derived from this node's skin, if the node is skinned.
	Skin *JointHierarchy
}

// SkinnedNode pairs a skinned node with the accumulated transform of its ancestors.
// The node's own transform is deliberately excluded from Outer.
type SkinnedNode struct {
	Node  *Node
	Outer mgl32.Mat4
}

// --- Skeleton Types ---

// Joint is one entry of a JointHierarchy.
type Joint struct {
	// NodeIndex is the glTF node index this joint was created from. Animation channels
	// are matched against it; it is a lookup key, not an ownership relation.
	NodeIndex int

	// Name is the joint's display name.
	Name string

	// Parent is the index of the parent joint in the same hierarchy, or -1 for a root joint.
	Parent int

	// InverseBind transforms from model space to joint space at bind pose.
	InverseBind mgl32.Mat4

	// Local is the joint's transform relative to its parent. Animation overwrites it every frame.
	Local Transform
}

// IsRoot reports whether the joint has no parent.
func (j *Joint) IsRoot() bool {
	return j.Parent < 0
}

// SkinDefinition is the raw skin data a JointHierarchy is built from.
type SkinDefinition struct {
	// Joints lists the glTF node indices of the skin's joints in declared order.
	Joints []int

	// InverseBindMatrices holds one matrix per entry of Joints, or is empty when the skin has none.
	InverseBindMatrices []mgl32.Mat4
}

// --- Animation Types ---

// Interpolation identifies how keyframe values are blended between two keyframes.
type Interpolation int

const (
	// InterpolationLinear blends translations and scales linearly and rotations spherically.
	InterpolationLinear Interpolation = iota

	// InterpolationStep holds the previous keyframe value until the next keyframe.
	InterpolationStep

	// InterpolationCubicSpline uses cubic Hermite splines with in and out tangents.
	InterpolationCubicSpline
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "LINEAR"
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// TransformKind identifies which transform property a channel animates.
type TransformKind int

const (
	KindTranslation TransformKind = iota
	KindRotation
	KindScale
)

func (k TransformKind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindRotation:
		return "rotation"
	case KindScale:
		return "scale"
	default:
		return fmt.Sprintf("TransformKind(%d)", int(k))
	}
}

// Keyframes is the value sequence of a channel. Exactly one of TranslationKeyframes,
// RotationKeyframes or ScaleKeyframes.
type Keyframes interface {
	// Kind reports which transform property the values animate.
	Kind() TransformKind

	// Len returns the number of keyframe values.
	Len() int

	isKeyframes()
}

// TranslationKeyframes are translation values, one per keyframe time.
type TranslationKeyframes []mgl32.Vec3

// RotationKeyframes are rotation values, one per keyframe time. They are stored as decoded
// and normalized only when interpolated.
type RotationKeyframes []mgl32.Quat

// ScaleKeyframes are scale values, one per keyframe time.
type ScaleKeyframes []mgl32.Vec3

func (TranslationKeyframes) Kind() TransformKind { return KindTranslation }
func (RotationKeyframes) Kind() TransformKind    { return KindRotation }
func (ScaleKeyframes) Kind() TransformKind       { return KindScale }

func (k TranslationKeyframes) Len() int { return len(k) }
func (k RotationKeyframes) Len() int    { return len(k) }
func (k ScaleKeyframes) Len() int       { return len(k) }

func (TranslationKeyframes) isKeyframes() {}
func (RotationKeyframes) isKeyframes()    {}
func (ScaleKeyframes) isKeyframes()       {}

// TransformComponent is a single resolved transform property. Exactly one of Translation,
// Rotation or Scale.
type TransformComponent interface {
	// Apply overwrites the matching property of t.
	Apply(t *Transform)

	isTransformComponent()
}

// Translation is a resolved translation.
type Translation mgl32.Vec3

// Rotation is a resolved rotation.
type Rotation mgl32.Quat

// Scale is a resolved scale.
type Scale mgl32.Vec3

func (c Translation) Apply(t *Transform) { t.Translation = mgl32.Vec3(c) }
func (c Rotation) Apply(t *Transform)    { t.Rotation = mgl32.Quat(c) }
func (c Scale) Apply(t *Transform)       { t.Scale = mgl32.Vec3(c) }

func (Translation) isTransformComponent() {}
func (Rotation) isTransformComponent()    {}
func (Scale) isTransformComponent()       {}

// Channel animates one transform property of one node.
type Channel struct {
	// Node is the glTF node index of the animated node.
	Node int

	// Times are the keyframe timestamps in seconds, strictly ascending.
	Times []float32

	// Values holds one value per entry of Times.
	Values Keyframes

	// Interpolation is the sampler's interpolation mode.
	Interpolation Interpolation
}

// AnimationClip is a named set of channels played back together.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Channels are the clip's channels in document order.
	Channels []Channel

	// EndTime is the largest last-keyframe time across all channels.
	EndTime float32

	// CurrentTime is the playback position in seconds.
	CurrentTime float32
}

// --- Mesh Types ---

// Mesh is a named collection of primitives.
type Mesh struct {
	// Index is the glTF mesh index.
	Index int

	// Name is the mesh identifier.
	Name string

	// Primitives are the mesh's drawable parts.
	Primitives []Primitive
}

// Primitive is a single indexed triangle list with its vertex attributes.
type Primitive struct {
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint32

	// Joints and Weights are present only for skinned primitives.
	Joints  [][4]uint16
	Weights [][4]float32

	// Texture describes the primitive's base color source.
	Texture PrimitiveTexture
}

// Skinned reports whether the primitive carries joint influences.
func (p *Primitive) Skinned() bool {
	return len(p.Joints) > 0 && len(p.Weights) > 0
}

// PrimitiveTexture is the base color source of a primitive. Exactly one of Untextured or Textured.
type PrimitiveTexture interface {
	// BaseColor returns the base color factor applied to the primitive.
	BaseColor() mgl32.Vec4

	isPrimitiveTexture()
}

// Untextured is a primitive colored by its base color factor alone.
type Untextured struct {
	BaseColorFactor mgl32.Vec4
}

// Textured is a primitive sampling a base color texture, modulated by the base color factor.
type Textured struct {
	// Texture is the glTF texture index. Primitives sharing a texture share this index.
	Texture int

	BaseColorFactor mgl32.Vec4

	// Image is the texture's source image, decoded on demand by the upload collaborator.
	Image *common.ImportedTexture
}

func (u Untextured) BaseColor() mgl32.Vec4 { return u.BaseColorFactor }
func (t Textured) BaseColor() mgl32.Vec4   { return t.BaseColorFactor }

func (Untextured) isPrimitiveTexture() {}
func (Textured) isPrimitiveTexture()   {}

// --- Import Types ---

// ImportedModel is the format-independent result of an import, consumed by NewModel options.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Root is the artificial scene root.
	Root *Node

	// Meshes are all meshes referenced by the scene, indexed by glTF mesh index.
	Meshes []*Mesh

	// Animations are all animation clips bundled with the model.
	Animations []*AnimationClip
}
