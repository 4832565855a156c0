package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor defines the interface for extracting animation clips from a parsed glTF document.
// Channels keep their glTF target node index; they are matched against joints and nodes at playback time.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation clip by index.
	// Channels without a target node and morph target weight channels are skipped.
	//
	// Parameters:
	//   - animIndex: the index of the animation to extract
	//
	// Returns:
	//   - *model.AnimationClip: the extracted clip
	//   - error: error if the sampler data is malformed or a channel targets a missing node
	ExtractAnimation(animIndex int) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts all animations in the document.
	//
	// Returns:
	//   - []*model.AnimationClip: the extracted clips in document order
	//   - error: error if any extraction fails
	ExtractAllAnimations() ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, errors.Errorf("animation index %d out of range", animIndex)
	}

	anim := doc.Animations[animIndex]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	channels := make([]model.Channel, 0, len(anim.Channels))
	for i, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Target.Path == gltf.TRSWeights {
			continue
		}
		nodeIndex := int(*ch.Target.Node)
		if nodeIndex >= len(doc.Nodes) {
			return nil, common.Invariantf("animation %q channel %d targets node %d (have %d)", name, i, nodeIndex, len(doc.Nodes))
		}

		if ch.Sampler == nil || int(*ch.Sampler) >= len(anim.Samplers) {
			return nil, common.Malformedf("animation %q channel %d: invalid sampler", name, i)
		}
		sampler := anim.Samplers[*ch.Sampler]

		channel, err := e.extractChannel(sampler, nodeIndex, ch.Target.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "animation %q channel %d", name, i)
		}
		channels = append(channels, channel)
	}

	return model.NewAnimationClip(name, channels), nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}

	clips := make([]*model.AnimationClip, 0, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// extractChannel reads one sampler's keyframes for the given target property.
func (e *gltfAnimationExtractorImpl) extractChannel(sampler *gltf.AnimationSampler, nodeIndex int, path gltf.TRSProperty) (model.Channel, error) {
	if sampler.Input == nil || sampler.Output == nil {
		return model.Channel{}, common.Malformedf("sampler without input or output accessor")
	}

	times, err := e.parser.ReadScalarAccessor(int(*sampler.Input))
	if err != nil {
		return model.Channel{}, errors.Wrap(err, "keyframe times")
	}

	interp := gltfInterpolation(sampler.Interpolation)
	channel := model.Channel{Node: nodeIndex, Times: times, Interpolation: interp}
	output := int(*sampler.Output)

	switch path {
	case gltf.TRSTranslation, gltf.TRSScale:
		values, err := e.parser.ReadVec3Accessor(output)
		if err != nil {
			return model.Channel{}, errors.Wrapf(err, "%s values", path)
		}
		values = gltfSplineValues(values, interp)
		vecs := make([]mgl32.Vec3, len(values))
		for i, v := range values {
			vecs[i] = mgl32.Vec3(v)
		}
		if path == gltf.TRSTranslation {
			channel.Values = model.TranslationKeyframes(vecs)
		} else {
			channel.Values = model.ScaleKeyframes(vecs)
		}

	case gltf.TRSRotation:
		values, err := e.parser.ReadVec4Accessor(output, true)
		if err != nil {
			return model.Channel{}, errors.Wrap(err, "rotation values")
		}
		values = gltfSplineValues(values, interp)
		quats := make([]mgl32.Quat, len(values))
		for i, v := range values {
			quats[i] = common.QuatFromXYZW(v)
		}
		channel.Values = model.RotationKeyframes(quats)

	default:
		return model.Channel{}, common.Unsupportedf("animation target path %v", path)
	}

	if err := channel.Validate(); err != nil {
		return model.Channel{}, err
	}
	return channel, nil
}

// --- Helper Functions ---

// gltfInterpolation maps a glTF sampler interpolation onto the model's interpolation mode.
func gltfInterpolation(i gltf.Interpolation) model.Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return model.InterpolationStep
	case gltf.InterpolationCubicSpline:
		return model.InterpolationCubicSpline
	default:
		return model.InterpolationLinear
	}
}

// gltfSplineValues keeps the value element of every (in-tangent, value, out-tangent) triplet of a
// cubic-spline sampler. Other samplers are returned unchanged.
func gltfSplineValues[T any](values []T, interp model.Interpolation) []T {
	if interp != model.InterpolationCubicSpline {
		return values
	}
	out := make([]T, 0, len(values)/3)
	for i := 1; i < len(values); i += 3 {
		out = append(out, values[i])
	}
	return out
}
