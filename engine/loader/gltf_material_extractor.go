package loader

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
	images map[int]*common.ImportedTexture
}

// gltfMaterialExtractor defines the interface for resolving a primitive's base color source.
// Only the base color factor and base color texture of the metallic-roughness model are read.
type gltfMaterialExtractor interface {
	// ExtractPrimitiveTexture resolves the base color source of a primitive's material.
	// A primitive without a material is untextured white.
	//
	// Parameters:
	//   - materialIndex: the primitive's material index, or nil
	//
	// Returns:
	//   - model.PrimitiveTexture: Untextured or Textured
	//   - error: error if the material, texture or image reference is invalid
	ExtractPrimitiveTexture(materialIndex *uint32) (model.PrimitiveTexture, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{
		parser: parser,
		images: make(map[int]*common.ImportedTexture),
	}
}

func (e *gltfMaterialExtractorImpl) ExtractPrimitiveTexture(materialIndex *uint32) (model.PrimitiveTexture, error) {
	white := mgl32.Vec4{1, 1, 1, 1}
	if materialIndex == nil {
		return model.Untextured{BaseColorFactor: white}, nil
	}

	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if int(*materialIndex) >= len(doc.Materials) {
		return nil, common.Malformedf("material %d out of range (have %d)", *materialIndex, len(doc.Materials))
	}

	mat := doc.Materials[*materialIndex]
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return model.Untextured{BaseColorFactor: white}, nil
	}

	factor := white
	if pbr.BaseColorFactor != nil {
		factor = mgl32.Vec4(*pbr.BaseColorFactor)
	}
	if pbr.BaseColorTexture == nil {
		return model.Untextured{BaseColorFactor: factor}, nil
	}

	textureIndex := int(pbr.BaseColorTexture.Index)
	img, err := e.loadTexture(textureIndex)
	if err != nil {
		return nil, errors.Wrapf(err, "material %q: base color texture", mat.Name)
	}
	return model.Textured{Texture: textureIndex, BaseColorFactor: factor, Image: img}, nil
}

// loadTexture resolves a glTF texture index into an ImportedTexture. Textures are cached so that
// primitives sharing a texture share its image.
// Embedded images (buffer view or data URI) carry their bytes; external images carry their
// resolved path and, if readable, their bytes.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	if img, ok := e.images[textureIndex]; ok {
		return img, nil
	}

	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, common.Malformedf("texture index %d out of range", textureIndex)
	}
	tex := doc.Textures[textureIndex]
	if tex.Source == nil {
		e.images[textureIndex] = nil
		return nil, nil
	}
	imageIndex := int(*tex.Source)
	if imageIndex >= len(doc.Images) {
		return nil, common.Malformedf("image index %d out of range", imageIndex)
	}
	img := doc.Images[imageIndex]

	result := &common.ImportedTexture{
		Name:     common.Coalesce(img.Name, tex.Name),
		MimeType: img.MimeType,
	}

	switch {
	case img.BufferView != nil:
		data, err := e.parser.ReadBufferView(int(*img.BufferView))
		if err != nil {
			return nil, errors.Wrap(err, "failed to read image buffer view")
		}
		result.Data = append([]byte(nil), data...)

	case strings.HasPrefix(img.URI, "data:"):
		data, mimeType, err := gltfDecodeDataURI(img.URI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode image data URI")
		}
		result.Data = data
		result.MimeType = common.Coalesce(result.MimeType, mimeType)

	case img.URI != "":
		result.Path = filepath.Join(e.parser.BaseDir(), img.URI)
		// A missing file leaves only the path; decoding reports the error later.
		if data, err := os.ReadFile(result.Path); err == nil {
			result.Data = data
		}
	}

	e.images[textureIndex] = result
	return result, nil
}

// gltfDecodeDataURI decodes a base64 data URI into raw bytes and extracts the MIME type.
func gltfDecodeDataURI(uri string) ([]byte, string, error) {
	// Format: data:[<mediatype>][;base64],<data>
	header, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", errors.New("malformed data URI: no comma found")
	}

	mimeType := strings.TrimSuffix(header, ";base64")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode base64")
	}
	return data, mimeType, nil
}
