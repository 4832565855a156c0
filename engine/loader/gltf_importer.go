package loader

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce a complete ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts the scene graph, meshes, skins and animations.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader and extracts all data.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - baseDir: the directory external URIs are resolved against
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportReader(r io.Reader, baseDir string) (*model.ImportedModel, error)

	// ImportDocument extracts all data from an already decoded document.
	//
	// Parameters:
	//   - doc: the decoded glTF document with loaded buffers
	//   - name: the fallback model name
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportDocument(doc *gltf.Document, name string) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedModel, error) {
	start := time.Now()
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}

	imported, err := imp.importFromParser(parser, path)
	if err != nil {
		return nil, err
	}
	log.Printf("[Loader] imported %s in %v (%d meshes, %d animations)",
		path, time.Since(start), len(imported.Meshes), len(imported.Animations))
	return imported, nil
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, baseDir string) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, baseDir); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, "")
}

func (imp *gltfImporterImpl) ImportDocument(doc *gltf.Document, name string) (*model.ImportedModel, error) {
	return imp.importFromParser(newGLTFParserFromDocument(doc, ""), name)
}

// importFromParser performs a full import from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackPath: optional file path used as a fallback for model naming
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string) (*model.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errors.New("no document after parsing")
	}

	materialExtractor := newGLTFMaterialExtractor(parser)
	meshExtractor := newGLTFMeshExtractor(parser, materialExtractor)
	sceneExtractor := newGLTFSceneExtractor(parser)
	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	animationExtractor := newGLTFAnimationExtractor(parser)

	meshes, err := meshExtractor.ExtractAllMeshes()
	if err != nil {
		return nil, errors.Wrap(err, "mesh extraction failed")
	}

	root, err := sceneExtractor.ExtractScene(meshes)
	if err != nil {
		return nil, errors.Wrap(err, "scene extraction failed")
	}

	if err := skeletonExtractor.AttachSkins(root); err != nil {
		return nil, errors.Wrap(err, "skin extraction failed")
	}

	animations, err := animationExtractor.ExtractAllAnimations()
	if err != nil {
		return nil, errors.Wrap(err, "animation extraction failed")
	}

	return &model.ImportedModel{
		Name:       gltfExtractModelName(doc, fallbackPath),
		Root:       root,
		Meshes:     meshes,
		Animations: animations,
	}, nil
}

// --- Helper Functions ---

// gltfExtractModelName derives a model name from the scene name, falling back to the file name.
func gltfExtractModelName(doc *gltf.Document, fallbackPath string) string {
	if len(doc.Scenes) > 0 && doc.Scenes[0].Name != "" {
		return doc.Scenes[0].Name
	}
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "unnamed_model"
}
