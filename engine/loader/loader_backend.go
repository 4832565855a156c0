package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/qmuntal/gltf"
)

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	// This extracts the scene graph, meshes, skins and animations.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	Load(path string) (*model.ImportedModel, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//   - baseDir: the directory external resources are resolved against
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	LoadReader(r io.Reader, baseDir string) (*model.ImportedModel, error)

	// LoadDocument imports a model from an in-memory glTF document.
	//
	// Parameters:
	//   - doc: the decoded document
	//   - name: the fallback model name
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	LoadDocument(doc *gltf.Document, name string) (*model.ImportedModel, error)
}
