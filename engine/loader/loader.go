package loader

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// defaultLoadWorkers is the worker count used by LoadAll when none is configured.
const defaultLoadWorkers = 4

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]model.Model

	backend loaderBackend
	workers int
}

// Loader defines the public-facing interface for loading and caching models.
// It abstracts the file format behind a backend and manages a cache of previously loaded models.
// Every model returned by the loader has passed Model.Validate.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error classified by common.ErrMalformedAsset, common.ErrUnsupportedFeature or
	//     common.ErrInvariantViolation when the asset is rejected
	Load(path string) (model.Model, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing glTF JSON or GLB data
	//   - baseDir: the directory external buffers and images are resolved against
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, baseDir string) (model.Model, error)

	// LoadDocument imports an in-memory glTF document and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key and fallback model name
	//   - doc: the document, with buffer data loaded
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadDocument(name string, doc *gltf.Document) (model.Model, error)

	// LoadAll loads several model files concurrently on a worker pool.
	// The returned models keep the order of paths; a failed path leaves a nil entry.
	//
	// Parameters:
	//   - paths: the model files to load
	//
	// Returns:
	//   - []model.Model: the loaded models in input order
	//   - error: the first failure, annotated with every failure message, or nil
	LoadAll(paths []string) ([]model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		modelCache: make(map[string]model.Model),
		workers:    defaultLoadWorkers,
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return l.store(path, imported)
}

func (l *loader) LoadReader(name string, r io.Reader, baseDir string) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.LoadReader(r, baseDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load from reader %q", name)
	}
	return l.store(name, imported)
}

func (l *loader) LoadDocument(name string, doc *gltf.Document) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.LoadDocument(doc, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load document %q", name)
	}
	return l.store(name, imported)
}

func (l *loader) LoadAll(paths []string) ([]model.Model, error) {
	start := time.Now()
	models := make([]model.Model, len(paths))
	errs := make([]error, len(paths))

	pool := worker.NewDynamicWorkerPool(common.Clamp(l.workers, 1, max(len(paths), 1)), len(paths)+1, 1*time.Second)
	defer pool.Stop()

	// The pool only idles out its workers, so a WaitGroup is the barrier for this batch.
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				m, err := l.Load(p)
				models[idx] = m
				errs[idx] = err
				return m, err
			},
		})
	}
	wg.Wait()

	var first error
	var failed []string
	for _, err := range errs {
		if err != nil {
			if first == nil {
				first = err
			}
			failed = append(failed, err.Error())
		}
	}
	log.Printf("[Loader] loaded %d/%d models in %v", len(paths)-len(failed), len(paths), time.Since(start))

	if first != nil {
		// Wrapping the first failure keeps its class visible to errors.Is.
		return models, errors.Wrapf(first, "%d of %d models failed (%s)", len(failed), len(paths), strings.Join(failed, "; "))
	}
	return models, nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, common.Unsupportedf("model format %q", ext)
	}
}

// store validates an imported model and caches it. A concurrent load of the same key keeps the
// first stored model.
func (l *loader) store(key string, imported *model.ImportedModel) (model.Model, error) {
	m := model.NewModel(model.WithImported(imported))
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model %q", key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[key]; ok {
		return cached, nil
	}
	l.modelCache[key] = m
	return m, nil
}
