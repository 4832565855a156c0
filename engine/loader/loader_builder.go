package loader

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithWorkers is an option builder that sets how many models LoadAll imports in parallel.
//
// Parameters:
//   - workers: the maximum number of concurrent imports
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		if workers > 0 {
			l.workers = workers
		}
	}
}
