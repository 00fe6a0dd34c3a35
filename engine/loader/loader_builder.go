package loader

import (
	"github.com/Carmen-Shannon/oxy-asset/engine/model"
	"github.com/Carmen-Shannon/oxy-asset/engine/profiler"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithImportOptions is an option builder that sets the import options passed to every backend.
//
// Parameters:
//   - options: the import options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the import options to a loader
func WithImportOptions(options ImportOptions) LoaderBuilderOption {
	return func(l *loader) {
		l.options = options
	}
}

// WithTextureTable is an option builder that binds material textures after every load.
//
// Parameters:
//   - table: the material to texture table
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture table option to a loader
func WithTextureTable(table TextureTable) LoaderBuilderOption {
	return func(l *loader) {
		l.textureTable = table
	}
}

// WithAnimationInfo is an option builder that names or splits the animation clips after every full load.
//
// Parameters:
//   - infos: the animation info entries
//
// Returns:
//   - LoaderBuilderOption: a function that applies the animation info option to a loader
func WithAnimationInfo(infos []AnimationInfo) LoaderBuilderOption {
	return func(l *loader) {
		l.animationInfo = infos
	}
}

// WithWorkers is an option builder that sets the number of parallel loads used by LoadAll.
// Values below one are ignored.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithProfiler is an option builder that measures every load with the given profiler.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiler option to a loader
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

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
