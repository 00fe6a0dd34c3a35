package loader

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"
	"github.com/Carmen-Shannon/oxy-asset/engine/profiler"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/pkg/errors"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeAuto selects the backend per file: binary files by their magic, text scenes by extension.
	BackendTypeAuto LoaderBackendType = iota

	// BackendTypeDAE forces the text scene (.dae) backend.
	BackendTypeDAE

	// BackendTypeSOL forces the binary (SOLDIER / SOLANIM) backend.
	BackendTypeSOL
)

// meshOnlyKeySuffix keys mesh-only loads apart from full loads of the same file.
const meshOnlyKeySuffix = "#mesh"

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backendType   LoaderBackendType
	options       ImportOptions
	textureTable  TextureTable
	animationInfo []AnimationInfo
	workers       int
	profiler      *profiler.Profiler

	modelCache map[string]model.Model

	daeBackend loaderBackend
	solBackend loaderBackend
}

// Loader defines the public-facing interface for loading and caching 3D models.
// It abstracts the file format (text scene, binary mesh/rig) behind a generic backend and
// manages a cache of previously loaded models.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	// Binary files are recognized by their magic; .dae files use the text scene backend.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadMeshOnly imports only mesh and material data, skipping skeleton and animations.
	// Useful for static models that don't need animation support. The result is cached
	// under the path plus "#mesh", apart from full loads of the same file.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded model (mesh and materials only)
	//   - error: error if loading fails
	LoadMeshOnly(path string) (model.Model, error)

	// LoadReader imports a model from a seekable stream and caches it by the given name.
	// The format is sniffed from the stream's magic, then from the name's extension.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the stream providing model data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.ReadSeeker) (model.Model, error)

	// LoadAll imports several model files in parallel on a worker pool, one file per task.
	// Each file is loaded exactly as Load would load it.
	//
	// Parameters:
	//   - paths: the files to load
	//
	// Returns:
	//   - []model.Model: the models in the order of paths, nil where a load failed
	//   - error: the first failure in the order of paths
	LoadAll(paths []string) ([]model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns the full model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeAuto)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:          sync.RWMutex{},
		backendType: backendType,
		options:     DefaultImportOptions(),
		workers:     1,
		modelCache:  make(map[string]model.Model),
	}

	for _, option := range options {
		option(l)
	}

	l.daeBackend = newDAELoaderBackend(l.options)
	l.solBackend = newSOLLoaderBackend(l.options)
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	return l.loadPath(path, false)
}

func (l *loader) LoadMeshOnly(path string) (model.Model, error) {
	return l.loadPath(path, true)
}

func (l *loader) LoadReader(name string, r io.ReadSeeker) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	magic, err := sniffMagic(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	backend, err := l.resolveBackend(name, magic)
	if err != nil {
		return nil, err
	}

	var imported *model.ImportedModel
	err = l.profiler.Measure(name, func() error {
		var loadErr error
		imported, loadErr = backend.LoadReader(r)
		return loadErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	if name != "" {
		imported.Name = daeModelName(name)
	}

	return l.finish(name, imported, false)
}

func (l *loader) LoadAll(paths []string) ([]model.Model, error) {
	models := make([]model.Model, len(paths))
	errs := make([]error, len(paths))

	pool := worker.NewDynamicWorkerPool(l.workers, len(paths)+1, 1*time.Second)
	pool.Start()
	defer pool.Stop()

	start := time.Now()
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path // capture for closure
		pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: p,
			Do: func() (any, error) {
				defer wg.Done()
				models[idx], errs[idx] = l.Load(p)
				return models[idx], errs[idx]
			},
		})
	}
	wg.Wait()

	failed := 0
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = err
		}
	}
	log.Printf("[Loader] batch of %d files on %d workers: %d failed in %v", len(paths), l.workers, failed, time.Since(start))

	return models, first
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

// loadPath runs a full or mesh-only import of a file through the backend chosen for it.
func (l *loader) loadPath(path string, meshOnly bool) (model.Model, error) {
	key := path
	if meshOnly {
		key = path + meshOnlyKeySuffix
	}
	if cached := l.Get(key); cached != nil {
		return cached, nil
	}

	magic, err := sniffFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	backend, err := l.resolveBackend(path, magic)
	if err != nil {
		return nil, err
	}

	var imported *model.ImportedModel
	err = l.profiler.Measure(path, func() error {
		var loadErr error
		if meshOnly {
			imported, loadErr = backend.LoadMeshOnly(path)
		} else {
			imported, loadErr = backend.Load(path)
		}
		return loadErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return l.finish(key, imported, meshOnly)
}

// finish applies the side-channel tables, converts the import and caches the result.
func (l *loader) finish(key string, imported *model.ImportedModel, meshOnly bool) (model.Model, error) {
	if l.textureTable != nil {
		l.textureTable.Apply(imported)
	}
	if !meshOnly && len(l.animationInfo) > 0 {
		if err := ApplyAnimationInfo(imported, l.animationInfo); err != nil {
			return nil, fmt.Errorf("failed to apply animation info to %s: %w", key, err)
		}
	}

	m := l.importedToModel(imported)

	l.mu.Lock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.modelCache[key] = m
	l.mu.Unlock()

	bones := 0
	if imported.Skeleton != nil {
		bones = len(imported.Skeleton.Bones)
	}
	vertices := 0
	for _, mesh := range imported.Meshes {
		vertices += mesh.VertexCount()
	}
	log.Printf("[Loader] loaded %s: %d meshes, %d vertices, %d indices, %d bones, %d animations, %d materials",
		key, len(imported.Meshes), vertices, m.IndexCount(), bones, len(imported.Animations), len(imported.Materials))

	return m, nil
}

// resolveBackend selects the loader backend for a source. Binary magic wins over the name;
// a name without a known extension is read as a text scene when it starts like markup.
func (l *loader) resolveBackend(name string, magic []byte) (loaderBackend, error) {
	switch l.backendType {
	case BackendTypeDAE:
		return l.daeBackend, nil
	case BackendTypeSOL:
		return l.solBackend, nil
	}

	if m := string(magic); m == solMeshMagic || m == solRigMagic {
		return l.solBackend, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".dae":
		return l.daeBackend, nil
	case "":
		if bytes.HasPrefix(bytes.TrimLeft(magic, " \t\r\n\ufeff"), []byte("<")) {
			return l.daeBackend, nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", common.Coalesce(ext, name))
}

// importedToModel converts an ImportedModel (CPU data) into a Model (engine-ready).
// It combines all mesh vertex and index data into single byte buffers, offsetting
// each mesh's indices by the vertices of the meshes before it.
//
// Parameters:
//   - imported: the CPU-side ImportedModel containing mesh, skeleton, animation, and material data
//
// Returns:
//   - model.Model: the engine-ready Model
func (l *loader) importedToModel(imported *model.ImportedModel) model.Model {
	skinned := imported.Skeleton != nil && len(imported.Skeleton.Bones) > 0

	// Combine all meshes into one vertex + index buffer
	var allVertexBytes []byte
	var allIndexBytes []byte
	totalIndices := 0
	indexOffset := uint32(0)

	var format model.VertexFormat
	if len(imported.Meshes) > 0 {
		format = imported.Meshes[0].Format
	}

	for _, mesh := range imported.Meshes {
		allVertexBytes = append(allVertexBytes, common.SliceToBytes(mesh.Vertices)...)

		// Reindex: offset each index by the running vertex count across meshes
		adjusted := make([]uint32, len(mesh.Indices))
		for i, idx := range mesh.Indices {
			adjusted[i] = idx + indexOffset
		}
		allIndexBytes = append(allIndexBytes, common.SliceToBytes(adjusted)...)

		totalIndices += len(mesh.Indices)
		indexOffset += uint32(mesh.VertexCount())
	}

	return model.NewModel(
		model.WithID(imported.ID),
		model.WithName(imported.Name),
		model.WithSourcePath(imported.SourcePath),
		model.WithSkinned(skinned),
		model.WithSkeleton(imported.Skeleton),
		model.WithWeights(imported.Weights),
		model.WithAnimations(imported.Animations),
		model.WithImportedMaterials(imported.Materials),
		model.WithMeshes(imported.Meshes),
		model.WithVertexFormat(format),
		model.WithMeshData(allVertexBytes, allIndexBytes, totalIndices),
	)
}

// --- Helper Functions ---

// sniffFile reads the leading magic-sized prefix of a file.
func sniffFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	defer file.Close()
	return sniffMagic(file)
}

// sniffMagic reads the leading magic-sized prefix of a stream and rewinds it.
// Streams shorter than a magic string yield what they hold.
func sniffMagic(r io.ReadSeeker) ([]byte, error) {
	buf := make([]byte, solMagicLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "%v", err)
	}
	return buf[:n], nil
}
