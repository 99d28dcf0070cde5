// Package service implements the Preview Service (C9): a bounded worker
// pool driven by user requests and prefetch hints, wired to the scanner,
// extractor, ICC profile extractor, color transformer, GPU bridge, cache
// and catalog.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/cache"
	"github.com/ChrisCarter22/Cataloger/pkg/log"
	"github.com/ChrisCarter22/Cataloger/pkg/preview"
	"github.com/ChrisCarter22/Cataloger/pkg/scanner"
	"github.com/ChrisCarter22/Cataloger/pkg/sink"
)

// sidecarExtensions are tried, in order, when no embedded ICC profile was
// found.
var sidecarExtensions = []string{".icc", ".ICM", ".profile"}

// CatalogService is the narrow slice of the catalog the Preview Service
// needs. The service holds this as a non-owning reference: the catalog
// knows nothing about the service, breaking the cycle at construction
// rather than by co-ownership.
type CatalogService interface {
	ListFiles(rootID int64) ([]v1.File, error)
	UpdatePreviewState(fileID int64, state v1.PreviewState) error
}

// Config configures a PreviewService's cache sizing and worker count.
type Config struct {
	RamCapacity     int
	PreloadCapacity int
	WorkerCount     int
}

// DefaultConfig returns the preview pipeline's defaults: ram_capacity 64,
// preload capacity 8, worker_count max(2, hardware_concurrency).
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	return Config{
		RamCapacity:     cache.DefaultRamCapacity,
		PreloadCapacity: cache.DefaultPreloadCapacity,
		WorkerCount:     workers,
	}
}

type job struct {
	descriptor v1.PreviewDescriptor
}

// PreviewService owns the descriptor index, job queue, worker pool,
// two-tier cache, color transformer, GPU bridge, and a weak reference to
// the catalog.
type PreviewService struct {
	cfg Config
	log log.PluggableLoggerInterface

	cache     *cache.TwoTier
	colorXform *preview.ColorTransformer
	descriptors *descriptorIndex

	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     []job
	pending   int
	stop      bool
	idleCond  *sync.Cond

	wg sync.WaitGroup

	prefetchWindow int

	catalogMu sync.RWMutex
	catalog   CatalogService

	gpuMu sync.RWMutex
	gpu   preview.GpuBridge

	sinkMu sync.RWMutex
	sink   sink.EventSink
}

// New builds and starts a PreviewService with cfg.WorkerCount worker
// goroutines. Call Close to stop them.
func New(cfg Config, logger log.PluggableLoggerInterface) *PreviewService {
	if logger == nil {
		logger = log.Noop()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}

	s := &PreviewService{
		cfg:         cfg,
		log:         logger,
		cache:       cache.NewTwoTier(cfg.RamCapacity, cfg.PreloadCapacity),
		colorXform:  preview.NewColorTransformer(),
		descriptors: newDescriptorIndex(),
		gpu:         preview.NewDefaultBridge(),
	}
	s.queueCond = sync.NewCond(&s.queueMu)
	s.idleCond = sync.NewCond(&s.queueMu)

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
	return s
}

// SetCatalogService injects the catalog's narrow interface.
func (s *PreviewService) SetCatalogService(catalog CatalogService) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.catalog = catalog
}

// SetEventSink registers the sink every CacheEvent is emitted to.
func (s *PreviewService) SetEventSink(sk sink.EventSink) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sink = sk
}

// SetGpuBridgeForTesting swaps in an alternate bridge, e.g. one that
// unconditionally fails or succeeds, for deterministic tests.
func (s *PreviewService) SetGpuBridgeForTesting(bridge preview.GpuBridge) {
	s.gpuMu.Lock()
	defer s.gpuMu.Unlock()
	s.gpu = bridge
}

// PrimeCaches sets the symmetric neighbor window used by RequestPreview's
// prefetch. n=0 disables prefetch.
func (s *PreviewService) PrimeCaches(n int) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.prefetchWindow = n
}

// WarmRoot scans path, reconciles the result against the catalog's
// ListFiles by relative path, replaces the root's descriptor index, and
// enqueues a job for every descriptor.
func (s *PreviewService) WarmRoot(rootID int64, path string) error {
	descriptors, err := scanner.Scan(rootID, path)
	if err != nil {
		return fmt.Errorf("service: warm root %d: %w", rootID, err)
	}

	fileIDByRelPath := map[string]int64{}
	s.catalogMu.RLock()
	catalog := s.catalog
	s.catalogMu.RUnlock()
	if catalog != nil {
		files, err := catalog.ListFiles(rootID)
		if err == nil {
			for _, f := range files {
				fileIDByRelPath[f.RelativePath] = f.ID
			}
		}
	}

	for i := range descriptors {
		if id, ok := fileIDByRelPath[descriptors[i].RelativePath]; ok {
			fileID := id
			descriptors[i].FileID = &fileID
		}
	}

	s.descriptors.Replace(rootID, descriptors)

	for _, d := range descriptors {
		s.scheduleJob(d)
	}
	return nil
}

// RequestPreview enqueues the anchor job for (rootID, relativePath), then
// schedules its neighbor window. Unknown roots/paths are silently
// ignored: the service never errors out of this call.
func (s *PreviewService) RequestPreview(rootID int64, relativePath string) {
	descriptor, idx, ok := s.descriptors.Lookup(rootID, relativePath)
	if !ok {
		return
	}

	s.scheduleJob(descriptor)

	s.queueMu.Lock()
	n := s.prefetchWindow
	s.queueMu.Unlock()

	for _, neighbor := range s.descriptors.Neighbors(rootID, idx, n) {
		s.scheduleJob(neighbor)
	}
}

// CachedPreview looks up key directly in the two-tier cache, promoting
// recency on hit.
func (s *PreviewService) CachedPreview(key string) (v1.PreviewImage, bool) {
	img, _, ok := s.cache.Get(key)
	return img, ok
}

// WaitUntilIdle blocks until the queue is empty and no job is in-flight.
func (s *PreviewService) WaitUntilIdle() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	for len(s.queue) > 0 || s.pending > 0 {
		s.idleCond.Wait()
	}
}

// Close signals every worker to stop, wakes them, and joins. Each worker
// finishes at most the job it is running; jobs still queued are discarded.
func (s *PreviewService) Close() {
	s.queueMu.Lock()
	s.stop = true
	s.queueMu.Unlock()
	s.queueCond.Broadcast()
	s.wg.Wait()
}

func (s *PreviewService) scheduleJob(d v1.PreviewDescriptor) {
	s.queueMu.Lock()
	s.queue = append(s.queue, job{descriptor: d})
	s.pending++
	s.queueMu.Unlock()
	s.queueCond.Signal()
}

func (s *PreviewService) workerLoop() {
	defer s.wg.Done()
	for {
		s.queueMu.Lock()
		for len(s.queue) == 0 && !s.stop {
			s.queueCond.Wait()
		}
		if s.stop {
			// Jobs still queued at shutdown are discarded, not drained.
			s.pending -= len(s.queue)
			s.queue = nil
			idle := s.pending == 0
			s.queueMu.Unlock()
			if idle {
				s.idleCond.Broadcast()
			}
			return
		}
		j := s.queue[0]
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		s.processJob(j.descriptor)

		s.queueMu.Lock()
		s.pending--
		idle := len(s.queue) == 0 && s.pending == 0
		s.queueMu.Unlock()
		if idle {
			s.idleCond.Broadcast()
		}
	}
}

func (s *PreviewService) processJob(d v1.PreviewDescriptor) {
	key := d.CacheKey()

	s.gpuMu.RLock()
	gpu := s.gpu
	s.gpuMu.RUnlock()

	if img, tier, ok := s.cache.Get(key); ok {
		s.emit(v1.CacheEvent{
			RootID:       d.RootID,
			RelativePath: d.RelativePath,
			Tier:         tier,
			Hit:          true,
			Backend:      preview.BackendLabel(gpu),
		})
		_ = img
		return
	}

	image := preview.Extract(d)

	profileBytes := s.loadEmbeddedProfile(d)

	start := time.Now()
	result := s.colorXform.Apply(image, profileBytes)
	colorMs := float64(time.Since(start).Microseconds()) / 1000.0

	image.Pixels = result.Pixels
	image.ColorManaged = true
	image.ColorProfile = result.SourceProfile + " -> " + s.colorXform.TargetProfileName()

	s.cache.Put(image, v1.TierRam)

	gpuOK := false
	gpuErrMsg := ""
	gpuMs := 0.0
	if gpu != nil {
		uploadStart := time.Now()
		gpuOK, gpuErrMsg = gpu.Upload(image)
		gpuMs = float64(time.Since(uploadStart).Microseconds()) / 1000.0
	} else {
		gpuErrMsg = "GPU backend unavailable on this platform."
	}

	if d.FileID != nil {
		s.catalogMu.RLock()
		catalog := s.catalog
		s.catalogMu.RUnlock()
		if catalog != nil {
			state := v1.PreviewStateCached
			if gpuOK {
				state = v1.PreviewStateGpuResident
			}
			_ = catalog.UpdatePreviewState(*d.FileID, state)
		}
	}

	s.emit(v1.CacheEvent{
		RootID:           d.RootID,
		RelativePath:     d.RelativePath,
		Tier:             v1.TierRam,
		Hit:              false,
		Error:            !gpuOK,
		ErrorMessage:     gpuErrMsg,
		Backend:          preview.BackendLabel(gpu),
		GpuUploadMs:      gpuMs,
		ColorTransformMs: colorMs,
	})
}

// loadEmbeddedProfile tries the ICC extractor first, then each sidecar
// extension in order, returning the first non-empty result.
func (s *PreviewService) loadEmbeddedProfile(d v1.PreviewDescriptor) []byte {
	if embedded := preview.ExtractEmbeddedProfile(d.AbsolutePath); len(embedded) > 0 {
		return embedded
	}

	base := d.AbsolutePath[:len(d.AbsolutePath)-len(filepath.Ext(d.AbsolutePath))]
	for _, ext := range sidecarExtensions {
		candidate := base + ext
		data, err := os.ReadFile(candidate)
		if err == nil && len(data) > 0 {
			return data
		}
	}
	return nil
}

func (s *PreviewService) emit(event v1.CacheEvent) {
	s.sinkMu.RLock()
	sk := s.sink
	s.sinkMu.RUnlock()
	if sk != nil {
		sk.Handle(event)
	}
}
