package main

import (
	"context"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCacheSize     = 16
	defaultDecodeWorkers = 2
)

// PreloadStats provides statistics about materialization
type PreloadStats struct {
	QueueSize   int
	LoadedCount int
	FailedCount int
	LastPrimary Range
}

// ArchivePageSource is a virtualized PageSource over image files and
// archives. Bitmaps are decoded on worker goroutines in priority order
// (primary range first) and kept in an LRU cache keyed by page path.
type ArchivePageSource struct {
	mu        sync.RWMutex
	paths     []ImagePath
	dataGen   uint64
	listeners []func(start, count int)
	batch     context.CancelFunc
	stats     PreloadStats

	cache   *lru.Cache[string, image.Image]
	failed  sync.Map // path -> error
	workers int
	loader  func(ImagePath) (image.Image, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewArchivePageSource creates a source. loader may be nil to read pages
// from disk and archives.
func NewArchivePageSource(cacheSize, workers int, loader func(ImagePath) (image.Image, error)) *ArchivePageSource {
	if workers < 1 {
		workers = defaultDecodeWorkers
	}
	if loader == nil {
		loader = loadBitmap
	}

	s := &ArchivePageSource{
		workers: workers,
		loader:  loader,
	}

	cache, err := lru.NewWithEvict[string, image.Image](cacheSize, s.onEvict)
	if err != nil {
		logger.Error("failed to create LRU cache", "size", cacheSize, "error", err)
		cache, _ = lru.NewWithEvict[string, image.Image](defaultCacheSize, s.onEvict)
	}
	s.cache = cache
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

func (s *ArchivePageSource) onEvict(key string, _ image.Image) {
	s.failed.Delete(key)
	debugLog("Evicted %s", key)
}

// SetDataSource binds the source to doc's pages, dropping pending work and cached bitmaps
func (s *ArchivePageSource) SetDataSource(doc *Document) {
	s.mu.Lock()
	if s.batch != nil {
		s.batch()
		s.batch = nil
	}
	s.paths = append([]ImagePath(nil), doc.Pages...)
	s.dataGen++
	s.stats = PreloadStats{}
	s.mu.Unlock()

	s.cache.Purge()
	debugLog("SetDataSource: %s, %d pages", doc.Name, len(doc.Pages))
}

// Count returns the number of pages
func (s *ArchivePageSource) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// Page returns page idx with its bitmap if materialized
func (s *ArchivePageSource) Page(idx int) Page {
	p, ok := s.path(idx)
	if !ok {
		return Page{Index: idx}
	}

	page := Page{Index: idx, Name: p.Name()}
	if img, ok := s.cache.Get(p.Path); ok {
		page.Bitmap = img
		if err, ok := s.failed.Load(p.Path); ok {
			page.Err = err.(error)
		}
	}
	return page
}

// OnRangeReplaced registers fn for materialization events
func (s *ArchivePageSource) OnRangeReplaced(fn func(start, count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RangesChanged cancels the previous materialization batch and starts one
// for the requested ranges, primary first.
func (s *ArchivePageSource) RangesChanged(primary Range, all []Range) {
	indices := s.pendingIndices(primary, all)

	s.mu.Lock()
	if s.batch != nil {
		s.batch()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.batch = cancel
	gen := s.dataGen
	s.stats.QueueSize = len(indices)
	s.stats.LastPrimary = primary
	s.mu.Unlock()

	if len(indices) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.materialize(ctx, gen, indices)
	}()
}

// pendingIndices orders the requested indices by priority and skips pages
// already cached. Cached pages are touched so the window stays resident.
func (s *ArchivePageSource) pendingIndices(primary Range, all []Range) []int {
	ranges := append([]Range{primary}, all...)
	seen := make(map[int]bool)
	var indices []int
	for _, r := range ranges {
		for idx := r.Start; idx < r.End(); idx++ {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			p, ok := s.path(idx)
			if !ok {
				continue
			}
			if _, cached := s.cache.Get(p.Path); cached {
				continue
			}
			indices = append(indices, idx)
		}
	}
	return indices
}

func (s *ArchivePageSource) materialize(ctx context.Context, gen uint64, indices []int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, idx := range indices {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.materializeOne(gctx, gen, idx)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *ArchivePageSource) materializeOne(ctx context.Context, gen uint64, idx int) {
	if ctx.Err() != nil {
		return
	}
	p, ok := s.path(idx)
	if !ok {
		return
	}
	if s.cache.Contains(p.Path) {
		s.notify(gen, idx)
		return
	}

	img, err := s.loader(p)
	if err != nil {
		logger.Error("failed to materialize page", "page", idx+1, "path", p.Path, "error", err)
		img = errorBitmap(errorBitmapWidth, errorBitmapHeight)
		s.failed.Store(p.Path, err)
	}
	s.cache.Add(p.Path, img)

	s.mu.Lock()
	if err != nil {
		s.stats.FailedCount++
	} else {
		s.stats.LoadedCount++
	}
	if s.stats.QueueSize > 0 {
		s.stats.QueueSize--
	}
	s.mu.Unlock()

	debugLog("Materialized [%d] %s (cache: %d items)", idx+1, p.Path, s.cache.Len())
	s.notify(gen, idx)
}

// notify fires listeners unless the data source changed since the batch began
func (s *ArchivePageSource) notify(gen uint64, idx int) {
	s.mu.RLock()
	if gen != s.dataGen {
		s.mu.RUnlock()
		return
	}
	listeners := make([]func(start, count int), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(idx, 1)
	}
}

func (s *ArchivePageSource) path(idx int) (ImagePath, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx < 0 || idx >= len(s.paths) {
		return ImagePath{}, false
	}
	return s.paths[idx], true
}

// Stats returns current materialization statistics
func (s *ArchivePageSource) Stats() PreloadStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Close stops all workers and waits for them
func (s *ArchivePageSource) Close() {
	s.cancel()
	s.wg.Wait()
}
