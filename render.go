package gridtick

import "log/slog"

// DefaultQueueCapacity bounds the request and result channels.
const DefaultQueueCapacity = 100

// DefaultCacheLimit is the pixel cache soft limit, in tiles.
const DefaultCacheLimit = 1024

// RenderRequest asks the worker to rasterize one cell tile.
type RenderRequest struct {
	Coord       Coord
	Markup      string
	Width       int
	Height      int
	ContentHash uint64
}

// RenderResult is a finished tile. Pixels is always exactly
// Width*Height*4 bytes; invalid markup produces a fully transparent
// buffer rather than an error.
type RenderResult struct {
	Coord       Coord
	ContentHash uint64
	Width       int
	Height      int
	Pixels      []byte
}

// RenderService rasterizes cell tiles off the control loop. Requests flow
// through a bounded channel to one worker goroutine; finished tiles flow
// back through a bounded result channel and land in a content-addressed
// pixel cache when the caller polls.
//
// The service is built for a single caller goroutine: RequestRender,
// PollResults, IsCached, CachedPixels, and Close must all come from the
// same goroutine. Only the channels are shared with the worker.
type RenderService struct {
	raster   Rasterizer
	requests chan RenderRequest
	results  chan RenderResult
	pending  map[Coord]struct{}
	cache    *pixelCache
	done     chan struct{}
	closed   bool
}

// RenderOption configures a RenderService.
type RenderOption func(*renderConfig)

type renderConfig struct {
	queueCapacity int
	cacheLimit    int
}

// WithQueueCapacity sets the request and result channel capacity.
func WithQueueCapacity(n int) RenderOption {
	return func(c *renderConfig) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// WithCacheLimit sets the pixel cache soft limit in tiles. Zero means
// unlimited.
func WithCacheLimit(n int) RenderOption {
	return func(c *renderConfig) {
		if n >= 0 {
			c.cacheLimit = n
		}
	}
}

// NewRenderService starts the worker goroutine. Callers own the service
// and must Close it to stop the worker.
func NewRenderService(r Rasterizer, opts ...RenderOption) *RenderService {
	cfg := renderConfig{
		queueCapacity: DefaultQueueCapacity,
		cacheLimit:    DefaultCacheLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &RenderService{
		raster:   r,
		requests: make(chan RenderRequest, cfg.queueCapacity),
		results:  make(chan RenderResult, cfg.queueCapacity),
		pending:  make(map[Coord]struct{}),
		cache:    newPixelCache(cfg.cacheLimit),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

// RequestRender submits a tile for rasterization. It returns false without
// queuing when the content is already cached, when the coordinate already
// has a request in flight, or when the request queue is full. A dropped
// request leaves no pending state, so the caller's next frame simply
// requests it again.
func (s *RenderService) RequestRender(req RenderRequest) bool {
	if s.closed {
		return false
	}
	if s.cache.has(req.ContentHash) {
		return false
	}
	if _, inFlight := s.pending[req.Coord]; inFlight {
		return false
	}

	select {
	case s.requests <- req:
		s.pending[req.Coord] = struct{}{}
		return true
	default:
		Logger().Debug("render queue full, dropping request",
			slog.String("cell", req.Coord.String()))
		return false
	}
}

// PollResults drains every finished tile without blocking, stores each in
// the pixel cache, clears its pending mark, and returns the batch. Call
// once per frame.
func (s *RenderService) PollResults() []RenderResult {
	var batch []RenderResult
	for {
		select {
		case res := <-s.results:
			delete(s.pending, res.Coord)
			s.cache.set(res.ContentHash, res.Pixels)
			batch = append(batch, res)
		default:
			return batch
		}
	}
}

// IsCached reports whether a content hash has a rasterized tile. Does not
// refresh the entry's cache age.
func (s *RenderService) IsCached(hash uint64) bool {
	return s.cache.has(hash)
}

// CachedPixels returns the rasterized tile for a content hash, marking it
// recently used.
func (s *RenderService) CachedPixels(hash uint64) ([]byte, bool) {
	return s.cache.get(hash)
}

// PendingCount returns the number of coordinates with a request in flight.
func (s *RenderService) PendingCount() int {
	return len(s.pending)
}

// CacheLen returns the number of tiles in the pixel cache.
func (s *RenderService) CacheLen() int {
	return s.cache.len()
}

// Close stops the worker and discards any unfinished results. The service
// must not be used after Close.
func (s *RenderService) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.requests)

	// unblock the worker if the result channel is full, then wait for it
	for {
		select {
		case <-s.results:
		case <-s.done:
			return
		}
	}
}

// worker is the single rasterization goroutine. It exits when the request
// channel closes.
func (s *RenderService) worker() {
	defer close(s.done)
	for req := range s.requests {
		pixels, err := s.raster.Rasterize(req.Markup, req.Width, req.Height)
		if err != nil {
			Logger().Warn("rasterization failed, substituting transparent tile",
				slog.String("cell", req.Coord.String()),
				slog.String("error", err.Error()))
			pixels = make([]byte, max(req.Width, 0)*max(req.Height, 0)*4)
		}
		s.results <- RenderResult{
			Coord:       req.Coord,
			ContentHash: req.ContentHash,
			Width:       req.Width,
			Height:      req.Height,
			Pixels:      pixels,
		}
	}
}
