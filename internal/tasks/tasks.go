// package tasks implements the fetch-and-enrich pipeline that produces a universe dataset.
package tasks

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// PlayCountCache stores enriched entities between runs.
//
// Implemented by repositories.PlayCountCacheAdapter.
type PlayCountCache interface {
	Lookup(name string) (universe.Entity, bool)
	Store(e universe.Entity) error
}

// BuildOpts contains configuration for a universe build.
type BuildOpts struct {
	Limit      int     // Top artists to fetch (default: 50)
	TimeRange  string  // short_term, medium_term or long_term (default: long_term)
	NumWorkers int     // Concurrent enrichment workers (default: 5, max: 10)
	RateLimit  float64 // Remote lookups per second across all workers (default: 5)
	SkipImages bool    // Do not download artist images
	Refresh    bool    // Ignore cached play counts
}

// Failure records a non-fatal problem enriching one artist.
type Failure struct {
	Artist string
	Step   string // "playcount", "image" or "cache"
	Err    error
}

// BuildResult contains the dataset and enrichment statistics.
type BuildResult struct {
	Dataset    universe.Dataset
	Fetched    int // Artists returned by Spotify
	CacheHits  int
	Duplicates int // Artists dropped because their name was already present
	Failures   []Failure
}

// Builder produces a universe dataset.
type Builder interface {
	Build(ctx context.Context, progress chan<- ProgressUpdate, opts BuildOpts) (*BuildResult, error)
}

// UniverseBuilder implements [Builder] on top of the Spotify, Last.fm and image services.
type UniverseBuilder struct {
	artists services.ArtistSource
	counts  services.PlayCounter
	images  services.ImageFetcher
	cache   PlayCountCache
	logger  *log.Logger
}

// NewUniverseBuilder creates a builder. images and cache may be nil.
func NewUniverseBuilder(artists services.ArtistSource, counts services.PlayCounter, images services.ImageFetcher, cache PlayCountCache, logger *log.Logger) *UniverseBuilder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &UniverseBuilder{artists: artists, counts: counts, images: images, cache: cache, logger: logger}
}

type enrichJob struct {
	index  int
	artist services.Artist
}

type enrichResult struct {
	index    int
	entity   universe.Entity
	cached   bool
	failures []Failure
}

// sendProgress sends a progress update through the channel without blocking.
func (b *UniverseBuilder) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Build fetches the top artists, enriches them concurrently and returns them ranked by play count.
func (b *UniverseBuilder) Build(ctx context.Context, progress chan<- ProgressUpdate, opts BuildOpts) (*BuildResult, error) {
	if b.artists == nil || b.counts == nil {
		return nil, fmt.Errorf("%w: artist source and play counter are required", shared.ErrServiceUnavailable)
	}

	opts = opts.withDefaults()

	b.sendProgress(progress, fetchingArtistsUpdate(opts.Limit, opts.TimeRange))
	artists, err := b.artists.TopArtists(ctx, opts.Limit, opts.TimeRange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top artists: %w", err)
	}
	b.sendProgress(progress, foundArtistsUpdate(len(artists)))
	b.logger.Info("fetched top artists", "count", len(artists), "time_range", opts.TimeRange)

	result := &BuildResult{Fetched: len(artists)}
	enriched := make([]enrichResult, len(artists))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan enrichJob, len(artists))
	results := make(chan enrichResult, len(artists))

	var wg sync.WaitGroup
	for range min(opts.NumWorkers, max(len(artists), 1)) {
		wg.Add(1)
		go b.enrichWorker(ctx, &wg, limiter, opts, jobs, results)
	}

	for i, a := range artists {
		jobs <- enrichJob{index: i, artist: a}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		enriched[res.index] = res
		if res.cached {
			result.CacheHits++
		}
		result.Failures = append(result.Failures, res.failures...)
		b.sendProgress(progress, enrichedUpdate(completed, len(artists), res))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: build cancelled after %d of %d artists: %v", shared.ErrTimeout, completed, len(artists), err)
	}

	entities := make([]universe.Entity, 0, len(enriched))
	seen := make(map[string]bool, len(enriched))
	for _, res := range enriched {
		if seen[res.entity.Name] {
			result.Duplicates++
			b.logger.Warn("dropping duplicate artist name", "name", res.entity.Name)
			continue
		}
		seen[res.entity.Name] = true
		entities = append(entities, res.entity)
	}

	result.Dataset = universe.Dataset{Entities: Rank(entities)}
	b.sendProgress(progress, rankedUpdate(result.Dataset))
	return result, nil
}

// enrichWorker resolves play counts and images for jobs until the channel closes or ctx is done.
func (b *UniverseBuilder) enrichWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	opts BuildOpts,
	jobs <-chan enrichJob,
	results chan<- enrichResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- b.enrich(ctx, limiter, opts, job)
	}
}

func (b *UniverseBuilder) enrich(ctx context.Context, limiter *rate.Limiter, opts BuildOpts, job enrichJob) enrichResult {
	name := job.artist.Name
	res := enrichResult{index: job.index, entity: universe.Entity{Name: name}}

	if b.cache != nil && !opts.Refresh {
		if cached, ok := b.cache.Lookup(name); ok {
			res.entity = cached
			res.cached = true
			return res
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		res.failures = append(res.failures, Failure{Artist: name, Step: "playcount", Err: err})
		return res
	}

	count, err := b.counts.PlayCount(ctx, name)
	if err != nil {
		b.logger.Warn("play count lookup failed, using 0", "artist", name, "err", err)
		res.failures = append(res.failures, Failure{Artist: name, Step: "playcount", Err: err})
		count = 0
	}
	res.entity.MetricCount = count

	if b.images != nil && !opts.SkipImages && job.artist.ImageURL != "" {
		path, err := b.images.Download(ctx, name, job.artist.ImageURL)
		if err != nil {
			b.logger.Warn("image download failed", "artist", name, "err", err)
			res.failures = append(res.failures, Failure{Artist: name, Step: "image", Err: err})
		}
		res.entity.ImagePath = path
	}

	if b.cache != nil && len(res.failures) == 0 {
		if err := b.cache.Store(res.entity); err != nil {
			b.logger.Warn("failed to cache artist", "artist", name, "err", err)
			res.failures = append(res.failures, Failure{Artist: name, Step: "cache", Err: err})
		}
	}

	return res
}

func (o BuildOpts) withDefaults() BuildOpts {
	if o.Limit <= 0 || o.Limit > 50 {
		o.Limit = 50
	}
	if o.TimeRange == "" {
		o.TimeRange = "long_term"
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = defaultWorkers
	}
	if o.NumWorkers > maxWorkers {
		o.NumWorkers = maxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	return o
}

// Rank returns entities sorted by play count, highest first. Ties keep their input order.
func Rank(entities []universe.Entity) []universe.Entity {
	ranked := slices.Clone(entities)
	slices.SortStableFunc(ranked, func(a, b universe.Entity) int {
		return cmp.Compare(b.MetricCount, a.MetricCount)
	})
	return ranked
}
