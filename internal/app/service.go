package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restaurant_lives/internal/adapters/observability"
	"restaurant_lives/internal/domain"
	"restaurant_lives/internal/feed"
)

type Options struct {
	Strategy  domain.IDStrategy
	Location  *time.Location
	DestDir   string
	PublishDB bool
	Now       func() time.Time
}

// FeedService builds and publishes LIVES feeds.
type FeedService struct {
	src   domain.SourceClient
	repo  domain.FeedRepository
	cache domain.Cache
	opts  Options
}

// NewFeedService wires a FeedService. repo and cache may be nil.
func NewFeedService(src domain.SourceClient, repo domain.FeedRepository, cache domain.Cache, opts Options) *FeedService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &FeedService{src: src, repo: repo, cache: cache, opts: opts}
}

type Result struct {
	Municipality string
	Rows         int
	Businesses   int
	Inspections  int
	Archive      string
}

// Run produces one municipality's archive. Nothing reaches the destination
// unless every row normalizes and every table is written.
func (s *FeedService) Run(ctx context.Context, m domain.Municipality) (res Result, err error) {
	start := time.Now()
	defer func() { observability.ObserveRun(m.Key, err, time.Since(start)) }()

	// 1) Fetch and decode the whole document.
	rc, err := s.src.Open(ctx, m.SourceURL)
	if err != nil {
		return Result{}, fmt.Errorf("open source for %s: %w", m.Key, err)
	}
	doc, err := DecodeDocument(rc)
	rc.Close()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", m.Key, err)
	}

	// 2) Fold rows into tables.
	f, err := Assemble(doc, NewNormalizer(s.opts.Strategy, s.opts.Location))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", m.Key, err)
	}

	// 3) Write into an isolated dir, then package and promote.
	tmp, err := os.MkdirTemp("", "lives-"+m.Key+"-")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmp)

	files, err := feed.WriteTables(tmp, feed.Tables{
		Feed:   f,
		Info:   FeedInfo(m, s.opts.Now().In(s.opts.Location)),
		Legend: Legend(),
		Readme: feed.Readme(m),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", m.Key, err)
	}
	dest := filepath.Join(s.opts.DestDir, m.ArchiveName)
	if err := feed.Package(tmp, files, dest); err != nil {
		return Result{}, fmt.Errorf("%s: package: %w", m.Key, err)
	}

	// 4) Optional: mirror into the repository for the read API.
	if s.opts.PublishDB && s.repo != nil {
		if err := s.repo.ReplaceFeed(ctx, m.Key, f); err != nil {
			return Result{}, fmt.Errorf("%s: publish: %w", m.Key, err)
		}
		if s.cache != nil {
			s.bumpGeneration(ctx, m.Key)
		}
	}

	observability.ObserveFeed(m.Key, len(f.Businesses), len(f.Inspections))
	return Result{
		Municipality: m.Key,
		Rows:         len(doc.Rows),
		Businesses:   len(f.Businesses),
		Inspections:  len(f.Inspections),
		Archive:      dest,
	}, nil
}

// RunAll runs each municipality with its own assembler and temp dir, at most
// workers at a time. Every run finishes; failures are joined.
func (s *FeedService) RunAll(ctx context.Context, ms []domain.Municipality, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, m := range ms {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(m domain.Municipality) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := s.Run(ctx, m)
			if err != nil {
				log.Error().Str("municipality", m.Key).Err(err).Msg("feed run failed")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			log.Info().
				Str("municipality", res.Municipality).
				Int("rows", res.Rows).
				Int("businesses", res.Businesses).
				Int("inspections", res.Inspections).
				Str("archive", res.Archive).
				Msg("feed published")
		}(m)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// bumpGeneration moves the municipality's read keys to a fresh namespace,
// covering every limit and any business dropped from the new feed.
func (s *FeedService) bumpGeneration(ctx context.Context, municipality string) {
	gen := time.Now().UnixNano()
	if cur := generation(ctx, s.cache, municipality); gen <= cur {
		gen = cur + 1
	}
	if err := s.cache.Set(ctx, generationKey(municipality), gen, 0); err != nil {
		log.Warn().Str("municipality", municipality).Err(err).Msg("cache generation bump failed")
	}
}
