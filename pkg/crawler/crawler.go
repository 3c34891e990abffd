package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"linkaudit/pkg/config"
	"linkaudit/pkg/fetch"
	"linkaudit/pkg/models"
	"linkaudit/pkg/parse"
	"linkaudit/pkg/state"
)

// Crawler drives one breadth-first crawl: it owns the frontier queue,
// dispatches fetch-and-extract tasks in waves bounded by the concurrency
// limit, and merges newly discovered links back into the frontier until it
// empties
type Crawler struct {
	log     *logrus.Entry
	cfg     *config.Config
	baseURL *url.URL
	state   *state.CrawlState
	fetcher *fetch.Fetcher

	// Admission control: never more than Concurrency fetches in flight
	sem *semaphore.Weighted

	runCtx context.Context // set for the duration of Run
}

// New creates a Crawler. baseURL must already be normalized; it defines the
// crawl scope
func New(cfg *config.Config, baseURL *url.URL, st *state.CrawlState, fetcher *fetch.Fetcher, log *logrus.Entry) *Crawler {
	return &Crawler{
		log:     log,
		cfg:     cfg,
		baseURL: baseURL,
		state:   st,
		fetcher: fetcher,
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Run seeds the frontier with the base URL and processes waves until the
// frontier is exhausted. It blocks until the crawl is done or ctx is
// cancelled
func (c *Crawler) Run(ctx context.Context) error {
	c.runCtx = ctx
	start := time.Now()

	seed := parse.NormalizeString(c.baseURL.String())
	c.state.TryMarkDiscovered(seed)
	queue := []models.FrontierEntry{{URL: seed, Depth: 0, Source: models.SourceRoot}}

	c.log.WithFields(logrus.Fields{
		"max_depth":   c.cfg.MaxDepth,
		"concurrency": c.cfg.Concurrency,
	}).Info("Crawl starting")

	stopProgress := c.startProgressReporter()
	defer stopProgress()

	wave := 0
	for len(queue) > 0 {
		wave++
		// Snapshot and drain the queue before any results are merged back;
		// dedup correctness rests on TryMarkVisited, not wave boundaries
		batch := queue
		queue = nil

		waveLog := c.log.WithFields(logrus.Fields{"wave": wave, "batch": len(batch)})
		waveLog.Debug("Dispatching wave")

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, entry := range batch {
			if err := c.sem.Acquire(ctx, 1); err != nil {
				// Context cancelled while waiting for a slot; finish the
				// tasks already in flight and stop
				wg.Wait()
				c.log.Warnf("Crawl cancelled: %v", err)
				return err
			}
			wg.Add(1)
			go func(e models.FrontierEntry) {
				defer wg.Done()
				defer c.sem.Release(1)
				taskLog := c.log.WithFields(logrus.Fields{
					"url":    e.URL,
					"depth":  e.Depth,
					"source": e.Source,
				})
				found := c.runTask(e, taskLog)
				if len(found) > 0 {
					mu.Lock()
					queue = append(queue, found...)
					mu.Unlock()
				}
			}(entry)
		}
		wg.Wait()
	}

	snap := c.state.Snapshot()
	c.log.WithFields(logrus.Fields{
		"duration":   time.Since(start).String(),
		"discovered": snap.Discovered,
		"visited":    snap.Visited,
		"broken":     len(snap.Broken),
		"waves":      wave,
	}).Info("Crawl finished")
	return nil
}

// startProgressReporter logs a state snapshot on a ticker while the crawl
// runs. Returns a stop function; a no-op when progress reporting is
// disabled
func (c *Crawler) startProgressReporter() func() {
	if c.cfg.ProgressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-c.runCtx.Done():
				return
			case <-ticker.C:
				snap := c.state.Snapshot()
				c.log.WithFields(logrus.Fields{
					"discovered": snap.Discovered,
					"visited":    snap.Visited,
					"in_queue":   snap.InQueue(),
					"ok_200":     snap.Histogram["200"],
					"broken":     len(snap.Broken),
					"errors":     snap.Histogram[models.TransportErrorKey],
				}).Info("Crawl progress")
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
