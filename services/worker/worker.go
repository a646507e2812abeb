package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/portalworker/internal/scraper"
	"sjsage522/portalworker/services/publisher"
)

// Logger is the minimal logging surface the worker needs
type Logger interface {
	LogError(scraperName string, err error)
	LogInfo(format string, args ...interface{})
}

// Worker runs all vertical scrapers on an interval and publishes their
// records
type Worker struct {
	ctx            context.Context
	scrapers       []scraper.Scraper
	publisher      publisher.Publisher
	logger         Logger
	scrapeInterval time.Duration
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	scrapers []scraper.Scraper,
	pub publisher.Publisher,
	logger Logger,
	scrapeInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:            ctx,
		scrapers:       scrapers,
		publisher:      pub,
		logger:         logger,
		scrapeInterval: scrapeInterval,
	}
}

// Start runs scrape sweeps until the worker's context is canceled
func (w *Worker) Start() error {
	ticker := time.NewTicker(w.scrapeInterval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.runScrapers()
		w.logger.LogInfo("스크래핑 소요 시간: %s", time.Since(start))

		select {
		case <-w.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runScrapers runs all the scrapers in parallel and then trims the streams
func (w *Worker) runScrapers() {
	var wg sync.WaitGroup
	for _, s := range w.scrapers {
		wg.Add(1)
		go func(s scraper.Scraper) {
			defer wg.Done()
			w.scrapeAndPublish(s)
		}(s)
	}
	wg.Wait()

	// Trim all streams after the sweep
	if err := w.publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
}

// scrapeAndPublish scrapes one vertical and publishes its records.
// A failing vertical never aborts the sweep; the error is logged and
// the other verticals go on.
func (w *Worker) scrapeAndPublish(s scraper.Scraper) {
	scraperName := s.GetName()

	items, err := s.FetchItems()
	if err != nil {
		w.logger.LogError(scraperName, err)
		return
	}
	if len(items) == 0 {
		w.logger.LogInfo("%s: no records this sweep", scraperName)
		return
	}

	for _, item := range items {
		itemData, err := json.Marshal(item)
		if err != nil {
			w.logger.LogError(scraperName, err)
			return
		}

		if err := w.publisher.Publish(s.GetProvider(), itemData); err != nil {
			w.logger.LogError(scraperName, err)
		}
	}

	w.logger.LogInfo("%s: published %d records", scraperName, len(items))
}
