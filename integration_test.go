package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sjsage522/portalworker/helpers"
	"sjsage522/portalworker/internal/scraper"
	"sjsage522/portalworker/services/cache"
	"sjsage522/portalworker/services/publisher"
	"sjsage522/portalworker/services/worker"

	"github.com/stretchr/testify/assert"
)

// A listing page in the shape the portal serves: the record list is
// passed as an argument of an inline bootstrap call.
const testPage = `<!DOCTYPE html>
<html>
<head><title>통합검색</title></head>
<body>
<div id="container"></div>
<script>
portal.search.render(document.getElementById("container"), {
	"collection": {
		"web": {
			"items": [
				{"title": "통합 결과 하나", "url": "https://example.com/view/11", "passage": "본문 요약"},
				{"title": "통합 결과 둘", "url": "https://example.com/view/22", "passage": "다른 요약"}
			]
		}
	}
});
</script>
</body>
</html>`

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

// Ensure MockCacheService implements cache.CacheService
var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// RecordingPublisher keeps every published record in memory
type RecordingPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trims    int
}

// Ensure RecordingPublisher implements publisher.Publisher
var _ publisher.Publisher = (*RecordingPublisher)(nil)

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{messages: make(map[string][][]byte)}
}

func (p *RecordingPublisher) Publish(key string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	p.messages[key] = append(p.messages[key], messageCopy)
	return nil
}

func (p *RecordingPublisher) TrimStreams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trims++
	return nil
}

func (p *RecordingPublisher) Close() error {
	return nil
}

func (p *RecordingPublisher) records(key string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages[key] {
		out = append(out, string(m))
	}
	return out
}

type silentLogger struct{}

func (silentLogger) LogError(scraperName string, err error) {}
func (silentLogger) LogInfo(format string, args ...interface{}) {}

// TestWorkerEndToEnd drives a scraper against a local server through
// the worker loop and checks what lands at the publisher.
func TestWorkerEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	fetcher := helpers.NewFetcher(helpers.FetcherConfig{RequestsPerSecond: 100, Burst: 10})

	s := scraper.NewConfigurableScraper(scraper.ScraperConfig{
		URL:       server.URL,
		CacheKey:  "integration_rate_limited",
		BlockTime: 500,
		BaseURL:   "https://example.com",
		Provider:  "Search",
		Marker:    "portal.search.render(",
		ItemsPath: "collection.web.items",
		Fields: scraper.FieldPaths{
			"title":       "title",
			"link":        "url",
			"description": "passage",
		},
		IDExtractor: func(link string) (string, error) {
			return helpers.GetSplitPart(link, "/", 4)
		},
	}, NewMockCacheService(), fetcher)

	pub := NewRecordingPublisher()

	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewWorker(ctx, []scraper.Scraper{s}, pub, silentLogger{}, time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- w.Start()
	}()

	// One sweep is enough
	assert.Eventually(t, func() bool {
		return len(pub.records("Search")) == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	records := pub.records("Search")
	combined := records[0] + records[1]
	assert.Contains(t, combined, "통합 결과 하나")
	assert.Contains(t, combined, "통합 결과 둘")
	assert.Contains(t, combined, `"id":"11"`)
	assert.Contains(t, combined, `"provider":"Search"`)

	assert.GreaterOrEqual(t, pub.trims, 1, "streams are trimmed after a sweep")
}
