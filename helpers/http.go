package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
}

var defaultReferers = []string{
	"https://www.google.com/",
	"https://www.naver.com/",
	"https://www.daum.net/",
}

// FetcherConfig is the immutable configuration for a Fetcher. There is
// no ambient session state: everything a fetch depends on is fixed at
// construction.
type FetcherConfig struct {
	UserAgents        []string
	Referers          []string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// CheckRobots fetches and honors robots.txt per host before the
	// first request to that host.
	CheckRobots bool
}

// Fetcher retrieves pages with browser-like randomized headers,
// normalizes the body to UTF-8 and throttles outgoing requests with a
// token bucket.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgents  []string
	referers    []string
	checkRobots bool
	robots      *robotsCache
}

// NewFetcher builds a Fetcher from cfg, filling zero values with
// conservative defaults (10s timeout, 2 req/s, burst 1).
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if len(cfg.Referers) == 0 {
		cfg.Referers = defaultReferers
	}

	return &Fetcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		userAgents:  cfg.UserAgents,
		referers:    cfg.Referers,
		checkRobots: cfg.CheckRobots,
		robots:      newRobotsCache(cfg.Timeout),
	}
}

// Fetch sends an HTTP GET request with randomized headers, converts the
// response body to UTF-8 (if needed), and returns it as an io.Reader.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	if f.checkRobots {
		allowed, err := f.robots.allowed(rawURL, f.userAgents[0])
		if err == nil && !allowed {
			return nil, fmt.Errorf("fetch %s disallowed by robots.txt", rawURL)
		}
	}

	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", f.userAgents[rnd.Intn(len(f.userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", f.referers[rnd.Intn(len(f.referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Priority", "u=0, i")
	req.Header.Set("upgrade-insecure-requests", "1")
	req.Header.Set("Sec-Ch-Ua", "Chromium;v=134, Not:A-Brand;v=24, Google Chrome;v=134")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		resp.Body.Close()
		retryAfter := resp.Header.Get("Retry-After")
		return nil, fmt.Errorf("rate limited; retry after %s", retryAfter)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", rawURL, resp.StatusCode)
	}

	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}

// FetchString fetches a page and returns the UTF-8 body as a string,
// which is what the script payload extractor consumes.
func (f *Fetcher) FetchString(ctx context.Context, rawURL string) (string, error) {
	reader, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

// robotsCache holds per-host robots.txt groups. A host whose robots.txt
// cannot be fetched is treated as allowed.
type robotsCache struct {
	client *http.Client
	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsCache(timeout time.Duration) *robotsCache {
	return &robotsCache{
		client: &http.Client{Timeout: timeout},
		groups: make(map[string]*robotstxt.Group),
	}
}

func (rc *robotsCache) allowed(rawURL, userAgent string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true, err
	}
	host := parsed.Scheme + "://" + parsed.Host

	rc.mu.Lock()
	defer rc.mu.Unlock()

	group, ok := rc.groups[host]
	if !ok {
		group, err = rc.fetchGroup(host, userAgent)
		if err != nil {
			return true, err
		}
		rc.groups[host] = group
	}

	if group == nil {
		return true, nil
	}
	return group.Test(parsed.Path), nil
}

func (rc *robotsCache) fetchGroup(host, userAgent string) (*robotstxt.Group, error) {
	resp, err := rc.client.Get(host + "/robots.txt")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}
	return data.FindGroup(userAgent), nil
}
