package scraper

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"sjsage522/portalworker/helpers"
	"sjsage522/portalworker/services/cache"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"
)

// BaseScraper provides common functionality for all scrapers
type BaseScraper struct {
	URL         string
	CacheKey    string
	CacheSvc    cache.CacheService
	BlockTime   time.Duration
	BaseURL     string
	Provider    string
	Fetcher     *helpers.Fetcher
	IDExtractor IDExtractorFunc
}

// fetchWithCache fetches the listing page with rate limiting backed by
// the cache service: while the key is present, no request goes out.
func (s *BaseScraper) fetchWithCache(ctx context.Context) (string, error) {
	if s.CacheSvc != nil && s.CacheKey != "" {
		_, err := s.CacheSvc.Get(s.CacheKey)
		if err == nil {
			return "", fmt.Errorf("%s: %d초 동안 더 이상 요청을 보내지 않음", s.CacheKey, s.BlockTime/time.Second)
		}
	}

	body, err := s.Fetcher.FetchString(ctx, s.URL)
	if err != nil {
		if s.CacheSvc != nil && s.CacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			// Set rate limiting cache
			if setErr := s.CacheSvc.Set(s.CacheKey, []byte(fmt.Sprintf("%d", s.BlockTime/time.Second)), s.BlockTime); setErr != nil {
				return "", setErr
			}
		}
		return "", err
	}

	return body, nil
}

// createDocument creates a goquery document from the fetched body
func (s *BaseScraper) createDocument(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTML 파싱 오류: %v", err)
	}
	return doc, nil
}

// processPayloadItems projects payload entries in parallel using goroutines
func (s *BaseScraper) processPayloadItems(entries []gson.JSON, processor func(gson.JSON) *Item) []Item {
	itemChan := make(chan *Item, len(entries))
	var wg sync.WaitGroup

	for _, entry := range entries {
		wg.Add(1)
		go func(entry gson.JSON) {
			defer wg.Done()

			if item := processor(entry); item != nil {
				itemChan <- item
			}
		}(entry)
	}

	wg.Wait()
	close(itemChan)

	var items []Item
	for item := range itemChan {
		items = append(items, *item)
	}

	return items
}

// processSelections processes HTML fallback selections in parallel
func (s *BaseScraper) processSelections(selections *goquery.Selection, processor func(*goquery.Selection) *Item) []Item {
	itemChan := make(chan *Item, selections.Length())
	var wg sync.WaitGroup

	selections.Each(func(i int, sel *goquery.Selection) {
		wg.Add(1)
		go func(sel *goquery.Selection) {
			defer wg.Done()

			if item := processor(sel); item != nil {
				itemChan <- item
			}
		}(sel)
	})

	wg.Wait()
	close(itemChan)

	var items []Item
	for item := range itemChan {
		items = append(items, *item)
	}

	return items
}

// resolveURL resolves a possibly relative link against the provider's
// base URL
func (s *BaseScraper) resolveURL(link string) string {
	if link == "" || s.BaseURL == "" {
		return link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if parsed.IsAbs() {
		return link
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return link
	}
	return base.ResolveReference(parsed).String()
}

// GetName returns the scraper's type name for logging
func (s *BaseScraper) GetName() string {
	return reflect.TypeOf(s).Elem().Name()
}

// GetProvider returns the provider name for the scraper
func (s *BaseScraper) GetProvider() string {
	return s.Provider
}
