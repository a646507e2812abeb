package scraper

import (
	"context"
	"strings"
	"time"

	"sjsage522/portalworker/helpers"
	"sjsage522/portalworker/internal/projector"
	"sjsage522/portalworker/internal/scriptjson"
	"sjsage522/portalworker/logger"
	"sjsage522/portalworker/pkg/errors"
	"sjsage522/portalworker/services/cache"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"
)

// ConfigurableScraper scrapes one portal vertical. The primary path
// pulls the page's embedded script payload through the extractor and
// projects each entry to an Item; when the page has no payload and
// fallback selectors are configured, the listing HTML is parsed
// instead.
type ConfigurableScraper struct {
	BaseScraper
	Marker    string
	ItemsPath string
	Fields    FieldPaths
	Fallback  Selectors

	log *logger.Logger
}

// NewConfigurableScraper creates a new configurable scraper
func NewConfigurableScraper(config ScraperConfig, cacheSvc cache.CacheService, fetcher *helpers.Fetcher) *ConfigurableScraper {
	return &ConfigurableScraper{
		BaseScraper: BaseScraper{
			URL:         config.URL,
			CacheKey:    config.CacheKey,
			CacheSvc:    cacheSvc,
			BlockTime:   time.Duration(config.BlockTime) * time.Second,
			BaseURL:     config.BaseURL,
			Provider:    config.Provider,
			Fetcher:     fetcher,
			IDExtractor: config.IDExtractor,
		},
		Marker:    config.Marker,
		ItemsPath: config.ItemsPath,
		Fields:    config.Fields,
		Fallback:  config.Fallback,
		log:       logger.ForScraper(config.Provider),
	}
}

// GetName returns the scraper's name for logging
func (c *ConfigurableScraper) GetName() string {
	return c.Provider + "Scraper"
}

// FetchItems fetches the vertical's listing page and parses its records
func (c *ConfigurableScraper) FetchItems() ([]Item, error) {
	body, err := c.fetchWithCache(context.Background())
	if err != nil {
		return nil, errors.NewNetwork(c.Provider, "failed to fetch listing page", err)
	}

	outcome := scriptjson.Extract(body, c.Marker)
	switch outcome.Status {
	case scriptjson.StatusFound:
		return c.itemsFromPayload(outcome.Payload)
	case scriptjson.StatusMalformedJSON:
		return nil, errors.NewExtraction(c.Provider, "embedded payload is malformed", outcome.Err)
	}

	// No payload on this page. Not a fault: fall back to the listing
	// HTML when selectors are configured, otherwise report no data.
	if c.Fallback.ItemList == "" {
		c.log.Debug().Str("marker", c.Marker).Msg("no embedded payload on page")
		return nil, nil
	}
	return c.itemsFromHTML(body)
}

// itemsFromPayload projects the payload's record sequence to items
func (c *ConfigurableScraper) itemsFromPayload(payload gson.JSON) ([]Item, error) {
	entries, ok := projector.Items(payload, c.ItemsPath)
	if !ok {
		return nil, errors.NewExtraction(c.Provider, "payload has no item list at "+c.ItemsPath, nil)
	}

	items := c.processPayloadItems(entries, c.projectItem)
	return items, nil
}

// projectItem builds one Item from a payload entry. Entries without a
// title or link are dropped; other missing fields stay empty but are
// logged so silent schema drift is visible.
func (c *ConfigurableScraper) projectItem(entry gson.JSON) *Item {
	record, missing := projector.Project(entry, map[string]string(c.Fields))
	if len(missing) > 0 {
		c.log.Debug().Strs("fields", missing).Msg("payload entry missing fields")
	}

	title := strings.TrimSpace(record["title"])
	link := c.resolveURL(strings.TrimSpace(record["link"]))
	if title == "" || link == "" {
		return nil
	}

	id := record["id"]
	if id == "" && c.IDExtractor != nil {
		extracted, err := c.IDExtractor(link)
		if err != nil {
			c.log.Debug().Err(err).Str("link", link).Msg("could not extract id")
			return nil
		}
		id = extracted
	}

	return &Item{
		Id:          id,
		Title:       title,
		Link:        link,
		Description: strings.TrimSpace(record["description"]),
		Price:       record["price"],
		Mall:        record["mall"],
		Press:       record["press"],
		Thumbnail:   record["thumbnail"],
		PostedAt:    strings.TrimSpace(record["postedAt"]),
		Provider:    c.Provider,
	}
}

// itemsFromHTML parses the listing markup with the fallback selectors
func (c *ConfigurableScraper) itemsFromHTML(body string) ([]Item, error) {
	doc, err := c.createDocument(body)
	if err != nil {
		return nil, errors.NewParsing(c.Provider, "failed to parse listing HTML", err)
	}

	selections := doc.Find(c.Fallback.ItemList)
	items := c.processSelections(selections, c.itemFromSelection)
	return items, nil
}

// itemFromSelection builds one Item from a fallback HTML selection
func (c *ConfigurableScraper) itemFromSelection(s *goquery.Selection) *Item {
	titleSel := s.Find(c.Fallback.Title)
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		if attr, exists := titleSel.Attr("title"); exists {
			title = strings.TrimSpace(attr)
		}
	}

	link, _ := s.Find(c.Fallback.Link).Attr("href")
	link = c.resolveURL(strings.TrimSpace(link))
	if title == "" || link == "" {
		return nil
	}

	var id string
	if c.IDExtractor != nil {
		extracted, err := c.IDExtractor(link)
		if err != nil {
			c.log.Debug().Err(err).Str("link", link).Msg("could not extract id")
			return nil
		}
		id = extracted
	}

	item := &Item{
		Id:       id,
		Title:    title,
		Link:     link,
		Provider: c.Provider,
	}

	if c.Fallback.Description != "" {
		item.Description = strings.TrimSpace(s.Find(c.Fallback.Description).Text())
	}
	if c.Fallback.Press != "" {
		item.Press = strings.TrimSpace(s.Find(c.Fallback.Press).Text())
	}
	if c.Fallback.PostedAt != "" {
		item.PostedAt = strings.TrimSpace(s.Find(c.Fallback.PostedAt).Text())
	}
	if c.Fallback.Thumbnail != "" {
		if src, exists := s.Find(c.Fallback.Thumbnail).Attr("src"); exists {
			item.Thumbnail = strings.TrimSpace(src)
		}
	}

	return item
}
