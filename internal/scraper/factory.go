package scraper

import (
	"strings"

	"sjsage522/portalworker/config"
	"sjsage522/portalworker/helpers"
	"sjsage522/portalworker/logger"
	"sjsage522/portalworker/services/cache"
)

// CreateScrapers creates the scrapers for all portal verticals
func CreateScrapers(cfg *config.Config, cacheSvc cache.CacheService, fetcher *helpers.Fetcher) []Scraper {
	configurations := []ScraperConfig{
		{
			// Web search vertical. The result list is delivered as an
			// argument of the page's bootstrap call.
			URL:       cfg.SearchURL,
			CacheKey:  "search_rate_limited",
			BlockTime: 500,
			BaseURL:   "https://search.naver.com",
			Provider:  "Search",
			Marker:    cfg.SearchMarker,
			ItemsPath: "collection.web.items",
			Fields: FieldPaths{
				"title":       "title",
				"link":        "url",
				"description": "passage",
				"thumbnail":   "thumbnail.src",
			},
			IDExtractor: func(link string) (string, error) {
				baseLink := strings.Split(link, "?")[0]
				baseLink = strings.TrimSuffix(baseLink, "/")
				return helpers.GetSplitPart(baseLink, "/", strings.Count(baseLink, "/"))
			},
		},
		{
			// Shopping vertical. Products live in the preloaded state
			// assignment; product ids are part of the payload itself.
			URL:       cfg.ShoppingURL,
			CacheKey:  "shopping_rate_limited",
			BlockTime: 500,
			BaseURL:   "https://search.shopping.naver.com",
			Provider:  "Shopping",
			Marker:    cfg.ShoppingMarker,
			ItemsPath: "shoppingResult.products",
			Fields: FieldPaths{
				"id":        "id",
				"title":     "productName",
				"link":      "productUrl",
				"price":     "price",
				"mall":      "mallName",
				"thumbnail": "imageUrl",
			},
			IDExtractor: func(link string) (string, error) {
				return helpers.GetQueryParam(link, "nvMid")
			},
		},
		{
			// News vertical. Older result pages render the list
			// server-side, so this one carries HTML fallback selectors.
			URL:       cfg.NewsURL,
			CacheKey:  "news_rate_limited",
			BlockTime: 500,
			BaseURL:   "https://search.naver.com",
			Provider:  "News",
			Marker:    cfg.NewsMarker,
			ItemsPath: "newsResult.articles",
			Fields: FieldPaths{
				"title":       "title",
				"link":        "originalUrl",
				"description": "summary",
				"press":       "press.name",
				"postedAt":    "publishedAt",
				"thumbnail":   "thumbnailUrl",
			},
			Fallback: Selectors{
				ItemList:    "ul.list_news li.bx",
				Title:       "a.news_tit",
				Link:        "a.news_tit",
				Description: "div.news_dsc",
				Press:       "a.info.press",
				PostedAt:    "span.info",
				Thumbnail:   "img.thumb",
			},
			IDExtractor: func(link string) (string, error) {
				if id, err := helpers.GetQueryParam(link, "aid"); err == nil {
					return id, nil
				}
				baseLink := strings.Split(link, "?")[0]
				baseLink = strings.TrimSuffix(baseLink, "/")
				return helpers.GetSplitPart(baseLink, "/", strings.Count(baseLink, "/"))
			},
		},
	}

	var scrapers []Scraper
	for _, configuration := range configurations {
		scrapers = append(scrapers, NewConfigurableScraper(configuration, cacheSvc, fetcher))
	}

	logger.Info("Created %d vertical scrapers", len(scrapers))
	return scrapers
}
