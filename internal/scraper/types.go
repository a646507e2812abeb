package scraper

// Item represents one scraped portal record (a web search hit, a
// shopping product or a news article, depending on the provider)
type Item struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	Mall        string `json:"mall,omitempty"`
	Press       string `json:"press,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
	Provider    string `json:"provider"`
}

// Scraper interface defines the contract for all scraper implementations
type Scraper interface {
	// FetchItems retrieves records from a portal vertical
	FetchItems() ([]Item, error)

	// GetName returns the scraper's name for logging and identification
	GetName() string

	// GetProvider returns the provider name for the scraper
	GetProvider() string
}

// IDExtractorFunc defines the function signature for extracting an ID from a URL
type IDExtractorFunc func(string) (string, error)

// FieldPaths maps record fields to dot-separated paths inside an item
// of the embedded payload. Recognized keys: id, title, link,
// description, price, mall, press, thumbnail, postedAt. Fields without
// a path (or whose path does not resolve) stay empty on the record.
type FieldPaths map[string]string

// Selectors contains CSS selectors for the HTML fallback, used when a
// page carries no embedded payload (server-rendered listings)
type Selectors struct {
	ItemList    string
	Title       string
	Link        string
	Description string
	Press       string
	Thumbnail   string
	PostedAt    string
}

// ScraperConfig contains configuration for one portal vertical
type ScraperConfig struct {
	URL       string
	CacheKey  string
	BlockTime int
	BaseURL   string
	Provider  string

	// Marker is the literal preceding the embedded JSON payload in
	// the page's script text
	Marker string
	// ItemsPath locates the record sequence inside the payload
	ItemsPath string
	Fields    FieldPaths

	// Fallback selectors; leave ItemList empty to disable the fallback
	Fallback Selectors

	IDExtractor IDExtractorFunc
}
