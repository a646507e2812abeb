package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Scrape loop configuration
	ScrapeInterval time.Duration

	// Fetcher configuration
	FetchRequestsPerSecond float64
	FetchBurst             int
	CheckRobots            bool

	// Portal verticals: listing URL plus the script marker that
	// precedes the embedded JSON payload on each page
	SearchURL      string
	SearchMarker   string
	ShoppingURL    string
	ShoppingMarker string
	NewsURL        string
	NewsMarker     string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	scrapeInterval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "60"))
	fetchRPS, _ := strconv.ParseFloat(getEnv("FETCH_REQUESTS_PER_SECOND", "2"), 64)
	fetchBurst, _ := strconv.Atoi(getEnv("FETCH_BURST", "1"))
	checkRobots, _ := strconv.ParseBool(getEnv("CHECK_ROBOTS", "false"))

	return Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "portal"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		ScrapeInterval:       time.Duration(scrapeInterval) * time.Second,

		FetchRequestsPerSecond: fetchRPS,
		FetchBurst:             fetchBurst,
		CheckRobots:            checkRobots,

		SearchURL:      getEnv("SEARCH_URL", "https://search.naver.com/search.naver?where=web&query=%EB%85%B8%ED%8A%B8%EB%B6%81"),
		SearchMarker:   getEnv("SEARCH_MARKER", "naver.search.render("),
		ShoppingURL:    getEnv("SHOPPING_URL", "https://search.shopping.naver.com/search/all?query=%EB%85%B8%ED%8A%B8%EB%B6%81"),
		ShoppingMarker: getEnv("SHOPPING_MARKER", "window.__PRELOADED_STATE__ ="),
		NewsURL:        getEnv("NEWS_URL", "https://search.naver.com/search.naver?where=news&query=%EB%85%B8%ED%8A%B8%EB%B6%81"),
		NewsMarker:     getEnv("NEWS_MARKER", "window.__NEWS_STATE__ ="),

		Environment: getEnv("PORTAL_ENVIRONMENT", "development"),
	}
}

// Validate checks that the loaded configuration is usable
func (c Config) Validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.MemcacheAddr == "" {
		return fmt.Errorf("memcache address is required")
	}
	if c.RedisStreamCount < 1 {
		return fmt.Errorf("redis stream count must be at least 1, got %d", c.RedisStreamCount)
	}
	if c.RedisStreamMaxLength < 1 {
		return fmt.Errorf("redis stream max length must be at least 1, got %d", c.RedisStreamMaxLength)
	}
	if c.ScrapeInterval < time.Second {
		return fmt.Errorf("scrape interval must be at least 1s, got %v", c.ScrapeInterval)
	}
	for name, marker := range map[string]string{
		"search":   c.SearchMarker,
		"shopping": c.ShoppingMarker,
		"news":     c.NewsMarker,
	} {
		if marker == "" {
			return fmt.Errorf("%s marker must not be empty", name)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
