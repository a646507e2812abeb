package publisher

// Publisher represents a service for publishing scraped records
type Publisher interface {
	// Publish publishes a record under a provider key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
