package helpers

import (
	"errors"
	"net/url"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// GetQueryParam extracts a single query parameter from a URL.
func GetQueryParam(rawURL string, key string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	value := parsed.Query().Get(key)
	if value == "" {
		return "", errors.New("query parameter not found: " + key)
	}
	return value, nil
}
