// Package env reads the few settings that are needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// First returns the first of keys whose value is non-blank.
func First(keys ...string) (string, bool) {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

// Get is First for a single key with a fallback.
func Get(key, fallback string) string {
	if v, ok := First(key); ok {
		return v
	}
	return fallback
}
