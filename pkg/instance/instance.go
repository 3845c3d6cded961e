// Package instance names the running process for logs and lock ownership.
package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

const fallbackID = "local"

// GetID prefers an explicit STOREFRONT_INSTANCE_ID, then the container
// hostname.
func GetID() string {
	if id, ok := env.First("STOREFRONT_INSTANCE_ID", "HOSTNAME"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
