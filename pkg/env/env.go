package env

import "os"

// Get reads the named environment variable for the storefront, returning
// fallback when it is unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
