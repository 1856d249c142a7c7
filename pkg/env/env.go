package env

import "os"

// Prefix namespaces every shirtforge variable.
const Prefix = "SHIRTFORGE_"

// Get returns SHIRTFORGE_<key> when set, then the bare key, then fallback.
// Platform variables such as PORT are read through the bare form.
func Get(key, fallback string) string {
	if val := os.Getenv(Prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
