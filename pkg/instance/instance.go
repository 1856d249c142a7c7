package instance

import (
	"os"

	"github.com/angelmondragon/shirtforge-backend/pkg/env"
)

// GetID identifies this worker in logs and message attributes. WORKER_ID wins,
// then the host name, then "worker-0".
func GetID() string {
	if id := env.Get("WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
