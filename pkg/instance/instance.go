package instance

import (
	"os"
	"strings"
)

const (
	EnvWorkerID = "APEXEV_WORKER_ID"
	// EnvDyno is set by the platform on every process it runs.
	EnvDyno = "DYNO"

	defaultID = "worker-0"
)

// GetID returns the process instance identifier used in logs and lock values.
func GetID() string {
	for _, key := range []string{EnvWorkerID, EnvDyno} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
