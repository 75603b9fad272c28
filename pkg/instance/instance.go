package instance

import "os"

// ID names the running process in logs. RENTWISE_INSTANCE_ID wins, then the platform's dyno
// name, then the hostname.
func ID() string {
	for _, key := range []string{"RENTWISE_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
