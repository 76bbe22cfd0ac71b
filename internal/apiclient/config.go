package apiclient

import "time"

// Config holds connection settings for the remote API.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local development server.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 15 * time.Second,
	}
}
