package http

import (
	"net/http"
	"sync"
	"time"
)

var httpClient *http.Client
var httpClientOnce sync.Once

// GetHTTPClient returns the process wide client. It is safe for concurrent use
// and keeps its connection pool between uploads.
func GetHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		httpClient = NewHTTPClient(0)
	})

	return httpClient
}

// NewHTTPClient creates a client with its own transport. A zero timeout means
// requests are only bounded by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	customTransport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: customTransport, Timeout: timeout}
}
