package httpclient

import (
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// New returns a client with an explicit timeout. Moderation providers get no
// retries, so a hung upstream must fail the request instead of pinning it.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
