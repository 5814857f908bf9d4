package download

import (
	"net/http"
	"time"

	"github.com/okian/audioquery/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds a whole download, body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken appends the API credential as the "token" parameter.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger overrides the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
