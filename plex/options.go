package plex

import (
	"net/http"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultClientName = "cratedigger"
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	clientID   string
	clientName string
	httpClient *http.Client
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:    defaultTimeout,
		clientID:   defaultClientName,
		clientName: defaultClientName,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithClientIdentity sets the X-Plex-Client-Identifier and X-Plex-Product headers.
func WithClientIdentity(id, name string) Option {
	return func(o *clientOptions) {
		if id != "" {
			o.clientID = id
		}
		if name != "" {
			o.clientName = name
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}
