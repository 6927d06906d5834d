// Package client builds the outbound HTTP clients used for third party APIs.
package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient returns a client whose GET responses are cached according
// to their Cache-Control headers. Responses are kept on disk below cacheDir, or
// in memory when cacheDir is empty.
func NewCachingHTTPClient(cacheDir string, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newTransport(cacheDir),
		Timeout:   timeout,
	}
}

func newTransport(cacheDir string) *httpcache.Transport {
	if cacheDir == "" {
		return httpcache.NewTransport(httpcache.NewMemoryCache())
	}
	return httpcache.NewTransport(diskcache.New(cacheDir))
}
