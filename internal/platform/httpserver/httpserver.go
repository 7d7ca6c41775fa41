// Package httpserver builds the http.Server the process runs.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the router. ReadHeaderTimeout bounds slow
// clients; handlers own their request deadlines.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
