package httpapi

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig wires everything the HTTP server exposes.
type RouterConfig struct {
	Handler *Handler

	// RPC serves the Connect services; it is mounted on RPCPrefixes.
	RPC         http.Handler
	RPCPrefixes []string

	// Metrics, if set, is served on /metrics.
	Metrics http.Handler

	// StaticDir, if set, is served for every other path with index.html
	// as the fallback.
	StaticDir string
}

// NewRouter builds the top-level handler with request logging and CORS for
// browser clients.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	cfg.Handler.RegisterRoutes(r)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	for _, prefix := range cfg.RPCPrefixes {
		r.PathPrefix(prefix).Handler(cfg.RPC)
	}
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(staticHandler(cfg.StaticDir))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
	})
	return c.Handler(r)
}

// staticHandler serves files from dir, falling back to index.html for
// unknown paths.
func staticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
