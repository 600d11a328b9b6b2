package api

import (
	"bufio"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/papertrade/internal/api/handlers"
	"github.com/wonny/papertrade/pkg/logger"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Engine    *handlers.EngineHandler
	Strategy  *handlers.StrategyHandler
	Portfolio *handlers.PortfolioHandler
	RunFeed   http.Handler // websocket; optional
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing lives here only
func NewRouter(h Handlers, cronSecret string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Strategy endpoints
	api.HandleFunc("/strategies", h.Strategy.List).Methods("GET")
	api.HandleFunc("/strategies", h.Strategy.Create).Methods("POST")
	api.HandleFunc("/strategies/{id}", h.Strategy.Update).Methods("PUT")

	// Paper account (read only)
	api.HandleFunc("/strategies/{id}/portfolio", h.Portfolio.GetPortfolio).Methods("GET")
	api.HandleFunc("/strategies/{id}/transactions", h.Portfolio.GetTransactions).Methods("GET")
	api.HandleFunc("/strategies/{id}/history", h.Portfolio.GetHistory).Methods("GET")

	// Run trigger (cron callers)
	auth := bearerAuthMiddleware(cronSecret, log)
	api.Handle("/run-engine", auth(http.HandlerFunc(h.Engine.RunAll))).Methods("GET", "POST")
	api.Handle("/run-engine/{id}", auth(http.HandlerFunc(h.Engine.RunStrategy))).Methods("GET", "POST")

	if h.RunFeed != nil {
		r.Handle("/ws/runs", h.RunFeed).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "papertrade-api",
	})
}

// bearerAuthMiddleware requires "Authorization: Bearer <secret>"
func bearerAuthMiddleware(secret string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				log.WithFields(map[string]interface{}{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				}).Warn("Unauthorized run trigger")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Unauthorized",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
