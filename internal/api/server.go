package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/analytics"
	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/metrics"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Credential override headers
const (
	HeaderScrapeCreatorsKey = "X-ScrapeCreators-Key"
	HeaderExaKey            = "X-Exa-Key"
	HeaderOpenRouterKey     = "X-OpenRouter-Key"
)

const (
	maxDaysBack   = 365
	maxBatchTexts = 100
	maxBodyBytes  = 1 << 20
)

var validPlatforms = map[string]bool{
	"all":                             true,
	models.SourceTikTok:               true,
	models.SourceYouTube:              true,
	models.SourceReddit:               true,
	models.SourceExa:                  true,
	string(models.PlatformWeb):        true,
	string(models.PlatformShortVideo): true,
	string(models.PlatformForum):      true,
}

// Server exposes the pipeline over HTTP
type Server struct {
	config     *config.Config
	monitoring *monitoring.Service
	cache      *cache.Store
	aggregator *metrics.Aggregator
	analytics  analytics.Source
}

// NewServer wires the HTTP layer. analyticsSource may be nil.
func NewServer(cfg *config.Config, monitoringService *monitoring.Service, store *cache.Store, aggregator *metrics.Aggregator, analyticsSource analytics.Source) *Server {
	return &Server{
		config:     cfg,
		monitoring: monitoringService,
		cache:      store,
		aggregator: aggregator,
		analytics:  analyticsSource,
	}
}

// Router builds the mux router with every route and middleware
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, recoverMiddleware)

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.HandleFunc("/mentions", handle(s.getMentions)).Methods("GET")
	router.HandleFunc("/refresh", handle(s.refresh)).Methods("POST")
	router.HandleFunc("/cache-status", handle(s.cacheStatus)).Methods("GET")
	router.HandleFunc("/sentiment", handle(s.sentiment)).Methods("POST")
	router.HandleFunc("/sentiment/batch", handle(s.sentimentBatch)).Methods("POST")
	router.HandleFunc("/sentiment-config", handle(s.sentimentConfig)).Methods("GET")
	router.HandleFunc("/metrics", handle(s.metrics)).Methods("GET")
	router.HandleFunc("/brand-config", handle(s.brandConfig)).Methods("GET")
	router.HandleFunc("/export", handle(s.export)).Methods("GET")
	router.HandleFunc("/run-metrics", handle(s.runMetrics)).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// credentials merges request header overrides over the environment keys
func (s *Server) credentials(r *http.Request) config.Credentials {
	return s.config.Credentials().Merge(config.Credentials{
		ScrapeCreatorsKey: strings.TrimSpace(r.Header.Get(HeaderScrapeCreatorsKey)),
		ExaKey:            strings.TrimSpace(r.Header.Get(HeaderExaKey)),
		OpenRouterKey:     strings.TrimSpace(r.Header.Get(HeaderOpenRouterKey)),
	})
}

func (s *Server) refreshContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.RefreshTimeout > 0 {
		return context.WithTimeout(r.Context(), s.config.RefreshTimeout)
	}
	return context.WithCancel(r.Context())
}

func parseDaysBack(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(value)
	if err != nil {
		return 0, newValidationWrap("days_back", "must be an integer", err)
	}
	if days < 1 || days > maxDaysBack {
		return 0, newValidation("days_back", "must be between 1 and 365")
	}
	return days, nil
}

func parsePlatform(value string) (string, error) {
	platform := strings.ToLower(strings.TrimSpace(value))
	if platform == "" {
		return "all", nil
	}
	if !validPlatforms[platform] {
		return "", newValidation("platform", "unknown platform "+strconv.Quote(value))
	}
	return platform, nil
}

func parseBool(field, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, newValidationWrap(field, "must be true or false", err)
	}
	return b, nil
}

// decodeBody decodes an optional JSON body; an empty body leaves out untouched
func decodeBody(r *http.Request, out interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return newValidationWrap("body", "malformed JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// success wraps fields in the success envelope
func success(fields map[string]interface{}) map[string]interface{} {
	fields["status"] = "success"
	return fields
}
