package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grupoblue/lead-insights/internal/http/handlers"
	httpmiddleware "github.com/grupoblue/lead-insights/internal/http/middleware"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	JourneyHandler     *handlers.JourneyHandler
	InsightsHandler    *handlers.InsightsHandler
	AdminLookups       *handlers.AdminLookupsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests per second allowed on the analysis endpoint. Zero disables
	// the limiter. The LLM call behind it is slow and metered, so callers
	// should set something small.
	AnalysisRateLimit float64
	AnalysisBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.JourneyHandler != nil {
			api.Get("/journeys/lead", cfg.JourneyHandler.GetLeadJourney)
			api.Get("/journeys/history", cfg.JourneyHandler.GetHistory)
		}
		if cfg.InsightsHandler != nil {
			analysis := api.With()
			if cfg.AnalysisRateLimit > 0 {
				analysis = api.With(httpmiddleware.RateLimit(cfg.AnalysisRateLimit, cfg.AnalysisBurst))
			}
			analysis.Post("/journeys/lead/analysis", cfg.InsightsHandler.AnalyzeJourney)
		}
		if cfg.AdminLookups != nil {
			api.Post("/admin/lookups/sync", cfg.AdminLookups.SyncLookups)
		}
	})

	return r
}
