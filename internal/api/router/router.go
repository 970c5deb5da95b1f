// Package router assembles the HTTP surface: the WhatsApp webhook pair, the
// dialog engine fulfillment endpoint, health and metrics.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coopentrega/recruiting-ai-platform/internal/fulfillment"
	httpmiddleware "github.com/coopentrega/recruiting-ai-platform/internal/http/middleware"
	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Webhook bursts are bounded per IP; Meta redelivers on 429 so nothing is
// lost when the limiter trips.
const (
	defaultWebhookRate  = 10.0
	defaultWebhookBurst = 30
)

// Config holds router configuration.
type Config struct {
	Logger            *logging.Logger
	WhatsAppWebhook   *whatsapp.WebhookHandler
	Fulfillment       *fulfillment.Handler
	FulfillmentSecret string
	MetricsHandler    http.Handler

	// Zero values fall back to the package defaults.
	WebhookRate  float64
	WebhookBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)

	if cfg.WhatsAppWebhook != nil {
		rate := cfg.WebhookRate
		if rate <= 0 {
			rate = defaultWebhookRate
		}
		burst := cfg.WebhookBurst
		if burst <= 0 {
			burst = defaultWebhookBurst
		}
		r.Route("/webhooks/whatsapp", func(wh chi.Router) {
			wh.Get("/", cfg.WhatsAppWebhook.HandleVerification)
			wh.With(httpmiddleware.RateLimit(rate, burst)).Post("/", cfg.WhatsAppWebhook.HandleInbound)
		})
	}

	if cfg.Fulfillment != nil {
		r.With(httpmiddleware.FulfillmentAuth(cfg.FulfillmentSecret)).Post("/fulfillment", cfg.Fulfillment.Handle)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
