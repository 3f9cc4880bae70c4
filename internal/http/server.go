package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-hail/internal/auth"
	"github.com/example/ride-hail/internal/bus"
	"github.com/example/ride-hail/internal/config"
	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/gateway"
	"github.com/example/ride-hail/internal/notify"
	"github.com/example/ride-hail/internal/otp"
	"github.com/example/ride-hail/internal/payments"
	"github.com/example/ride-hail/internal/pricing"
	"github.com/example/ride-hail/internal/store"
)

type Server struct {
	Engine   *dispatch.Engine
	Sessions *auth.Sessions
	Registry *auth.Registry
	OTP      *otp.Service
	Pricing  *pricing.Service
	Drivers  *store.AvailabilityStore
	Gateway  *gateway.Gateway
	Bus      *bus.Bus

	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the whole process from config. Optional collaborators
// (postgres archive, stripe, offer webhook, routing, redis code store) attach
// only when their setting is present, so a bare binary still runs.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	eventBus := bus.New(cfg.BusBuffer)
	orders := store.NewOrderStore()

	var archive store.Archive
	if cfg.PGDSN != "" {
		if pa, err := store.NewPostgresArchive(cfg.PGDSN); err == nil {
			archive = pa
		} else {
			logger.Warn("order archive unavailable", "error", err)
		}
	}

	var pay dispatch.Payments
	if cfg.StripeAPIKey != "" {
		pay = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	var notifier dispatch.Notifier
	if cfg.OfferWebhook != "" {
		notifier = notify.NewWebhookNotifier(cfg.OfferWebhook, logger)
	}

	engine := &dispatch.Engine{
		Store:    orders,
		Bus:      eventBus,
		Archive:  archive,
		Payments: pay,
		Notifier: notifier,
		Logger:   logger,
	}

	var codes otp.CodeStore
	if cfg.RedisAddr != "" {
		codes = otp.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		codes = otp.NewMemoryStore()
	}
	var sender otp.Sender
	if cfg.SMSEndpoint != "" {
		sender = otp.NewHTTPSender(cfg.SMSEndpoint, cfg.SMSTimeout)
	}
	codeSvc := &otp.Service{Store: codes, Sender: sender, TTL: cfg.OTPTTL, DemoCode: cfg.OTPDemoCode}

	var router pricing.Router
	if cfg.RoutingEndpoint != "" {
		router = pricing.NewOSRMRouter(cfg.RoutingEndpoint)
	}

	s := &Server{
		Engine:   engine,
		Sessions: auth.NewSessions(cfg.JWTSecret, cfg.TokenTTL),
		Registry: auth.NewRegistry(),
		OTP:      codeSvc,
		Pricing:  &pricing.Service{Router: router, DefaultSpeedMps: cfg.DefaultSpeedMps},
		Drivers:  store.NewAvailabilityStore(),
		Gateway:  gateway.New(eventBus, cfg.WSIdleTimeout, logger),
		Bus:      eventBus,
		logger:   logger,
		mux:      mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("/auth/send-otp", s.handleSendCode).Methods("POST")
	s.mux.HandleFunc("/auth/verify-otp", s.handleVerifyCode).Methods("POST")

	s.mux.HandleFunc("/orders/quote", s.authed(s.handleQuote)).Methods("POST")
	s.mux.HandleFunc("/orders", s.authed(s.handleCreateOrder)).Methods("POST")
	s.mux.HandleFunc("/orders/{id}", s.authed(s.handleGetOrder)).Methods("GET")
	s.mux.HandleFunc("/orders/{id}/cancel", s.authed(s.handleCancelOrder)).Methods("POST")

	s.mux.HandleFunc("/driver/status", s.authed(s.handleDriverStatus)).Methods("POST")
	s.mux.HandleFunc("/driver/offers", s.authed(s.handleOffers)).Methods("GET")
	s.mux.HandleFunc("/driver/offers/{id}/accept", s.authed(s.handleAccept)).Methods("POST")
	s.mux.HandleFunc("/driver/trip/{id}/status", s.authed(s.handleTripStatus)).Methods("POST")

	s.mux.HandleFunc("/rt", s.Gateway.HandleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
