package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/config"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

// Server exposes the operator API: guild payout settings, payment profiles
// and checkout creation, plus health and metrics endpoints.
type Server struct {
	settingsUC usecase.GuildSettingsUseCase
	profileUC  usecase.ProfileUseCase
	sessionUC  usecase.SessionUseCase
	subUC      usecase.SubscriptionUseCase
	auth       *AuthManager
	adminKey   string
	port       int
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	cfg *config.WebConfig,
	settingsUC usecase.GuildSettingsUseCase,
	profileUC usecase.ProfileUseCase,
	sessionUC usecase.SessionUseCase,
	subUC usecase.SubscriptionUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		settingsUC: settingsUC,
		profileUC:  profileUC,
		sessionUC:  sessionUC,
		subUC:      subUC,
		auth:       auth,
		adminKey:   cfg.AdminKey,
		port:       cfg.Port,
		log:        &webLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/v1/login", s.loginHandler())
	r.Post("/api/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api/v1/guilds/{guildID}", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/settings", settingsGetHandler(s.settingsUC))
		r.Put("/settings", settingsPutHandler(s.settingsUC))

		r.Get("/profiles", profilesListHandler(s.profileUC))
		r.Post("/profiles", profilesCreateHandler(s.profileUC))
		r.Get("/profiles/{name}", profileGetHandler(s.profileUC))
		r.Delete("/profiles/{name}", profileDeleteHandler(s.profileUC))

		r.Post("/checkouts", checkoutCreateHandler(s.sessionUC, s.profileUC, s.settingsUC))
		r.Get("/sessions", sessionsListHandler(s.sessionUC))
		r.Get("/subscriptions", subscriptionsListHandler(s.subUC))
	})

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.port).Msg("ops API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware requires a valid operator session token on every admin route.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loginHandler exchanges the configured admin key for a session token.
func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		var req struct {
			Key string `json:"key"`
		}
		if err := decodeJSON(r, &req); err != nil || req.Key == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Key != s.adminKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
