//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/config"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/web"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

// ===== Stub use cases =====

type StubSettingsUC struct {
	ConfigureFunc        func(ctx context.Context, guildID, addr, ticker, network string) (*model.GuildSettings, error)
	ConfigureFromURLFunc func(ctx context.Context, guildID, paymentURL string) (*model.GuildSettings, error)
	GetFunc              func(ctx context.Context, guildID string) (*model.GuildSettings, error)
}

var _ usecase.GuildSettingsUseCase = (*StubSettingsUC)(nil)

func (s *StubSettingsUC) Configure(ctx context.Context, guildID, addr, ticker, network string) (*model.GuildSettings, error) {
	return s.ConfigureFunc(ctx, guildID, addr, ticker, network)
}
func (s *StubSettingsUC) ConfigureFromURL(ctx context.Context, guildID, paymentURL string) (*model.GuildSettings, error) {
	return s.ConfigureFromURLFunc(ctx, guildID, paymentURL)
}
func (s *StubSettingsUC) Get(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	return s.GetFunc(ctx, guildID)
}

type StubProfileUC struct {
	CreateFunc func(ctx context.Context, guildID, name, roleID string, durationDays int, params map[string]any) (*model.PaymentProfile, error)
	GetFunc    func(ctx context.Context, guildID, name string) (*model.PaymentProfile, error)
	ListFunc   func(ctx context.Context, guildID string) ([]*model.PaymentProfile, error)
	DeleteFunc func(ctx context.Context, guildID, name string) error
}

var _ usecase.ProfileUseCase = (*StubProfileUC)(nil)

func (s *StubProfileUC) Create(ctx context.Context, guildID, name, roleID string, durationDays int, params map[string]any) (*model.PaymentProfile, error) {
	return s.CreateFunc(ctx, guildID, name, roleID, durationDays, params)
}
func (s *StubProfileUC) Get(ctx context.Context, guildID, name string) (*model.PaymentProfile, error) {
	return s.GetFunc(ctx, guildID, name)
}
func (s *StubProfileUC) List(ctx context.Context, guildID string) ([]*model.PaymentProfile, error) {
	return s.ListFunc(ctx, guildID)
}
func (s *StubProfileUC) Delete(ctx context.Context, guildID, name string) error {
	return s.DeleteFunc(ctx, guildID, name)
}

type StubSessionUC struct {
	StartFunc func(ctx context.Context, userID string, profile *model.PaymentProfile, settings *model.GuildSettings) (*model.PaymentSession, error)
	ListFunc  func(ctx context.Context, guildID string) ([]*model.PaymentSession, error)
}

var _ usecase.SessionUseCase = (*StubSessionUC)(nil)

func (s *StubSessionUC) Start(ctx context.Context, userID string, profile *model.PaymentProfile, settings *model.GuildSettings) (*model.PaymentSession, error) {
	return s.StartFunc(ctx, userID, profile, settings)
}
func (s *StubSessionUC) ReconcilePass(ctx context.Context) (int, error) { return 0, nil }
func (s *StubSessionUC) List(ctx context.Context, guildID string) ([]*model.PaymentSession, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx, guildID)
	}
	return nil, nil
}

type StubSubscriptionUC struct {
	ListFunc func(ctx context.Context, guildID string) ([]*model.Subscription, error)
}

var _ usecase.SubscriptionUseCase = (*StubSubscriptionUC)(nil)

func (s *StubSubscriptionUC) Sweep(ctx context.Context) (int, int, error) { return 0, 0, nil }
func (s *StubSubscriptionUC) List(ctx context.Context, guildID string) ([]*model.Subscription, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx, guildID)
	}
	return nil, nil
}

// ===== Harness =====

type serverDeps struct {
	settings *StubSettingsUC
	profiles *StubProfileUC
	sessions *StubSessionUC
	subs     *StubSubscriptionUC
}

func newTestServer(t *testing.T, deps serverDeps) (http.Handler, *web.AuthManager) {
	t.Helper()
	if deps.settings == nil {
		deps.settings = &StubSettingsUC{}
	}
	if deps.profiles == nil {
		deps.profiles = &StubProfileUC{}
	}
	if deps.sessions == nil {
		deps.sessions = &StubSessionUC{}
	}
	if deps.subs == nil {
		deps.subs = &StubSubscriptionUC{}
	}
	logger := zerolog.New(io.Discard)
	auth := web.NewAuthManager("test-secret", false, time.Hour)
	srv := web.NewServer(&config.WebConfig{Port: 0, AdminKey: "hunter2"}, deps.settings, deps.profiles, deps.sessions, deps.subs, auth, &logger)
	return srv.Router(), auth
}

func authedRequest(t *testing.T, auth *web.AuthManager, method, target string, body any) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	token, err := auth.Mint(rec)
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ===== Tests =====

func TestLoginHandler(t *testing.T) {
	t.Run("should mint a token for the correct key", func(t *testing.T) {
		router, _ := newTestServer(t, serverDeps{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(`{"key":"hunter2"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["token"] == "" {
			t.Errorf("expected a token in the response, got %s", rec.Body.String())
		}
	})

	t.Run("should refuse a wrong key", func(t *testing.T) {
		router, _ := newTestServer(t, serverDeps{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(`{"key":"wrong"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("should reject admin routes without a token", func(t *testing.T) {
		router, _ := newTestServer(t, serverDeps{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/guilds/guild-1/settings", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should pass a bearer token through", func(t *testing.T) {
		settings := &StubSettingsUC{
			GetFunc: func(ctx context.Context, guildID string) (*model.GuildSettings, error) {
				return &model.GuildSettings{GuildID: guildID, PayoutAddress: "addr-1", TickerTo: "XMR", NetworkTo: "MAINNET"}, nil
			},
		}
		router, auth := newTestServer(t, serverDeps{settings: settings})

		req := authedRequest(t, auth, http.MethodGet, "/api/v1/guilds/guild-1/settings", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]any
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["address"] != "addr-1" || resp["guild_id"] != "guild-1" {
			t.Errorf("unexpected settings payload %v", resp)
		}
	})
}

func TestSettingsPutHandler(t *testing.T) {
	t.Run("should configure from a payment url when present", func(t *testing.T) {
		var gotURL string
		settings := &StubSettingsUC{
			ConfigureFromURLFunc: func(ctx context.Context, guildID, paymentURL string) (*model.GuildSettings, error) {
				gotURL = paymentURL
				return &model.GuildSettings{GuildID: guildID, PayoutAddress: "addr-1"}, nil
			},
		}
		router, auth := newTestServer(t, serverDeps{settings: settings})

		req := authedRequest(t, auth, http.MethodPut, "/api/v1/guilds/guild-1/settings",
			map[string]string{"payment_url": "https://trocador.app/anonpay?address=addr-1&ticker_to=xmr&network_to=mainnet"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotURL == "" {
			t.Error("expected the url variant to be used")
		}
	})

	t.Run("should map invalid input onto 400", func(t *testing.T) {
		settings := &StubSettingsUC{
			ConfigureFunc: func(ctx context.Context, guildID, addr, ticker, network string) (*model.GuildSettings, error) {
				return nil, domain.ErrInvalidArgument
			},
		}
		router, auth := newTestServer(t, serverDeps{settings: settings})

		req := authedRequest(t, auth, http.MethodPut, "/api/v1/guilds/guild-1/settings", map[string]string{"address": ""})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCheckoutCreateHandler(t *testing.T) {
	profile := func() *model.PaymentProfile {
		p, _ := model.NewPaymentProfile("prof-1", "guild-1", "Gold", "role-1", 30, nil)
		return p
	}

	t.Run("should start a session and return the checkout details", func(t *testing.T) {
		// --- Arrange ---
		profiles := &StubProfileUC{
			GetFunc: func(ctx context.Context, guildID, name string) (*model.PaymentProfile, error) {
				return profile(), nil
			},
		}
		settings := &StubSettingsUC{
			GetFunc: func(ctx context.Context, guildID string) (*model.GuildSettings, error) {
				return &model.GuildSettings{GuildID: guildID, PayoutAddress: "addr-1", TickerTo: "XMR", NetworkTo: "MAINNET"}, nil
			},
		}
		sessions := &StubSessionUC{
			StartFunc: func(ctx context.Context, userID string, p *model.PaymentProfile, s *model.GuildSettings) (*model.PaymentSession, error) {
				return &model.PaymentSession{
					ID:          "sess-1",
					GatewayID:   "gw-1",
					UserID:      userID,
					Status:      "waiting",
					CheckoutURL: "https://example.com/pay/gw-1",
					ExpiresAt:   time.Now().UTC().Add(20 * time.Minute),
				}, nil
			},
		}
		router, auth := newTestServer(t, serverDeps{profiles: profiles, settings: settings, sessions: sessions})

		// --- Act ---
		req := authedRequest(t, auth, http.MethodPost, "/api/v1/guilds/guild-1/checkouts",
			map[string]string{"user_id": "user-1", "profile": "gold"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		// --- Assert ---
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]any
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["session_id"] != "sess-1" || resp["checkout_url"] != "https://example.com/pay/gw-1" {
			t.Errorf("unexpected response %v", resp)
		}
	})

	t.Run("should answer 409 when the guild is not configured", func(t *testing.T) {
		profiles := &StubProfileUC{
			GetFunc: func(ctx context.Context, guildID, name string) (*model.PaymentProfile, error) {
				return profile(), nil
			},
		}
		settings := &StubSettingsUC{
			GetFunc: func(ctx context.Context, guildID string) (*model.GuildSettings, error) {
				return nil, domain.ErrNotFound
			},
		}
		router, auth := newTestServer(t, serverDeps{profiles: profiles, settings: settings})

		req := authedRequest(t, auth, http.MethodPost, "/api/v1/guilds/guild-1/checkouts",
			map[string]string{"user_id": "user-1", "profile": "gold"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("should answer 502 on a gateway failure", func(t *testing.T) {
		profiles := &StubProfileUC{
			GetFunc: func(ctx context.Context, guildID, name string) (*model.PaymentProfile, error) {
				return profile(), nil
			},
		}
		settings := &StubSettingsUC{
			GetFunc: func(ctx context.Context, guildID string) (*model.GuildSettings, error) {
				return &model.GuildSettings{GuildID: guildID, PayoutAddress: "addr-1"}, nil
			},
		}
		sessions := &StubSessionUC{
			StartFunc: func(ctx context.Context, userID string, p *model.PaymentProfile, s *model.GuildSettings) (*model.PaymentSession, error) {
				return nil, domain.NewGatewayError("create_checkout", 503, nil)
			},
		}
		router, auth := newTestServer(t, serverDeps{profiles: profiles, settings: settings, sessions: sessions})

		req := authedRequest(t, auth, http.MethodPost, "/api/v1/guilds/guild-1/checkouts",
			map[string]string{"user_id": "user-1", "profile": "gold"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("should reject a body missing the user id", func(t *testing.T) {
		router, auth := newTestServer(t, serverDeps{})

		req := authedRequest(t, auth, http.MethodPost, "/api/v1/guilds/guild-1/checkouts",
			map[string]string{"profile": "gold"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListingHandlers(t *testing.T) {
	t.Run("should list a guild's tracked sessions", func(t *testing.T) {
		sessions := &StubSessionUC{
			ListFunc: func(ctx context.Context, guildID string) ([]*model.PaymentSession, error) {
				return []*model.PaymentSession{{ID: "sess-1", GuildID: guildID, Status: "waiting"}}, nil
			},
		}
		router, auth := newTestServer(t, serverDeps{sessions: sessions})

		req := authedRequest(t, auth, http.MethodGet, "/api/v1/guilds/guild-1/sessions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Data []map[string]any `json:"data"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.Data) != 1 || resp.Data[0]["ID"] != "sess-1" {
			t.Errorf("unexpected listing %v", resp.Data)
		}
	})

	t.Run("should list a guild's subscriptions", func(t *testing.T) {
		subs := &StubSubscriptionUC{
			ListFunc: func(ctx context.Context, guildID string) ([]*model.Subscription, error) {
				return []*model.Subscription{{ID: "sub-1", GuildID: guildID, UserID: "user-1"}}, nil
			},
		}
		router, auth := newTestServer(t, serverDeps{subs: subs})

		req := authedRequest(t, auth, http.MethodGet, "/api/v1/guilds/guild-1/subscriptions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("should refuse listing without a token", func(t *testing.T) {
		router, _ := newTestServer(t, serverDeps{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/guilds/guild-1/subscriptions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestProfileHandlers(t *testing.T) {
	t.Run("should map a duplicate name onto 409", func(t *testing.T) {
		profiles := &StubProfileUC{
			CreateFunc: func(ctx context.Context, guildID, name, roleID string, durationDays int, params map[string]any) (*model.PaymentProfile, error) {
				return nil, domain.ErrAlreadyExists
			},
		}
		router, auth := newTestServer(t, serverDeps{profiles: profiles})

		req := authedRequest(t, auth, http.MethodPost, "/api/v1/guilds/guild-1/profiles",
			map[string]any{"name": "Gold"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("should answer 204 on delete", func(t *testing.T) {
		var gotName string
		profiles := &StubProfileUC{
			DeleteFunc: func(ctx context.Context, guildID, name string) error {
				gotName = name
				return nil
			},
		}
		router, auth := newTestServer(t, serverDeps{profiles: profiles})

		req := authedRequest(t, auth, http.MethodDelete, "/api/v1/guilds/guild-1/profiles/gold", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if gotName != "gold" {
			t.Errorf("unexpected name %q", gotName)
		}
	})
}
