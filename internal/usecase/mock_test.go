//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu sync.Mutex

	CreateCheckoutFunc func(ctx context.Context, params map[string]string) (*adapter.CheckoutResponse, error)
	FetchStatusFunc    func(ctx context.Context, statusURL string) (map[string]any, error)
	PostWebhookFunc    func(ctx context.Context, url string, payload map[string]any) error

	// tracing of invocations
	CreateParams []map[string]string
	FetchedURLs  []string
	Webhooks     []PostedWebhook
}

type PostedWebhook struct {
	URL     string
	Payload map[string]any
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mockpay" }

func (m *MockPaymentGateway) CreateCheckout(ctx context.Context, params map[string]string) (*adapter.CheckoutResponse, error) {
	m.mu.Lock()
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	m.CreateParams = append(m.CreateParams, cp)
	m.mu.Unlock()
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, params)
	}
	id := "pay-" + uuid.NewString()
	return &adapter.CheckoutResponse{
		ID:          id,
		Status:      "waiting",
		StatusURL:   "https://gateway.example/status/" + id,
		CheckoutURL: "https://gateway.example/pay/" + id,
		Raw:         map[string]any{"id": id, "status": "waiting"},
	}, nil
}

func (m *MockPaymentGateway) FetchStatus(ctx context.Context, statusURL string) (map[string]any, error) {
	m.mu.Lock()
	m.FetchedURLs = append(m.FetchedURLs, statusURL)
	m.mu.Unlock()
	if m.FetchStatusFunc != nil {
		return m.FetchStatusFunc(ctx, statusURL)
	}
	return map[string]any{"status": "waiting"}, nil
}

func (m *MockPaymentGateway) PostWebhook(ctx context.Context, url string, payload map[string]any) error {
	if m.PostWebhookFunc != nil {
		return m.PostWebhookFunc(ctx, url, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Webhooks = append(m.Webhooks, PostedWebhook{URL: url, Payload: payload})
	return nil
}

// ---- Mock ChatAdapter ----

type MockChatAdapter struct {
	mu sync.Mutex

	RoleExistsFunc   func(ctx context.Context, guildID, roleID string) bool
	MemberExistsFunc func(ctx context.Context, guildID, userID string) bool

	Granted []string // "guild/user/role"
	Revoked []string
	DMs     []string // "user: title"
}

var _ adapter.ChatAdapter = (*MockChatAdapter)(nil)

func (m *MockChatAdapter) RoleExists(ctx context.Context, guildID, roleID string) bool {
	if m.RoleExistsFunc != nil {
		return m.RoleExistsFunc(ctx, guildID, roleID)
	}
	return true
}

func (m *MockChatAdapter) MemberExists(ctx context.Context, guildID, userID string) bool {
	if m.MemberExistsFunc != nil {
		return m.MemberExistsFunc(ctx, guildID, userID)
	}
	return true
}

func (m *MockChatAdapter) GuildName(ctx context.Context, guildID string) string {
	return "guild-" + guildID
}

func (m *MockChatAdapter) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Granted = append(m.Granted, fmt.Sprintf("%s/%s/%s", guildID, userID, roleID))
	return nil
}

func (m *MockChatAdapter) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revoked = append(m.Revoked, fmt.Sprintf("%s/%s/%s", guildID, userID, roleID))
	return nil
}

func (m *MockChatAdapter) SendDirectMessage(ctx context.Context, userID, title, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DMs = append(m.DMs, userID+": "+title)
	return nil
}

// ---- Mock notification dispatcher ----

type MockNotifier struct {
	mu sync.Mutex

	StatusChanges []string // "sessionID->status"
	LocalExpiries []string
	Expiring      []string
	Expired       []string
}

var _ usecase.NotificationUseCase = (*MockNotifier)(nil)

func (m *MockNotifier) HandleStatusChange(ctx context.Context, session *model.PaymentSession, newStatus string, payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChanges = append(m.StatusChanges, session.ID+"->"+newStatus)
}

func (m *MockNotifier) NotifyLocalExpiry(ctx context.Context, session *model.PaymentSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LocalExpiries = append(m.LocalExpiries, session.ID)
}

func (m *MockNotifier) NotifyExpiring(ctx context.Context, sub *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expiring = append(m.Expiring, sub.ID)
}

func (m *MockNotifier) NotifyExpired(ctx context.Context, sub *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expired = append(m.Expired, sub.ID)
}

// =============================
// Repositories
// =============================

// ---- Mock GuildSettingsRepository ----

type MockGuildSettingsRepo struct {
	mu    sync.Mutex
	store map[string]*model.GuildSettings

	UpsertFunc      func(ctx context.Context, tx repository.Tx, s *model.GuildSettings) error
	FindByGuildFunc func(ctx context.Context, tx repository.Tx, guildID string) (*model.GuildSettings, error)
}

var _ repository.GuildSettingsRepository = (*MockGuildSettingsRepo)(nil)

func NewMockGuildSettingsRepo() *MockGuildSettingsRepo {
	return &MockGuildSettingsRepo{store: map[string]*model.GuildSettings{}}
}

func (r *MockGuildSettingsRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.GuildSettings) error {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.store[s.GuildID] = &cp
	return nil
}

func (r *MockGuildSettingsRepo) FindByGuild(ctx context.Context, tx repository.Tx, guildID string) (*model.GuildSettings, error) {
	if r.FindByGuildFunc != nil {
		return r.FindByGuildFunc(ctx, tx, guildID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store[guildID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// ---- Mock ProfileRepository ----

type MockProfileRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentProfile

	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.PaymentProfile) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.PaymentProfile, error)
	DeleteFunc   func(ctx context.Context, tx repository.Tx, id string) error
}

var _ repository.ProfileRepository = (*MockProfileRepo)(nil)

func NewMockProfileRepo() *MockProfileRepo {
	return &MockProfileRepo{store: map[string]*model.PaymentProfile{}}
}

func (r *MockProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentProfile) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.store[p.ID] = &cp
	return nil
}

func (r *MockProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentProfile, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockProfileRepo) FindByName(ctx context.Context, tx repository.Tx, guildID, name string) (*model.PaymentProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.store {
		if p.GuildID == guildID && strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockProfileRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.PaymentProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentProfile
	for _, p := range r.store {
		if p.GuildID == guildID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockProfileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if r.DeleteFunc != nil {
		return r.DeleteFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// ---- Mock SessionRepository ----

type MockSessionRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentSession

	SaveFunc         func(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error
	UpdateStatusFunc func(ctx context.Context, tx repository.Tx, id, status string, payload map[string]any, checkedAt time.Time) error

	Touched []string
	Deleted []string
}

var _ repository.SessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{store: map[string]*model.PaymentSession{}}
}

func (r *MockSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, old := range r.store {
		if old.ID != s.ID && old.GatewayID == s.GatewayID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	r.store[s.ID] = &cp
	return nil
}

func (r *MockSessionRepo) ListActive(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.PaymentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentSession
	for _, s := range r.store {
		if !s.ExpiresAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSessionRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.PaymentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentSession
	for _, s := range r.store {
		if s.GuildID == guildID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSessionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id, status string, payload map[string]any, checkedAt time.Time) error {
	if r.UpdateStatusFunc != nil {
		return r.UpdateStatusFunc(ctx, tx, id, status, payload, checkedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.LastStatus = status
	s.LastPayload = payload
	s.LastCheckedAt = &checkedAt
	return nil
}

func (r *MockSessionRepo) Touch(ctx context.Context, tx repository.Tx, id string, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Touched = append(r.Touched, id)
	if s, ok := r.store[id]; ok {
		s.LastCheckedAt = &checkedAt
	}
	return nil
}

func (r *MockSessionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deleted = append(r.Deleted, id)
	delete(r.store, id)
	return nil
}

func (r *MockSessionRepo) Get(id string) *model.PaymentSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.store[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription

	UpsertFunc       func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	MarkNotifiedFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) error

	Deleted []string
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.Subscription{}}
}

func (r *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, old := range r.store {
		if old.GuildID == s.GuildID && old.UserID == s.UserID && old.ProfileID == s.ProfileID {
			delete(r.store, id)
		}
	}
	cp := *s
	cp.LastNotifiedAt = nil
	r.store[s.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, now time.Time, window, debounce time.Duration) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.store {
		if s.ExpiresAt.After(now) && !s.ExpiresAt.After(now.Add(window)) {
			if s.LastNotifiedAt == nil || !s.LastNotifiedAt.After(now.Add(-debounce)) {
				cp := *s
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.store {
		if !s.ExpiresAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) MarkNotified(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	if r.MarkNotifiedFunc != nil {
		return r.MarkNotifiedFunc(ctx, tx, id, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := at
	s.LastNotifiedAt = &cp
	return nil
}

func (r *MockSubscriptionRepo) ListByProfile(ctx context.Context, tx repository.Tx, profileID string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.store {
		if s.ProfileID == profileID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.store {
		if s.GuildID == guildID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deleted = append(r.Deleted, id)
	delete(r.store, id)
	return nil
}

func (r *MockSubscriptionRepo) Get(id string) *model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.store[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the callback immediately with NoTX unless a custom WithTxFunc
// is installed.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
