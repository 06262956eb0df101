// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase owns the checkout lifecycle: creating sessions against the
// gateway and reconciling in-flight sessions to a terminal outcome.
type SessionUseCase interface {
	// Start merges profile and guild parameters, creates a checkout at the
	// gateway and persists the tracking session.
	Start(ctx context.Context, userID string, profile *model.PaymentProfile, settings *model.GuildSettings) (*model.PaymentSession, error)
	// ReconcilePass runs one full poll cycle over every active session and
	// returns how many sessions it processed. Per-session failures are logged
	// and skipped; only listing failures abort the pass.
	ReconcilePass(ctx context.Context) (int, error)
	// List returns every tracked session for a guild.
	List(ctx context.Context, guildID string) ([]*model.PaymentSession, error)
}

type sessionUC struct {
	sessions   repository.SessionRepository
	gateway    adapter.PaymentGateway
	dispatcher NotificationUseCase
	ttl        time.Duration
	log        *zerolog.Logger
}

func NewSessionUseCase(
	sessions repository.SessionRepository,
	gateway adapter.PaymentGateway,
	dispatcher NotificationUseCase,
	sessionTTL time.Duration,
	logger *zerolog.Logger,
) *sessionUC {
	l := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{
		sessions:   sessions,
		gateway:    gateway,
		dispatcher: dispatcher,
		ttl:        sessionTTL,
		log:        &l,
	}
}

func (s *sessionUC) Start(ctx context.Context, userID string, profile *model.PaymentProfile, settings *model.GuildSettings) (*model.PaymentSession, error) {
	if userID == "" || profile == nil {
		return nil, domain.ErrInvalidArgument
	}
	if settings == nil {
		return nil, domain.ErrGuildNotConfigured
	}

	params := buildCheckoutParams(profile, settings)

	resp, err := s.gateway.CreateCheckout(ctx, params)
	if err != nil {
		metrics.IncGatewayError("create_checkout")
		return nil, err
	}
	if resp.ID == "" || resp.StatusURL == "" || resp.CheckoutURL == "" {
		metrics.IncGatewayError("create_checkout")
		return nil, domain.NewGatewayError("create_checkout", 0, errors.New("checkout response missing id or urls"))
	}

	status := strings.ToLower(resp.Status)
	if status == "" {
		status = model.StatusWaiting
	}

	now := time.Now().UTC()
	session := &model.PaymentSession{
		ID:            ulid.Make().String(),
		GuildID:       profile.GuildID,
		UserID:        userID,
		ProfileID:     profile.ID,
		GatewayID:     resp.ID,
		Status:        status,
		StatusURL:     resp.StatusURL,
		CheckoutURL:   resp.CheckoutURL,
		WebhookURL:    profile.WebhookURL(),
		ExpiresAt:     now.Add(s.ttl),
		CreatedAt:     now,
		LastCheckedAt: &now,
		LastStatus:    status,
		LastPayload:   resp.Raw,
	}
	if err := s.sessions.Save(ctx, repository.NoTX, session); err != nil {
		return nil, err
	}
	metrics.IncSessionCreated()
	s.log.Info().
		Str("session_id", session.ID).
		Str("guild_id", session.GuildID).
		Str("user_id", userID).
		Str("profile", profile.Name).
		Msg("checkout session started")
	return session, nil
}

// buildCheckoutParams layers the request parameters for the gateway. Guild
// payout settings are authoritative and win over anything the profile stored.
func buildCheckoutParams(profile *model.PaymentProfile, settings *model.GuildSettings) map[string]string {
	params := map[string]string{"direct": "false"}
	for k, v := range profile.CheckoutParameters() {
		params[k] = v
	}
	params["address"] = settings.PayoutAddress
	params["ticker_to"] = settings.TickerTo
	params["network_to"] = settings.NetworkTo
	return params
}

func (s *sessionUC) List(ctx context.Context, guildID string) ([]*model.PaymentSession, error) {
	if guildID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return s.sessions.ListByGuild(ctx, repository.NoTX, guildID)
}

func (s *sessionUC) ReconcilePass(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	// Sessions older than twice the TTL are abandoned rows from a previous
	// crash; leave them out of the working set.
	cutoff := now.Add(-2 * s.ttl)

	active, err := s.sessions.ListActive(ctx, repository.NoTX, cutoff)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, session := range active {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		s.reconcileOne(ctx, session, now)
		processed++
	}
	return processed, nil
}

func (s *sessionUC) reconcileOne(ctx context.Context, session *model.PaymentSession, now time.Time) {
	// Local expiry check comes first so a dead gateway cannot keep lapsed
	// sessions alive forever.
	if session.LocallyExpired(now) && !session.Terminal() {
		if err := s.sessions.Delete(ctx, repository.NoTX, session.ID); err != nil {
			s.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to delete expired session")
			return
		}
		metrics.IncSessionExpiredLocally()
		s.log.Info().Str("session_id", session.ID).Msg("session expired locally")
		s.dispatcher.NotifyLocalExpiry(ctx, session)
		return
	}

	payload, err := s.gateway.FetchStatus(ctx, session.StatusURL)
	if err != nil {
		metrics.IncGatewayError("fetch_status")
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("status poll failed, will retry")
		return
	}
	metrics.IncSessionPolled()

	previous := strings.ToLower(session.Status)
	status := previous
	if v, ok := payload["status"].(string); ok && strings.TrimSpace(v) != "" {
		status = strings.ToLower(strings.TrimSpace(v))
	}

	checkedAt := time.Now().UTC()
	if status != previous {
		if err := s.sessions.UpdateStatus(ctx, repository.NoTX, session.ID, status, payload, checkedAt); err != nil {
			s.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to persist status change")
			return
		}
		session.Status = status
		session.LastStatus = status
		session.LastPayload = payload
		session.LastCheckedAt = &checkedAt
		metrics.IncSessionTransition(status)
		s.log.Info().
			Str("session_id", session.ID).
			Str("from", previous).
			Str("to", status).
			Msg("session status changed")
		// The handler runs before deletion so a crash in between re-runs the
		// handler rather than silently dropping the transition.
		s.dispatcher.HandleStatusChange(ctx, session, status, payload)
	} else if err := s.sessions.Touch(ctx, repository.NoTX, session.ID, checkedAt); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record poll time")
	}

	if model.IsTerminalStatus(status) {
		if err := s.sessions.Delete(ctx, repository.NoTX, session.ID); err != nil {
			s.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to delete terminal session")
		}
	}
}
