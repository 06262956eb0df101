// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase dispatches the side effects of lifecycle events:
// outbound webhooks, role grants, subscription upserts and direct messages.
// Every side effect is best-effort; methods log failures and keep going so a
// broken webhook target can never wedge the reconcile loop.
type NotificationUseCase interface {
	// HandleStatusChange runs the full transition pipeline for a session whose
	// gateway status just changed: session webhook first, then the
	// status-specific effects.
	HandleStatusChange(ctx context.Context, session *model.PaymentSession, newStatus string, payload map[string]any)
	// NotifyLocalExpiry tells the user their checkout lapsed before completion.
	NotifyLocalExpiry(ctx context.Context, session *model.PaymentSession)
	// NotifyExpiring posts the expiring-soon webhook for a subscription.
	NotifyExpiring(ctx context.Context, sub *model.Subscription)
	// NotifyExpired posts the expired webhook for a subscription.
	NotifyExpired(ctx context.Context, sub *model.Subscription)
}

type notificationUC struct {
	gateway  adapter.PaymentGateway
	chat     adapter.ChatAdapter
	profiles repository.ProfileRepository
	subs     repository.SubscriptionRepository
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	gateway adapter.PaymentGateway,
	chat adapter.ChatAdapter,
	profiles repository.ProfileRepository,
	subs repository.SubscriptionRepository,
	logger *zerolog.Logger,
) *notificationUC {
	l := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{
		gateway:  gateway,
		chat:     chat,
		profiles: profiles,
		subs:     subs,
		log:      &l,
	}
}

func (n *notificationUC) HandleStatusChange(ctx context.Context, session *model.PaymentSession, newStatus string, payload map[string]any) {
	if session.WebhookURL != "" {
		n.postWebhook(ctx, "status_change", session.WebhookURL, withUser(payload, session.UserID))
	}

	// The profile may have been deleted while the session was in flight; role
	// and subscription effects are skipped, the webhook above already went out.
	profile, err := n.profiles.FindByID(ctx, repository.NoTX, session.ProfileID)
	if err != nil {
		n.log.Warn().Err(err).
			Str("session_id", session.ID).
			Str("profile_id", session.ProfileID).
			Msg("profile unavailable during status change")
		profile = nil
	}

	switch newStatus {
	case model.StatusFinished:
		n.handleFinished(ctx, session, profile, payload)
	case model.StatusPaidPartially:
		n.dm(ctx, session.UserID, "Payment Incomplete",
			"Your payment was only partially received. Contact the server staff to resolve it.")
	case model.StatusFailed, model.StatusExpired, model.StatusHalted, model.StatusRefunded:
		n.dm(ctx, session.UserID, "Payment Update",
			fmt.Sprintf("Your payment session ended with status %q.", newStatus))
	}
}

// handleFinished grants the role, upserts the subscription and posts the
// activation webhook. The role grant happens even for profiles without a
// duration; only the subscription row needs one.
func (n *notificationUC) handleFinished(ctx context.Context, session *model.PaymentSession, profile *model.PaymentProfile, payload map[string]any) {
	if profile == nil {
		return
	}

	if profile.RoleID != "" &&
		n.chat.RoleExists(ctx, session.GuildID, profile.RoleID) &&
		n.chat.MemberExists(ctx, session.GuildID, session.UserID) {
		if err := n.chat.GrantRole(ctx, session.GuildID, session.UserID, profile.RoleID, "payment finished: "+profile.Name); err != nil {
			n.log.Error().Err(err).
				Str("guild_id", session.GuildID).
				Str("user_id", session.UserID).
				Str("role_id", profile.RoleID).
				Msg("failed to grant role")
		}
	}

	webhookURL := session.WebhookURL
	if webhookURL == "" {
		webhookURL = profile.WebhookURL()
	}

	if profile.DurationDays > 0 {
		sub, err := model.NewSubscription(
			uuid.NewString(), session.GuildID, session.UserID,
			profile.ID, profile.RoleID, profile.DurationDays, webhookURL,
		)
		if err != nil {
			n.log.Error().Err(err).Str("profile_id", profile.ID).Msg("failed to build subscription")
		} else if err := n.subs.Upsert(ctx, repository.NoTX, sub); err != nil {
			n.log.Error().Err(err).
				Str("guild_id", sub.GuildID).
				Str("user_id", sub.UserID).
				Msg("failed to upsert subscription")
		} else {
			metrics.IncSubscriptionGranted()
			n.log.Info().
				Str("guild_id", sub.GuildID).
				Str("user_id", sub.UserID).
				Str("profile", profile.Name).
				Time("expires_at", sub.ExpiresAt).
				Msg("subscription granted")
		}
	}

	if webhookURL != "" {
		activation := withUser(payload, session.UserID)
		activation["subscription_active"] = true
		n.postWebhook(ctx, "subscription_activated", webhookURL, activation)
	}
}

func (n *notificationUC) NotifyLocalExpiry(ctx context.Context, session *model.PaymentSession) {
	if session.WebhookURL != "" {
		n.postWebhook(ctx, "session_expired", session.WebhookURL, map[string]any{
			"event":      "session_expired",
			"discord_id": session.UserID,
			"guild_id":   session.GuildID,
			"session_id": session.ID,
		})
	}
	n.dm(ctx, session.UserID, "Payment Expired",
		"Your payment session expired before completion. Start a new one if you still want to pay.")
}

func (n *notificationUC) NotifyExpiring(ctx context.Context, sub *model.Subscription) {
	if sub.WebhookURL == "" {
		return
	}
	n.postWebhook(ctx, "subscription_expiring", sub.WebhookURL, map[string]any{
		"event":        "subscription_expiring",
		"discord_id":   sub.UserID,
		"guild_id":     sub.GuildID,
		"payment_name": n.profileName(ctx, sub.ProfileID),
		"guild_name":   n.chat.GuildName(ctx, sub.GuildID),
		"expires_at":   sub.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (n *notificationUC) NotifyExpired(ctx context.Context, sub *model.Subscription) {
	if sub.WebhookURL == "" {
		return
	}
	n.postWebhook(ctx, "subscription_expired", sub.WebhookURL, map[string]any{
		"event":        "subscription_expired",
		"discord_id":   sub.UserID,
		"guild_id":     sub.GuildID,
		"payment_name": n.profileName(ctx, sub.ProfileID),
		"guild_name":   n.chat.GuildName(ctx, sub.GuildID),
		"expired_at":   sub.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (n *notificationUC) postWebhook(ctx context.Context, event, url string, payload map[string]any) {
	err := n.gateway.PostWebhook(ctx, url, payload)
	metrics.IncWebhookPosted(event, err == nil)
	if err != nil {
		n.log.Warn().Err(err).Str("event", event).Str("url", url).Msg("webhook delivery failed")
	}
}

func (n *notificationUC) dm(ctx context.Context, userID, title, message string) {
	if err := n.chat.SendDirectMessage(ctx, userID, title, message); err != nil {
		n.log.Debug().Err(err).Str("user_id", userID).Msg("direct message failed")
	}
}

func (n *notificationUC) profileName(ctx context.Context, profileID string) string {
	profile, err := n.profiles.FindByID(ctx, repository.NoTX, profileID)
	if err != nil || profile == nil {
		return "unknown"
	}
	return profile.Name
}

// withUser copies the payload and stamps the paying user's id into it.
func withUser(payload map[string]any, userID string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["discord_id"] = userID
	return out
}
