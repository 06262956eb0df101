package model

import (
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
)

// Subscription is a time-bound entitlement granted after a successful payment
// session. Unique per (guild, user, profile); re-granting overwrites the row
// and clears the notification marker.
type Subscription struct {
	ID             string // UUID
	GuildID        string
	UserID         string
	ProfileID      string
	RoleID         string // empty when no role is entitled
	ExpiresAt      time.Time
	CreatedAt      time.Time
	LastNotifiedAt *time.Time
	WebhookURL     string
}

// NewSubscription creates an entitlement expiring durationDays from now.
func NewSubscription(id, guildID, userID, profileID, roleID string, durationDays int, webhookURL string) (*Subscription, error) {
	if id == "" || guildID == "" || userID == "" || profileID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 {
		return nil, domain.ErrNoDuration
	}
	now := time.Now().UTC()
	return &Subscription{
		ID:         id,
		GuildID:    guildID,
		UserID:     userID,
		ProfileID:  profileID,
		RoleID:     roleID,
		ExpiresAt:  now.Add(time.Duration(durationDays) * 24 * time.Hour),
		CreatedAt:  now,
		WebhookURL: webhookURL,
	}, nil
}

// Expired reports whether the entitlement has lapsed at the reference time.
func (s *Subscription) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
