package model

import (
	"strings"
	"time"
)

// Gateway-reported checkout statuses. The vocabulary is open; only the
// terminal subset is fixed.
const (
	StatusWaiting       = "waiting"
	StatusFinished      = "finished"
	StatusPaidPartially = "paid partially"
	StatusFailed        = "failed"
	StatusExpired       = "expired"
	StatusHalted        = "halted"
	StatusRefunded      = "refunded"
)

var terminalStatuses = map[string]struct{}{
	StatusFinished:      {},
	StatusPaidPartially: {},
	StatusFailed:        {},
	StatusExpired:       {},
	StatusHalted:        {},
	StatusRefunded:      {},
}

// IsTerminalStatus reports whether a gateway status retires the session.
// Comparison ignores case; the gateway is not consistent about it.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[strings.ToLower(status)]
	return ok
}

// PaymentSession is one in-flight checkout attempt. Exactly one row exists
// per gateway reference id; the row is deleted once the status is terminal or
// the local expiry passes.
type PaymentSession struct {
	ID            string // ULID
	GuildID       string
	UserID        string
	ProfileID     string
	GatewayID     string // gateway-assigned reference id
	Status        string
	StatusURL     string
	CheckoutURL   string
	WebhookURL    string // empty when the profile configured none
	ExpiresAt     time.Time
	CreatedAt     time.Time
	LastCheckedAt *time.Time
	LastStatus    string
	LastPayload   map[string]any
}

// LocallyExpired reports whether the session passed its local deadline.
func (s *PaymentSession) LocallyExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// Terminal reports whether the session's current status retires it.
func (s *PaymentSession) Terminal() bool {
	return IsTerminalStatus(s.Status)
}
