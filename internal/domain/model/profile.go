package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
)

// Parameter keys the service maintains inside the profile parameter map for
// bookkeeping. They are mirrored for webhook consumers and never forwarded to
// the gateway.
const (
	ParamRoleID       = "discord_role_id"
	ParamDurationDays = "duration_days"
	ParamWebhook      = "webhook"
	ParamDonation     = "donation"
)

// PaymentProfile is a named, reusable payment template scoped to a guild.
// Names are unique per guild ignoring case.
type PaymentProfile struct {
	ID           string
	GuildID      string
	Name         string
	RoleID       string // empty when the profile grants no role
	DurationDays int    // 0 when the profile grants no subscription
	Parameters   map[string]any
	DonationMode bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPaymentProfile builds a profile and mirrors the role/duration into the
// parameter map so webhook consumers can see them.
func NewPaymentProfile(id, guildID, name, roleID string, durationDays int, parameters map[string]any) (*PaymentProfile, error) {
	if id == "" || guildID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if parameters == nil {
		parameters = make(map[string]any)
	}
	donation := false
	if v, ok := parameters[ParamDonation].(bool); ok {
		donation = v
	}
	if roleID != "" {
		parameters[ParamRoleID] = roleID
	}
	if durationDays > 0 {
		parameters[ParamDurationDays] = durationDays
	}
	now := time.Now().UTC()
	return &PaymentProfile{
		ID:           id,
		GuildID:      guildID,
		Name:         name,
		RoleID:       roleID,
		DurationDays: durationDays,
		Parameters:   parameters,
		DonationMode: donation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckoutParameters returns the stored parameters ready for a gateway
// request: bookkeeping keys stripped, nils dropped, booleans rendered as
// lowercase strings (the gateway takes query parameters, not JSON).
func (p *PaymentProfile) CheckoutParameters() map[string]string {
	out := make(map[string]string, len(p.Parameters))
	for key, value := range p.Parameters {
		if key == ParamRoleID || key == ParamDurationDays {
			continue
		}
		if value == nil {
			continue
		}
		switch v := value.(type) {
		case bool:
			out[key] = strconv.FormatBool(v)
		case string:
			out[key] = v
		case int:
			out[key] = strconv.Itoa(v)
		case int64:
			out[key] = strconv.FormatInt(v, 10)
		case float64:
			out[key] = strconv.FormatFloat(v, 'g', 12, 64)
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// WebhookURL returns the profile-level webhook target, if configured.
func (p *PaymentProfile) WebhookURL() string {
	if v, ok := p.Parameters[ParamWebhook].(string); ok {
		return v
	}
	return ""
}
