package model

import (
	"strings"
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
)

// GuildSettings holds a guild's payout configuration. One row per guild;
// reconfiguration overwrites the full row.
type GuildSettings struct {
	GuildID       string
	PayoutAddress string
	TickerTo      string
	NetworkTo     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewGuildSettings normalizes the coin ticker and network to upper case.
func NewGuildSettings(guildID, payoutAddress, tickerTo, networkTo string) (*GuildSettings, error) {
	if guildID == "" || payoutAddress == "" || tickerTo == "" || networkTo == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &GuildSettings{
		GuildID:       guildID,
		PayoutAddress: payoutAddress,
		TickerTo:      strings.ToUpper(tickerTo),
		NetworkTo:     strings.ToUpper(networkTo),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
