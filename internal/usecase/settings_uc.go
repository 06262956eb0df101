// File: internal/usecase/settings_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Compile-time check
var _ GuildSettingsUseCase = (*guildSettingsUC)(nil)

type GuildSettingsUseCase interface {
	// Configure overwrites the guild's payout settings in full.
	Configure(ctx context.Context, guildID, payoutAddress, tickerTo, networkTo string) (*model.GuildSettings, error)
	// ConfigureFromURL extracts address/ticker_to/network_to from a gateway
	// checkout URL and stores them.
	ConfigureFromURL(ctx context.Context, guildID, paymentURL string) (*model.GuildSettings, error)
	Get(ctx context.Context, guildID string) (*model.GuildSettings, error)
}

type guildSettingsUC struct {
	settings repository.GuildSettingsRepository
	log      *zerolog.Logger
}

func NewGuildSettingsUseCase(settings repository.GuildSettingsRepository, logger *zerolog.Logger) *guildSettingsUC {
	l := logger.With().Str("component", "GuildSettingsUC").Logger()
	return &guildSettingsUC{settings: settings, log: &l}
}

func (u *guildSettingsUC) Configure(ctx context.Context, guildID, payoutAddress, tickerTo, networkTo string) (*model.GuildSettings, error) {
	gs, err := model.NewGuildSettings(guildID, payoutAddress, tickerTo, networkTo)
	if err != nil {
		return nil, err
	}
	if err := u.settings.Upsert(ctx, repository.NoTX, gs); err != nil {
		return nil, err
	}
	u.log.Info().Str("guild_id", guildID).Str("ticker", gs.TickerTo).Str("network", gs.NetworkTo).Msg("guild payout settings saved")
	return gs, nil
}

func (u *guildSettingsUC) ConfigureFromURL(ctx context.Context, guildID, paymentURL string) (*model.GuildSettings, error) {
	address, ticker, network, err := parsePaymentURL(paymentURL)
	if err != nil {
		return nil, err
	}
	return u.Configure(ctx, guildID, address, ticker, network)
}

func (u *guildSettingsUC) Get(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	return u.settings.FindByGuild(ctx, repository.NoTX, guildID)
}

// parsePaymentURL pulls the payout parameters out of a gateway checkout URL
// produced by the provider's URL generator.
func parsePaymentURL(raw string) (address, ticker, network string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", "", fmt.Errorf("payment url is empty: %w", domain.ErrInvalidArgument)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("payment url: %w", domain.ErrInvalidArgument)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", "", "", fmt.Errorf("payment url must use http or https: %w", domain.ErrInvalidArgument)
	}
	q := parsed.Query()
	pick := func(name string) (string, error) {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return "", fmt.Errorf("payment url is missing %q: %w", name, domain.ErrInvalidArgument)
		}
		return v, nil
	}
	if address, err = pick("address"); err != nil {
		return "", "", "", err
	}
	if ticker, err = pick("ticker_to"); err != nil {
		return "", "", "", err
	}
	if network, err = pick("network_to"); err != nil {
		return "", "", "", err
	}
	return address, strings.ToUpper(ticker), strings.ToUpper(network), nil
}
