//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

func TestGuildSettingsUseCase_ConfigureFromURL(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should extract and normalize payout params from a checkout url", func(t *testing.T) {
		repo := NewMockGuildSettingsRepo()
		uc := usecase.NewGuildSettingsUseCase(repo, testLogger)

		gs, err := uc.ConfigureFromURL(ctx, "guild-1",
			"https://trocador.app/anonpay?address=addr-xyz&ticker_to=xmr&network_to=mainnet&amount=5")

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if gs.PayoutAddress != "addr-xyz" {
			t.Errorf("unexpected address %q", gs.PayoutAddress)
		}
		if gs.TickerTo != "XMR" || gs.NetworkTo != "MAINNET" {
			t.Errorf("expected uppercased ticker/network, got %q/%q", gs.TickerTo, gs.NetworkTo)
		}

		stored, err := repo.FindByGuild(ctx, nil, "guild-1")
		if err != nil || stored.PayoutAddress != "addr-xyz" {
			t.Errorf("expected the settings persisted, got %v (%v)", stored, err)
		}
	})

	t.Run("should reject a url missing a payout parameter", func(t *testing.T) {
		uc := usecase.NewGuildSettingsUseCase(NewMockGuildSettingsRepo(), testLogger)

		_, err := uc.ConfigureFromURL(ctx, "guild-1",
			"https://trocador.app/anonpay?address=addr-xyz&ticker_to=xmr")

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("should reject a non-http url", func(t *testing.T) {
		uc := usecase.NewGuildSettingsUseCase(NewMockGuildSettingsRepo(), testLogger)

		_, err := uc.ConfigureFromURL(ctx, "guild-1", "ftp://example.com?address=a&ticker_to=b&network_to=c")

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestGuildSettingsUseCase_Configure(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should overwrite the full row on reconfiguration", func(t *testing.T) {
		repo := NewMockGuildSettingsRepo()
		uc := usecase.NewGuildSettingsUseCase(repo, testLogger)

		if _, err := uc.Configure(ctx, "guild-1", "addr-a", "xmr", "mainnet"); err != nil {
			t.Fatalf("first configure: %v", err)
		}
		if _, err := uc.Configure(ctx, "guild-1", "addr-b", "btc", "lightning"); err != nil {
			t.Fatalf("second configure: %v", err)
		}

		gs, err := uc.Get(ctx, "guild-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if gs.PayoutAddress != "addr-b" || gs.TickerTo != "BTC" {
			t.Errorf("expected the second configuration to win, got %+v", gs)
		}
	})

	t.Run("should reject blank fields", func(t *testing.T) {
		uc := usecase.NewGuildSettingsUseCase(NewMockGuildSettingsRepo(), testLogger)

		if _, err := uc.Configure(ctx, "guild-1", "", "xmr", "mainnet"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}
