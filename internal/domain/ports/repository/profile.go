package repository

import (
	"context"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
)

// ProfileRepository is the port for payment templates. Name lookups ignore
// case; the store enforces (guild, name) uniqueness.
type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, profile *model.PaymentProfile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentProfile, error)
	FindByName(ctx context.Context, tx Tx, guildID, name string) (*model.PaymentProfile, error)
	ListByGuild(ctx context.Context, tx Tx, guildID string) ([]*model.PaymentProfile, error)
	// Delete removes the profile; sessions and subscriptions referencing it
	// are cascaded by the store.
	Delete(ctx context.Context, tx Tx, id string) error
}
