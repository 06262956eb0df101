package discord

import (
	"context"
	"log"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
)

var _ adapter.ChatAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.ChatAdapter for local/dev runs. Every
// member and role exists; actions are logged instead of hitting Discord.
type NoopBotAdapter struct{}

func NewNoopBotAdapter() *NoopBotAdapter {
	return &NoopBotAdapter{}
}

func (b *NoopBotAdapter) RoleExists(ctx context.Context, guildID, roleID string) bool { return true }

func (b *NoopBotAdapter) MemberExists(ctx context.Context, guildID, userID string) bool { return true }

func (b *NoopBotAdapter) GuildName(ctx context.Context, guildID string) string {
	return "noop-guild-" + guildID
}

func (b *NoopBotAdapter) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	log.Printf("[noop-discord] grant role %s to %s in %s (%s)", roleID, userID, guildID, reason)
	return nil
}

func (b *NoopBotAdapter) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	log.Printf("[noop-discord] revoke role %s from %s in %s (%s)", roleID, userID, guildID, reason)
	return nil
}

func (b *NoopBotAdapter) SendDirectMessage(ctx context.Context, userID, title, message string) error {
	log.Printf("[noop-discord] DM %s: %s - %s", userID, title, message)
	return nil
}
