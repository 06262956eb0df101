// File: internal/infra/adapters/discord/real_bot.go
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
)

var _ adapter.ChatAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter implements adapter.ChatAdapter on a live Discord gateway
// session. Lookups hit the session state cache first and fall back to the
// REST API, so a cold cache never makes a member look absent.
type RealBotAdapter struct {
	session *discordgo.Session
	log     *zerolog.Logger
}

func NewRealBotAdapter(token string, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMembers

	botLog := logger.With().Str("component", "DiscordBot").Logger()
	return &RealBotAdapter{session: session, log: &botLog}, nil
}

// Open connects the gateway session. Must be called before any lookup.
func (b *RealBotAdapter) Open() error { return b.session.Open() }

func (b *RealBotAdapter) Close() error { return b.session.Close() }

func (b *RealBotAdapter) RoleExists(ctx context.Context, guildID, roleID string) bool {
	if _, err := b.session.State.Role(guildID, roleID); err == nil {
		return true
	}
	roles, err := b.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		b.log.Debug().Err(err).Str("guild_id", guildID).Msg("role lookup failed")
		return false
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func (b *RealBotAdapter) MemberExists(ctx context.Context, guildID, userID string) bool {
	if _, err := b.session.State.Member(guildID, userID); err == nil {
		return true
	}
	_, err := b.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	return err == nil
}

func (b *RealBotAdapter) GuildName(ctx context.Context, guildID string) string {
	if guild, err := b.session.State.Guild(guildID); err == nil {
		return guild.Name
	}
	guild, err := b.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		b.log.Debug().Err(err).Str("guild_id", guildID).Msg("guild lookup failed")
		return ""
	}
	return guild.Name
}

func (b *RealBotAdapter) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return b.session.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (b *RealBotAdapter) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return b.session.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (b *RealBotAdapter) SendDirectMessage(ctx context.Context, userID, title, message string) error {
	channel, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       0x5865F2,
	}
	if _, err := b.session.ChannelMessageSendEmbed(channel.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}
