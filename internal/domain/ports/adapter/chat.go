package adapter

import "context"

// ChatAdapter is the capability contract consumed from the chat platform:
// resolve roles and members, grant/revoke a role, send a direct notification.
// Presentation (embeds, commands) stays behind the implementation.
type ChatAdapter interface {
	RoleExists(ctx context.Context, guildID, roleID string) bool
	MemberExists(ctx context.Context, guildID, userID string) bool
	GuildName(ctx context.Context, guildID string) string

	GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error

	// SendDirectMessage notifies a user out-of-band. Failure (closed DMs,
	// unknown user) must be treated by callers as non-fatal.
	SendDirectMessage(ctx context.Context, userID, title, message string) error
}
