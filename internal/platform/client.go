package platform

import "context"

// Responder answers a single interaction. Implementations track whether the
// interaction was already acknowledged so Send picks reply vs follow-up.
type Responder interface {
	// Defer acknowledges with a "thinking" state, privately when hidden is true.
	Defer(ctx context.Context, hidden bool) error
	// DeferUpdate acknowledges a component interaction, promising to edit its message.
	DeferUpdate(ctx context.Context) error
	// Deferred reports whether an acknowledgment has been applied.
	Deferred() bool
	// Replied reports whether a response message has been sent.
	Replied() bool
	// Send replies to the interaction, or follows up when it was already acknowledged.
	Send(ctx context.Context, msg MessageSend, hidden bool) error
	// EditReply edits the original response.
	EditReply(ctx context.Context, msg MessageSend) error
	// Update edits the message a component interaction belongs to.
	Update(ctx context.Context, msg MessageSend) error
	// Respond answers an autocomplete request.
	Respond(ctx context.Context, choices []Choice) error
}

// Client is the outbound side of the platform connection.
type Client interface {
	// SelfID is the bot's own user id.
	SelfID() string
	// GuildIDs lists the guilds the bot is in.
	GuildIDs() []string
	// GuildName returns the cached guild name, or the id when unknown.
	GuildName(guildID string) string
	// Latency is the last measured gateway heartbeat latency in milliseconds, or -1.
	Latency() int64
	SendMessage(ctx context.Context, channelID string, msg MessageSend) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg MessageSend) error
	SendDirectMessage(ctx context.Context, userID string, msg MessageSend) error
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
}
