package platform

import "context"

// Event is one inbound platform event. The concrete types below form a closed set;
// dispatchers switch on them exhaustively.
type Event interface {
	eventKind() string
}

// Kind returns a short label for ev, used in logs and metrics.
func Kind(ev Event) string { return ev.eventKind() }

// User is the actor behind an event.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Bot         bool
}

// Tag returns the name shown in audit footers.
func (u User) Tag() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Member is a user in the context of a guild.
type Member struct {
	GuildID string
	User    User
	RoleIDs []string
}

// HasRole reports whether the member holds roleID.
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// Option is a resolved command option value.
type Option struct {
	Name    string
	Value   string
	Focused bool
}

// Interaction carries the fields shared by command, autocomplete and button events.
type Interaction struct {
	ID          string
	GuildID     string
	ChannelID   string
	Locale      string
	GuildLocale string
	User        User
	// Member is nil outside guilds.
	Member *Member
	// AppPermissions are the bot's permissions in the channel the interaction came from.
	AppPermissions Permission
	Responder      Responder
}

// InGuild reports whether the interaction was sent from a guild channel.
func (i *Interaction) InGuild() bool { return i.GuildID != "" }

// CommandEvent is a slash-command invocation.
type CommandEvent struct {
	Interaction
	Name            string
	SubcommandGroup string
	Subcommand      string
	Options         []Option
}

// Option returns the named option value, or "" when absent.
func (e *CommandEvent) Option(name string) string {
	for _, o := range e.Options {
		if o.Name == name {
			return o.Value
		}
	}
	return ""
}

// AutocompleteEvent asks for option suggestions while a user types a command.
type AutocompleteEvent struct {
	Interaction
	Name            string
	SubcommandGroup string
	Subcommand      string
	Focused         Option
}

// ButtonEvent is a press on a message component button.
type ButtonEvent struct {
	Interaction
	CustomID string
	Message  *Message
}

// MessageEvent is a plain message in a guild channel or a direct message.
type MessageEvent struct {
	ID          string
	ChannelID   string
	GuildID     string
	Author      User
	Content     string
	Attachments []Attachment
	// Reply answers the message in its channel.
	Reply func(ctx context.Context, msg MessageSend) error
}

// IsDirect reports whether the message was sent in a DM channel.
func (e *MessageEvent) IsDirect() bool { return e.GuildID == "" }

// MemberJoinEvent fires when a user joins a guild.
type MemberJoinEvent struct {
	GuildID string
	User    User
}

func (*CommandEvent) eventKind() string      { return "command" }
func (*AutocompleteEvent) eventKind() string { return "autocomplete" }
func (*ButtonEvent) eventKind() string       { return "button" }
func (*MessageEvent) eventKind() string      { return "message" }
func (*MemberJoinEvent) eventKind() string   { return "member_join" }
