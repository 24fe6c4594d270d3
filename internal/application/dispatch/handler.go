package dispatch

import (
	"context"

	"github.com/go-verify-bot/internal/platform"
)

// DeferMode is how an interaction is acknowledged before its handler runs.
type DeferMode int

const (
	// DeferNone sends no acknowledgment; the handler must answer within the platform window.
	DeferNone DeferMode = iota
	// DeferPublic shows a visible "thinking" state.
	DeferPublic
	// DeferHidden shows an ephemeral "thinking" state.
	DeferHidden
	// DeferUpdate acknowledges a component and promises an edit of its message.
	DeferUpdate
)

func (m DeferMode) String() string {
	switch m {
	case DeferPublic:
		return "public"
	case DeferHidden:
		return "hidden"
	case DeferUpdate:
		return "update"
	default:
		return "none"
	}
}

// DefaultLocale is used when neither the user nor the guild reports one.
const DefaultLocale = "es-419"

// EventData is the per-invocation context handed to handlers.
type EventData struct {
	Locale      string
	GuildLocale string
	UserID      string
	GuildID     string
	ChannelID   string
}

// CommandMeta declares how a command is matched and guarded.
// Each name is a space-separated command path such as "verification" or "verification setup".
type CommandMeta struct {
	Names []string
	Defer DeferMode
	Requirements
}

type Command interface {
	Meta() CommandMeta
	Execute(ctx context.Context, ev *platform.CommandEvent, data EventData) error
}

// Autocompleter is implemented by commands that offer option suggestions.
type Autocompleter interface {
	Autocomplete(ctx context.Context, ev *platform.AutocompleteEvent, focused platform.Option) ([]platform.Choice, error)
}

// ButtonMeta declares the custom ids a button handler owns.
type ButtonMeta struct {
	IDs   []string
	Defer DeferMode
	Requirements
}

type Button interface {
	Meta() ButtonMeta
	Execute(ctx context.Context, ev *platform.ButtonEvent, data EventData) error
}

// Trigger reacts to plain messages matching a predicate.
type Trigger interface {
	RequireGuild() bool
	Triggered(ev *platform.MessageEvent) bool
	Execute(ctx context.Context, ev *platform.MessageEvent, data EventData) error
}

// MessageHandler sees every non-bot message before triggers run.
type MessageHandler interface {
	HandleMessage(ctx context.Context, ev *platform.MessageEvent) error
}

// JoinHandler sees every non-bot member join.
type JoinHandler interface {
	HandleJoin(ctx context.Context, ev *platform.MemberJoinEvent) error
}

func newEventData(in *platform.Interaction) EventData {
	guildLocale := in.GuildLocale
	if guildLocale == "" {
		guildLocale = DefaultLocale
	}
	locale := in.Locale
	if locale == "" {
		locale = guildLocale
	}
	return EventData{
		Locale:      locale,
		GuildLocale: guildLocale,
		UserID:      in.User.ID,
		GuildID:     in.GuildID,
		ChannelID:   in.ChannelID,
	}
}

func messageEventData(ev *platform.MessageEvent) EventData {
	return EventData{
		Locale:      DefaultLocale,
		GuildLocale: DefaultLocale,
		UserID:      ev.Author.ID,
		GuildID:     ev.GuildID,
		ChannelID:   ev.ChannelID,
	}
}
