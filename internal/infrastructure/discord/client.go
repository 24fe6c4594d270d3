// Package discord adapts github.com/bwmarrin/discordgo to the platform contracts.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
)

// Intents requested on the gateway connection.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentMessageContent

// Dispatcher receives translated platform events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev platform.Event)
}

// Client implements platform.Client on a discordgo session.
type Client struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// New creates a session for the bot token. Call Open to connect.
func New(token string, logger *zap.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true
	return &Client{session: s, logger: logger}, nil
}

// Session exposes the underlying session for command registration.
func (c *Client) Session() *discordgo.Session { return c.session }

func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (c *Client) Close() error { return c.session.Close() }

// OnReady runs fn once the gateway session is ready.
func (c *Client) OnReady(fn func(userTag string, guilds int)) {
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		fn(r.User.Username, len(r.Guilds))
	})
}

// Bind translates gateway events and hands them to d. discordgo runs each
// handler call on its own goroutine.
func (c *Client) Bind(ctx context.Context, d Dispatcher) {
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if ev := translateInteraction(s, i.Interaction); ev != nil {
			d.Dispatch(ctx, ev)
		}
	})
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		d.Dispatch(ctx, translateMessage(s, m.Message))
	})
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.Member == nil || m.User == nil {
			return
		}
		d.Dispatch(ctx, &platform.MemberJoinEvent{GuildID: m.GuildID, User: toUser(m.User)})
	})
}

func (c *Client) SelfID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) GuildIDs() []string {
	st := c.session.State
	if st == nil {
		return nil
	}
	st.RLock()
	defer st.RUnlock()
	ids := make([]string, 0, len(st.Guilds))
	for _, g := range st.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func (c *Client) GuildName(guildID string) string {
	if c.session.State == nil {
		return guildID
	}
	g, err := c.session.State.Guild(guildID)
	if err != nil || g.Name == "" {
		return guildID
	}
	return g.Name
}

func (c *Client) Latency() int64 {
	d := c.session.HeartbeatLatency()
	if d <= 0 {
		return -1
	}
	return d.Milliseconds()
}

func (c *Client) SendMessage(ctx context.Context, channelID string, msg platform.MessageSend) (string, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", wrapErr(err)
	}
	return m.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg platform.MessageSend) error {
	_, err := c.session.ChannelMessageEditComplex(toMessageEdit(channelID, messageID, msg), discordgo.WithContext(ctx))
	return wrapErr(err)
}

func (c *Client) SendDirectMessage(ctx context.Context, userID string, msg platform.MessageSend) error {
	ch, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr(err)
	}
	_, err = c.SendMessage(ctx, ch.ID, msg)
	return err
}

func (c *Client) FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	m, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err)
	}
	return toMember(guildID, m), nil
}

func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	return wrapErr(c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func translateInteraction(api interactionAPI, i *discordgo.Interaction) platform.Event {
	in := platform.Interaction{
		ID:             i.ID,
		GuildID:        i.GuildID,
		ChannelID:      i.ChannelID,
		Locale:         string(i.Locale),
		AppPermissions: platform.Permission(i.AppPermissions),
		Responder:      newResponder(api, i),
	}
	if i.GuildLocale != nil {
		in.GuildLocale = string(*i.GuildLocale)
	}
	switch {
	case i.Member != nil:
		in.Member = toMember(i.GuildID, i.Member)
		in.User = in.Member.User
	case i.User != nil:
		in.User = toUser(i.User)
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		group, sub, opts := commandPath(data.Options)
		return &platform.CommandEvent{Interaction: in, Name: data.Name, SubcommandGroup: group, Subcommand: sub, Options: opts}
	case discordgo.InteractionApplicationCommandAutocomplete:
		data := i.ApplicationCommandData()
		group, sub, opts := commandPath(data.Options)
		ev := &platform.AutocompleteEvent{Interaction: in, Name: data.Name, SubcommandGroup: group, Subcommand: sub}
		for _, o := range opts {
			if o.Focused {
				ev.Focused = o
			}
		}
		return ev
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		return &platform.ButtonEvent{Interaction: in, CustomID: data.CustomID, Message: fromMessage(i.Message)}
	default:
		return nil
	}
}

// messageAPI is the part of *discordgo.Session used to reply to plain messages.
type messageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func translateMessage(api messageAPI, m *discordgo.Message) *platform.MessageEvent {
	ev := &platform.MessageEvent{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		Author:      toUser(m.Author),
		Content:     m.Content,
		Attachments: toAttachments(m.Attachments),
	}
	ref := m.Reference()
	ev.Reply = func(ctx context.Context, msg platform.MessageSend) error {
		send := toMessageSend(msg)
		send.Reference = ref
		_, err := api.ChannelMessageSendComplex(m.ChannelID, send, discordgo.WithContext(ctx))
		return wrapErr(err)
	}
	return ev
}
