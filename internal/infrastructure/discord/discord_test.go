package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-verify-bot/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSession struct{ mock.Mock }

func (m *mockSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	return m.Called(i, resp).Error(0)
}

func (m *mockSession) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(i, wait, data)
	return &discordgo.Message{ID: "f1"}, args.Error(0)
}

func (m *mockSession) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(i, edit)
	return &discordgo.Message{ID: "e1"}, args.Error(0)
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	return &discordgo.Message{ID: "m1"}, args.Error(0)
}

func (m *mockSession) ApplicationCommands(appID, guildID string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID)
	cmds, _ := args.Get(0).([]*discordgo.ApplicationCommand)
	return cmds, args.Error(1)
}

func (m *mockSession) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, cmds)
	return cmds, args.Error(0)
}

func (m *mockSession) ApplicationCommandDelete(appID, guildID, cmdID string, _ ...discordgo.RequestOption) error {
	return m.Called(appID, guildID, cmdID).Error(0)
}

func restErr(code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "Unknown interaction"},
	}
}

// --- conversion ---

func TestWrapErr(t *testing.T) {
	err := wrapErr(restErr(platform.CodeUnknownInteraction))
	var pe *platform.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, platform.CodeUnknownInteraction, pe.Code)
	assert.True(t, platform.IsIgnorable(err))

	plain := errors.New("dial tcp: timeout")
	assert.Equal(t, plain, wrapErr(plain))
	assert.NoError(t, wrapErr(nil))
}

func TestToComponents(t *testing.T) {
	assert.Nil(t, toComponents(nil))
	assert.Equal(t, []discordgo.MessageComponent{}, toComponents([]platform.Button{}))

	got := toComponents([]platform.Button{{CustomID: "verify_approve", Label: "Approve", Style: platform.ButtonSuccess}})
	require.Len(t, got, 1)
	row := got[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 1)
	btn := row.Components[0].(discordgo.Button)
	assert.Equal(t, "verify_approve", btn.CustomID)
	assert.Equal(t, discordgo.SuccessButton, btn.Style)
}

func TestEmbedRoundTrip(t *testing.T) {
	in := platform.Embed{
		Title:       "t",
		Description: "**User:** a\n**ID:** 1",
		Color:       platform.ColorWarning,
		ImageURL:    "https://cdn/x.png",
		AuthorName:  "alice",
		Footer:      "f",
		Fields:      []platform.EmbedField{{Name: "n", Value: "v", Inline: true}},
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, in, fromEmbed(toEmbed(in)))
}

func TestCommandPath(t *testing.T) {
	group, sub, leaves := commandPath([]*discordgo.ApplicationCommandInteractionDataOption{{
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Name: "setup",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Type: discordgo.ApplicationCommandOptionChannel, Name: "verification_channel", Value: "123"},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "n", Value: float64(5), Focused: true},
		},
	}})
	assert.Empty(t, group)
	assert.Equal(t, "setup", sub)
	assert.Equal(t, []platform.Option{
		{Name: "verification_channel", Value: "123"},
		{Name: "n", Value: "5", Focused: true},
	}, leaves)
}

func TestTranslateInteraction_Command(t *testing.T) {
	locale := discordgo.Locale("es-419")
	i := &discordgo.Interaction{
		ID:             "i1",
		Type:           discordgo.InteractionApplicationCommand,
		GuildID:        "g1",
		ChannelID:      "c1",
		Locale:         discordgo.EnglishUS,
		GuildLocale:    &locale,
		AppPermissions: discordgo.PermissionManageRoles,
		Member:         &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}, Roles: []string{"r1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "verification",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "stats"},
			},
		},
	}

	ev, ok := translateInteraction(&mockSession{}, i).(*platform.CommandEvent)
	require.True(t, ok)
	assert.Equal(t, "verification", ev.Name)
	assert.Equal(t, "stats", ev.Subcommand)
	assert.Equal(t, "u1", ev.User.ID)
	assert.True(t, ev.Member.HasRole("r1"))
	assert.Equal(t, "en-US", ev.Locale)
	assert.Equal(t, "es-419", ev.GuildLocale)
	assert.True(t, ev.AppPermissions.Has(platform.PermManageRoles))
}

func TestTranslateInteraction_Button(t *testing.T) {
	i := &discordgo.Interaction{
		ID:      "i2",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "admin"}},
		Data:    discordgo.MessageComponentInteractionData{CustomID: "verify_approve"},
		Message: &discordgo.Message{ID: "m1", Embeds: []*discordgo.MessageEmbed{{Description: "**ID:** 42"}}},
	}

	ev, ok := translateInteraction(&mockSession{}, i).(*platform.ButtonEvent)
	require.True(t, ok)
	assert.Equal(t, "verify_approve", ev.CustomID)
	assert.Equal(t, "m1", ev.Message.ID)
	assert.Equal(t, "**ID:** 42", ev.Message.Embeds[0].Description)
}

func TestTranslateMessage_ReplyReferencesOriginal(t *testing.T) {
	api := &mockSession{}
	api.On("ChannelMessageSendComplex", "dm1", mock.MatchedBy(func(s *discordgo.MessageSend) bool {
		return s.Reference != nil && s.Reference.MessageID == "m9" && s.Content == "hi"
	})).Return(nil)
	m := &discordgo.Message{
		ID:        "m9",
		ChannelID: "dm1",
		Author:    &discordgo.User{ID: "u1"},
		Attachments: []*discordgo.MessageAttachment{
			{ID: "a1", Filename: "c.png", URL: "https://cdn/c.png", ContentType: "image/png", Size: 1024},
		},
	}

	ev := translateMessage(api, m)
	assert.True(t, ev.IsDirect())
	assert.Equal(t, int64(1024), ev.Attachments[0].Size)
	require.NoError(t, ev.Reply(context.Background(), platform.Text("hi")))
	api.AssertExpectations(t)
}

// --- responder ---

func TestResponder_DeferThenSendUsesFollowup(t *testing.T) {
	api := &mockSession{}
	i := &discordgo.Interaction{ID: "i1"}
	api.On("InteractionRespond", i, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource &&
			r.Data != nil && r.Data.Flags == discordgo.MessageFlagsEphemeral
	})).Return(nil).Once()
	api.On("FollowupMessageCreate", i, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "done" && p.Flags == discordgo.MessageFlagsEphemeral
	})).Return(nil).Once()
	r := newResponder(api, i)

	require.NoError(t, r.Defer(context.Background(), true))
	assert.True(t, r.Deferred())
	require.NoError(t, r.Defer(context.Background(), true))
	require.NoError(t, r.Send(context.Background(), platform.Text("done"), true))
	assert.True(t, r.Replied())
	api.AssertExpectations(t)
}

func TestResponder_SendWithoutDeferReplies(t *testing.T) {
	api := &mockSession{}
	i := &discordgo.Interaction{ID: "i1"}
	api.On("InteractionRespond", i, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Type == discordgo.InteractionResponseChannelMessageWithSource && r.Data.Content == "denied"
	})).Return(nil)
	r := newResponder(api, i)

	require.NoError(t, r.Send(context.Background(), platform.Text("denied"), true))
	assert.False(t, r.Deferred())
	assert.True(t, r.Replied())
}

func TestResponder_DeferFailureIsNotApplied(t *testing.T) {
	api := &mockSession{}
	api.On("InteractionRespond", mock.Anything, mock.Anything).Return(restErr(platform.CodeUnknownInteraction))
	r := newResponder(api, &discordgo.Interaction{ID: "i1"})

	err := r.Defer(context.Background(), false)
	assert.True(t, platform.IsIgnorable(err))
	assert.False(t, r.Deferred())
}

func TestResponder_DeferUpdateThenUpdateEditsOriginal(t *testing.T) {
	api := &mockSession{}
	i := &discordgo.Interaction{ID: "i1"}
	api.On("InteractionRespond", i, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Type == discordgo.InteractionResponseDeferredMessageUpdate
	})).Return(nil)
	api.On("InteractionResponseEdit", i, mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
		return e.Components != nil && len(*e.Components) == 0 && e.Embeds != nil && len(*e.Embeds) == 1
	})).Return(nil)
	r := newResponder(api, i)

	require.NoError(t, r.DeferUpdate(context.Background()))
	require.NoError(t, r.Update(context.Background(), platform.MessageSend{
		Embeds:  []platform.Embed{{Title: "resolved"}},
		Buttons: []platform.Button{},
	}))
	api.AssertExpectations(t)
}

func TestResponder_RespondChoices(t *testing.T) {
	api := &mockSession{}
	api.On("InteractionRespond", mock.Anything, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Type == discordgo.InteractionApplicationCommandAutocompleteResult && len(r.Data.Choices) == 2
	})).Return(nil)
	r := newResponder(api, &discordgo.Interaction{ID: "i1"})

	require.NoError(t, r.Respond(context.Background(), []platform.Choice{{Name: "a", Value: "a"}, {Name: "b", Value: "b"}}))
}

// --- registrar ---

func TestRegistrar_Sync(t *testing.T) {
	api := &mockSession{}
	api.On("ApplicationCommandBulkOverwrite", "app", "", Commands).Return(nil)

	names, err := NewRegistrar(api, "app", "").Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "verification"}, names)
}

func TestRegistrar_ViewAndDelete(t *testing.T) {
	api := &mockSession{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{{ID: "c1", Name: "ping"}}, nil)
	api.On("ApplicationCommandDelete", "app", "g1", "c1").Return(nil)
	reg := NewRegistrar(api, "app", "g1")

	remote, missing, err := reg.View(context.Background())
	require.NoError(t, err)
	assert.Len(t, remote, 1)
	assert.Equal(t, []string{"verification"}, missing)

	require.NoError(t, reg.Delete(context.Background(), "ping"))
	assert.ErrorContains(t, reg.Delete(context.Background(), "verification"), "not registered")
}
