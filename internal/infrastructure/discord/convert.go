package discord

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-verify-bot/internal/platform"
)

// wrapErr turns a Discord REST error into a *platform.Error so callers can test its code.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil && rest.Message.Code != 0 {
		return &platform.Error{Code: rest.Message.Code, Message: rest.Message.Message}
	}
	return err
}

func toUser(u *discordgo.User) platform.User {
	if u == nil {
		return platform.User{}
	}
	return platform.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.GlobalName,
		Bot:         u.Bot,
	}
}

func toMember(guildID string, m *discordgo.Member) *platform.Member {
	if m == nil {
		return nil
	}
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	return &platform.Member{
		GuildID: guildID,
		User:    toUser(m.User),
		RoleIDs: m.Roles,
	}
}

func toEmbed(e platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.AuthorName != "" {
		out.Author = &discordgo.MessageEmbedAuthor{Name: e.AuthorName}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func fromEmbed(e *discordgo.MessageEmbed) platform.Embed {
	out := platform.Embed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Image != nil {
		out.ImageURL = e.Image.URL
	}
	if e.Author != nil {
		out.AuthorName = e.Author.Name
	}
	if e.Footer != nil {
		out.Footer = e.Footer.Text
	}
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		out.Timestamp = ts
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, platform.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func toEmbeds(es []platform.Embed) []*discordgo.MessageEmbed {
	if es == nil {
		return nil
	}
	out := make([]*discordgo.MessageEmbed, 0, len(es))
	for _, e := range es {
		out = append(out, toEmbed(e))
	}
	return out
}

var buttonStyles = map[platform.ButtonStyle]discordgo.ButtonStyle{
	platform.ButtonPrimary:   discordgo.PrimaryButton,
	platform.ButtonSecondary: discordgo.SecondaryButton,
	platform.ButtonSuccess:   discordgo.SuccessButton,
	platform.ButtonDanger:    discordgo.DangerButton,
}

// toComponents renders buttons as one action row. nil means "leave unchanged"; empty clears.
func toComponents(buttons []platform.Button) []discordgo.MessageComponent {
	if buttons == nil {
		return nil
	}
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		style, ok := buttonStyles[b.Style]
		if !ok {
			style = discordgo.SecondaryButton
		}
		row.Components = append(row.Components, discordgo.Button{
			CustomID: b.CustomID,
			Label:    b.Label,
			Style:    style,
		})
	}
	return []discordgo.MessageComponent{row}
}

func toMessageSend(msg platform.MessageSend) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg.Buttons),
	}
}

func toMessageEdit(channelID, messageID string, msg platform.MessageSend) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	if msg.Content != "" {
		edit.SetContent(msg.Content)
	}
	if msg.Embeds != nil {
		embeds := toEmbeds(msg.Embeds)
		edit.Embeds = &embeds
	}
	if msg.Buttons != nil {
		components := toComponents(msg.Buttons)
		edit.Components = &components
	}
	return edit
}

func toWebhookEdit(msg platform.MessageSend) *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{}
	if msg.Content != "" {
		content := msg.Content
		edit.Content = &content
	}
	if msg.Embeds != nil {
		embeds := toEmbeds(msg.Embeds)
		edit.Embeds = &embeds
	}
	if msg.Buttons != nil {
		components := toComponents(msg.Buttons)
		edit.Components = &components
	}
	return edit
}

func toResponseData(msg platform.MessageSend, hidden bool) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg.Buttons),
	}
	if hidden {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

func toWebhookParams(msg platform.MessageSend, hidden bool) *discordgo.WebhookParams {
	params := &discordgo.WebhookParams{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg.Buttons),
	}
	if hidden {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	return params
}

func fromMessage(m *discordgo.Message) *platform.Message {
	if m == nil {
		return nil
	}
	out := &platform.Message{ID: m.ID, ChannelID: m.ChannelID}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
	}
	for _, e := range m.Embeds {
		out.Embeds = append(out.Embeds, fromEmbed(e))
	}
	return out
}

func toAttachments(as []*discordgo.MessageAttachment) []platform.Attachment {
	out := make([]platform.Attachment, 0, len(as))
	for _, a := range as {
		out = append(out, platform.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        int64(a.Size),
		})
	}
	return out
}

func toChoices(choices []platform.Choice) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}
	return out
}

// commandPath splits the option tree into group, subcommand and leaf options.
func commandPath(opts []*discordgo.ApplicationCommandInteractionDataOption) (group, sub string, leaves []platform.Option) {
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup {
		group = opts[0].Name
		opts = opts[0].Options
	}
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		leaves = append(leaves, platform.Option{Name: o.Name, Value: optionValue(o.Value), Focused: o.Focused})
	}
	return group, sub, leaves
}

func optionValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
