package platform

import (
	"time"

	"github.com/go-verify-bot/internal/domain"
)

// Attachment is a file attached to a message.
type Attachment = domain.Attachment

// Colors used by the bot's embeds.
const (
	ColorSuccess = 0x00ff00
	ColorDanger  = 0xff0000
	ColorWarning = 0xffaa00
)

// ButtonStyle mirrors the platform's button styles.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button is an interactive control on a message.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
}

// EmbedField is a name/value pair rendered inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message block.
type Embed struct {
	Title       string
	Description string
	Color       int
	ImageURL    string
	AuthorName  string
	Footer      string
	Fields      []EmbedField
	Timestamp   time.Time
}

// MessageSend is the outbound payload for any send, reply or edit.
type MessageSend struct {
	Content string
	Embeds  []Embed
	// Buttons are rendered as a single action row. A non-nil empty slice clears existing controls.
	Buttons []Button
}

// Message is a message already posted on the platform.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Embeds    []Embed
}

// Text builds a plain-content payload.
func Text(s string) MessageSend { return MessageSend{Content: s} }

// EmbedMessage builds a single-embed payload.
func EmbedMessage(e Embed) MessageSend { return MessageSend{Embeds: []Embed{e}} }

// Choice is one autocomplete suggestion.
type Choice struct {
	Name  string
	Value string
}

// MaxChoicesPerAutocomplete is the platform cap on suggestions per response.
const MaxChoicesPerAutocomplete = 25
