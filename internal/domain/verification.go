package domain

import "time"

// GuildVerificationConfig is the per-guild verification setup. PK: guild_id.
type GuildVerificationConfig struct {
	GuildID               string `json:"id" dynamodbav:"id" validate:"required"`
	VerificationChannelID string `json:"verification_channel_id" dynamodbav:"verification_channel_id" validate:"required"`
	VerifiedRoleID        string `json:"verified_role_id" dynamodbav:"verified_role_id" validate:"required"`
	AdminRoleID           string `json:"admin_role_id" dynamodbav:"admin_role_id" validate:"required"`
	Enabled               bool   `json:"enabled" dynamodbav:"enabled"`
}

// ReviewPost is one review message posted to a guild's verification channel.
type ReviewPost struct {
	GuildID   string `json:"guild_id" dynamodbav:"guild_id"`
	ChannelID string `json:"channel_id" dynamodbav:"channel_id"`
	MessageID string `json:"message_id" dynamodbav:"message_id"`
}

// PendingVerification is a submission waiting for admin review. PK: user_id.
// At most one exists per user across all guilds.
type PendingVerification struct {
	UserID          string       `json:"id" dynamodbav:"id"`
	SubmissionID    string       `json:"submission_id" dynamodbav:"submission_id"`
	DisplayName     string       `json:"display_name" dynamodbav:"display_name"`
	EvidenceURL     string       `json:"evidence_url" dynamodbav:"evidence_url"`
	EvidenceKey     string       `json:"evidence_key,omitempty" dynamodbav:"evidence_key,omitempty"`
	SubmittedAt     time.Time    `json:"submitted_at" dynamodbav:"submitted_at"`
	GuildID         string       `json:"guild_id" dynamodbav:"guild_id"`
	ReviewMessageID string       `json:"review_message_id,omitempty" dynamodbav:"review_message_id,omitempty"`
	ReviewPosts     []ReviewPost `json:"review_posts,omitempty" dynamodbav:"review_posts,omitempty"`
}

// PostedTo reports whether a review post for guildID exists.
func (p *PendingVerification) PostedTo(guildID string) bool {
	if p.GuildID == guildID {
		return true
	}
	for _, rp := range p.ReviewPosts {
		if rp.GuildID == guildID {
			return true
		}
	}
	return false
}

// Attachment describes a file attached to a platform message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Audit event types published for workflow transitions.
const (
	AuditSubmitted = "submitted"
	AuditApproved  = "approved"
	AuditRejected  = "rejected"
	AuditCleared   = "cleared"
)

// AuditEvent records one verification workflow transition.
type AuditEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	GuildID      string    `json:"guild_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}
