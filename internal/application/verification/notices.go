package verification

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/platform"
)

// Review control ids.
const (
	ButtonApprove = "verify_approve"
	ButtonReject  = "verify_reject"
)

// DefaultRejectReasons is sent when a reviewer gives no reason.
const DefaultRejectReasons = "• Image was unclear or unreadable\n" +
	"• Invalid or expired student ID\n" +
	"• Information didn't match requirements\n" +
	"• Not from an accepted institution"

// ReviewTime is the turnaround promised to submitters.
const ReviewTime = "Typically 2-24 hours"

var reviewUserIDPattern = regexp.MustCompile(`\*\*ID:\*\* (\d+)`)

func reviewDescription(p domain.PendingVerification) string {
	return fmt.Sprintf("**User:** %s\n**ID:** %s", p.DisplayName, p.UserID)
}

// ReviewMessage is posted to a guild's verification channel for admins to act on.
func ReviewMessage(p domain.PendingVerification) platform.MessageSend {
	return platform.MessageSend{
		Embeds: []platform.Embed{{
			Title:       "🎓 New Verification Request",
			Description: reviewDescription(p),
			Color:       platform.ColorWarning,
			ImageURL:    p.EvidenceURL,
			Footer:      "Review the image and use buttons to approve/reject",
			Timestamp:   p.SubmittedAt,
		}},
		Buttons: []platform.Button{
			{CustomID: ButtonApprove, Label: "✅ Approve", Style: platform.ButtonSuccess},
			{CustomID: ButtonReject, Label: "❌ Reject", Style: platform.ButtonDanger},
		},
	}
}

// ReviewUserID extracts the submitter id from a review message.
func ReviewUserID(msg *platform.Message) (string, bool) {
	if msg == nil || len(msg.Embeds) == 0 {
		return "", false
	}
	m := reviewUserIDPattern.FindStringSubmatch(msg.Embeds[0].Description)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ApprovedReview replaces a review message once the submission is approved.
func ApprovedReview(p domain.PendingVerification, approver string, at time.Time) platform.MessageSend {
	return platform.MessageSend{
		Embeds: []platform.Embed{{
			Title:       "✅ Verification Approved",
			Description: fmt.Sprintf("%s\n**Approved by:** %s", reviewDescription(p), approver),
			Color:       platform.ColorSuccess,
			Footer:      "User has been granted access to the server",
			Timestamp:   at,
		}},
		Buttons: []platform.Button{},
	}
}

// RejectedReview replaces a review message once the submission is rejected.
func RejectedReview(p domain.PendingVerification, rejecter string, at time.Time) platform.MessageSend {
	return platform.MessageSend{
		Embeds: []platform.Embed{{
			Title:       "❌ Verification Rejected",
			Description: fmt.Sprintf("%s\n**Rejected by:** %s", reviewDescription(p), rejecter),
			Color:       platform.ColorDanger,
			Footer:      "User has been notified and can submit a new request",
			Timestamp:   at,
		}},
		Buttons: []platform.Button{},
	}
}

func approvedNotice(approver string, at time.Time) platform.MessageSend {
	return platform.EmbedMessage(platform.Embed{
		Title:       "🎉 Verification Approved!",
		Description: "Your carnet verification has been approved. Welcome to iTLand!",
		Color:       platform.ColorSuccess,
		Footer:      "Approved by " + approver,
		Timestamp:   at,
	})
}

func rejectedNotice(reason, reviewer string, at time.Time) platform.MessageSend {
	if reason == "" {
		reason = DefaultRejectReasons
	}
	return platform.EmbedMessage(platform.Embed{
		Title:       "❌ Verification Rejected",
		Description: "Your university verification was not approved.",
		Color:       platform.ColorDanger,
		Fields: []platform.EmbedField{
			{Name: "🔍 Possible reasons:", Value: reason},
			{Name: "🔄 What to do next:", Value: "You can submit a new, clearer photo of your student ID."},
		},
		Footer:    "Reviewed by " + reviewer,
		Timestamp: at,
	})
}

// InvalidSubmission answers a DM whose attachment failed validation.
func InvalidSubmission(reason string) platform.MessageSend {
	return platform.EmbedMessage(platform.Embed{
		Title:       "❌ Invalid Submission",
		Description: reason,
		Color:       platform.ColorDanger,
		Footer:      "Please try again with a valid image",
	})
}

// AlreadyPendingNotice answers a DM from a user who already has a submission under review.
func AlreadyPendingNotice() platform.MessageSend {
	return platform.EmbedMessage(platform.Embed{
		Title:       "⏳ Verification Pending",
		Description: "You already have a verification request in progress. Please wait for admin review.",
		Color:       platform.ColorWarning,
		Footer:      "Contact an administrator if you need help",
	})
}

// SubmittedNotice confirms a submission to the user.
func SubmittedNotice(guildNames []string, at time.Time) platform.MessageSend {
	where := "the server"
	if len(guildNames) > 0 {
		where = "**" + guildNames[0] + "**"
		for _, n := range guildNames[1:] {
			where += ", **" + n + "**"
		}
	}
	return platform.EmbedMessage(platform.Embed{
		Title:       "✅ Verification Submitted",
		Description: fmt.Sprintf("Your student ID has been received for %s and will be reviewed by an administrator.", where),
		Color:       platform.ColorSuccess,
		Fields:      []platform.EmbedField{{Name: "⏰ Review Time:", Value: ReviewTime}},
		Footer:      "You will be notified when the review is complete",
		Timestamp:   at,
	})
}

// Instructions tells a member how to submit evidence.
func Instructions(guildName string) platform.MessageSend {
	return platform.EmbedMessage(platform.Embed{
		Title: "🎓 Verification Required",
		Description: fmt.Sprintf("To get access to **%s**, send me a direct message with a clear photo of your student ID.", guildName) +
			"\nAccepted formats: PNG, JPG, JPEG (max 8MB).",
		Color:  platform.ColorWarning,
		Footer: "An administrator will review your submission",
	})
}
