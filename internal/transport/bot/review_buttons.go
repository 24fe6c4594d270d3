package bot

import (
	"context"
	"errors"
	"time"

	"github.com/go-verify-bot/internal/application/dispatch"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
)

const (
	msgNoPermission     = "You do not have permission to perform this action."
	msgPermissionLookup = "Could not verify your permissions."
	msgMissingUserID    = "Could not find user ID in the verification message."
	msgAlreadyProcessed = "Verification not found or already processed."
	msgApproveFailed    = "Failed to approve verification. The user may no longer be in the server or the role may not exist."
	msgRejectFailed     = "Failed to reject verification."
)

type memberFetcher interface {
	FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error)
}

// reviewButton carries what approve and reject share: the admin check and the
// submitter lookup on the review post.
type reviewButton struct {
	svc    verification.Service
	client memberFetcher
	now    func() time.Time
	logger *zap.Logger
}

func (b *reviewButton) meta(id string) dispatch.ButtonMeta {
	return dispatch.ButtonMeta{
		IDs:          []string{id},
		Defer:        dispatch.DeferUpdate,
		Requirements: dispatch.Requirements{RequireGuild: true},
	}
}

func (b *reviewButton) reply(ctx context.Context, ev *platform.ButtonEvent, text string) error {
	return platform.Swallow(ev.Responder.Send(ctx, platform.Text(text), true))
}

// target resolves the submitter of the review post after checking the actor is a
// reviewer. An empty id means a reply was already sent.
func (b *reviewButton) target(ctx context.Context, ev *platform.ButtonEvent) (string, error) {
	cfg, err := b.svc.GetGuildConfig(ctx, ev.GuildID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", b.reply(ctx, ev, msgNotConfigured)
		}
		return "", err
	}

	member := ev.Member
	if member == nil || member.RoleIDs == nil {
		member, err = b.client.FetchMember(ctx, ev.GuildID, ev.User.ID)
		if err != nil {
			b.logger.Warn("could not fetch reviewer", zap.Error(err), zap.String("guild_id", ev.GuildID), zap.String("user_id", ev.User.ID))
			return "", b.reply(ctx, ev, msgPermissionLookup)
		}
	}
	if !member.HasRole(cfg.AdminRoleID) {
		return "", b.reply(ctx, ev, msgNoPermission)
	}

	userID, ok := verification.ReviewUserID(ev.Message)
	if !ok {
		return "", b.reply(ctx, ev, msgMissingUserID)
	}
	return userID, nil
}

// outcome maps a workflow error to its reply. It returns false when err is nil.
func (b *reviewButton) outcome(ctx context.Context, ev *platform.ButtonEvent, err error, failed string) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, b.reply(ctx, ev, msgAlreadyProcessed)
	case errors.Is(err, domain.ErrNotConfigured):
		return true, b.reply(ctx, ev, msgNotConfigured)
	default:
		b.logger.Warn("review action failed", zap.Error(err), zap.String("guild_id", ev.GuildID), zap.String("custom_id", ev.CustomID))
		return true, b.reply(ctx, ev, failed)
	}
}

type approveButton struct{ reviewButton }

func (b *approveButton) Meta() dispatch.ButtonMeta { return b.meta(verification.ButtonApprove) }

func (b *approveButton) Execute(ctx context.Context, ev *platform.ButtonEvent, _ dispatch.EventData) error {
	userID, err := b.target(ctx, ev)
	if userID == "" {
		return err
	}
	p, err := b.svc.Approve(ctx, ev.GuildID, userID, ev.User)
	if handled, err := b.outcome(ctx, ev, err, msgApproveFailed); handled {
		return err
	}
	return ev.Responder.Update(ctx, verification.ApprovedReview(*p, ev.User.Tag(), b.now().UTC()))
}

type rejectButton struct{ reviewButton }

func (b *rejectButton) Meta() dispatch.ButtonMeta { return b.meta(verification.ButtonReject) }

func (b *rejectButton) Execute(ctx context.Context, ev *platform.ButtonEvent, _ dispatch.EventData) error {
	userID, err := b.target(ctx, ev)
	if userID == "" {
		return err
	}
	p, err := b.svc.Reject(ctx, ev.GuildID, userID, ev.User, "")
	if handled, err := b.outcome(ctx, ev, err, msgRejectFailed); handled {
		return err
	}
	return ev.Responder.Update(ctx, verification.RejectedReview(*p, ev.User.Tag(), b.now().UTC()))
}
