package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
)

type guildNamer interface {
	GuildName(guildID string) string
}

// submissionHandler turns a direct message with an image into a verification request.
type submissionHandler struct {
	svc    verification.Service
	client guildNamer
	logger *zap.Logger
}

func (h *submissionHandler) HandleMessage(ctx context.Context, ev *platform.MessageEvent) error {
	if !ev.IsDirect() || len(ev.Attachments) == 0 {
		return nil
	}
	userID := ev.Author.ID
	guilds := h.svc.ApplicableGuilds(ctx, userID)
	if len(guilds) == 0 {
		h.logger.Debug("attachment from user with no guild to verify", zap.String("user_id", userID))
		return nil
	}

	att := ev.Attachments[0]
	if res := verification.ValidateAttachment(&att); !res.Valid {
		return h.reply(ctx, ev, verification.InvalidSubmission(res.Reason))
	}
	if _, err := h.svc.GetPending(ctx, userID); err == nil {
		return h.reply(ctx, ev, verification.AlreadyPendingNotice())
	}

	p, err := h.svc.SubmitEvidence(ctx, userID, ev.Author.Tag(), &att, guilds)
	if err != nil {
		var attErr *verification.AttachmentError
		switch {
		case errors.As(err, &attErr):
			return h.reply(ctx, ev, verification.InvalidSubmission(attErr.Reason))
		case errors.Is(err, domain.ErrAlreadyPending):
			return h.reply(ctx, ev, verification.AlreadyPendingNotice())
		case errors.Is(err, domain.ErrNotConfigured):
			return nil
		default:
			return fmt.Errorf("submit evidence: %w", err)
		}
	}

	names := make([]string, 0, len(p.ReviewPosts))
	for _, rp := range p.ReviewPosts {
		names = append(names, h.client.GuildName(rp.GuildID))
	}
	return h.reply(ctx, ev, verification.SubmittedNotice(names, p.SubmittedAt))
}

func (h *submissionHandler) reply(ctx context.Context, ev *platform.MessageEvent, msg platform.MessageSend) error {
	return platform.Swallow(ev.Reply(ctx, msg))
}
