package bot

import (
	"context"

	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type dmSender interface {
	guildNamer
	SendDirectMessage(ctx context.Context, userID string, msg platform.MessageSend) error
}

// welcomeHandler DMs submission instructions to members joining a guild with
// verification enabled. Sends share one limiter so a raid does not trip the
// platform's DM rate limits.
type welcomeHandler struct {
	svc     verification.Service
	client  dmSender
	limiter *rate.Limiter
	logger  *zap.Logger
}

func (h *welcomeHandler) HandleJoin(ctx context.Context, ev *platform.MemberJoinEvent) error {
	cfg, err := h.svc.GetGuildConfig(ctx, ev.GuildID)
	if err != nil || !cfg.Enabled {
		return nil
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := verification.Instructions(h.client.GuildName(ev.GuildID))
	if err := h.client.SendDirectMessage(ctx, ev.User.ID, msg); err != nil {
		h.logger.Warn("could not send welcome DM", zap.Error(err), zap.String("user_id", ev.User.ID), zap.String("guild_id", ev.GuildID))
	}
	return nil
}
