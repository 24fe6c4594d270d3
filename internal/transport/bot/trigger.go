package bot

import (
	"context"
	"strings"

	"github.com/go-verify-bot/internal/application/dispatch"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/platform"
)

// verifyMeTrigger answers "verify me" in a guild channel with the instructions.
type verifyMeTrigger struct {
	svc    verification.Service
	client guildNamer
}

func (t *verifyMeTrigger) RequireGuild() bool { return true }

func (t *verifyMeTrigger) Triggered(ev *platform.MessageEvent) bool {
	return strings.Contains(strings.ToLower(ev.Content), "verify me")
}

func (t *verifyMeTrigger) Execute(ctx context.Context, ev *platform.MessageEvent, _ dispatch.EventData) error {
	cfg, err := t.svc.GetGuildConfig(ctx, ev.GuildID)
	if err != nil || !cfg.Enabled {
		return nil
	}
	return platform.Swallow(ev.Reply(ctx, verification.Instructions(t.client.GuildName(ev.GuildID))))
}
