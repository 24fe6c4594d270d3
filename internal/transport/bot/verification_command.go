package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-verify-bot/internal/application/dispatch"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/platform"
)

// Replies shared by the admin command and the review buttons.
const (
	msgNotConfigured = "Verification system is not configured for this server."
	msgDisabled      = "Verification requests are no longer accepted for this server."
	msgCleared       = "Cleared %d pending verification(s)."
)

// verificationCommand implements /verification setup|stats|clear|disable.
type verificationCommand struct {
	svc verification.Service
}

func (c *verificationCommand) Meta() dispatch.CommandMeta {
	return dispatch.CommandMeta{
		Names: []string{"verification"},
		Defer: dispatch.DeferHidden,
		Requirements: dispatch.Requirements{
			RequireGuild:       true,
			RequireClientPerms: []platform.Permission{platform.PermManageRoles},
		},
	}
}

func (c *verificationCommand) Execute(ctx context.Context, ev *platform.CommandEvent, _ dispatch.EventData) error {
	switch ev.Subcommand {
	case "setup":
		return c.setup(ctx, ev)
	case "stats":
		return c.stats(ctx, ev)
	case "clear":
		n := c.svc.ClearGuild(ctx, ev.GuildID)
		return ev.Responder.EditReply(ctx, platform.Text(fmt.Sprintf(msgCleared, n)))
	case "disable":
		return c.disable(ctx, ev)
	default:
		return fmt.Errorf("unknown verification subcommand %q", ev.Subcommand)
	}
}

func (c *verificationCommand) setup(ctx context.Context, ev *platform.CommandEvent) error {
	cfg := domain.GuildVerificationConfig{
		GuildID:               ev.GuildID,
		VerificationChannelID: ev.Option("verification_channel"),
		VerifiedRoleID:        ev.Option("verified_role"),
		AdminRoleID:           ev.Option("admin_role"),
		Enabled:               true,
	}
	if err := c.svc.SetGuildConfig(ctx, cfg); err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			return ev.Responder.EditReply(ctx, platform.Text("A verification channel, verified role and admin role are all required."))
		}
		return err
	}
	return ev.Responder.EditReply(ctx, platform.EmbedMessage(platform.Embed{
		Title: "✅ Verification Setup Complete",
		Color: platform.ColorSuccess,
		Fields: []platform.EmbedField{
			{Name: "Verification Channel", Value: "<#" + cfg.VerificationChannelID + ">", Inline: true},
			{Name: "Verified Role", Value: "<@&" + cfg.VerifiedRoleID + ">", Inline: true},
			{Name: "Admin Role", Value: "<@&" + cfg.AdminRoleID + ">", Inline: true},
		},
	}))
}

func (c *verificationCommand) stats(ctx context.Context, ev *platform.CommandEvent) error {
	st := c.svc.Stats(ctx, ev.GuildID)
	status := "Not configured"
	switch {
	case st.Enabled:
		status = "Enabled"
	case st.Configured:
		status = "Disabled"
	}
	return ev.Responder.EditReply(ctx, platform.EmbedMessage(platform.Embed{
		Title: "📊 Verification Statistics",
		Color: platform.ColorWarning,
		Fields: []platform.EmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Pending", Value: fmt.Sprint(st.Pending), Inline: true},
		},
	}))
}

func (c *verificationCommand) disable(ctx context.Context, ev *platform.CommandEvent) error {
	if err := c.svc.SetEnabled(ctx, ev.GuildID, false); err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return ev.Responder.EditReply(ctx, platform.Text(msgNotConfigured))
		}
		return err
	}
	return ev.Responder.EditReply(ctx, platform.Text(msgDisabled))
}
