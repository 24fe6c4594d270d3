package dispatch

import (
	"context"
	"fmt"

	"github.com/go-verify-bot/internal/platform"
)

// Denial messages shown to the actor when a precondition fails.
const (
	MsgRequireGuild       = "This action can only be performed in a server."
	MsgMissingClientPerms = "I don't have all the permissions required to run this here. Please make sure I have: %s"
	MsgPermissionLookup   = "I couldn't check my permissions in this channel. Please try again later."
	MsgEmbedAuthorOnly    = "Only the user this message was created for can use these controls."
)

// Requirements are the preconditions a handler declares.
type Requirements struct {
	RequireGuild          bool
	RequireClientPerms    []platform.Permission
	RequireEmbedAuthorTag bool
}

// GuardResult is the verdict of a guard chain run.
type GuardResult struct {
	Passed bool
	Reason string
}

func pass() GuardResult             { return GuardResult{Passed: true} }
func deny(reason string) GuardResult { return GuardResult{Reason: reason} }

// PermissionResolver returns the bot's effective permissions for an interaction.
type PermissionResolver interface {
	ClientPermissions(ctx context.Context, in *platform.Interaction) (platform.Permission, error)
}

// InteractionPermissions resolves permissions from the set the platform attached to the interaction.
type InteractionPermissions struct{}

func (InteractionPermissions) ClientPermissions(_ context.Context, in *platform.Interaction) (platform.Permission, error) {
	return in.AppPermissions, nil
}

// Guard runs precondition checks in a fixed order and stops at the first failure:
// guild presence, client permissions, then embed authorship.
type Guard struct {
	perms PermissionResolver
}

func NewGuard(perms PermissionResolver) *Guard {
	if perms == nil {
		perms = InteractionPermissions{}
	}
	return &Guard{perms: perms}
}

// Check evaluates req against the interaction. source is the message a component
// belongs to and may be nil for commands.
func (g *Guard) Check(ctx context.Context, req Requirements, in *platform.Interaction, source *platform.Message) GuardResult {
	if req.RequireGuild && !in.InGuild() {
		return deny(MsgRequireGuild)
	}

	if len(req.RequireClientPerms) > 0 && in.InGuild() {
		want := platform.Combine(req.RequireClientPerms)
		have, err := g.perms.ClientPermissions(ctx, in)
		if err != nil {
			return deny(MsgPermissionLookup)
		}
		if !have.Has(want) {
			return deny(fmt.Sprintf(MsgMissingClientPerms, want.String()))
		}
	}

	if req.RequireEmbedAuthorTag {
		if source == nil || len(source.Embeds) == 0 || source.Embeds[0].AuthorName != in.User.Tag() {
			return deny(MsgEmbedAuthorOnly)
		}
	}
	return pass()
}
