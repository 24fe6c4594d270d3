package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var manageRoles int64 = discordgo.PermissionManageRoles

var dmDisabled = false

// Commands is the application command set the bot registers.
var Commands = []*discordgo.ApplicationCommand{
	{
		Type:        discordgo.ChatApplicationCommand,
		Name:        "ping",
		Description: "Check the bot's ping and latency",
	},
	{
		Type:                     discordgo.ChatApplicationCommand,
		Name:                     "verification",
		Description:              "Manage university verification system",
		DMPermission:             &dmDisabled,
		DefaultMemberPermissions: &manageRoles,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "setup",
				Description: "Set up verification system for this server",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "verification_channel",
						Description:  "Channel where verification requests will be sent",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "verified_role",
						Description: "Role to give to verified users",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "admin_role",
						Description: "Role that can approve/reject verifications",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stats",
				Description: "Show verification statistics",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Clear all pending verifications",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Stop accepting verification requests for this server",
			},
		},
	},
}

// commandAPI is the part of *discordgo.Session used for registration.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// Registrar manages the registered application commands. An empty guildID targets global commands.
type Registrar struct {
	api     commandAPI
	appID   string
	guildID string
}

func NewRegistrar(api commandAPI, appID, guildID string) *Registrar {
	return &Registrar{api: api, appID: appID, guildID: guildID}
}

// Sync replaces the remote command set with Commands and returns the registered names.
func (r *Registrar) Sync(ctx context.Context) ([]string, error) {
	out, err := r.api.ApplicationCommandBulkOverwrite(r.appID, r.guildID, Commands, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("overwrite commands: %w", wrapErr(err))
	}
	names := make([]string, 0, len(out))
	for _, c := range out {
		names = append(names, c.Name)
	}
	return names, nil
}

// View lists remote commands, flagging local ones that are not registered yet.
func (r *Registrar) View(ctx context.Context) (remote []*discordgo.ApplicationCommand, missing []string, err error) {
	remote, err = r.api.ApplicationCommands(r.appID, r.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("list commands: %w", wrapErr(err))
	}
	have := make(map[string]bool, len(remote))
	for _, c := range remote {
		have[c.Name] = true
	}
	for _, c := range Commands {
		if !have[c.Name] {
			missing = append(missing, c.Name)
		}
	}
	return remote, missing, nil
}

// Delete removes the remote command called name.
func (r *Registrar) Delete(ctx context.Context, name string) error {
	remote, err := r.api.ApplicationCommands(r.appID, r.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list commands: %w", wrapErr(err))
	}
	for _, c := range remote {
		if c.Name == name {
			if err := r.api.ApplicationCommandDelete(r.appID, r.guildID, c.ID, discordgo.WithContext(ctx)); err != nil {
				return fmt.Errorf("delete command %s: %w", name, wrapErr(err))
			}
			return nil
		}
	}
	return fmt.Errorf("command %q is not registered", name)
}
