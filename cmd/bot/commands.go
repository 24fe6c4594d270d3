package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-verify-bot/internal/infrastructure/discord"
	"github.com/spf13/cobra"
)

var commandsGuild string

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Manage the registered slash commands",
}

var commandsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Overwrite the registered commands with the local definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registrar()
		if err != nil {
			return err
		}
		names, err := reg.Sync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %d command(s): %s\n", len(names), strings.Join(names, ", "))
		return nil
	},
}

var commandsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "List registered commands and local ones not yet registered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registrar()
		if err != nil {
			return err
		}
		remote, missing, err := reg.View(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tID\tSTATUS")
		for _, c := range remote {
			fmt.Fprintf(w, "%s\t%s\tregistered\n", c.Name, c.ID)
		}
		for _, name := range missing {
			fmt.Fprintf(w, "%s\t-\tnot registered\n", name)
		}
		return w.Flush()
	},
}

var commandsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a registered command by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registrar()
		if err != nil {
			return err
		}
		if err := reg.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	commandsCmd.PersistentFlags().StringVar(&commandsGuild, "guild", "", "target guild (default DISCORD_GUILD_ID, empty for global)")
	commandsCmd.AddCommand(commandsSyncCmd, commandsViewCmd, commandsDeleteCmd)
}

func registrar() (*discord.Registrar, error) {
	if cfg.Discord.Token == "" || cfg.Discord.ApplicationID == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN and DISCORD_APPLICATION_ID are required")
	}
	client, err := discord.New(cfg.Discord.Token, log)
	if err != nil {
		return nil, err
	}
	guildID := cfg.Discord.GuildID
	if commandsGuild != "" {
		guildID = commandsGuild
	}
	if guildID == "" {
		fmt.Fprintln(os.Stderr, "targeting global commands; changes may take up to an hour to propagate")
	}
	return discord.NewRegistrar(client.Session(), cfg.Discord.ApplicationID, guildID), nil
}
