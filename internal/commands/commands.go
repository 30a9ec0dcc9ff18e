package commands

import "github.com/bwmarrin/discordgo"

// Definitions returns all application commands the bot registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "alert",
			Description: "Send the configured alert announcement",
		},
		{
			Name:        "massrole",
			Description: "Assign a role to members in bulk",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "role",
					Description: "Role to assign",
					Type:        discordgo.ApplicationCommandOptionRole,
					Required:    true,
				},
				{
					Name:        "mode",
					Description: "Assign to all members or a single member",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "All members", Value: "ALL"},
						{Name: "One member", Value: "ONE"},
					},
				},
				{
					Name:        "user",
					Description: "Target member (mode ONE)",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    false,
				},
				{
					Name:        "include_bots",
					Description: "Also assign to bot accounts (mode ALL)",
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Required:    false,
				},
			},
		},
		{
			Name:        "ping",
			Description: "Check bot latency",
		},
		{
			Name:        "stats",
			Description: "Show host and runtime statistics",
		},
	}
}
