package bot

import (
	"fmt"

	"guildcogs/bot/features/economy"
	"guildcogs/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func option(kind discordgo.ApplicationCommandOptionType, name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        kind,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func poolIDOption() *discordgo.ApplicationCommandOption {
	return option(discordgo.ApplicationCommandOptionInteger, "id", "Bet pool ID", true)
}

func announcementIDOption() *discordgo.ApplicationCommandOption {
	return option(discordgo.ApplicationCommandOptionInteger, "id", "Announcement ID", true)
}

func periodOption() *discordgo.ApplicationCommandOption {
	opt := option(discordgo.ApplicationCommandOptionString, "period", "Scoreboard period", false)
	opt.Choices = []*discordgo.ApplicationCommandOptionChoice{
		{Name: "This month", Value: string(models.PeriodThisMonth)},
		{Name: "All time", Value: string(models.PeriodAllTime)},
	}
	return opt
}

func settingOption() *discordgo.ApplicationCommandOption {
	opt := option(discordgo.ApplicationCommandOptionString, "setting", "Setting to change", true)
	for _, name := range economy.SettingNames {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return opt
}

func userAmountOptions(verb string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		option(discordgo.ApplicationCommandOptionUser, "user", "Member whose balance to "+verb, true),
		option(discordgo.ApplicationCommandOptionInteger, "amount", "Amount of coins", true),
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check a coin balance",
			Options: []*discordgo.ApplicationCommandOption{
				option(discordgo.ApplicationCommandOptionUser, "user", "Member to check, defaults to you", false),
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the richest members",
		},
		{
			Name:        "bank",
			Description: "Adjust member balances",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Add coins to a member", userAmountOptions("increase")...),
				subcommand("remove", "Remove coins from a member", userAmountOptions("decrease")...),
				subcommand("set", "Set a member's balance", userAmountOptions("set")...),
			},
		},
		{
			Name:        "economy",
			Description: "View or change economy settings",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("view", "Show the current economy settings"),
				subcommand("set", "Change an economy setting",
					settingOption(),
					option(discordgo.ApplicationCommandOptionString, "value", "New value", true),
				),
			},
		},
		{
			Name:        "betpool",
			Description: "Create and manage bet pools",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Create a new bet pool",
					option(discordgo.ApplicationCommandOptionString, "title", "What members bet on", true),
				),
				subcommand("details", "Edit the title and description of a pool", poolIDOption()),
				subcommand("options", "Set the options of a pool", poolIDOption()),
				subcommand("minimum", "Set the minimum first bet of a pool",
					poolIDOption(),
					option(discordgo.ApplicationCommandOptionInteger, "amount", "Minimum bet", true),
				),
				subcommand("toggle", "Open or close a pool for betting", poolIDOption()),
				subcommand("adjust", "Add or remove coins from the pot",
					poolIDOption(),
					option(discordgo.ApplicationCommandOptionInteger, "amount", "Signed amount", true),
				),
				subcommand("resolve", "Pay out a pool to the winning option",
					poolIDOption(),
					option(discordgo.ApplicationCommandOptionInteger, "option", "Winning option number", true),
				),
				subcommand("cancel", "Cancel a pool and refund every bet", poolIDOption()),
				subcommand("show", "Post the pool message again", poolIDOption()),
				subcommand("list", "List the pools of this server"),
			},
		},
		{
			Name:        "clan",
			Description: "Register and browse clans",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Draft a new clan for approval"),
				subcommand("edit", "Draft changes to a clan",
					option(discordgo.ApplicationCommandOptionString, "name", "Clan to edit, defaults to your own", false),
				),
				subcommand("info", "Show a clan",
					option(discordgo.ApplicationCommandOptionString, "name", "Clan name", false),
					option(discordgo.ApplicationCommandOptionUser, "user", "Show this member's clan", false),
				),
				subcommand("list", "List active clans"),
				subcommand("pending", "List drafts awaiting approval"),
			},
		},
		{
			Name:        "battle",
			Description: "Record battles",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("report", "Start a battle record against an opponent",
					option(discordgo.ApplicationCommandOptionUser, "opponent", "Your opponent", true),
				),
			},
		},
		{
			Name:        "scoreboard",
			Description: "Show battle standings",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("clans", "Standings by clan", periodOption()),
				subcommand("members", "Standings by member", periodOption()),
			},
		},
		{
			Name:        "profile",
			Description: "Show a member's battle profile",
			Options: []*discordgo.ApplicationCommandOption{
				option(discordgo.ApplicationCommandOptionUser, "user", "Member to show, defaults to you", false),
			},
		},
		{
			Name:        "award",
			Description: "Award scoreboard points to a member",
			Options: []*discordgo.ApplicationCommandOption{
				option(discordgo.ApplicationCommandOptionUser, "user", "Member to award", true),
				option(discordgo.ApplicationCommandOptionInteger, "points", "Points, negative to deduct", true),
				option(discordgo.ApplicationCommandOptionString, "reason", "Reason for the award", false),
			},
		},
		{
			Name:        "announce",
			Description: "Schedule recurring announcements",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Schedule an announcement",
					option(discordgo.ApplicationCommandOptionString, "schedule", "Cron expression, e.g. 0 9 * * MON", true),
					option(discordgo.ApplicationCommandOptionString, "message", "Text to post", true),
					&discordgo.ApplicationCommandOption{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel to post in, defaults to this one",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
				),
				subcommand("list", "List scheduled announcements"),
				subcommand("delete", "Delete an announcement", announcementIDOption()),
				subcommand("enable", "Resume an announcement", announcementIDOption()),
				subcommand("disable", "Pause an announcement", announcementIDOption()),
			},
		},
	}
}

// registerCommands replaces the registered slash commands with the current definitions
func (b *Bot) registerCommands() error {
	commands := commandDefinitions()
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commands)
	if err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}
	log.Infof("Registered %d slash commands", len(registered))
	return nil
}
