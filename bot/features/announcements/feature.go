package announcements

import (
	"context"
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/config"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature lets moderators schedule recurring announcements
type Feature struct {
	cfg           *config.Config
	announcements service.AnnouncementService
	reporter      *common.ErrorReporter
}

func New(cfg *config.Config, announcements service.AnnouncementService, reporter *common.ErrorReporter) *Feature {
	return &Feature{
		cfg:           cfg,
		announcements: announcements,
		reporter:      reporter,
	}
}

// HandleCommand handles the /announce command and its subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	sub, opts := common.Subcommand(i)
	switch sub {
	case "create":
		channelID, _ := common.ParseID(i.ChannelID)
		if opt, ok := opts["channel"]; ok {
			if id, err := common.ParseID(fmt.Sprint(opt.Value)); err == nil {
				channelID = id
			}
		}
		announcement, err := f.announcements.Create(ctx, guildID, actor, channelID,
			stringOption(opts, "schedule"), stringOption(opts, "message"))
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to schedule the announcement.")
			return
		}
		f.respond(s, i, fmt.Sprintf("Announcement #%d scheduled for `%s` in <#%d>.", announcement.ID, announcement.CronSpec, announcement.ChannelID))

	case "list":
		list, err := f.announcements.List(ctx, guildID)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to list announcements.")
			return
		}
		if err := common.RespondWithEmbed(s, i, listEmbed(list), nil, true); err != nil {
			log.WithError(err).Error("Error listing announcements")
		}

	case "delete":
		id := intOption(opts, "id")
		if err := f.announcements.Delete(ctx, guildID, actor, id); err != nil {
			f.reporter.Respond(s, i, err, "Unable to delete the announcement.")
			return
		}
		f.respond(s, i, fmt.Sprintf("Announcement #%d deleted.", id))

	case "enable", "disable":
		id := intOption(opts, "id")
		if err := f.announcements.SetEnabled(ctx, guildID, actor, id, sub == "enable"); err != nil {
			f.reporter.Respond(s, i, err, "Unable to update the announcement.")
			return
		}
		f.respond(s, i, fmt.Sprintf("Announcement #%d %sd.", id, sub))

	default:
		common.RespondWithError(s, i, "Unknown subcommand.")
	}
}

func (f *Feature) respond(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := common.RespondWithSuccess(s, i, message, true); err != nil {
		log.WithError(err).Error("Error responding to announce command")
	}
}

func listEmbed(list []*models.Announcement) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📣 Scheduled Announcements",
		Color: common.ColorPrimary,
	}
	if len(list) == 0 {
		embed.Description = "Nothing is scheduled."
		return embed
	}

	var sb strings.Builder
	for _, a := range list {
		state := "🟢"
		if !a.Enabled {
			state = "⏸️"
		}
		fmt.Fprintf(&sb, "%s `#%d` `%s` in <#%d>\n> %s\n", state, a.ID, a.CronSpec, a.ChannelID, common.Truncate(strings.ReplaceAll(a.Message, "\n", " "), 80))
	}
	embed.Description = common.Truncate(sb.String(), 4096)
	return embed
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt, ok := opts[name]; ok {
		return opt.IntValue()
	}
	return 0
}
