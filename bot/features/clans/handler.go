package clans

import (
	"context"
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type commandOptions = map[string]*discordgo.ApplicationCommandInteractionDataOption

func (f *Feature) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	draft, err := f.clans.StartNewClanDraft(ctx, guildID, actor)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to start a clan draft.")
		return
	}
	f.runEditor(ctx, s, i, actor, draft)
}

// handleEdit opens the editor on a named clan, or on the invoker's own clan
func (f *Feature) handleEdit(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	clanID, err := f.resolveClanID(ctx, guildID, actor.ID, optionString(opts, "name"))
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to find that clan.")
		return
	}

	draft, err := f.clans.StartDraft(ctx, guildID, actor, clanID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to edit that clan.")
		return
	}
	f.runEditor(ctx, s, i, actor, draft)
}

func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate, opts commandOptions) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var view *service.ClanView
	if name := optionString(opts, "name"); name != "" {
		clanID, err := f.resolveClanID(ctx, guildID, userID, name)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to find that clan.")
			return
		}
		view, err = f.clans.GetClan(ctx, guildID, clanID)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to load that clan.")
			return
		}
	} else {
		memberID := userID
		if other := common.UserOption(opts, "user"); other != 0 {
			memberID = other
		}
		view, err = f.clans.ActiveClanOf(ctx, guildID, memberID)
		if err != nil {
			f.reporter.Respond(s, i, err, "Unable to load that clan.")
			return
		}
		if view == nil {
			common.RespondWithError(s, i, fmt.Sprintf("%s is not in an active clan.", common.Mention(memberID)))
			return
		}
	}

	if err := common.RespondWithEmbed(s, i, clanEmbed(view), nil, false); err != nil {
		log.WithError(err).Error("Error showing clan")
	}
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	clans, err := f.clans.ListClans(ctx, guildID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to list clans.")
		return
	}
	if err := common.RespondWithEmbed(s, i, clanListEmbed(clans), nil, false); err != nil {
		log.WithError(err).Error("Error listing clans")
	}
}

func (f *Feature) handlePending(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !actor.Moderator {
		common.RespondWithError(s, i, "Only moderators can review pending clans.")
		return
	}

	views, err := f.clans.PendingDrafts(ctx, guildID)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to list pending clans.")
		return
	}
	if err := common.RespondWithEmbed(s, i, pendingListEmbed(i.GuildID, views), nil, true); err != nil {
		log.WithError(err).Error("Error listing pending clans")
	}
}

func (f *Feature) handleApprove(s *discordgo.Session, i *discordgo.InteractionCreate, clanID string, version int64) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	result, err := f.clans.Approve(ctx, guildID, actor, clanID, version)
	if err != nil {
		f.reporter.Respond(s, i, err, "Unable to approve the clan.")
		return
	}

	var note string
	if len(result.MovedRegistrantIDs) > 0 {
		note = fmt.Sprintf("%d members left their previous clans.", len(result.MovedRegistrantIDs))
	}
	if len(result.DeactivatedClanIDs) > 0 {
		note = strings.TrimSpace(note + fmt.Sprintf(" %d clans lost their leader and were deactivated.", len(result.DeactivatedClanIDs)))
	}
	f.closeApproval(s, i, true, actor.ID, note)
}

func (f *Feature) handleReject(s *discordgo.Session, i *discordgo.InteractionCreate, clanID string, version int64) {
	ctx := context.Background()

	guildID, actor, err := common.ActorFromInteraction(f.cfg, i)
	if err != nil {
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	if _, err := f.clans.Reject(ctx, guildID, actor, clanID, version); err != nil {
		f.reporter.Respond(s, i, err, "Unable to reject the clan.")
		return
	}
	f.closeApproval(s, i, false, actor.ID, "")
}

// closeApproval records the decision on the approval message and removes its buttons
func (f *Feature) closeApproval(s *discordgo.Session, i *discordgo.InteractionCreate, approved bool, moderatorID int64, note string) {
	var original *discordgo.MessageEmbed
	if i.Message != nil && len(i.Message.Embeds) > 0 {
		original = i.Message.Embeds[0]
	}
	if err := common.UpdateComponentMessage(s, i, decidedEmbed(original, approved, moderatorID, note), nil); err != nil {
		log.WithError(err).Warn("Failed to update approval message")
	}
}

// HandleMessageDelete flags pending drafts whose approval message was deleted
func (f *Feature) HandleMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		return
	}
	messageID, err := common.ParseID(m.ID)
	if err != nil {
		return
	}
	if err := f.clans.MarkApprovalMessageDeleted(context.Background(), guildID, messageID); err != nil {
		log.WithError(err).WithField("messageID", messageID).Error("Failed to mark approval message deleted")
	}
}

// RepostMissingApprovals posts an approval message for every pending draft that has none.
// It runs when the gateway connects, since messages may have been deleted while offline.
func (f *Feature) RepostMissingApprovals(ctx context.Context, guildID int64) {
	views, err := f.clans.PendingDrafts(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guildID", guildID).Error("Failed to list pending clan drafts")
		return
	}

	fallback, _ := common.ParseID(f.cfg.OperatorChannelID)
	for _, view := range views {
		if _, ok := view.MessageRef(); ok {
			continue
		}
		if view.Pending.ChannelID == 0 {
			view.Pending.ChannelID = fallback
		}

		fields := log.Fields{"guildID": guildID, "clanID": view.Pending.Clan.ID}
		ref, err := f.presenter.PostApproval(ctx, view)
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Failed to re-post approval message")
			continue
		}
		if err := f.clans.AttachApprovalMessage(ctx, guildID, view.Pending.Clan.ID, ref); err != nil {
			log.WithError(err).WithFields(fields).Error("Failed to attach re-posted approval message")
			continue
		}
		log.WithFields(fields).Info("Re-posted approval message")
	}
}

// resolveClanID finds a clan by name or id. An empty query means the member's active clan.
func (f *Feature) resolveClanID(ctx context.Context, guildID, memberID int64, query string) (string, error) {
	if query == "" {
		view, err := f.clans.ActiveClanOf(ctx, guildID, memberID)
		if err != nil {
			return "", err
		}
		if view == nil {
			return "", service.NewValidationError("you are not in an active clan, name the clan to use")
		}
		return view.Clan.ID, nil
	}

	clans, err := f.clans.ListClans(ctx, guildID)
	if err != nil {
		return "", err
	}
	if clan := matchClan(clans, query); clan != nil {
		return clan.ID, nil
	}
	return "", service.NewNotFoundError("clan", query)
}

// matchClan prefers an exact id, then a case-insensitive name, active clans first
func matchClan(clans []*models.Clan, query string) *models.Clan {
	var inactive *models.Clan
	for _, clan := range clans {
		if clan.ID == query {
			return clan
		}
	}
	for _, clan := range clans {
		if !strings.EqualFold(clan.Name, query) {
			continue
		}
		if clan.IsActive {
			return clan
		}
		if inactive == nil {
			inactive = clan
		}
	}
	return inactive
}

func optionString(opts commandOptions, name string) string {
	if opt, ok := opts[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}
