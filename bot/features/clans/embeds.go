package clans

import (
	"fmt"
	"strings"
	"time"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

func activeLabel(active bool) string {
	if active {
		return "🟢 Active"
	}
	return "⚪ Inactive"
}

func thumbnail(iconURL string) *discordgo.MessageEmbedThumbnail {
	if iconURL == "" {
		return nil
	}
	return &discordgo.MessageEmbedThumbnail{URL: iconURL}
}

func rosterFields(view *service.ClanView) []*discordgo.MessageEmbedField {
	leaderID := view.LeaderMemberID()
	var members []int64
	for _, memberID := range view.RosterMemberIDs() {
		if memberID != leaderID {
			members = append(members, memberID)
		}
	}

	leader := "-"
	if leaderID != 0 {
		leader = common.Mention(leaderID)
	}
	return []*discordgo.MessageEmbedField{
		{Name: "Leader", Value: leader, Inline: true},
		{Name: "Status", Value: activeLabel(view.Clan.IsActive), Inline: true},
		{Name: fmt.Sprintf("Members (%d)", len(members)), Value: common.Truncate(common.MentionList(members), 1024)},
	}
}

// clanEmbed renders a live clan
func clanEmbed(view *service.ClanView) *discordgo.MessageEmbed {
	color := common.ColorPrimary
	if !view.Clan.IsActive {
		color = common.ColorNeutral
	}
	return &discordgo.MessageEmbed{
		Title:       "🛡️ " + view.Clan.Name,
		Description: view.Clan.Description,
		Color:       color,
		Thumbnail:   thumbnail(view.Clan.IconURL),
		Fields:      rosterFields(view),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Clan " + view.Clan.ID},
		Timestamp:   view.Clan.CreatedAt.Format(time.RFC3339),
	}
}

// editorEmbed previews a draft while its owner edits it
func editorEmbed(draft *service.ClanDraft, notice string) *discordgo.MessageEmbed {
	view := &service.ClanView{Clan: draft.Clan, Registrants: draft.Registrants}

	title := "New clan"
	if !draft.IsNew {
		title = "Editing clan"
	}
	name := draft.Clan.Name
	if name == "" {
		name = "*unnamed*"
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("✏️ %s: %s", title, name),
		Description: draft.Clan.Description,
		Color:       common.ColorWarning,
		Thumbnail:   thumbnail(draft.Clan.IconURL),
		Fields:      rosterFields(view),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Changes are only sent to moderators when you submit."},
	}
	if notice != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⚠️ Not applied", Value: notice})
	}
	return embed
}

// approvalEmbed renders a pending draft for moderators, noting what differs from the live clan
func approvalEmbed(view *service.PendingClanView) *discordgo.MessageEmbed {
	proposed := view.Proposed()
	clan := proposed.Clan

	title := "🆕 New clan: " + clan.Name
	if !view.Pending.IsNew {
		title = "📝 Clan change: " + clan.Name
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: clan.Description,
		Color:       common.ColorWarning,
		Thumbnail:   thumbnail(clan.IconURL),
		Fields:      rosterFields(proposed),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Clan " + clan.ID},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Submitted by",
		Value: fmt.Sprintf("%s %s", common.Mention(view.Pending.SubmittedBy), common.FormatDiscordTimestamp(view.Pending.DraftCreatedAt, "R")),
	})

	if changes := describeChanges(view.Live, clan); len(changes) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Changes",
			Value: common.Truncate(strings.Join(changes, "\n"), 1024),
		})
	}
	return embed
}

// describeChanges lists the differences between the live clan and a draft
func describeChanges(live, proposed *models.Clan) []string {
	if live == nil {
		return nil
	}
	var changes []string
	if live.Name != proposed.Name {
		changes = append(changes, fmt.Sprintf("Name: %s → %s", live.Name, proposed.Name))
	}
	if live.Description != proposed.Description {
		changes = append(changes, "Description changed")
	}
	if live.IconURL != proposed.IconURL {
		changes = append(changes, "Icon changed")
	}
	if live.IsActive != proposed.IsActive {
		changes = append(changes, fmt.Sprintf("Status: %s → %s", activeLabel(live.IsActive), activeLabel(proposed.IsActive)))
	}
	if live.LeaderRegistrantID != proposed.LeaderRegistrantID {
		changes = append(changes, "Leader changed")
	}

	joined, left := 0, 0
	for _, id := range proposed.ActiveRegistrantIDs {
		if !live.HasRegistrant(id) {
			joined++
		}
	}
	for _, id := range live.ActiveRegistrantIDs {
		if !proposed.HasRegistrant(id) {
			left++
		}
	}
	if joined > 0 || left > 0 {
		changes = append(changes, fmt.Sprintf("Roster: %d joining, %d leaving", joined, left))
	}
	return changes
}

// decidedEmbed replaces an approval message once a moderator acted on it
func decidedEmbed(original *discordgo.MessageEmbed, approved bool, moderatorID int64, note string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "Clan change"}
	if original != nil {
		cp := *original
		embed = &cp
	}

	verdict := fmt.Sprintf("✅ Approved by %s", common.Mention(moderatorID))
	embed.Color = common.ColorSuccess
	if !approved {
		verdict = fmt.Sprintf("✖️ Rejected by %s", common.Mention(moderatorID))
		embed.Color = common.ColorDanger
	}
	if note != "" {
		verdict += "\n" + note
	}
	embed.Fields = append(append([]*discordgo.MessageEmbedField{}, embed.Fields...), &discordgo.MessageEmbedField{
		Name:  "Decision",
		Value: verdict,
	})
	return embed
}

func clanListEmbed(clans []*models.Clan) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🛡️ Clans",
		Color: common.ColorPrimary,
	}
	if len(clans) == 0 {
		embed.Description = "No clans have been registered yet."
		return embed
	}

	var sb strings.Builder
	for _, clan := range clans {
		status := ""
		if !clan.IsActive {
			status = " *(inactive)*"
		}
		fmt.Fprintf(&sb, "**%s**%s • %d members\n", clan.Name, status, len(clan.ActiveRegistrantIDs))
	}
	embed.Description = common.Truncate(sb.String(), 4096)
	return embed
}

func pendingListEmbed(guildID string, views []*service.PendingClanView) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "⏳ Pending clan changes",
		Color: common.ColorWarning,
	}
	if len(views) == 0 {
		embed.Description = "Nothing is waiting for approval."
		return embed
	}

	var sb strings.Builder
	for _, view := range views {
		where := "*approval message missing*"
		if ref, ok := view.MessageRef(); ok {
			where = fmt.Sprintf("[jump](https://discord.com/channels/%s/%d/%d)", guildID, ref.ChannelID, ref.MessageID)
		}
		fmt.Fprintf(&sb, "**%s** by %s • %s\n", view.Pending.Clan.Name, common.Mention(view.Pending.SubmittedBy), where)
	}
	embed.Description = common.Truncate(sb.String(), 4096)
	return embed
}
