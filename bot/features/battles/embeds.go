package battles

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

const maxScoreboardRows = 15

var periodTitles = map[models.ScoreboardPeriod]string{
	models.PeriodThisMonth: "This month",
	models.PeriodAllTime:   "All time",
}

// scoreLine renders "(3-1)" once both scores are known
func scoreLine(record *models.ClanBattleRecord) string {
	if record.Player1GamesWon == nil || record.Player2GamesWon == nil {
		return ""
	}
	return fmt.Sprintf("(%d-%d)", *record.Player1GamesWon, *record.Player2GamesWon)
}

func verifiedMark(verified bool) string {
	if verified {
		return "✅"
	}
	return "⬜"
}

func playerField(name string, character string, games *int, verified, winner bool) *discordgo.MessageEmbedField {
	title := name
	if winner {
		title = "🏆 " + name
	}
	lines := []string{fmt.Sprintf("%s verified", verifiedMark(verified))}
	if character != "" {
		lines = append(lines, "Character: "+character)
	}
	if games != nil {
		lines = append(lines, fmt.Sprintf("Games won: %d", *games))
	}
	return &discordgo.MessageEmbedField{
		Name:   common.Truncate(title, 256),
		Value:  strings.Join(lines, "\n"),
		Inline: true,
	}
}

// recordEmbed renders a battle record message
func recordEmbed(view *service.BattleRecordView, player1Name, player2Name string) *discordgo.MessageEmbed {
	record := view.Record
	isWinner := func(registrantID string) bool {
		return record.WinnerID != nil && *record.WinnerID == registrantID
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("⚔️ %s vs %s", player1Name, player2Name),
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			playerField(player1Name, record.Player1Character, record.Player1GamesWon, record.Player1Verified, isWinner(record.Player1RegistrantID)),
			playerField(player2Name, record.Player2Character, record.Player2GamesWon, record.Player2Verified, isWinner(record.Player2RegistrantID)),
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Both players verify once the result is right. Any edit clears verification."},
	}

	switch {
	case record.IsLocked():
		embed.Color = common.ColorSuccess
		embed.Description = "Verified by both players. This result counts toward the scoreboard."
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Record " + record.ID}
	case record.WinnerID == nil:
		embed.Description = "Pick the winner or enter the games won."
	}
	return embed
}

func clanStandingsEmbed(period models.ScoreboardPeriod, standings []*models.ClanStanding) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏰 Clan Scoreboard • " + periodTitles[period],
		Color: common.ColorPrimary,
	}
	if len(standings) == 0 {
		embed.Description = "No clans yet."
		return embed
	}

	var sb strings.Builder
	for rank, st := range standings[:min(len(standings), maxScoreboardRows)] {
		fmt.Fprintf(&sb, "%s **%s** • %dW %dL • %s pts\n", common.Medal(rank), st.Name, st.Wins, st.Losses, common.FormatBalance(st.Points))
	}
	embed.Description = sb.String()
	return embed
}

func memberStandingsEmbed(period models.ScoreboardPeriod, standings []*models.MemberStanding, clanNames map[string]string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🗡️ Member Scoreboard • " + periodTitles[period],
		Color: common.ColorPrimary,
	}
	if len(standings) == 0 {
		embed.Description = "No results yet."
		return embed
	}

	var sb strings.Builder
	for rank, st := range standings[:min(len(standings), maxScoreboardRows)] {
		clan := clanNames[st.ClanID]
		if clan != "" {
			clan = " [" + clan + "]"
		}
		fmt.Fprintf(&sb, "%s %s%s • %dW %dL • %s pts\n", common.Medal(rank), common.Mention(st.MemberID), clan, st.Wins, st.Losses, common.FormatBalance(st.Points))
	}
	embed.Description = sb.String()
	return embed
}

func profileEmbed(displayName string, profile *models.MemberProfile, clanNames map[string]string) *discordgo.MessageEmbed {
	clan := "-"
	if name, ok := clanNames[profile.ActiveClanID]; ok {
		clan = name
	}

	embed := &discordgo.MessageEmbed{
		Title: "👤 " + displayName,
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Clan", Value: clan, Inline: true},
			{Name: "Record", Value: fmt.Sprintf("%dW %dL", profile.Wins, profile.Losses), Inline: true},
			{Name: "Points", Value: common.FormatBalance(profile.Points), Inline: true},
		},
	}

	if len(profile.Characters) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Characters",
			Value: common.Truncate(formatCharacters(profile.Characters), 1024),
		})
	}

	var history []string
	for _, clanID := range profile.ClanIDs {
		if name, ok := clanNames[clanID]; ok {
			history = append(history, name)
		}
	}
	if len(history) > 1 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Clan history",
			Value: common.Truncate(strings.Join(history, ", "), 1024),
		})
	}
	return embed
}

// formatCharacters lists characters by games played, most played first
func formatCharacters(characters map[string]int) string {
	names := slices.SortedFunc(maps.Keys(characters), func(a, b string) int {
		if c := cmp.Compare(characters[b], characters[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	parts := make([]string, len(names))
	for idx, name := range names {
		parts[idx] = fmt.Sprintf("%s (%d)", name, characters[name])
	}
	return strings.Join(parts, ", ")
}
