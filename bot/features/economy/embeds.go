package economy

import (
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"

	"github.com/bwmarrin/discordgo"
)

var transactionLabels = map[models.TransactionType]string{
	models.TransactionTypeBetPoolWager:  "Bet placed",
	models.TransactionTypeBetPoolPayout: "Bet payout",
	models.TransactionTypeBetPoolRefund: "Bet refund",
	models.TransactionTypePassiveIncome: "Chat reward",
	models.TransactionTypeBalanceSet:    "Set by moderator",
	models.TransactionTypeBalanceAdd:    "Added by moderator",
	models.TransactionTypeBalanceRemove: "Removed by moderator",
}

func balanceEmbed(displayName string, balance int64, history []*models.BalanceHistory) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("💰 %s", displayName),
		Description: fmt.Sprintf("**%s coins**", common.FormatBalance(balance)),
		Color:       common.ColorPrimary,
	}

	if len(history) > 0 {
		var lines []string
		for _, h := range history {
			label, ok := transactionLabels[h.TransactionType]
			if !ok {
				label = string(h.TransactionType)
			}
			sign := "+"
			if h.ChangeAmount < 0 {
				sign = ""
			}
			lines = append(lines, fmt.Sprintf("%s `%s%s` %s",
				common.FormatDiscordTimestamp(h.CreatedAt, "R"), sign, common.FormatBalance(h.ChangeAmount), label))
		}
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Recent activity",
			Value: strings.Join(lines, "\n"),
		}}
	}
	return embed
}

func leaderboardEmbed(entries []*models.LeaderboardEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏆 Richest Members",
		Color: common.ColorPrimary,
	}
	if len(entries) == 0 {
		embed.Description = "Nobody has any coins yet."
		return embed
	}

	var sb strings.Builder
	for rank, entry := range entries {
		fmt.Fprintf(&sb, "%s %s **%s**\n", common.Medal(rank), common.Mention(entry.DiscordID), common.FormatBalance(entry.Balance))
	}
	embed.Description = sb.String()
	return embed
}

func settingsEmbed(s *models.LedgerSettings) *discordgo.MessageEmbed {
	response := s.PassiveResponse
	if response == "" {
		response = "*none*"
	}
	return &discordgo.MessageEmbed{
		Title: "⚙️ Economy Settings",
		Color: common.ColorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Offset", Value: common.FormatBalance(s.Offset), Inline: true},
			{Name: "Max balance", Value: common.FormatBalance(s.MaxBalance), Inline: true},
			{Name: "Daily cap", Value: fmt.Sprintf("%d awards", s.PassiveDailyCap), Inline: true},
			{Name: "Passive", Value: fmt.Sprintf("%s coins at %s", common.FormatBalance(s.PassiveAmount), formatChance(s.PassiveChance)), Inline: true},
			{Name: "Bonus", Value: fmt.Sprintf("x%d at %s", s.BonusMultiplier, formatChance(s.BonusChance)), Inline: true},
			{Name: "Jackpot", Value: fmt.Sprintf("x%d at %s", s.JackpotMultiplier, formatChance(s.JackpotChance)), Inline: true},
			{Name: "Response", Value: common.Truncate(response, 1024)},
		},
	}
}
