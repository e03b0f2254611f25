package betpools

import (
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"

	"github.com/bwmarrin/discordgo"
)

var stateLabels = map[models.BetPoolState]string{
	models.BetPoolStateConfig:    "🛠️ Being set up",
	models.BetPoolStateOpen:      "🟢 Open for bets",
	models.BetPoolStateClosed:    "🔒 Betting closed",
	models.BetPoolStateCancelled: "🚫 Cancelled",
	models.BetPoolStateResolved:  "🏁 Resolved",
}

func stateColor(state models.BetPoolState) int {
	switch state {
	case models.BetPoolStateOpen:
		return common.ColorSuccess
	case models.BetPoolStateClosed:
		return common.ColorWarning
	case models.BetPoolStateCancelled:
		return common.ColorDanger
	case models.BetPoolStateResolved:
		return common.ColorPrimary
	default:
		return common.ColorNeutral
	}
}

// createProgressBar renders a share of the pool with block characters
func createProgressBar(share float64, length int) string {
	share = min(max(share, 0), 1)
	filled := int(float64(length) * share)
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// poolEmbed renders the public pool message
func poolEmbed(detail *models.BetPoolDetail) *discordgo.MessageEmbed {
	pool := detail.Pool
	total := detail.Total()

	var desc strings.Builder
	if pool.Description != "" {
		desc.WriteString(pool.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "**Total pool: %s coins**", common.FormatBalance(total))
	if pool.BaseValue > 0 {
		fmt.Fprintf(&desc, " (includes %s seeded)", common.FormatBalance(pool.BaseValue))
	}
	if pool.MinimumBet > 0 {
		fmt.Fprintf(&desc, "\nMinimum bet: %s", common.FormatBalance(pool.MinimumBet))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎲 %s", pool.Title),
		Description: desc.String(),
		Color:       stateColor(pool.State),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Pool #%d • %s", pool.ID, stateLabels[pool.State]),
		},
	}

	staked := total - pool.BaseValue
	for _, option := range detail.Options {
		optionTotal := detail.OptionTotal(option.ID)
		var share float64
		if staked > 0 {
			share = float64(optionTotal) / float64(staked)
		}

		name := fmt.Sprintf("%d. %s", option.ID, option.Name)
		if pool.WinningOptionID != nil && *pool.WinningOptionID == option.ID {
			name = "🏆 " + name
		}

		value := fmt.Sprintf("%s %.0f%%\n%s coins from %d", createProgressBar(share, 10), share*100,
			common.FormatBalance(optionTotal), countBetters(detail, option.ID))
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   common.Truncate(name, 256),
			Value:  value,
			Inline: true,
		})
	}

	if len(detail.Options) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Options",
			Value: "No options yet. The author adds them with `/betpool options`.",
		})
	}
	return embed
}

func countBetters(detail *models.BetPoolDetail, optionID int) int {
	n := 0
	for _, b := range detail.Betters {
		if b.OptionID == optionID {
			n++
		}
	}
	return n
}

// settlementSummary describes who got paid when a pool resolved or was cancelled
func settlementSummary(settlement *models.BetPoolSettlement) string {
	pool := settlement.Pool.Pool

	var sb strings.Builder
	if pool.State == models.BetPoolStateCancelled {
		fmt.Fprintf(&sb, "🚫 **%s** was cancelled.", pool.Title)
		if len(settlement.Payouts) > 0 {
			fmt.Fprintf(&sb, " %s coins were refunded.", common.FormatBalance(settlement.TotalPaid()))
		}
		return sb.String()
	}

	winner := "?"
	if pool.WinningOptionID != nil {
		if option := settlement.Pool.Option(*pool.WinningOptionID); option != nil {
			winner = option.Name
		}
	}
	fmt.Fprintf(&sb, "🏁 **%s** resolved: **%s** wins!", pool.Title, winner)
	if len(settlement.Payouts) == 0 {
		sb.WriteString("\nNobody picked the winner.")
		return sb.String()
	}
	for _, payout := range settlement.Payouts {
		fmt.Fprintf(&sb, "\n%s bet %s and receives **%s**", common.Mention(payout.MemberID),
			common.FormatBalance(payout.Wagered), common.FormatBalance(payout.Amount))
	}
	return common.Truncate(sb.String(), 2000)
}

func poolListEmbed(pools []*models.BetPool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎲 Bet Pools",
		Color: common.ColorPrimary,
	}
	if len(pools) == 0 {
		embed.Description = "No active pools."
		return embed
	}
	var sb strings.Builder
	for _, pool := range pools {
		fmt.Fprintf(&sb, "`#%d` %s • %s\n", pool.ID, pool.Title, stateLabels[pool.State])
	}
	embed.Description = common.Truncate(sb.String(), 4096)
	return embed
}
