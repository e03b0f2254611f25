package betpools

import (
	"fmt"
	"strconv"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"

	"github.com/bwmarrin/discordgo"
)

const (
	betButtonPrefix = "betpool_bet:"
	betModalPrefix  = "betpool_amount:"

	buttonsPerRow  = 5
	maxButtonLabel = 80
	maxModalTitle  = 45
)

func betButtonID(poolID int64, optionID int) string {
	return fmt.Sprintf("%s%d:%d", betButtonPrefix, poolID, optionID)
}

func betModalID(poolID int64, optionID int) string {
	return fmt.Sprintf("%s%d:%d", betModalPrefix, poolID, optionID)
}

// parseBetTarget extracts the pool and option from a bet button or modal custom id
func parseBetTarget(customID, prefix string) (poolID int64, optionID int, err error) {
	rest, ok := strings.CutPrefix(customID, prefix)
	if !ok {
		return 0, 0, fmt.Errorf("custom id %q lacks prefix %q", customID, prefix)
	}
	poolPart, optionPart, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed custom id %q", customID)
	}
	poolID, err = strconv.ParseInt(poolPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pool id in %q: %w", customID, err)
	}
	optionID, err = strconv.Atoi(optionPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid option id in %q: %w", customID, err)
	}
	return poolID, optionID, nil
}

// poolComponents returns one bet button per option while the pool is open
func poolComponents(detail *models.BetPoolDetail) []discordgo.MessageComponent {
	if detail.Pool.State != models.BetPoolStateOpen || len(detail.Options) == 0 {
		return []discordgo.MessageComponent{}
	}

	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for _, option := range detail.Options {
		row = append(row, discordgo.Button{
			Label:    common.Truncate(option.Name, maxButtonLabel),
			Style:    discordgo.PrimaryButton,
			CustomID: betButtonID(detail.Pool.ID, option.ID),
		})
		if len(row) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

func betModal(detail *models.BetPoolDetail, option *models.BetPoolOption, existing *models.Better) *discordgo.InteractionResponseData {
	placeholder := fmt.Sprintf("Minimum %d", detail.Pool.MinimumBet)
	if existing != nil {
		placeholder = fmt.Sprintf("Adds to your %d coin bet", existing.Amount)
	}
	return &discordgo.InteractionResponseData{
		CustomID: betModalID(detail.Pool.ID, option.ID),
		Title:    common.Truncate("Bet on "+option.Name, maxModalTitle),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "amount",
						Label:       "Amount",
						Style:       discordgo.TextInputShort,
						Placeholder: placeholder,
						Required:    true,
						MaxLength:   12,
					},
				},
			},
		},
	}
}
