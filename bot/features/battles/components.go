package battles

import (
	"fmt"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

const recordPrefix = "battle:"

// Record actions carried in custom ids
const (
	actionWinner     = "winner"
	actionCharacters = "characters"
	actionGames      = "games"
	actionVerify     = "verify"
	actionCancel     = "cancel"

	// Modal submits reuse the action with a suffix
	modalSuffix = "_modal"
)

// recordID builds "battle:<action>:<recordID>[:<arg>]"
func recordID(action, id string, arg ...string) string {
	parts := append([]string{action, id}, arg...)
	return recordPrefix + strings.Join(parts, ":")
}

func parseRecordID(customID string) (action, id, arg string, err error) {
	rest, ok := strings.CutPrefix(customID, recordPrefix)
	if !ok {
		return "", "", "", fmt.Errorf("custom id %q is not a battle control", customID)
	}
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("malformed battle control %q", customID)
	}
	if len(parts) == 3 {
		arg = parts[2]
	}
	return parts[0], parts[1], arg, nil
}

// recordComponents returns the editing controls, or none once the record is locked
func recordComponents(view *service.BattleRecordView, player1Name, player2Name string) []discordgo.MessageComponent {
	record := view.Record
	if record.IsLocked() {
		return []discordgo.MessageComponent{}
	}

	winnerButton := func(registrantID, name string) discordgo.Button {
		style := discordgo.SecondaryButton
		if record.WinnerID != nil && *record.WinnerID == registrantID {
			style = discordgo.SuccessButton
		}
		return discordgo.Button{
			Label:    common.Truncate(name+" won", 80),
			Style:    style,
			CustomID: recordID(actionWinner, record.ID, registrantID),
		}
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			winnerButton(record.Player1RegistrantID, player1Name),
			winnerButton(record.Player2RegistrantID, player2Name),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Characters", Style: discordgo.PrimaryButton, CustomID: recordID(actionCharacters, record.ID)},
			discordgo.Button{Label: "Games won", Style: discordgo.PrimaryButton, CustomID: recordID(actionGames, record.ID)},
			discordgo.Button{Label: "Verify", Style: discordgo.SuccessButton, CustomID: recordID(actionVerify, record.ID)},
			discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: recordID(actionCancel, record.ID)},
		}},
	}
}

func charactersModal(record *models.ClanBattleRecord, player1Name, player2Name string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: recordID(actionCharacters+modalSuffix, record.ID),
		Title:    "Characters played",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "player1", Label: common.Truncate(player1Name, 45), Style: discordgo.TextInputShort, Value: record.Player1Character, MaxLength: 50},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "player2", Label: common.Truncate(player2Name, 45), Style: discordgo.TextInputShort, Value: record.Player2Character, MaxLength: 50},
			}},
		},
	}
}

func gamesModal(record *models.ClanBattleRecord, player1Name, player2Name string) *discordgo.InteractionResponseData {
	value := func(games *int) string {
		if games == nil {
			return ""
		}
		return fmt.Sprint(*games)
	}
	return &discordgo.InteractionResponseData{
		CustomID: recordID(actionGames+modalSuffix, record.ID),
		Title:    "Games won",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "player1", Label: common.Truncate(player1Name, 45), Style: discordgo.TextInputShort, Value: value(record.Player1GamesWon), Required: true, MaxLength: 3},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "player2", Label: common.Truncate(player2Name, 45), Style: discordgo.TextInputShort, Value: value(record.Player2GamesWon), Required: true, MaxLength: 3},
			}},
		},
	}
}
