package clans

import (
	"fmt"
	"strconv"
	"strings"

	"guildcogs/bot/common"
	"guildcogs/bot/prompt"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

const (
	approveButtonPrefix = "clan_approve:"
	rejectButtonPrefix  = "clan_reject:"
)

// Editor actions carried in prompt custom ids
const (
	actionLeader  = "leader"
	actionMembers = "members"
	actionDetails = "details"
	actionModal   = "details_modal"
	actionActive  = "active"
	actionReset   = "reset"
	actionSave    = "save"
	actionCancel  = "cancel"
)

// maxSelectValues is the most users a select menu can hold
const maxSelectValues = 25

// approvalID is prefix + clanID + ":" + draft version
func approvalID(prefix, clanID string, version int64) string {
	return fmt.Sprintf("%s%s:%d", prefix, clanID, version)
}

func parseApprovalID(customID, prefix string) (clanID string, version int64, err error) {
	rest := strings.TrimPrefix(customID, prefix)
	sep := strings.LastIndexByte(rest, ':')
	if sep <= 0 {
		return "", 0, fmt.Errorf("malformed approval id %q", customID)
	}
	version, err = strconv.ParseInt(rest[sep+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed approval version in %q: %w", customID, err)
	}
	return rest[:sep], version, nil
}

func approvalComponents(clanID string, version int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: approvalID(approveButtonPrefix, clanID, version),
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					Label:    "Reject",
					Style:    discordgo.DangerButton,
					CustomID: approvalID(rejectButtonPrefix, clanID, version),
					Emoji:    &discordgo.ComponentEmoji{Name: "✖️"},
				},
			},
		},
	}
}

// editorComponents builds the draft editor. Only moderators may toggle the active flag.
func editorComponents(flow *prompt.Session, draft *service.ClanDraft, maxMembers int, moderator bool) []discordgo.MessageComponent {
	one := 1
	zero := 0

	leaderID := draft.LeaderMemberID()
	var memberDefaults []discordgo.SelectMenuDefaultValue
	for _, memberID := range draft.RosterMemberIDs() {
		if memberID == leaderID {
			continue
		}
		memberDefaults = append(memberDefaults, userDefault(memberID))
	}

	maxOthers := min(max(maxMembers-1, 1), maxSelectValues)
	if len(memberDefaults) > maxOthers {
		memberDefaults = memberDefaults[:maxOthers]
	}

	activeLabel := "Deactivate"
	if !draft.Clan.IsActive {
		activeLabel = "Activate"
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{Label: "Edit details", Style: discordgo.PrimaryButton, CustomID: flow.ID(actionDetails)},
	}
	if moderator && !draft.IsNew {
		buttons = append(buttons, discordgo.Button{Label: activeLabel, Style: discordgo.SecondaryButton, CustomID: flow.ID(actionActive)})
	}
	buttons = append(buttons,
		discordgo.Button{Label: "Reset", Style: discordgo.SecondaryButton, CustomID: flow.ID(actionReset)},
		discordgo.Button{Label: "Submit", Style: discordgo.SuccessButton, CustomID: flow.ID(actionSave)},
		discordgo.Button{Label: "Discard", Style: discordgo.DangerButton, CustomID: flow.ID(actionCancel)},
	)

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:      discordgo.UserSelectMenu,
				CustomID:      flow.ID(actionLeader),
				Placeholder:   "Choose the leader",
				MinValues:     &one,
				MaxValues:     1,
				DefaultValues: []discordgo.SelectMenuDefaultValue{userDefault(leaderID)},
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:      discordgo.UserSelectMenu,
				CustomID:      flow.ID(actionMembers),
				Placeholder:   "Choose the members",
				MinValues:     &zero,
				MaxValues:     maxOthers,
				DefaultValues: memberDefaults,
			},
		}},
		discordgo.ActionsRow{Components: buttons},
	}
}

func userDefault(memberID int64) discordgo.SelectMenuDefaultValue {
	return discordgo.SelectMenuDefaultValue{
		ID:   common.FormatID(memberID),
		Type: discordgo.SelectMenuDefaultValueUser,
	}
}

func detailsModal(flow *prompt.Session, draft *service.ClanDraft) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: flow.ID(actionModal),
		Title:    "Clan details",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "name", Label: "Name", Style: discordgo.TextInputShort, Value: draft.Clan.Name, Required: true, MaxLength: 64},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "description", Label: "Description", Style: discordgo.TextInputParagraph, Value: draft.Clan.Description, MaxLength: 1000},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{CustomID: "icon", Label: "Icon URL", Style: discordgo.TextInputShort, Value: draft.Clan.IconURL, Placeholder: "https://…", MaxLength: 400},
			}},
		},
	}
}
