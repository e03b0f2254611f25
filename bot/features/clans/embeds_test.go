package clans

import (
	"testing"
	"time"

	"guildcogs/bot/prompt"
	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveClan() (*models.Clan, map[string]*models.ClanRegistrant) {
	clan := &models.Clan{
		ID:                  "clan-1",
		GuildID:             1,
		IsActive:            true,
		Name:                "Owls",
		LeaderRegistrantID:  "r-10",
		ActiveRegistrantIDs: []string{"r-10", "r-11"},
	}
	registrants := map[string]*models.ClanRegistrant{
		"r-10": {ID: "r-10", MemberID: 10, ClanID: "clan-1"},
		"r-11": {ID: "r-11", MemberID: 11, ClanID: "clan-1"},
	}
	return clan, registrants
}

func TestDescribeChanges(t *testing.T) {
	live, _ := liveClan()
	assert.Nil(t, describeChanges(nil, live))
	assert.Empty(t, describeChanges(live, live.Clone()))

	proposed := live.Clone()
	proposed.Name = "Night Owls"
	proposed.IsActive = false
	proposed.ActiveRegistrantIDs = []string{"r-10", "r-12", "r-13"}

	changes := describeChanges(live, proposed)
	assert.Contains(t, changes, "Name: Owls → Night Owls")
	assert.Contains(t, changes, "Roster: 2 joining, 1 leaving")
	assert.Len(t, changes, 3)
}

func TestMatchClan(t *testing.T) {
	clans := []*models.Clan{
		{ID: "a", Name: "Owls", IsActive: false},
		{ID: "b", Name: "owls", IsActive: true},
		{ID: "c", Name: "Hawks", IsActive: false},
	}
	assert.Equal(t, "b", matchClan(clans, "OWLS").ID)
	assert.Equal(t, "a", matchClan(clans, "a").ID)
	assert.Equal(t, "c", matchClan(clans, "hawks").ID)
	assert.Nil(t, matchClan(clans, "eagles"))
}

func TestEditorComponents(t *testing.T) {
	clan, registrants := liveClan()
	draft := service.DraftFromLive(clan, registrants, service.DraftOptions{MaxMembers: 5})
	flow := prompt.NewWaiter(time.Minute).Open()

	rows := editorComponents(flow, draft, 5, false)
	require.Len(t, rows, 3)

	leader := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, discordgo.UserSelectMenu, leader.MenuType)
	assert.Equal(t, flow.ID(actionLeader), leader.CustomID)
	require.Len(t, leader.DefaultValues, 1)
	assert.Equal(t, "10", leader.DefaultValues[0].ID)

	members := rows[1].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, 4, members.MaxValues)
	require.Len(t, members.DefaultValues, 1)
	assert.Equal(t, "11", members.DefaultValues[0].ID)

	assert.Len(t, rows[2].(discordgo.ActionsRow).Components, 4)

	// Moderators editing a live clan can also toggle it
	rows = editorComponents(flow, draft, 5, true)
	assert.Len(t, rows[2].(discordgo.ActionsRow).Components, 5)
}

func TestDecidedEmbedKeepsOriginal(t *testing.T) {
	original := &discordgo.MessageEmbed{
		Title:  "🆕 New clan: Owls",
		Fields: []*discordgo.MessageEmbedField{{Name: "Leader", Value: "<@10>"}},
	}

	decided := decidedEmbed(original, false, 99, "")
	assert.Equal(t, original.Title, decided.Title)
	require.Len(t, decided.Fields, 2)
	assert.Contains(t, decided.Fields[1].Value, "Rejected by <@99>")
	assert.Len(t, original.Fields, 1)
}

func TestApprovalEmbed(t *testing.T) {
	clan, registrants := liveClan()
	proposed := clan.Clone()
	proposed.Name = "Night Owls"

	view := &service.PendingClanView{
		Pending:     &models.PendingClanDraft{Clan: proposed, SubmittedBy: 10},
		Registrants: registrants,
		Live:        clan,
	}

	embed := approvalEmbed(view)
	assert.Equal(t, "📝 Clan change: Night Owls", embed.Title)
	assert.Equal(t, "<@10>", embed.Fields[0].Value)
	assert.Equal(t, "Changes", embed.Fields[len(embed.Fields)-1].Name)

	rows := approvalComponents(clan.ID, 1700000000123456)
	buttons := rows[0].(discordgo.ActionsRow).Components
	assert.Equal(t, "clan_approve:clan-1:1700000000123456", buttons[0].(discordgo.Button).CustomID)
	assert.Equal(t, "clan_reject:clan-1:1700000000123456", buttons[1].(discordgo.Button).CustomID)
}

func TestParseApprovalID(t *testing.T) {
	clanID, version, err := parseApprovalID("clan_approve:0b7c-41e2:1700000000123456", approveButtonPrefix)
	require.NoError(t, err)
	assert.Equal(t, "0b7c-41e2", clanID)
	assert.Equal(t, int64(1700000000123456), version)

	// ids posted before versions were added
	_, _, err = parseApprovalID("clan_reject:0b7c-41e2", rejectButtonPrefix)
	assert.Error(t, err)
	_, _, err = parseApprovalID("clan_approve:0b7c:x", approveButtonPrefix)
	assert.Error(t, err)
}
