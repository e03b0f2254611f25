package battles

import (
	"testing"

	"guildcogs/models"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView() *service.BattleRecordView {
	return &service.BattleRecordView{
		Record: &models.ClanBattleRecord{
			ID:                  "rec-1",
			Player1RegistrantID: "reg-a",
			Player2RegistrantID: "reg-b",
		},
		Player1: &models.ClanRegistrant{ID: "reg-a", MemberID: 1},
		Player2: &models.ClanRegistrant{ID: "reg-b", MemberID: 2},
	}
}

func intPtr(v int) *int { return &v }

func TestRecordIDRoundTrip(t *testing.T) {
	action, id, arg, err := parseRecordID(recordID(actionWinner, "rec-1", "reg-a"))
	require.NoError(t, err)
	assert.Equal(t, actionWinner, action)
	assert.Equal(t, "rec-1", id)
	assert.Equal(t, "reg-a", arg)

	action, id, arg, err = parseRecordID(recordID(actionGames+modalSuffix, "rec-1"))
	require.NoError(t, err)
	assert.Equal(t, "games_modal", action)
	assert.Equal(t, "rec-1", id)
	assert.Empty(t, arg)

	for _, bad := range []string{"battle:verify", "battle::x", "other:verify:x"} {
		_, _, _, err := parseRecordID(bad)
		assert.Error(t, err, bad)
	}
}

func TestRecordComponents(t *testing.T) {
	view := testView()
	winner := "reg-b"
	view.Record.WinnerID = &winner

	rows := recordComponents(view, "Ann", "Bob")
	require.Len(t, rows, 2)
	winners := rows[0].(discordgo.ActionsRow).Components
	assert.Equal(t, discordgo.SecondaryButton, winners[0].(discordgo.Button).Style)
	assert.Equal(t, discordgo.SuccessButton, winners[1].(discordgo.Button).Style)
	assert.Equal(t, "battle:winner:rec-1:reg-b", winners[1].(discordgo.Button).CustomID)
	assert.Equal(t, "Bob won", winners[1].(discordgo.Button).Label)

	view.Record.Player1Verified = true
	view.Record.Player2Verified = true
	assert.Empty(t, recordComponents(view, "Ann", "Bob"))
}

func TestRecordEmbed(t *testing.T) {
	view := testView()
	embed := recordEmbed(view, "Ann", "Bob")
	assert.Equal(t, "⚔️ Ann vs Bob", embed.Title)
	assert.Contains(t, embed.Description, "Pick the winner")

	winner := "reg-a"
	view.Record.WinnerID = &winner
	view.Record.Player1GamesWon = intPtr(3)
	view.Record.Player2GamesWon = intPtr(1)
	view.Record.Player1Character = "Fox"
	embed = recordEmbed(view, "Ann", "Bob")
	assert.Equal(t, "🏆 Ann", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "Character: Fox")
	assert.Contains(t, embed.Fields[1].Value, "Games won: 1")
	assert.Equal(t, "(3-1)", scoreLine(view.Record))
}

func TestParseGames(t *testing.T) {
	p1, p2, err := parseGames(" 3", "2 ")
	require.NoError(t, err)
	assert.Equal(t, 3, p1)
	assert.Equal(t, 2, p2)

	_, _, err = parseGames("three", "2")
	var validation *service.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestFormatCharacters(t *testing.T) {
	assert.Equal(t, "Fox (3), Falco (1), Marth (1)", formatCharacters(map[string]int{"Marth": 1, "Fox": 3, "Falco": 1}))
}

func TestScoreboardEmbeds(t *testing.T) {
	embed := clanStandingsEmbed(models.PeriodAllTime, []*models.ClanStanding{
		{ClanID: "x", Name: "Owls", Wins: 2, Losses: 1, Points: 1500},
	})
	assert.Contains(t, embed.Title, "All time")
	assert.Contains(t, embed.Description, "🥇 **Owls** • 2W 1L • 1,500 pts")

	embed = memberStandingsEmbed(models.PeriodThisMonth, []*models.MemberStanding{
		{MemberID: 5, ClanID: "x", Wins: 1},
	}, map[string]string{"x": "Owls"})
	assert.Contains(t, embed.Description, "<@5> [Owls]")
}
