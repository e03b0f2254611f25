package service

import (
	"context"
	"testing"
	"time"

	"guildcogs/events"
	"guildcogs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type battleFixture struct {
	*clanFixture
	battles    BattleRecordService
	scoreboard ScoreboardService
	clanX      string
	clanY      string
}

// newBattleFixture registers clan X (members 1, 2) and clan Y (members 3, 4)
func newBattleFixture(t *testing.T) *battleFixture {
	f := &battleFixture{clanFixture: newClanFixture()}
	f.battles = NewBattleRecordService(f.store)
	f.scoreboard = NewScoreboardService(f.store, f.cfg)
	f.clanX = f.register(t, 1, "X", 2).Clan.Clan.ID
	f.clanY = f.register(t, 3, "Y", 4).Clan.Clan.ID
	return f
}

func TestBattleRecordService_VerifyFlow(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	record, err := f.battles.Report(ctx, testGuildID, 1, 3)
	require.NoError(t, err)
	assert.Nil(t, record.Player1GamesWon)
	assert.Nil(t, record.WinnerID)

	record, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 1}, 3, 1)
	require.NoError(t, err)
	require.NotNil(t, record.WinnerID)
	assert.Equal(t, record.Player1RegistrantID, *record.WinnerID)
	assert.False(t, record.Player1Verified)
	assert.False(t, record.Player2Verified)

	record, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 1})
	require.NoError(t, err)
	assert.True(t, record.Player1Verified)
	assert.False(t, record.IsLocked())

	standings, err := f.scoreboard.ClanStandings(ctx, testGuildID, models.PeriodThisMonth)
	require.NoError(t, err)
	for _, st := range standings {
		assert.Zero(t, st.Wins)
	}

	record, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 3})
	require.NoError(t, err)
	assert.True(t, record.IsLocked())

	var locked int
	for _, e := range f.store.Events() {
		if _, ok := e.(events.BattleRecordLockedEvent); ok {
			locked++
		}
	}
	assert.Equal(t, 1, locked)

	standings, err = f.scoreboard.ClanStandings(ctx, testGuildID, models.PeriodThisMonth)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, f.clanX, standings[0].ClanID)
	assert.Equal(t, 1, standings[0].Wins)
	assert.Equal(t, 1, standings[1].Losses)

	_, err = f.battles.SetCharacters(ctx, testGuildID, record.ID, Actor{ID: 1}, "Fox", "Falco")
	assertValidationError(t, err)
	_, err = f.battles.Cancel(ctx, testGuildID, record.ID, moderator)
	assertValidationError(t, err)
}

func TestBattleRecordService_EditResetsVerification(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	record, err := f.battles.Report(ctx, testGuildID, 1, 3)
	require.NoError(t, err)
	record, err = f.battles.SetWinner(ctx, testGuildID, record.ID, Actor{ID: 3}, record.Player2RegistrantID)
	require.NoError(t, err)

	record, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 3})
	require.NoError(t, err)
	assert.True(t, record.Player2Verified)

	edits := []func() (*models.ClanBattleRecord, error){
		func() (*models.ClanBattleRecord, error) {
			return f.battles.SetCharacters(ctx, testGuildID, record.ID, Actor{ID: 1}, "Fox", "Marth")
		},
		func() (*models.ClanBattleRecord, error) {
			return f.battles.SetGamesWon(ctx, testGuildID, record.ID, moderator, 1, 3)
		},
		func() (*models.ClanBattleRecord, error) {
			return f.battles.SetWinner(ctx, testGuildID, record.ID, Actor{ID: 3}, record.Player2RegistrantID)
		},
	}
	for _, edit := range edits {
		_, err := f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 3})
		require.NoError(t, err)

		updated, err := edit()
		require.NoError(t, err)
		assert.False(t, updated.Player1Verified)
		assert.False(t, updated.Player2Verified)
	}
}

func TestBattleRecordService_Rules(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	_, err := f.battles.Report(ctx, testGuildID, 1, 1)
	assertValidationError(t, err)
	_, err = f.battles.Report(ctx, testGuildID, 1, 99)
	assertValidationError(t, err)
	_, err = f.battles.Report(ctx, testGuildID, 99, 1)
	assertValidationError(t, err)

	// Clanmates may record a battle against each other
	_, err = f.battles.Report(ctx, testGuildID, 1, 2)
	assert.NoError(t, err)

	record, err := f.battles.Report(ctx, testGuildID, 1, 3)
	require.NoError(t, err)

	_, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 1})
	assertValidationError(t, err)

	_, err = f.battles.SetWinner(ctx, testGuildID, record.ID, Actor{ID: 1}, "someone-else")
	assertValidationError(t, err)

	_, err = f.battles.SetWinner(ctx, testGuildID, record.ID, Actor{ID: 4}, record.Player1RegistrantID)
	assertPermissionError(t, err)

	_, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 1}, -1, 2)
	assertValidationError(t, err)

	record, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 1}, 2, 2)
	require.NoError(t, err)
	assert.Nil(t, record.WinnerID)

	record, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 1}, 2, 3)
	require.NoError(t, err)

	_, err = f.battles.Verify(ctx, testGuildID, record.ID, moderator)
	assertPermissionError(t, err)

	_, err = f.battles.Get(ctx, testGuildID, "missing")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestBattleRecordService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	record, err := f.battles.Report(ctx, testGuildID, 1, 3)
	require.NoError(t, err)
	_, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 1}, 2, 0)
	require.NoError(t, err)
	_, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: 1})
	require.NoError(t, err)

	result, err := f.battles.Cancel(ctx, testGuildID, record.ID, Actor{ID: 1})
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	assert.False(t, result.Record.Player1Verified)

	_, err = f.battles.Cancel(ctx, testGuildID, record.ID, Actor{ID: 4})
	assertPermissionError(t, err)

	result, err = f.battles.Cancel(ctx, testGuildID, record.ID, moderator)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = f.battles.Get(ctx, testGuildID, record.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestBattleRecordService_AwardPoints(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	_, err := f.battles.AwardPoints(ctx, testGuildID, Actor{ID: 1}, 2, 5, "tournament")
	assertPermissionError(t, err)
	_, err = f.battles.AwardPoints(ctx, testGuildID, moderator, 2, 0, "nothing")
	assertValidationError(t, err)
	_, err = f.battles.AwardPoints(ctx, testGuildID, moderator, 99, 5, "stranger")
	assertValidationError(t, err)

	award, err := f.battles.AwardPoints(ctx, testGuildID, moderator, 4, 7, "tournament")
	require.NoError(t, err)
	assert.Equal(t, int64(7), award.Points)

	standings, err := f.scoreboard.ClanStandings(ctx, testGuildID, models.PeriodAllTime)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, f.clanY, standings[0].ClanID)
	assert.Equal(t, int64(7), standings[0].Points)

	members, err := f.scoreboard.MemberStandings(ctx, testGuildID, models.PeriodAllTime)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(4), members[0].MemberID)
	assert.Equal(t, f.clanY, members[0].ClanID)
}

func TestScoreboardService_PeriodsAndProfile(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	record, err := f.battles.Report(ctx, testGuildID, 1, 3)
	require.NoError(t, err)
	_, err = f.battles.SetCharacters(ctx, testGuildID, record.ID, Actor{ID: 1}, "Fox", "Marth")
	require.NoError(t, err)
	_, err = f.battles.SetGamesWon(ctx, testGuildID, record.ID, Actor{ID: 3}, 3, 2)
	require.NoError(t, err)
	for _, player := range []int64{1, 3} {
		_, err = f.battles.Verify(ctx, testGuildID, record.ID, Actor{ID: player})
		require.NoError(t, err)
	}

	// An old locked loss for member 1, outside this month
	old := &models.ClanBattleRecord{
		ID:                  "old-record",
		GuildID:             testGuildID,
		Player1RegistrantID: record.Player1RegistrantID,
		Player1Character:    "Fox",
		Player1Verified:     true,
		Player2RegistrantID: record.Player2RegistrantID,
		Player2Verified:     true,
		WinnerID:            &record.Player2RegistrantID,
		CreatedAt:           time.Now().AddDate(-1, 0, 0),
	}
	f.store.view(func(s *memoryState) { s.records[old.ID] = old })

	month, err := f.scoreboard.MemberStandings(ctx, testGuildID, models.PeriodThisMonth)
	require.NoError(t, err)
	require.Len(t, month, 2)
	assert.Equal(t, int64(1), month[0].MemberID)
	assert.Equal(t, 1, month[0].Wins)
	assert.Equal(t, 0, month[0].Losses)

	all, err := f.scoreboard.MemberStandings(ctx, testGuildID, models.PeriodAllTime)
	require.NoError(t, err)
	for _, st := range all {
		assert.Equal(t, 1, st.Wins)
		assert.Equal(t, 1, st.Losses)
	}

	profile, err := f.scoreboard.MemberProfile(ctx, testGuildID, 1)
	require.NoError(t, err)
	assert.Equal(t, f.clanX, profile.ActiveClanID)
	assert.Equal(t, 1, profile.Wins)
	assert.Equal(t, 1, profile.Losses)
	assert.Equal(t, map[string]int{"Fox": 2}, profile.Characters)
	assert.Equal(t, []string{f.clanX}, profile.ClanIDs)

	_, err = f.scoreboard.ClanStandings(ctx, testGuildID, "weekly")
	assertValidationError(t, err)
}

func TestAggregateMemberProfile_SpansClans(t *testing.T) {
	winner := "reg-a1"
	registrants := []*models.ClanRegistrant{
		{ID: "reg-a1", MemberID: 1, ClanID: "clan-a"},
		{ID: "reg-b1", MemberID: 1, ClanID: "clan-b"},
		{ID: "reg-c2", MemberID: 2, ClanID: "clan-c"},
	}
	lost := "reg-c2"
	records := []*models.ClanBattleRecord{
		{Player1RegistrantID: "reg-a1", Player2RegistrantID: "reg-c2", Player1Character: "Fox", WinnerID: &winner, Player1Verified: true, Player2Verified: true},
		{Player1RegistrantID: "reg-c2", Player2RegistrantID: "reg-b1", Player2Character: "Peach", WinnerID: &lost, Player1Verified: true, Player2Verified: true},
		{Player1RegistrantID: "reg-b1", Player2RegistrantID: "reg-c2", WinnerID: &winner, Player1Verified: true},
	}
	awards := []*models.ClanPointAward{
		{ClanRegistrantID: "reg-a1", Points: 3},
		{ClanRegistrantID: "reg-b1", Points: 4},
		{ClanRegistrantID: "reg-c2", Points: 100},
	}

	profile := AggregateMemberProfile(1, registrants, records, awards)
	assert.Equal(t, 1, profile.Wins)
	assert.Equal(t, 1, profile.Losses)
	assert.Equal(t, int64(7), profile.Points)
	assert.Equal(t, map[string]int{"Fox": 1, "Peach": 1}, profile.Characters)
	assert.ElementsMatch(t, []string{"clan-a", "clan-b"}, profile.ClanIDs)
}

func TestBattleRecordService_GetView(t *testing.T) {
	ctx := context.Background()
	f := newBattleFixture(t)

	record, err := f.battles.Report(ctx, testGuildID, 2, 4)
	require.NoError(t, err)

	view, err := f.battles.GetView(ctx, testGuildID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.Player1.MemberID)
	assert.Equal(t, int64(4), view.Player2.MemberID)
	assert.Equal(t, int64(4), view.MemberOf(record.Player2RegistrantID))
	assert.Zero(t, view.MemberOf("unknown"))

	_, err = f.battles.GetView(ctx, testGuildID, "missing")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
