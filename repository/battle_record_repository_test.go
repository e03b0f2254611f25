package repository

import (
	"context"
	"testing"
	"time"

	"guildcogs/models"
	"guildcogs/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBattleRecordRepository_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newBattleRecordRepository(testDB.DB.Pool, testGuildID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	record := testutil.CreateTestBattleRecord(testGuildID, "p1", "p2", now)
	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.WinnerID)
	assert.Nil(t, got.Player1GamesWon)

	winner := "p2"
	games := 3
	record.WinnerID = &winner
	record.Player2GamesWon = &games
	record.Player1Character = "Marth"
	record.Player1Verified = true
	record.Player2Verified = true
	require.NoError(t, repo.Update(ctx, record))

	got, err = repo.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, "p2", *got.WinnerID)
	assert.Equal(t, 3, *got.Player2GamesWon)
	assert.Equal(t, "Marth", got.Player1Character)
	assert.True(t, got.IsLocked())

	require.NoError(t, repo.Delete(ctx, record.ID))
	got, err = repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBattleRecordRepository_ListLocked(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newBattleRecordRepository(testDB.DB.Pool, testGuildID)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	locked := testutil.CreateTestBattleRecord(testGuildID, "a", "b", since.Add(time.Hour))
	locked.Player1Verified, locked.Player2Verified = true, true
	half := testutil.CreateTestBattleRecord(testGuildID, "a", "b", since.Add(time.Hour))
	half.Player1Verified = true
	old := testutil.CreateTestBattleRecord(testGuildID, "a", "b", since.Add(-time.Hour))
	old.Player1Verified, old.Player2Verified = true, true
	foreign := testutil.CreateTestBattleRecord(otherGuildID, "a", "b", since.Add(time.Hour))
	foreign.Player1Verified, foreign.Player2Verified = true, true

	for _, r := range []*models.ClanBattleRecord{locked, half, old} {
		require.NoError(t, repo.Create(ctx, r))
	}
	require.NoError(t, newBattleRecordRepository(testDB.DB.Pool, otherGuildID).Create(ctx, foreign))

	records, err := repo.ListLocked(ctx, since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, locked.ID, records[0].ID)

	records, err = repo.ListLocked(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPointAwardRepository_List(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := newPointAwardRepository(testDB.DB.Pool, testGuildID)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{since.Add(-time.Hour), since, since.Add(time.Hour)} {
		require.NoError(t, repo.Create(ctx, &models.ClanPointAward{
			ID:               uuid.NewString(),
			ClanRegistrantID: "reg",
			Points:           5,
			AwardedBy:        1,
			CreatedAt:        at,
		}))
	}

	awards, err := repo.List(ctx, since)
	require.NoError(t, err)
	require.Len(t, awards, 2)
	assert.True(t, awards[0].CreatedAt.Equal(since))
	assert.Equal(t, testGuildID, awards[0].GuildID)
}
