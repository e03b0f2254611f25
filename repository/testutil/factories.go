package testutil

import (
	"time"

	"guildcogs/models"

	"github.com/google/uuid"
)

// CreateTestBalanceHistory creates a balance history entry with default values
func CreateTestBalanceHistory(discordID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestBetPool creates a pool in the config state
func CreateTestBetPool(guildID, authorID int64, title string) *models.BetPool {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.BetPool{
		GuildID:      guildID,
		State:        models.BetPoolStateConfig,
		AuthorID:     authorID,
		MinimumBet:   1,
		Title:        title,
		CreatedAt:    now,
		LastEditedAt: now,
	}
}

// CreateTestClan creates an active clan led by a fresh registrant of leaderID.
// The returned registrant is the leader's.
func CreateTestClan(guildID, leaderID int64, name string) (*models.Clan, *models.ClanRegistrant) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	clanID := uuid.NewString()
	leader := CreateTestRegistrant(guildID, leaderID, clanID)
	return &models.Clan{
		ID:                  clanID,
		GuildID:             guildID,
		IsActive:            true,
		Name:                name,
		LeaderRegistrantID:  leader.ID,
		ActiveRegistrantIDs: []string{leader.ID},
		CreatedAt:           now,
		UpdatedAt:           now,
	}, leader
}

// CreateTestRegistrant creates a registrant of memberID in clanID
func CreateTestRegistrant(guildID, memberID int64, clanID string) *models.ClanRegistrant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.ClanRegistrant{
		ID:           uuid.NewString(),
		GuildID:      guildID,
		MemberID:     memberID,
		ClanID:       clanID,
		CreatedAt:    now,
		LastJoinedAt: now,
	}
}

// CreateTestBattleRecord creates an unverified record between two registrants
func CreateTestBattleRecord(guildID int64, player1, player2 string, createdAt time.Time) *models.ClanBattleRecord {
	return &models.ClanBattleRecord{
		ID:                  uuid.NewString(),
		GuildID:             guildID,
		Player1RegistrantID: player1,
		Player2RegistrantID: player2,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}
}
