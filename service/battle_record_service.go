package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildcogs/events"
	"guildcogs/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	maxCharacterLength   = 50
	maxAwardReasonLength = 200
)

// BattleCancelResult reports whether cancelling withdrew a verification or removed the record
type BattleCancelResult struct {
	Record  *models.ClanBattleRecord
	Deleted bool
}

type battleRecordService struct {
	uowFactory UnitOfWorkFactory
	newID      func() string
	now        func() time.Time
}

// NewBattleRecordService creates a new battle record service
func NewBattleRecordService(uowFactory UnitOfWorkFactory) BattleRecordService {
	return &battleRecordService{
		uowFactory: uowFactory,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// battleParticipants are the registrants of both players
type battleParticipants struct {
	player1 *models.ClanRegistrant
	player2 *models.ClanRegistrant
}

// side returns 1 or 2 for a participating member, 0 otherwise
func (p battleParticipants) side(memberID int64) int {
	switch memberID {
	case p.player1.MemberID:
		return 1
	case p.player2.MemberID:
		return 2
	}
	return 0
}

// Report creates a record between the active registrants of reporter and opponent
func (s *battleRecordService) Report(ctx context.Context, guildID int64, reporterID, opponentID int64) (*models.ClanBattleRecord, error) {
	if reporterID == opponentID {
		return nil, NewValidationError("you cannot report a battle against yourself")
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockBattleRecords)); err != nil {
		return nil, fmt.Errorf("failed to lock battle records: %w", err)
	}

	reporterClan, reporterRegistrant, err := activeClanOf(ctx, uow, reporterID)
	if err != nil {
		return nil, err
	}
	if reporterClan == nil {
		return nil, NewValidationError("you must be in an active clan to report a battle")
	}
	opponentClan, opponentRegistrant, err := activeClanOf(ctx, uow, opponentID)
	if err != nil {
		return nil, err
	}
	if opponentClan == nil {
		return nil, NewValidationError("your opponent is not in an active clan")
	}

	now := s.now()
	record := &models.ClanBattleRecord{
		ID:                  s.newID(),
		GuildID:             guildID,
		Player1RegistrantID: reporterRegistrant,
		Player2RegistrantID: opponentRegistrant,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uow.BattleRecordRepository().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create battle record: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":  guildID,
		"recordID": record.ID,
		"reporter": reporterID,
		"opponent": opponentID,
	}).Info("Battle reported")
	return record, nil
}

func (s *battleRecordService) Get(ctx context.Context, guildID int64, recordID string) (*models.ClanBattleRecord, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.BattleRecordRepository().Get(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle record: %w", err)
	}
	if record == nil {
		return nil, NewNotFoundError("battle record", recordID)
	}
	return record, nil
}

// BattleRecordView is a record with the registrants of both players
type BattleRecordView struct {
	Record  *models.ClanBattleRecord
	Player1 *models.ClanRegistrant
	Player2 *models.ClanRegistrant
}

// MemberOf returns the member behind a participating registrant, or 0
func (v *BattleRecordView) MemberOf(registrantID string) int64 {
	switch registrantID {
	case v.Player1.ID:
		return v.Player1.MemberID
	case v.Player2.ID:
		return v.Player2.MemberID
	}
	return 0
}

func (s *battleRecordService) GetView(ctx context.Context, guildID int64, recordID string) (*BattleRecordView, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.BattleRecordRepository().Get(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle record: %w", err)
	}
	if record == nil {
		return nil, NewNotFoundError("battle record", recordID)
	}

	registrants, err := uow.ClanRegistrantRepository().GetMany(ctx, []string{record.Player1RegistrantID, record.Player2RegistrantID})
	if err != nil {
		return nil, fmt.Errorf("failed to get battle players: %w", err)
	}
	view := &BattleRecordView{
		Record:  record,
		Player1: registrants[record.Player1RegistrantID],
		Player2: registrants[record.Player2RegistrantID],
	}
	if view.Player1 == nil || view.Player2 == nil {
		return nil, NewInvariantError("battle record %s references a missing registrant", recordID)
	}
	return view, nil
}

// withRecord runs fn in a locked read-modify-write cycle on one record
func (s *battleRecordService) withRecord(ctx context.Context, guildID int64, recordID string, fn func(uow UnitOfWork, record *models.ClanBattleRecord, players battleParticipants) error) (*models.ClanBattleRecord, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockBattleRecords)); err != nil {
		return nil, fmt.Errorf("failed to lock battle records: %w", err)
	}

	record, err := uow.BattleRecordRepository().Get(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle record: %w", err)
	}
	if record == nil {
		return nil, NewNotFoundError("battle record", recordID)
	}

	registrants, err := uow.ClanRegistrantRepository().GetMany(ctx, []string{record.Player1RegistrantID, record.Player2RegistrantID})
	if err != nil {
		return nil, fmt.Errorf("failed to get battle players: %w", err)
	}
	players := battleParticipants{
		player1: registrants[record.Player1RegistrantID],
		player2: registrants[record.Player2RegistrantID],
	}
	if players.player1 == nil || players.player2 == nil {
		return nil, NewInvariantError("battle record %s references a missing registrant", recordID)
	}

	if err := fn(uow, record, players); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return record, nil
}

// edit applies a field change and resets both verification flags
func (s *battleRecordService) edit(ctx context.Context, guildID int64, recordID string, actor Actor, change func(record *models.ClanBattleRecord) error) (*models.ClanBattleRecord, error) {
	return s.withRecord(ctx, guildID, recordID, func(uow UnitOfWork, record *models.ClanBattleRecord, players battleParticipants) error {
		if record.IsLocked() {
			return NewValidationError("this battle record is verified and can no longer change")
		}
		if players.side(actor.ID) == 0 && !actor.Moderator {
			return NewPermissionError("only the players or a moderator can edit this battle record")
		}
		if err := change(record); err != nil {
			return err
		}

		record.Player1Verified = false
		record.Player2Verified = false
		record.UpdatedAt = s.now()
		if err := uow.BattleRecordRepository().Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update battle record: %w", err)
		}
		return nil
	})
}

func (s *battleRecordService) SetWinner(ctx context.Context, guildID int64, recordID string, actor Actor, winnerRegistrantID string) (*models.ClanBattleRecord, error) {
	return s.edit(ctx, guildID, recordID, actor, func(record *models.ClanBattleRecord) error {
		if !record.IsParticipant(winnerRegistrantID) {
			return NewValidationError("the winner must be one of the players")
		}
		record.WinnerID = &winnerRegistrantID
		return nil
	})
}

func (s *battleRecordService) SetCharacters(ctx context.Context, guildID int64, recordID string, actor Actor, player1Character, player2Character string) (*models.ClanBattleRecord, error) {
	player1Character = strings.TrimSpace(player1Character)
	player2Character = strings.TrimSpace(player2Character)
	if len(player1Character) > maxCharacterLength || len(player2Character) > maxCharacterLength {
		return nil, NewValidationError("character names must be at most %d characters", maxCharacterLength)
	}

	return s.edit(ctx, guildID, recordID, actor, func(record *models.ClanBattleRecord) error {
		record.Player1Character = player1Character
		record.Player2Character = player2Character
		return nil
	})
}

// SetGamesWon stores both scores and derives the winner. A tie clears the winner.
func (s *battleRecordService) SetGamesWon(ctx context.Context, guildID int64, recordID string, actor Actor, player1Games, player2Games int) (*models.ClanBattleRecord, error) {
	if player1Games < 0 || player2Games < 0 {
		return nil, NewValidationError("games won cannot be negative")
	}

	return s.edit(ctx, guildID, recordID, actor, func(record *models.ClanBattleRecord) error {
		record.Player1GamesWon = &player1Games
		record.Player2GamesWon = &player2Games
		switch {
		case player1Games > player2Games:
			winner := record.Player1RegistrantID
			record.WinnerID = &winner
		case player2Games > player1Games:
			winner := record.Player2RegistrantID
			record.WinnerID = &winner
		default:
			record.WinnerID = nil
		}
		return nil
	})
}

// Verify sets the caller's verification flag. The record locks once both flags are set.
func (s *battleRecordService) Verify(ctx context.Context, guildID int64, recordID string, actor Actor) (*models.ClanBattleRecord, error) {
	return s.withRecord(ctx, guildID, recordID, func(uow UnitOfWork, record *models.ClanBattleRecord, players battleParticipants) error {
		if record.IsLocked() {
			return NewValidationError("this battle record is already verified")
		}
		side := players.side(actor.ID)
		if side == 0 {
			return NewPermissionError("only the players can verify a battle record")
		}
		if record.WinnerID == nil {
			return NewValidationError("set a winner before verifying")
		}

		if side == 1 {
			record.Player1Verified = true
		} else {
			record.Player2Verified = true
		}
		record.UpdatedAt = s.now()
		if err := uow.BattleRecordRepository().Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update battle record: %w", err)
		}

		if record.IsLocked() {
			uow.EventBus().Publish(events.BattleRecordLockedEvent{
				GuildID:   guildID,
				RecordID:  record.ID,
				WinnerID:  *record.WinnerID,
				MessageID: record.MessageID,
				ChannelID: record.ChannelID,
			})
		}
		return nil
	})
}

// Cancel withdraws a player's own verification, or deletes the record when a moderator
// outside the battle cancels it
func (s *battleRecordService) Cancel(ctx context.Context, guildID int64, recordID string, actor Actor) (*BattleCancelResult, error) {
	result := &BattleCancelResult{}
	record, err := s.withRecord(ctx, guildID, recordID, func(uow UnitOfWork, record *models.ClanBattleRecord, players battleParticipants) error {
		if record.IsLocked() {
			return NewValidationError("this battle record is verified and can no longer change")
		}

		switch side := players.side(actor.ID); {
		case side == 1:
			record.Player1Verified = false
		case side == 2:
			record.Player2Verified = false
		case actor.Moderator:
			if err := uow.BattleRecordRepository().Delete(ctx, record.ID); err != nil {
				return fmt.Errorf("failed to delete battle record: %w", err)
			}
			result.Deleted = true
			return nil
		default:
			return NewPermissionError("only the players or a moderator can cancel this battle record")
		}

		record.UpdatedAt = s.now()
		if err := uow.BattleRecordRepository().Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update battle record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Record = record
	return result, nil
}

func (s *battleRecordService) AttachMessage(ctx context.Context, guildID int64, recordID string, messageID, channelID int64) error {
	_, err := s.withRecord(ctx, guildID, recordID, func(uow UnitOfWork, record *models.ClanBattleRecord, players battleParticipants) error {
		record.MessageID = messageID
		record.ChannelID = channelID
		if err := uow.BattleRecordRepository().Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update battle record: %w", err)
		}
		return nil
	})
	return err
}

// AwardPoints grants points to the member's active registrant
func (s *battleRecordService) AwardPoints(ctx context.Context, guildID int64, actor Actor, memberID int64, points int64, reason string) (*models.ClanPointAward, error) {
	if !actor.Moderator {
		return nil, NewPermissionError("only moderators can award clan points")
	}
	if points == 0 {
		return nil, NewValidationError("points must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxAwardReasonLength {
		return nil, NewValidationError("reason must be at most %d characters", maxAwardReasonLength)
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	clan, registrantID, err := activeClanOf(ctx, uow, memberID)
	if err != nil {
		return nil, err
	}
	if clan == nil {
		return nil, NewValidationError("that member is not in an active clan")
	}

	award := &models.ClanPointAward{
		ID:               s.newID(),
		GuildID:          guildID,
		ClanRegistrantID: registrantID,
		Points:           points,
		Reason:           reason,
		AwardedBy:        actor.ID,
		CreatedAt:        s.now(),
	}
	if err := uow.PointAwardRepository().Create(ctx, award); err != nil {
		return nil, fmt.Errorf("failed to create point award: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return award, nil
}
