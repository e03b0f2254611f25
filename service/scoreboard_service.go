package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"guildcogs/config"
	"guildcogs/models"
)

type scoreboardService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	now        func() time.Time
}

// NewScoreboardService creates a new scoreboard service
func NewScoreboardService(uowFactory UnitOfWorkFactory, cfg *config.Config) ScoreboardService {
	return &scoreboardService{
		uowFactory: uowFactory,
		cfg:        cfg,
		now:        time.Now,
	}
}

// scoreboardData is everything an aggregation reads
type scoreboardData struct {
	clans       []*models.Clan
	registrants []*models.ClanRegistrant
	records     []*models.ClanBattleRecord
	awards      []*models.ClanPointAward
}

func (s *scoreboardService) load(ctx context.Context, uow UnitOfWork, period models.ScoreboardPeriod) (*scoreboardData, error) {
	if period != models.PeriodThisMonth && period != models.PeriodAllTime {
		return nil, NewValidationError("unknown scoreboard period %q", period)
	}
	since := PeriodStart(period, s.now(), s.cfg.Location())

	clans, err := uow.ClanRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clans: %w", err)
	}
	registrants, err := uow.ClanRegistrantRepository().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrants: %w", err)
	}
	records, err := uow.BattleRecordRepository().ListLocked(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list battle records: %w", err)
	}
	awards, err := uow.PointAwardRepository().List(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list point awards: %w", err)
	}
	return &scoreboardData{clans: clans, registrants: registrants, records: records, awards: awards}, nil
}

func (s *scoreboardService) ClanStandings(ctx context.Context, guildID int64, period models.ScoreboardPeriod) ([]*models.ClanStanding, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	data, err := s.load(ctx, uow, period)
	if err != nil {
		return nil, err
	}
	return AggregateClanStandings(data.clans, data.registrants, data.records, data.awards), nil
}

func (s *scoreboardService) MemberStandings(ctx context.Context, guildID int64, period models.ScoreboardPeriod) ([]*models.MemberStanding, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	data, err := s.load(ctx, uow, period)
	if err != nil {
		return nil, err
	}
	return AggregateMemberStandings(data.clans, data.registrants, data.records, data.awards), nil
}

// MemberProfile combines every registrant the member ever had, across all clans
func (s *scoreboardService) MemberProfile(ctx context.Context, guildID, memberID int64) (*models.MemberProfile, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	data, err := s.load(ctx, uow, models.PeriodAllTime)
	if err != nil {
		return nil, err
	}
	profile := AggregateMemberProfile(memberID, data.registrants, data.records, data.awards)

	active, _, err := activeClanOf(ctx, uow, memberID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		profile.ActiveClanID = active.ID
	}
	return profile, nil
}

// AggregateClanStandings counts wins, losses and points per clan from locked records
func AggregateClanStandings(clans []*models.Clan, registrants []*models.ClanRegistrant, records []*models.ClanBattleRecord, awards []*models.ClanPointAward) []*models.ClanStanding {
	byRegistrant := indexRegistrants(registrants)
	standings := make(map[string]*models.ClanStanding, len(clans))
	for _, clan := range clans {
		standings[clan.ID] = &models.ClanStanding{ClanID: clan.ID, Name: clan.Name}
	}
	standing := func(registrantID string) *models.ClanStanding {
		r, ok := byRegistrant[registrantID]
		if !ok {
			return nil
		}
		return standings[r.ClanID]
	}

	for _, record := range records {
		if !record.IsLocked() || record.WinnerID == nil {
			continue
		}
		if st := standing(*record.WinnerID); st != nil {
			st.Wins++
		}
		if st := standing(*record.LoserID()); st != nil {
			st.Losses++
		}
	}
	for _, award := range awards {
		if st := standing(award.ClanRegistrantID); st != nil {
			st.Points += award.Points
		}
	}

	out := make([]*models.ClanStanding, 0, len(standings))
	for _, clan := range clans {
		st := standings[clan.ID]
		if clan.IsActive || st.Wins > 0 || st.Losses > 0 || st.Points != 0 {
			out = append(out, st)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.ClanStanding) int {
		return cmp.Or(
			cmp.Compare(b.Points, a.Points),
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(a.Losses, b.Losses),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return out
}

// AggregateMemberStandings counts results per member, combining their registrants
func AggregateMemberStandings(clans []*models.Clan, registrants []*models.ClanRegistrant, records []*models.ClanBattleRecord, awards []*models.ClanPointAward) []*models.MemberStanding {
	byRegistrant := indexRegistrants(registrants)
	standings := make(map[int64]*models.MemberStanding)
	standing := func(registrantID string) *models.MemberStanding {
		r, ok := byRegistrant[registrantID]
		if !ok {
			return nil
		}
		st, ok := standings[r.MemberID]
		if !ok {
			st = &models.MemberStanding{MemberID: r.MemberID}
			standings[r.MemberID] = st
		}
		return st
	}

	for _, record := range records {
		if !record.IsLocked() || record.WinnerID == nil {
			continue
		}
		if st := standing(*record.WinnerID); st != nil {
			st.Wins++
		}
		if st := standing(*record.LoserID()); st != nil {
			st.Losses++
		}
	}
	for _, award := range awards {
		if st := standing(award.ClanRegistrantID); st != nil {
			st.Points += award.Points
		}
	}

	for _, clan := range clans {
		if !clan.IsActive {
			continue
		}
		for _, rid := range clan.ActiveRegistrantIDs {
			if r, ok := byRegistrant[rid]; ok {
				if st, ok := standings[r.MemberID]; ok {
					st.ClanID = clan.ID
				}
			}
		}
	}

	out := make([]*models.MemberStanding, 0, len(standings))
	for _, st := range standings {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b *models.MemberStanding) int {
		return cmp.Or(
			cmp.Compare(b.Points, a.Points),
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(a.Losses, b.Losses),
			cmp.Compare(a.MemberID, b.MemberID),
		)
	})
	return out
}

// AggregateMemberProfile sums a member's lifetime results over all their registrants
func AggregateMemberProfile(memberID int64, registrants []*models.ClanRegistrant, records []*models.ClanBattleRecord, awards []*models.ClanPointAward) *models.MemberProfile {
	profile := &models.MemberProfile{MemberID: memberID, Characters: make(map[string]int)}

	mine := make(map[string]bool)
	for _, r := range registrants {
		if r.MemberID != memberID {
			continue
		}
		mine[r.ID] = true
		if !slices.Contains(profile.ClanIDs, r.ClanID) {
			profile.ClanIDs = append(profile.ClanIDs, r.ClanID)
		}
	}

	for _, record := range records {
		if !record.IsLocked() || record.WinnerID == nil {
			continue
		}
		var character string
		switch {
		case mine[record.Player1RegistrantID]:
			character = record.Player1Character
		case mine[record.Player2RegistrantID]:
			character = record.Player2Character
		default:
			continue
		}
		if mine[*record.WinnerID] {
			profile.Wins++
		} else {
			profile.Losses++
		}
		if character != "" {
			profile.Characters[character]++
		}
	}
	for _, award := range awards {
		if mine[award.ClanRegistrantID] {
			profile.Points += award.Points
		}
	}
	return profile
}

func indexRegistrants(registrants []*models.ClanRegistrant) map[string]*models.ClanRegistrant {
	out := make(map[string]*models.ClanRegistrant, len(registrants))
	for _, r := range registrants {
		out[r.ID] = r
	}
	return out
}
