package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type clanService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	presenter  ClanPresenter
	roles      RoleManager
	newID      func() string
	now        func() time.Time
}

// NewClanService creates a new clan service
func NewClanService(uowFactory UnitOfWorkFactory, cfg *config.Config, presenter ClanPresenter, roles RoleManager) ClanService {
	return &clanService{
		uowFactory: uowFactory,
		cfg:        cfg,
		presenter:  presenter,
		roles:      roles,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

func (s *clanService) draftOptions() DraftOptions {
	return DraftOptions{
		MaxMembers: s.cfg.MaxClanMembers,
		NewID:      s.newID,
		Now:        s.now,
	}
}

// StartDraft opens a draft over a live clan for its leader or a moderator
func (s *clanService) StartDraft(ctx context.Context, guildID int64, actor Actor, clanID string) (*ClanDraft, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	view, err := loadClanView(ctx, uow, clanID)
	if err != nil {
		return nil, err
	}
	if !actor.Moderator && view.LeaderMemberID() != actor.ID {
		return nil, NewPermissionError("only the clan leader or a moderator can edit this clan")
	}

	return DraftFromLive(view.Clan, view.Registrants, s.draftOptions()), nil
}

// StartNewClanDraft opens a draft for a new clan led by the actor
func (s *clanService) StartNewClanDraft(ctx context.Context, guildID int64, actor Actor) (*ClanDraft, error) {
	return NewClanDraft(guildID, actor.ID, s.draftOptions()), nil
}

func (s *clanService) SetDraftLeader(ctx context.Context, draft *ClanDraft, memberID int64) error {
	previous, err := s.previousRegistrants(ctx, draft.Clan.GuildID, draft.Clan.ID, []int64{memberID})
	if err != nil {
		return err
	}
	return draft.SetLeader(memberID, previous[memberID])
}

func (s *clanService) SetDraftMembers(ctx context.Context, draft *ClanDraft, memberIDs []int64) error {
	previous, err := s.previousRegistrants(ctx, draft.Clan.GuildID, draft.Clan.ID, memberIDs)
	if err != nil {
		return err
	}
	return draft.SetMembers(memberIDs, previous)
}

// previousRegistrants finds each member's registrant from an earlier stint in clanID
func (s *clanService) previousRegistrants(ctx context.Context, guildID int64, clanID string, memberIDs []int64) (map[int64]*models.ClanRegistrant, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	found := make(map[int64]*models.ClanRegistrant)
	for _, memberID := range memberIDs {
		registrants, err := uow.ClanRegistrantRepository().ListByMember(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to list registrants of member %d: %w", memberID, err)
		}
		for _, r := range registrants {
			if r.ClanID != clanID {
				continue
			}
			if current, ok := found[memberID]; !ok || r.LastJoinedAt.After(current.LastJoinedAt) {
				found[memberID] = r
			}
		}
	}
	return found, nil
}

// SaveDraft stores the draft as pending and replaces the clan's approval message
func (s *clanService) SaveDraft(ctx context.Context, actor Actor, draft *ClanDraft, channelID int64) (*PendingClanView, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	guildID := draft.Clan.GuildID
	clanID := draft.Clan.ID

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockClans)); err != nil {
		return nil, fmt.Errorf("failed to lock clans: %w", err)
	}

	live, err := uow.ClanRepository().Get(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clan: %w", err)
	}
	switch {
	case live == nil && !draft.IsNew:
		return nil, NewNotFoundError("clan", clanID)
	case live != nil && draft.IsNew:
		return nil, NewInvariantError("new clan %s already exists", clanID)
	case live != nil && !actor.Moderator:
		leader, err := uow.ClanRegistrantRepository().Get(ctx, live.LeaderRegistrantID)
		if err != nil {
			return nil, fmt.Errorf("failed to get clan leader: %w", err)
		}
		if leader == nil || leader.MemberID != actor.ID {
			return nil, NewPermissionError("only the clan leader or a moderator can edit this clan")
		}
	case live == nil && !actor.Moderator && draft.LeaderMemberID() != actor.ID:
		return nil, NewPermissionError("you can only register a clan you lead")
	}

	drafts := uow.PendingDraftRepository()
	previous, err := drafts.GetClanDraft(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending draft: %w", err)
	}

	pending, registrantDrafts := draft.Pending(actor.ID)
	pending.ChannelID = channelID
	if previous != nil && pending.Version() <= previous.Version() {
		pending.DraftCreatedAt = previous.DraftCreatedAt.Add(time.Microsecond)
		for _, rd := range registrantDrafts {
			rd.DraftCreatedAt = pending.DraftCreatedAt
		}
	}

	if err := drafts.DeleteRegistrantDrafts(ctx, clanID); err != nil {
		return nil, fmt.Errorf("failed to clear pending registrants: %w", err)
	}
	if err := drafts.SaveClanDraft(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to save pending draft: %w", err)
	}
	for _, rd := range registrantDrafts {
		if err := drafts.SaveRegistrantDraft(ctx, rd); err != nil {
			return nil, fmt.Errorf("failed to save pending registrant: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	view := &PendingClanView{
		Pending:     pending,
		Registrants: cloneRegistrants(draft.Registrants),
		Live:        live,
	}

	if previous != nil {
		if ref, ok := (&PendingClanView{Pending: previous}).MessageRef(); ok {
			if err := s.presenter.DeleteApproval(ctx, ref); err != nil {
				log.WithFields(log.Fields{
					"guildID":   guildID,
					"clanID":    clanID,
					"messageID": ref.MessageID,
				}).WithError(err).Warn("Failed to delete previous approval message")
			}
		}
	}

	ref, err := s.presenter.PostApproval(ctx, view)
	if err != nil {
		return view, fmt.Errorf("draft saved but the approval message could not be posted: %w", err)
	}
	if err := s.AttachApprovalMessage(ctx, guildID, clanID, ref); err != nil {
		return view, err
	}
	view.Pending.MessageID = ref.MessageID
	view.Pending.ChannelID = ref.ChannelID

	log.WithFields(log.Fields{
		"guildID":     guildID,
		"clanID":      clanID,
		"submittedBy": actor.ID,
		"roster":      len(pending.Clan.ActiveRegistrantIDs),
	}).Info("Clan draft submitted for approval")
	return view, nil
}

// AttachApprovalMessage records the message carrying a pending draft's approve and reject buttons
func (s *clanService) AttachApprovalMessage(ctx context.Context, guildID int64, clanID string, ref models.ApprovalMessageRef) error {
	return s.withPendingLock(ctx, guildID, func(uow UnitOfWork) error {
		pending, err := uow.PendingDraftRepository().GetClanDraft(ctx, clanID)
		if err != nil {
			return fmt.Errorf("failed to get pending draft: %w", err)
		}
		if pending == nil {
			return NewNotFoundError("pending clan draft", clanID)
		}
		pending.MessageID = ref.MessageID
		pending.ChannelID = ref.ChannelID
		pending.MessageDeleted = false
		if err := uow.PendingDraftRepository().SaveClanDraft(ctx, pending); err != nil {
			return fmt.Errorf("failed to save pending draft: %w", err)
		}
		return nil
	})
}

// MarkApprovalMessageDeleted flags the pending draft whose approval message was removed
func (s *clanService) MarkApprovalMessageDeleted(ctx context.Context, guildID, messageID int64) error {
	return s.withPendingLock(ctx, guildID, func(uow UnitOfWork) error {
		drafts, err := uow.PendingDraftRepository().ListClanDrafts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list pending drafts: %w", err)
		}
		for _, pending := range drafts {
			if pending.MessageID != messageID || pending.MessageDeleted {
				continue
			}
			pending.MessageDeleted = true
			if err := uow.PendingDraftRepository().SaveClanDraft(ctx, pending); err != nil {
				return fmt.Errorf("failed to save pending draft: %w", err)
			}
		}
		return nil
	})
}

func (s *clanService) withPendingLock(ctx context.Context, guildID int64, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockClans)); err != nil {
		return fmt.Errorf("failed to lock clans: %w", err)
	}
	if err := fn(uow); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Approve makes a pending draft live. Members joining this clan leave every other
// clan, and a clan whose leader left is deactivated. Roles are synced after commit.
// Approve makes the pending draft with the given version live
func (s *clanService) Approve(ctx context.Context, guildID int64, actor Actor, clanID string, version int64) (*ClanApprovalResult, error) {
	if !actor.Moderator {
		return nil, NewPermissionError("only moderators can approve clan changes")
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Lock(ctx, CollectionLockKey(guildID, LockClans)); err != nil {
		return nil, fmt.Errorf("failed to lock clans: %w", err)
	}

	pendingView, err := loadPendingView(ctx, uow, clanID)
	if err != nil {
		return nil, err
	}
	if pendingView == nil {
		return nil, NewNotFoundError("pending clan draft", clanID)
	}
	if err := checkDraftVersion(pendingView.Pending, version); err != nil {
		return nil, err
	}

	now := s.now()
	clan := pendingView.Pending.Clan.Clone()
	clan.UpdatedAt = now
	registrants := pendingView.Registrants
	if !clan.HasRegistrant(clan.LeaderRegistrantID) {
		return nil, NewInvariantError("leader of clan %s is not on its roster", clanID)
	}
	for _, id := range clan.ActiveRegistrantIDs {
		if _, ok := registrants[id]; !ok {
			return nil, NewInvariantError("registrant %s of clan %s is missing", id, clanID)
		}
	}

	// Roster before approval, for role sync
	var stripMembers []int64
	if pendingView.Live != nil {
		oldRegistrants, err := uow.ClanRegistrantRepository().GetMany(ctx, pendingView.Live.ActiveRegistrantIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get current roster: %w", err)
		}
		stripMembers = rosterMemberIDs(pendingView.Live, oldRegistrants)
	}

	moving := make(map[int64]*models.Member, len(clan.ActiveRegistrantIDs))
	for _, id := range clan.ActiveRegistrantIDs {
		registrant := registrants[id]
		if err := uow.ClanRegistrantRepository().Save(ctx, registrant); err != nil {
			return nil, fmt.Errorf("failed to save registrant: %w", err)
		}

		member, err := uow.MemberRepository().Get(ctx, registrant.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member %d: %w", registrant.MemberID, err)
		}
		if member == nil {
			member = &models.Member{GuildID: guildID, MemberID: registrant.MemberID}
		}
		if !slices.Contains(member.ClanRegistrantIDs, registrant.ID) {
			member.ClanRegistrantIDs = append(member.ClanRegistrantIDs, registrant.ID)
			if err := uow.MemberRepository().Save(ctx, member); err != nil {
				return nil, fmt.Errorf("failed to save member %d: %w", member.MemberID, err)
			}
		}
		moving[member.MemberID] = member
	}

	if err := uow.ClanRepository().Save(ctx, clan); err != nil {
		return nil, fmt.Errorf("failed to save clan: %w", err)
	}
	if err := uow.PendingDraftRepository().DeleteRegistrantDrafts(ctx, clanID); err != nil {
		return nil, fmt.Errorf("failed to clear pending registrants: %w", err)
	}
	if err := uow.PendingDraftRepository().DeleteClanDraft(ctx, clanID); err != nil {
		return nil, fmt.Errorf("failed to clear pending draft: %w", err)
	}

	result := &ClanApprovalResult{
		Clan:    &ClanView{Clan: clan, Registrants: registrants},
		Message: models.ApprovalMessageRef{ChannelID: pendingView.Pending.ChannelID, MessageID: pendingView.Pending.MessageID},
	}

	others, err := uow.ClanRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clans: %w", err)
	}
	for _, other := range others {
		if other.ID == clanID {
			continue
		}
		otherRegistrants, err := uow.ClanRegistrantRepository().GetMany(ctx, other.ActiveRegistrantIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get roster of clan %s: %w", other.ID, err)
		}

		var removed []string
		other.ActiveRegistrantIDs = slices.DeleteFunc(other.ActiveRegistrantIDs, func(id string) bool {
			r, ok := otherRegistrants[id]
			if ok && moving[r.MemberID] != nil {
				removed = append(removed, id)
				return true
			}
			return false
		})
		if len(removed) == 0 {
			continue
		}

		if slices.Contains(removed, other.LeaderRegistrantID) && other.IsActive {
			other.IsActive = false
			result.DeactivatedClanIDs = append(result.DeactivatedClanIDs, other.ID)
			stripMembers = append(stripMembers, otherRegistrants[other.LeaderRegistrantID].MemberID)
		}
		other.UpdatedAt = now
		if err := uow.ClanRepository().Save(ctx, other); err != nil {
			return nil, fmt.Errorf("failed to save clan %s: %w", other.ID, err)
		}
		result.MovedRegistrantIDs = append(result.MovedRegistrantIDs, removed...)
	}

	if err := verifySingleClanMembership(others, clan, moving); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.ClanApprovedEvent{
		GuildID:            guildID,
		ClanID:             clanID,
		ApprovedBy:         actor.ID,
		DeactivatedClanIDs: result.DeactivatedClanIDs,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":     guildID,
		"clanID":      clanID,
		"approvedBy":  actor.ID,
		"deactivated": result.DeactivatedClanIDs,
		"moved":       len(result.MovedRegistrantIDs),
	}).Info("Clan draft approved")

	s.syncRoles(ctx, guildID, stripMembers, result.Clan)
	return result, nil
}

// verifySingleClanMembership fails when a member of clan appears on any other roster
func verifySingleClanMembership(others []*models.Clan, clan *models.Clan, members map[int64]*models.Member) error {
	for _, member := range members {
		var matches []string
		for _, c := range others {
			if c.ID == clan.ID {
				c = clan
			}
			for _, rid := range member.ClanRegistrantIDs {
				if c.HasRegistrant(rid) {
					matches = append(matches, c.ID)
					break
				}
			}
		}
		if !slices.Contains(matches, clan.ID) {
			matches = append(matches, clan.ID)
		}
		if len(matches) > 1 {
			return NewInvariantError("member %d is on the roster of clans %v", member.MemberID, matches)
		}
	}
	return nil
}

// syncRoles strips clan roles from the old roster then grants them to the new one.
// Failures are logged; the approval is already committed.
func (s *clanService) syncRoles(ctx context.Context, guildID int64, stripMembers []int64, view *ClanView) {
	if s.roles == nil {
		return
	}

	logFailure := func(memberID int64, roleID, action string, err error) {
		log.WithFields(log.Fields{
			"guildID":  guildID,
			"memberID": memberID,
			"roleID":   roleID,
			"action":   action,
		}).WithError(err).Warn("Failed to sync clan role")
	}

	for _, memberID := range stripMembers {
		for _, roleID := range []string{s.cfg.ClanLeaderRoleID, s.cfg.ClanMemberRoleID} {
			if roleID == "" {
				continue
			}
			if err := s.roles.RemoveRole(ctx, guildID, memberID, roleID); err != nil {
				logFailure(memberID, roleID, "remove", err)
			}
		}
	}

	if !view.Clan.IsActive {
		return
	}
	leaderID := view.LeaderMemberID()
	for _, memberID := range view.RosterMemberIDs() {
		if s.cfg.ClanMemberRoleID != "" {
			if err := s.roles.AddRole(ctx, guildID, memberID, s.cfg.ClanMemberRoleID); err != nil {
				logFailure(memberID, s.cfg.ClanMemberRoleID, "add", err)
			}
		}
		if memberID == leaderID && s.cfg.ClanLeaderRoleID != "" {
			if err := s.roles.AddRole(ctx, guildID, memberID, s.cfg.ClanLeaderRoleID); err != nil {
				logFailure(memberID, s.cfg.ClanLeaderRoleID, "add", err)
			}
		}
	}
}

// Reject discards a pending draft without touching live records
func (s *clanService) Reject(ctx context.Context, guildID int64, actor Actor, clanID string, version int64) (*PendingClanView, error) {
	if !actor.Moderator {
		return nil, NewPermissionError("only moderators can reject clan changes")
	}

	var view *PendingClanView
	err := s.withPendingLock(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		view, err = loadPendingView(ctx, uow, clanID)
		if err != nil {
			return err
		}
		if view == nil {
			return NewNotFoundError("pending clan draft", clanID)
		}
		if err := checkDraftVersion(view.Pending, version); err != nil {
			return err
		}
		if err := uow.PendingDraftRepository().DeleteRegistrantDrafts(ctx, clanID); err != nil {
			return fmt.Errorf("failed to clear pending registrants: %w", err)
		}
		if err := uow.PendingDraftRepository().DeleteClanDraft(ctx, clanID); err != nil {
			return fmt.Errorf("failed to clear pending draft: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guildID":    guildID,
		"clanID":     clanID,
		"rejectedBy": actor.ID,
	}).Info("Clan draft rejected")
	return view, nil
}

func checkDraftVersion(pending *models.PendingClanDraft, version int64) error {
	if pending.Version() != version {
		return NewValidationError("this approval message is outdated, the clan has a newer pending draft")
	}
	return nil
}

// PendingDrafts lists every draft awaiting approval so their messages can be re-attached
func (s *clanService) PendingDrafts(ctx context.Context, guildID int64) ([]*PendingClanView, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	drafts, err := uow.PendingDraftRepository().ListClanDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending drafts: %w", err)
	}

	views := make([]*PendingClanView, 0, len(drafts))
	for _, pending := range drafts {
		view, err := loadPendingView(ctx, uow, pending.Clan.ID)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, view)
		}
	}
	return views, nil
}

func (s *clanService) GetClan(ctx context.Context, guildID int64, clanID string) (*ClanView, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return loadClanView(ctx, uow, clanID)
}

func (s *clanService) ListClans(ctx context.Context, guildID int64) ([]*models.Clan, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	clans, err := uow.ClanRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clans: %w", err)
	}
	return clans, nil
}

// ActiveClanOf returns the active clan the member is on, or nil.
// Finding more than one is an InvariantError.
func (s *clanService) ActiveClanOf(ctx context.Context, guildID, memberID int64) (*ClanView, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	clan, _, err := activeClanOf(ctx, uow, memberID)
	if err != nil || clan == nil {
		return nil, err
	}
	return loadClanView(ctx, uow, clan.ID)
}

// activeClanOf returns the member's active clan and their registrant in it
func activeClanOf(ctx context.Context, uow UnitOfWork, memberID int64) (*models.Clan, string, error) {
	member, err := uow.MemberRepository().Get(ctx, memberID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || len(member.ClanRegistrantIDs) == 0 {
		return nil, "", nil
	}

	clans, err := uow.ClanRepository().List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list clans: %w", err)
	}

	var match *models.Clan
	var registrantID string
	for _, clan := range clans {
		if !clan.IsActive {
			continue
		}
		for _, rid := range member.ClanRegistrantIDs {
			if !clan.HasRegistrant(rid) {
				continue
			}
			if match != nil {
				return nil, "", NewInvariantError("member %d is active in clans %s and %s", memberID, match.ID, clan.ID)
			}
			match = clan
			registrantID = rid
			break
		}
	}
	return match, registrantID, nil
}

func loadClanView(ctx context.Context, uow UnitOfWork, clanID string) (*ClanView, error) {
	clan, err := uow.ClanRepository().Get(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clan: %w", err)
	}
	if clan == nil {
		return nil, NewNotFoundError("clan", clanID)
	}

	registrants, err := uow.ClanRegistrantRepository().GetMany(ctx, clan.ActiveRegistrantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	for _, id := range clan.ActiveRegistrantIDs {
		if _, ok := registrants[id]; !ok {
			return nil, NewInvariantError("registrant %s of clan %s is missing", id, clanID)
		}
	}
	return &ClanView{Clan: clan, Registrants: registrants}, nil
}

// loadPendingView returns nil when the clan has no pending draft
func loadPendingView(ctx context.Context, uow UnitOfWork, clanID string) (*PendingClanView, error) {
	drafts := uow.PendingDraftRepository()
	pending, err := drafts.GetClanDraft(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending draft: %w", err)
	}
	if pending == nil {
		return nil, nil
	}

	registrantDrafts, err := drafts.ListRegistrantDrafts(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending registrants: %w", err)
	}
	registrants := make(map[string]*models.ClanRegistrant, len(registrantDrafts))
	for _, rd := range registrantDrafts {
		registrants[rd.Registrant.ID] = rd.Registrant
	}

	var missing []string
	for _, id := range pending.Clan.ActiveRegistrantIDs {
		if _, ok := registrants[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		live, err := uow.ClanRegistrantRepository().GetMany(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to get roster: %w", err)
		}
		for id, r := range live {
			registrants[id] = r
		}
	}

	live, err := uow.ClanRepository().Get(ctx, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clan: %w", err)
	}

	return &PendingClanView{Pending: pending, Registrants: registrants, Live: live}, nil
}
