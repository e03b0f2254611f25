package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"guildcogs/config"
	"guildcogs/events"
	"guildcogs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingPresenter hands out increasing message ids and remembers deletions
type recordingPresenter struct {
	mu      sync.Mutex
	next    int64
	posted  []*PendingClanView
	deleted []models.ApprovalMessageRef

	failDelete bool
}

func (p *recordingPresenter) PostApproval(ctx context.Context, view *PendingClanView) (models.ApprovalMessageRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.posted = append(p.posted, view)
	return models.ApprovalMessageRef{ChannelID: 55, MessageID: 1000 + p.next}, nil
}

func (p *recordingPresenter) DeleteApproval(ctx context.Context, ref models.ApprovalMessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, ref)
	if p.failDelete {
		return errors.New("message not found")
	}
	return nil
}

// recordingRoles logs role changes in order
type recordingRoles struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingRoles) AddRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, fmt.Sprintf("+%s:%d", roleID, memberID))
	return nil
}

func (r *recordingRoles) RemoveRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, fmt.Sprintf("-%s:%d", roleID, memberID))
	return nil
}

type clanFixture struct {
	store     *memoryStore
	cfg       *config.Config
	presenter *recordingPresenter
	roles     *recordingRoles
	svc       ClanService
}

func newClanFixture() *clanFixture {
	f := &clanFixture{
		store:     newMemoryStore(),
		cfg:       config.NewTestConfig(),
		presenter: &recordingPresenter{},
		roles:     &recordingRoles{},
	}
	f.svc = NewClanService(f.store, f.cfg, f.presenter, f.roles)
	return f
}

// register submits and approves a new clan
func (f *clanFixture) register(t *testing.T, leader int64, name string, members ...int64) *ClanApprovalResult {
	t.Helper()
	ctx := context.Background()

	draft, err := f.svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: leader})
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails(name, "", ""))
	require.NoError(t, f.svc.SetDraftMembers(ctx, draft, members))

	view, err := f.svc.SaveDraft(ctx, Actor{ID: leader}, draft, 55)
	require.NoError(t, err)

	result, err := f.svc.Approve(ctx, testGuildID, moderator, draft.Clan.ID, view.Pending.Version())
	require.NoError(t, err)
	return result
}

// version returns the version of the clan's pending draft
func (f *clanFixture) version(t *testing.T, clanID string) int64 {
	t.Helper()
	pending, err := f.svc.PendingDrafts(context.Background(), testGuildID)
	require.NoError(t, err)
	for _, view := range pending {
		if view.Pending.Clan.ID == clanID {
			return view.Pending.Version()
		}
	}
	require.Failf(t, "no pending draft", "clan %s", clanID)
	return 0
}

func (f *clanFixture) clan(t *testing.T, id string) *ClanView {
	t.Helper()
	view, err := f.svc.GetClan(context.Background(), testGuildID, id)
	require.NoError(t, err)
	return view
}

// assertSingleClanMembership checks no member's registrants sit on two rosters
func (f *clanFixture) assertSingleClanMembership(t *testing.T) {
	t.Helper()
	f.store.view(func(s *memoryState) {
		for _, member := range s.members {
			var rosters []string
			for _, clan := range s.clans {
				for _, rid := range member.ClanRegistrantIDs {
					if clan.HasRegistrant(rid) {
						rosters = append(rosters, clan.ID)
						break
					}
				}
			}
			assert.LessOrEqual(t, len(rosters), 1, "member %d is on rosters %v", member.MemberID, rosters)
		}
	})
}

func TestClanService_MovingMemberLeavesOldClan(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()

	x := f.register(t, 1, "X", 2, 3)
	assert.Equal(t, []int64{1, 2, 3}, x.Clan.RosterMemberIDs())

	y := f.register(t, 2, "Y")
	assert.Empty(t, y.DeactivatedClanIDs)
	assert.Len(t, y.MovedRegistrantIDs, 1)

	xView := f.clan(t, x.Clan.Clan.ID)
	assert.True(t, xView.Clan.IsActive)
	assert.Equal(t, []int64{1, 3}, xView.RosterMemberIDs())

	active, err := f.svc.ActiveClanOf(ctx, testGuildID, 2)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, y.Clan.Clan.ID, active.Clan.ID)

	f.assertSingleClanMembership(t)
}

func TestClanService_MovingLeaderDeactivatesOldClan(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()

	x := f.register(t, 1, "X", 2, 3)
	z := f.register(t, 1, "Z")

	assert.Equal(t, []string{x.Clan.Clan.ID}, z.DeactivatedClanIDs)

	xView := f.clan(t, x.Clan.Clan.ID)
	assert.False(t, xView.Clan.IsActive)
	assert.Equal(t, []int64{2, 3}, xView.RosterMemberIDs())

	// Members left behind in an inactive clan have no active clan
	active, err := f.svc.ActiveClanOf(ctx, testGuildID, 2)
	require.NoError(t, err)
	assert.Nil(t, active)

	var approved []events.ClanApprovedEvent
	for _, e := range f.store.Events() {
		if ev, ok := e.(events.ClanApprovedEvent); ok {
			approved = append(approved, ev)
		}
	}
	require.Len(t, approved, 2)
	assert.Equal(t, []string{x.Clan.Clan.ID}, approved[1].DeactivatedClanIDs)

	f.assertSingleClanMembership(t)
}

func TestClanService_RejoinReusesRegistrant(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()

	x := f.register(t, 1, "X", 2)
	xID := x.Clan.Clan.ID
	var original string
	for id, r := range x.Clan.Registrants {
		if r.MemberID == 2 {
			original = id
		}
	}

	f.register(t, 2, "Y")

	draft, err := f.svc.StartDraft(ctx, testGuildID, moderator, xID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SetDraftMembers(ctx, draft, []int64{2}))
	_, err = f.svc.SaveDraft(ctx, moderator, draft, 55)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, testGuildID, moderator, xID, f.version(t, xID))
	require.NoError(t, err)

	xView := f.clan(t, xID)
	assert.Contains(t, xView.Clan.ActiveRegistrantIDs, original)

	active, err := f.svc.ActiveClanOf(ctx, testGuildID, 2)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, xID, active.Clan.ID)

	// Y lost its leader and went inactive
	clans, err := f.svc.ListClans(ctx, testGuildID)
	require.NoError(t, err)
	for _, c := range clans {
		if c.ID != xID {
			assert.False(t, c.IsActive)
		}
	}
	f.assertSingleClanMembership(t)
}

func TestClanService_RandomApprovalsKeepSingleMembership(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()
	rng := rand.New(rand.NewPCG(3, 5))

	pick := func(n int) []int64 {
		var out []int64
		for range n {
			out = append(out, rng.Int64N(8)+1)
		}
		return out
	}

	for step := range 40 {
		clans, err := f.svc.ListClans(ctx, testGuildID)
		require.NoError(t, err)

		var active []*models.Clan
		for _, c := range clans {
			if c.IsActive {
				active = append(active, c)
			}
		}

		if len(active) > 0 && rng.IntN(2) == 0 {
			target := active[rng.IntN(len(active))]
			draft, err := f.svc.StartDraft(ctx, testGuildID, moderator, target.ID)
			require.NoError(t, err, "step %d", step)
			require.NoError(t, f.svc.SetDraftMembers(ctx, draft, pick(rng.IntN(3))), "step %d", step)
			_, err = f.svc.SaveDraft(ctx, moderator, draft, 55)
			require.NoError(t, err, "step %d", step)
			_, err = f.svc.Approve(ctx, testGuildID, moderator, target.ID, f.version(t, target.ID))
			require.NoError(t, err, "step %d", step)
		} else {
			f.register(t, rng.Int64N(8)+1, fmt.Sprintf("Clan %d", step), pick(rng.IntN(3))...)
		}

		f.assertSingleClanMembership(t)
	}
}

func TestClanService_SyncsRoles(t *testing.T) {
	f := newClanFixture()
	f.cfg.ClanLeaderRoleID = "leader"
	f.cfg.ClanMemberRoleID = "member"

	f.register(t, 1, "X", 2)
	assert.Equal(t, []string{"+member:1", "+leader:1", "+member:2"}, f.roles.ops)

	f.roles.ops = nil
	f.register(t, 1, "Z")
	assert.Equal(t, []string{"-leader:1", "-member:1", "+member:1", "+leader:1"}, f.roles.ops)
}

func TestClanService_RoleFailuresDoNotFailApproval(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cfg := config.NewTestConfig()
	cfg.ClanMemberRoleID = "member"

	roles := new(MockRoleManager)
	roles.On("AddRole", mock.Anything, testGuildID, int64(1), "member").Return(errors.New("missing permissions"))

	svc := NewClanService(store, cfg, &recordingPresenter{}, roles)

	draft, err := svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: 1})
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("X", "", ""))
	view, err := svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)

	result, err := svc.Approve(ctx, testGuildID, moderator, draft.Clan.ID, view.Pending.Version())
	require.NoError(t, err)
	assert.NotNil(t, result)
	roles.AssertExpectations(t)
}

func TestClanService_SaveDraftReplacesApprovalMessage(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()

	draft, err := f.svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: 1})
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("X", "", ""))

	first, err := f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), first.Pending.MessageID)
	assert.Empty(t, f.presenter.deleted)

	require.NoError(t, draft.SetDetails("X2", "", ""))
	second, err := f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)
	assert.Equal(t, int64(1002), second.Pending.MessageID)
	assert.Equal(t, []models.ApprovalMessageRef{{ChannelID: 55, MessageID: 1001}}, f.presenter.deleted)

	// A message already removed by hand is not deleted again
	require.NoError(t, f.svc.MarkApprovalMessageDeleted(ctx, testGuildID, 1002))
	_, err = f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)
	assert.Len(t, f.presenter.deleted, 1)

	pending, err := f.svc.PendingDrafts(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "X2", pending[0].Pending.Clan.Name)
	ref, ok := pending[0].MessageRef()
	assert.True(t, ok)
	assert.Equal(t, int64(1003), ref.MessageID)
}

func TestClanService_SupersededApprovalIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()
	f.presenter.failDelete = true

	draft, err := f.svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: 1})
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("First", "", ""))
	first, err := f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)

	require.NoError(t, draft.SetDetails("Second", "", ""))
	second, err := f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)
	require.NotEqual(t, first.Pending.Version(), second.Pending.Version())

	// the first message survived its failed deletion and still has buttons
	_, err = f.svc.Approve(ctx, testGuildID, moderator, draft.Clan.ID, first.Pending.Version())
	assertValidationError(t, err)
	_, err = f.svc.Reject(ctx, testGuildID, moderator, draft.Clan.ID, first.Pending.Version())
	assertValidationError(t, err)

	pending, err := f.svc.PendingDrafts(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Second", pending[0].Pending.Clan.Name)

	result, err := f.svc.Approve(ctx, testGuildID, moderator, draft.Clan.ID, second.Pending.Version())
	require.NoError(t, err)
	assert.Equal(t, "Second", result.Clan.Clan.Name)
}

func TestClanService_SaveDraftPostFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	presenter := new(MockClanPresenter)
	presenter.On("PostApproval", mock.Anything, mock.Anything).
		Return(models.ApprovalMessageRef{}, errors.New("channel missing"))

	svc := NewClanService(store, config.NewTestConfig(), presenter, nil)

	draft, err := svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: 1})
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("X", "", ""))

	view, err := svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	assert.Error(t, err)
	require.NotNil(t, view)

	pending, err := svc.PendingDrafts(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	_, ok := pending[0].MessageRef()
	assert.False(t, ok)
}

func TestClanService_Permissions(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()
	x := f.register(t, 1, "X", 2)
	xID := x.Clan.Clan.ID

	_, err := f.svc.StartDraft(ctx, testGuildID, Actor{ID: 2}, xID)
	assertPermissionError(t, err)

	draft, err := f.svc.StartDraft(ctx, testGuildID, Actor{ID: 1}, xID)
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("X renamed", "", ""))

	_, err = f.svc.SaveDraft(ctx, Actor{ID: 2}, draft, 55)
	assertPermissionError(t, err)

	_, err = f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, testGuildID, Actor{ID: 1}, xID, f.version(t, xID))
	assertPermissionError(t, err)
	_, err = f.svc.Reject(ctx, testGuildID, Actor{ID: 1}, xID, f.version(t, xID))
	assertPermissionError(t, err)

	// Registering a clan for someone else needs a moderator
	other, err := f.svc.StartNewClanDraft(ctx, testGuildID, Actor{ID: 5})
	require.NoError(t, err)
	require.NoError(t, other.SetDetails("W", "", ""))
	_, err = f.svc.SaveDraft(ctx, Actor{ID: 6}, other, 55)
	assertPermissionError(t, err)

	_, err = f.svc.GetClan(ctx, testGuildID, "missing")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestClanService_RejectLeavesLiveClan(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()
	x := f.register(t, 1, "X", 2)
	xID := x.Clan.Clan.ID

	draft, err := f.svc.StartDraft(ctx, testGuildID, Actor{ID: 1}, xID)
	require.NoError(t, err)
	require.NoError(t, draft.SetDetails("Renamed", "", ""))
	require.NoError(t, f.svc.SetDraftMembers(ctx, draft, []int64{3}))
	_, err = f.svc.SaveDraft(ctx, Actor{ID: 1}, draft, 55)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, testGuildID, moderator, xID, f.version(t, xID))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rejected.Pending.Clan.Name)

	view := f.clan(t, xID)
	assert.Equal(t, "X", view.Clan.Name)
	assert.Equal(t, []int64{1, 2}, view.RosterMemberIDs())

	pending, err := f.svc.PendingDrafts(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.Approve(ctx, testGuildID, moderator, xID, 0)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestClanService_ActiveClanOfDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	f := newClanFixture()
	x := f.register(t, 1, "X", 2)
	y := f.register(t, 3, "Y")

	// Put member 2's registrant on Y's roster behind the service's back
	var reg string
	for id, r := range x.Clan.Registrants {
		if r.MemberID == 2 {
			reg = id
		}
	}
	f.store.view(func(s *memoryState) {
		clan := s.clans[y.Clan.Clan.ID].Clone()
		clan.ActiveRegistrantIDs = append(clan.ActiveRegistrantIDs, reg)
		s.clans[clan.ID] = clan
	})

	_, err := f.svc.ActiveClanOf(ctx, testGuildID, 2)
	assert.True(t, IsInvariantError(err))
}
