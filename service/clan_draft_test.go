package service

import (
	"fmt"
	"testing"
	"time"

	"guildcogs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func testDraftOptions() DraftOptions {
	return DraftOptions{
		MaxMembers: 3,
		NewID:      sequentialIDs("id"),
		Now:        func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestNewClanDraft_LeaderOnRoster(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())

	assert.True(t, draft.IsNew)
	assert.True(t, draft.Clan.IsActive)
	assert.Equal(t, int64(10), draft.LeaderMemberID())
	assert.Equal(t, []int64{10}, draft.RosterMemberIDs())

	// No name yet
	assertValidationError(t, draft.Validate())

	require.NoError(t, draft.SetDetails("  Night Owls ", "desc", "https://example.com/icon.png"))
	assert.Equal(t, "Night Owls", draft.Clan.Name)
	assert.NoError(t, draft.Validate())
}

func TestClanDraft_SetDetailsValidation(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())

	assertValidationError(t, draft.SetDetails("   ", "", ""))
	assertValidationError(t, draft.SetDetails("ok", "", "ftp://icon"))
	assertValidationError(t, draft.SetDetails(string(make([]byte, 65)), "", ""))
	assert.Empty(t, draft.Clan.Name)
}

func TestClanDraft_SetMembers(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())

	require.NoError(t, draft.SetMembers([]int64{11, 10, 12, 11}, nil))
	assert.Equal(t, []int64{10, 11, 12}, draft.RosterMemberIDs())

	// Leader plus three would exceed the cap
	assertValidationError(t, draft.SetMembers([]int64{11, 12, 13}, nil))
	assert.Equal(t, []int64{10, 11, 12}, draft.RosterMemberIDs())

	require.NoError(t, draft.SetMembers([]int64{13}, nil))
	assert.Equal(t, []int64{10, 13}, draft.RosterMemberIDs())
	assert.Len(t, draft.Registrants, 2)
}

func TestClanDraft_RemoveMember(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())
	require.NoError(t, draft.SetMembers([]int64{11}, nil))

	assertValidationError(t, draft.RemoveMember(10))
	assertValidationError(t, draft.RemoveMember(99))

	require.NoError(t, draft.RemoveMember(11))
	assert.Equal(t, []int64{10}, draft.RosterMemberIDs())
}

func TestClanDraft_SetLeader(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())
	require.NoError(t, draft.SetMembers([]int64{11, 12}, nil))

	require.NoError(t, draft.SetLeader(11, nil))
	assert.Equal(t, int64(11), draft.LeaderMemberID())
	assert.Len(t, draft.RosterMemberIDs(), 3)

	// A new leader from outside would push the roster over the cap
	assertValidationError(t, draft.SetLeader(13, nil))
	assert.Equal(t, int64(11), draft.LeaderMemberID())
}

func TestClanDraft_RejoinReusesRegistrant(t *testing.T) {
	opts := testDraftOptions()
	joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	clan := &models.Clan{
		ID:                  "clan-x",
		GuildID:             testGuildID,
		IsActive:            true,
		Name:                "X",
		LeaderRegistrantID:  "reg-leader",
		ActiveRegistrantIDs: []string{"reg-leader"},
	}
	registrants := map[string]*models.ClanRegistrant{
		"reg-leader": {ID: "reg-leader", GuildID: testGuildID, MemberID: 10, ClanID: "clan-x"},
	}
	previous := &models.ClanRegistrant{ID: "reg-old", GuildID: testGuildID, MemberID: 11, ClanID: "clan-x", CreatedAt: joined, LastJoinedAt: joined}
	elsewhere := &models.ClanRegistrant{ID: "reg-y", GuildID: testGuildID, MemberID: 12, ClanID: "clan-y"}

	draft := DraftFromLive(clan, registrants, opts)
	assert.False(t, draft.IsNew)

	require.NoError(t, draft.SetMembers([]int64{11, 12}, map[int64]*models.ClanRegistrant{11: previous, 12: elsewhere}))

	reused := draft.Registrants["reg-old"]
	require.NotNil(t, reused)
	assert.Equal(t, joined, reused.CreatedAt)
	assert.True(t, reused.LastJoinedAt.After(joined))

	// A registrant from another clan is never reused
	assert.NotContains(t, draft.Clan.ActiveRegistrantIDs, "reg-y")
	assert.Len(t, draft.Clan.ActiveRegistrantIDs, 3)
}

func TestClanDraft_ResetDiscardsChanges(t *testing.T) {
	clan := &models.Clan{
		ID:                  "clan-x",
		GuildID:             testGuildID,
		IsActive:            true,
		Name:                "X",
		LeaderRegistrantID:  "reg-leader",
		ActiveRegistrantIDs: []string{"reg-leader"},
	}
	registrants := map[string]*models.ClanRegistrant{
		"reg-leader": {ID: "reg-leader", GuildID: testGuildID, MemberID: 10, ClanID: "clan-x"},
	}

	draft := DraftFromLive(clan, registrants, testDraftOptions())
	require.NoError(t, draft.SetDetails("Renamed", "", ""))
	require.NoError(t, draft.SetMembers([]int64{11}, nil))
	draft.SetActive(false)

	draft.Reset()
	assert.Equal(t, "X", draft.Clan.Name)
	assert.True(t, draft.Clan.IsActive)
	assert.Equal(t, []int64{10}, draft.RosterMemberIDs())

	// The live clan passed in is never modified
	assert.Equal(t, []string{"reg-leader"}, clan.ActiveRegistrantIDs)
}

func TestClanDraft_Pending(t *testing.T) {
	draft := NewClanDraft(testGuildID, 10, testDraftOptions())
	require.NoError(t, draft.SetDetails("Owls", "", ""))
	require.NoError(t, draft.SetMembers([]int64{11}, nil))

	pending, registrants := draft.Pending(10)
	assert.True(t, pending.IsNew)
	assert.Equal(t, int64(10), pending.SubmittedBy)
	assert.Equal(t, draft.Clan.ActiveRegistrantIDs, pending.Clan.ActiveRegistrantIDs)
	require.Len(t, registrants, 2)

	// Later edits do not leak into the pending copy
	require.NoError(t, draft.SetMembers(nil, nil))
	assert.Len(t, pending.Clan.ActiveRegistrantIDs, 2)
}
