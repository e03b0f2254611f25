package service

import (
	"guildcogs/models"
)

// ClanView is a clan with the registrants on its roster
type ClanView struct {
	Clan        *models.Clan
	Registrants map[string]*models.ClanRegistrant
}

// LeaderMemberID returns the leading member, or 0 when the leader is unknown
func (v *ClanView) LeaderMemberID() int64 {
	if r, ok := v.Registrants[v.Clan.LeaderRegistrantID]; ok {
		return r.MemberID
	}
	return 0
}

// RosterMemberIDs returns active members in roster order
func (v *ClanView) RosterMemberIDs() []int64 {
	return rosterMemberIDs(v.Clan, v.Registrants)
}

// PendingClanView is a draft awaiting approval, with the live clan it would replace
type PendingClanView struct {
	Pending     *models.PendingClanDraft
	Registrants map[string]*models.ClanRegistrant
	Live        *models.Clan
}

// Proposed returns the drafted clan as a ClanView
func (v *PendingClanView) Proposed() *ClanView {
	return &ClanView{Clan: v.Pending.Clan, Registrants: v.Registrants}
}

// MessageRef returns where the approval message lives, if it was posted and not deleted
func (v *PendingClanView) MessageRef() (models.ApprovalMessageRef, bool) {
	p := v.Pending
	if p.MessageID == 0 || p.MessageDeleted {
		return models.ApprovalMessageRef{}, false
	}
	return models.ApprovalMessageRef{ChannelID: p.ChannelID, MessageID: p.MessageID}, true
}

// ClanApprovalResult describes what an approval changed
type ClanApprovalResult struct {
	Clan               *ClanView
	Message            models.ApprovalMessageRef
	DeactivatedClanIDs []string
	MovedRegistrantIDs []string
}

func rosterMemberIDs(clan *models.Clan, registrants map[string]*models.ClanRegistrant) []int64 {
	ids := make([]int64, 0, len(clan.ActiveRegistrantIDs))
	for _, rid := range clan.ActiveRegistrantIDs {
		if r, ok := registrants[rid]; ok {
			ids = append(ids, r.MemberID)
		}
	}
	return ids
}
