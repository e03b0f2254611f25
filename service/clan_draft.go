package service

import (
	"slices"
	"strings"
	"time"

	"guildcogs/models"

	"github.com/google/uuid"
)

const (
	maxClanNameLength        = 64
	maxClanDescriptionLength = 1000
)

// DraftOptions configures a ClanDraft
type DraftOptions struct {
	MaxMembers int
	NewID      func() string
	Now        func() time.Time
}

func (o DraftOptions) withDefaults() DraftOptions {
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ClanDraft is an in-memory working copy of a clan and its registrants.
// Transitions never touch storage; only saving and approval do.
type ClanDraft struct {
	Clan        *models.Clan
	Registrants map[string]*models.ClanRegistrant
	IsNew       bool

	baseClan        *models.Clan
	baseRegistrants map[string]*models.ClanRegistrant
	opts            DraftOptions
}

// NewClanDraft starts a brand-new clan led by leaderMemberID
func NewClanDraft(guildID, leaderMemberID int64, opts DraftOptions) *ClanDraft {
	opts = opts.withDefaults()
	now := opts.Now()

	clan := &models.Clan{
		ID:        opts.NewID(),
		GuildID:   guildID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	leader := &models.ClanRegistrant{
		ID:           opts.NewID(),
		GuildID:      guildID,
		MemberID:     leaderMemberID,
		ClanID:       clan.ID,
		CreatedAt:    now,
		LastJoinedAt: now,
	}
	clan.LeaderRegistrantID = leader.ID
	clan.ActiveRegistrantIDs = []string{leader.ID}

	return newDraft(clan, map[string]*models.ClanRegistrant{leader.ID: leader}, true, opts)
}

// DraftFromLive starts a draft over an existing clan
func DraftFromLive(clan *models.Clan, registrants map[string]*models.ClanRegistrant, opts DraftOptions) *ClanDraft {
	return newDraft(clan, registrants, false, opts.withDefaults())
}

func newDraft(clan *models.Clan, registrants map[string]*models.ClanRegistrant, isNew bool, opts DraftOptions) *ClanDraft {
	d := &ClanDraft{
		IsNew:           isNew,
		baseClan:        clan.Clone(),
		baseRegistrants: cloneRegistrants(registrants),
		opts:            opts,
	}
	d.Reset()
	return d
}

// Reset discards every change since the draft started
func (d *ClanDraft) Reset() {
	d.Clan = d.baseClan.Clone()
	d.Registrants = make(map[string]*models.ClanRegistrant, len(d.Clan.ActiveRegistrantIDs))
	for _, id := range d.Clan.ActiveRegistrantIDs {
		if r, ok := d.baseRegistrants[id]; ok {
			cp := *r
			d.Registrants[id] = &cp
		}
	}
}

// SetDetails replaces the name, description and icon
func (d *ClanDraft) SetDetails(name, description, iconURL string) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	iconURL = strings.TrimSpace(iconURL)

	if name == "" {
		return NewValidationError("clan name is required")
	}
	if len(name) > maxClanNameLength {
		return NewValidationError("clan name must be at most %d characters", maxClanNameLength)
	}
	if len(description) > maxClanDescriptionLength {
		return NewValidationError("description must be at most %d characters", maxClanDescriptionLength)
	}
	if iconURL != "" && !strings.HasPrefix(iconURL, "https://") && !strings.HasPrefix(iconURL, "http://") {
		return NewValidationError("icon must be an http(s) URL")
	}

	d.Clan.Name = name
	d.Clan.Description = description
	d.Clan.IconURL = iconURL
	return nil
}

// SetActive toggles whether the clan is active
func (d *ClanDraft) SetActive(active bool) {
	d.Clan.IsActive = active
}

// SetLeader makes memberID the leader, adding them to the roster if needed.
// previous is the member's historical registrant for this clan, if any.
func (d *ClanDraft) SetLeader(memberID int64, previous *models.ClanRegistrant) error {
	registrant := d.registrantOf(memberID)
	if registrant == nil {
		if len(d.Clan.ActiveRegistrantIDs)+1 > d.opts.MaxMembers {
			return NewValidationError("a clan can have at most %d members", d.opts.MaxMembers)
		}
		registrant = d.join(memberID, previous)
	}
	d.Clan.LeaderRegistrantID = registrant.ID
	return nil
}

// SetMembers replaces the non-leader roster with memberIDs.
// The leader always stays; listing them is allowed and ignored.
func (d *ClanDraft) SetMembers(memberIDs []int64, previous map[int64]*models.ClanRegistrant) error {
	leaderID := d.LeaderMemberID()

	selected := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != leaderID && !slices.Contains(selected, id) {
			selected = append(selected, id)
		}
	}
	if len(selected)+1 > d.opts.MaxMembers {
		return NewValidationError("a clan can have at most %d members", d.opts.MaxMembers)
	}

	for _, memberID := range d.RosterMemberIDs() {
		if memberID != leaderID && !slices.Contains(selected, memberID) {
			d.drop(memberID)
		}
	}
	for _, memberID := range selected {
		if d.registrantOf(memberID) == nil {
			d.join(memberID, previous[memberID])
		}
	}
	return nil
}

// RemoveMember drops one member from the roster. The leader cannot be removed.
func (d *ClanDraft) RemoveMember(memberID int64) error {
	if memberID == d.LeaderMemberID() {
		return NewValidationError("the leader cannot be removed, choose a new leader first")
	}
	if d.registrantOf(memberID) == nil {
		return NewValidationError("that member is not in this clan")
	}
	d.drop(memberID)
	return nil
}

// LeaderMemberID returns the member leading the drafted clan
func (d *ClanDraft) LeaderMemberID() int64 {
	if r, ok := d.Registrants[d.Clan.LeaderRegistrantID]; ok {
		return r.MemberID
	}
	return 0
}

// RosterMemberIDs returns active members in roster order
func (d *ClanDraft) RosterMemberIDs() []int64 {
	ids := make([]int64, 0, len(d.Clan.ActiveRegistrantIDs))
	for _, rid := range d.Clan.ActiveRegistrantIDs {
		if r, ok := d.Registrants[rid]; ok {
			ids = append(ids, r.MemberID)
		}
	}
	return ids
}

// Validate checks the draft is complete enough to submit
func (d *ClanDraft) Validate() error {
	if d.Clan.Name == "" {
		return NewValidationError("clan name is required")
	}
	if !d.Clan.HasRegistrant(d.Clan.LeaderRegistrantID) {
		return NewValidationError("the clan needs a leader")
	}
	if len(d.Clan.ActiveRegistrantIDs) > d.opts.MaxMembers {
		return NewValidationError("a clan can have at most %d members", d.opts.MaxMembers)
	}
	for _, id := range d.Clan.ActiveRegistrantIDs {
		if _, ok := d.Registrants[id]; !ok {
			return NewInvariantError("registrant %s of clan %s is missing", id, d.Clan.ID)
		}
	}
	return nil
}

// Pending converts the draft into the records stored while it awaits approval
func (d *ClanDraft) Pending(submittedBy int64) (*models.PendingClanDraft, []*models.PendingClanRegistrationDraft) {
	// stored timestamps keep microseconds, so versions survive a round trip
	now := d.opts.Now().Truncate(time.Microsecond)
	pending := &models.PendingClanDraft{
		Clan:           d.Clan.Clone(),
		IsNew:          d.IsNew,
		DraftCreatedAt: now,
		SubmittedBy:    submittedBy,
	}

	registrants := make([]*models.PendingClanRegistrationDraft, 0, len(d.Clan.ActiveRegistrantIDs))
	for _, id := range d.Clan.ActiveRegistrantIDs {
		cp := *d.Registrants[id]
		registrants = append(registrants, &models.PendingClanRegistrationDraft{
			Registrant:     &cp,
			DraftCreatedAt: now,
		})
	}
	return pending, registrants
}

func (d *ClanDraft) registrantOf(memberID int64) *models.ClanRegistrant {
	for _, id := range d.Clan.ActiveRegistrantIDs {
		if r, ok := d.Registrants[id]; ok && r.MemberID == memberID {
			return r
		}
	}
	return nil
}

// join adds a member, reusing their registrant from an earlier stint in this clan
func (d *ClanDraft) join(memberID int64, previous *models.ClanRegistrant) *models.ClanRegistrant {
	now := d.opts.Now()

	var registrant *models.ClanRegistrant
	if previous != nil && previous.ClanID == d.Clan.ID && previous.MemberID == memberID {
		cp := *previous
		cp.LastJoinedAt = now
		registrant = &cp
	} else {
		registrant = &models.ClanRegistrant{
			ID:           d.opts.NewID(),
			GuildID:      d.Clan.GuildID,
			MemberID:     memberID,
			ClanID:       d.Clan.ID,
			CreatedAt:    now,
			LastJoinedAt: now,
		}
	}

	d.Registrants[registrant.ID] = registrant
	d.Clan.ActiveRegistrantIDs = append(d.Clan.ActiveRegistrantIDs, registrant.ID)
	return registrant
}

func (d *ClanDraft) drop(memberID int64) {
	registrant := d.registrantOf(memberID)
	if registrant == nil {
		return
	}
	d.Clan.ActiveRegistrantIDs = slices.DeleteFunc(d.Clan.ActiveRegistrantIDs, func(id string) bool {
		return id == registrant.ID
	})
	delete(d.Registrants, registrant.ID)
}

func cloneRegistrants(in map[string]*models.ClanRegistrant) map[string]*models.ClanRegistrant {
	out := make(map[string]*models.ClanRegistrant, len(in))
	for id, r := range in {
		cp := *r
		out[id] = &cp
	}
	return out
}
