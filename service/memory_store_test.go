package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"guildcogs/events"
	"guildcogs/models"
)

// memoryStore is an in-memory database for service tests. Transactions are
// serialized by a single mutex and work on a copy of the state that replaces
// the committed state on Commit. Repositories copy records in and out, so a
// shallow copy of the maps is enough to isolate a transaction.
type memoryStore struct {
	txMu sync.Mutex

	mu        sync.Mutex
	state     *memoryState
	published []events.Event
}

type memoryState struct {
	config           map[ConfigScope]json.RawMessage
	balances         map[[2]int64]int64
	history          []*models.BalanceHistory
	pools            map[int64]*models.BetPool
	options          map[int64][]*models.BetPoolOption
	betters          map[int64][]*models.Better
	nextPoolID       int64
	clans            map[string]*models.Clan
	registrants      map[string]*models.ClanRegistrant
	members          map[[2]int64]*models.Member
	clanDrafts       map[string]*models.PendingClanDraft
	registrantDrafts map[string][]*models.PendingClanRegistrationDraft
	records          map[string]*models.ClanBattleRecord
	awards           []*models.ClanPointAward
	announcements    map[int64]*models.Announcement
	nextAnnounceID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: &memoryState{
		config:           make(map[ConfigScope]json.RawMessage),
		balances:         make(map[[2]int64]int64),
		pools:            make(map[int64]*models.BetPool),
		options:          make(map[int64][]*models.BetPoolOption),
		betters:          make(map[int64][]*models.Better),
		clans:            make(map[string]*models.Clan),
		registrants:      make(map[string]*models.ClanRegistrant),
		members:          make(map[[2]int64]*models.Member),
		clanDrafts:       make(map[string]*models.PendingClanDraft),
		registrantDrafts: make(map[string][]*models.PendingClanRegistrationDraft),
		records:          make(map[string]*models.ClanBattleRecord),
		announcements:    make(map[int64]*models.Announcement),
	}}
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		config:           cloneMap(s.config),
		balances:         cloneMap(s.balances),
		history:          slices.Clone(s.history),
		pools:            cloneMap(s.pools),
		options:          cloneMap(s.options),
		betters:          cloneMap(s.betters),
		nextPoolID:       s.nextPoolID,
		clans:            cloneMap(s.clans),
		registrants:      cloneMap(s.registrants),
		members:          cloneMap(s.members),
		clanDrafts:       cloneMap(s.clanDrafts),
		registrantDrafts: cloneMap(s.registrantDrafts),
		records:          cloneMap(s.records),
		awards:           slices.Clone(s.awards),
		announcements:    cloneMap(s.announcements),
		nextAnnounceID:   s.nextAnnounceID,
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memoryStore) CreateForGuild(guildID int64) UnitOfWork {
	return &memoryUnitOfWork{store: m, guildID: guildID}
}

// Events returns every event published by committed transactions
func (m *memoryStore) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.published)
}

// view runs fn against the committed state
func (m *memoryStore) view(fn func(s *memoryState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

func (m *memoryStore) rawBalance(guildID, memberID int64) int64 {
	var raw int64
	m.view(func(s *memoryState) { raw = s.balances[[2]int64{guildID, memberID}] })
	return raw
}

func (m *memoryStore) setRawBalance(guildID, memberID, raw int64) {
	m.view(func(s *memoryState) { s.balances[[2]int64{guildID, memberID}] = raw })
}

func (m *memoryStore) historyOf(memberID int64) []*models.BalanceHistory {
	var out []*models.BalanceHistory
	m.view(func(s *memoryState) {
		for _, h := range s.history {
			if h.DiscordID == memberID {
				out = append(out, h)
			}
		}
	})
	return out
}

type memoryUnitOfWork struct {
	store   *memoryStore
	guildID int64
	state   *memoryState
	pending []events.Event
	done    bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	u.store.txMu.Lock()
	u.store.mu.Lock()
	u.state = u.store.state.clone()
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.state == nil || u.done {
		return errors.New("transaction not active")
	}
	u.store.mu.Lock()
	u.store.state = u.state
	u.store.published = append(u.store.published, u.pending...)
	u.store.mu.Unlock()
	u.finish()
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.state == nil || u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *memoryUnitOfWork) finish() {
	u.done = true
	u.pending = nil
	u.store.txMu.Unlock()
}

// Lock is a no-op: transactions are already serialized
func (u *memoryUnitOfWork) Lock(ctx context.Context, key string) error {
	return nil
}

func (u *memoryUnitOfWork) Publish(event events.Event) {
	u.pending = append(u.pending, event)
}

func (u *memoryUnitOfWork) ConfigStore() ConfigStore { return memoryConfig{u} }
func (u *memoryUnitOfWork) BankRepository() BankRepository { return memoryBank{u} }
func (u *memoryUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return memoryHistory{u}
}
func (u *memoryUnitOfWork) BetPoolRepository() BetPoolRepository { return memoryPools{u} }
func (u *memoryUnitOfWork) ClanRepository() ClanRepository       { return memoryClans{u} }
func (u *memoryUnitOfWork) ClanRegistrantRepository() ClanRegistrantRepository {
	return memoryRegistrants{u}
}
func (u *memoryUnitOfWork) MemberRepository() MemberRepository { return memoryMembers{u} }
func (u *memoryUnitOfWork) PendingDraftRepository() PendingDraftRepository {
	return memoryDrafts{u}
}
func (u *memoryUnitOfWork) BattleRecordRepository() BattleRecordRepository {
	return memoryRecords{u}
}
func (u *memoryUnitOfWork) PointAwardRepository() PointAwardRepository { return memoryAwards{u} }
func (u *memoryUnitOfWork) AnnouncementRepository() AnnouncementRepository {
	return memoryAnnouncements{u}
}
func (u *memoryUnitOfWork) EventBus() EventPublisher { return u }

type memoryConfig struct{ u *memoryUnitOfWork }

func (r memoryConfig) GetRaw(ctx context.Context, scope ConfigScope) (json.RawMessage, error) {
	return r.u.state.config[scope], nil
}

func (r memoryConfig) SetRaw(ctx context.Context, scope ConfigScope, value json.RawMessage) error {
	r.u.state.config[scope] = slices.Clone(value)
	return nil
}

func (r memoryConfig) ClearRaw(ctx context.Context, scope ConfigScope) error {
	delete(r.u.state.config, scope)
	return nil
}

func (r memoryConfig) Lock(ctx context.Context, scope ConfigScope) error {
	return nil
}

type memoryBank struct{ u *memoryUnitOfWork }

func (r memoryBank) key(id int64) [2]int64 { return [2]int64{r.u.guildID, id} }

func (r memoryBank) GetBalance(ctx context.Context, discordID int64) (int64, error) {
	return r.u.state.balances[r.key(discordID)], nil
}

func (r memoryBank) Deposit(ctx context.Context, discordID int64, amount int64) (int64, error) {
	r.u.state.balances[r.key(discordID)] += amount
	return r.u.state.balances[r.key(discordID)], nil
}

func (r memoryBank) Withdraw(ctx context.Context, discordID int64, amount int64) (int64, error) {
	r.u.state.balances[r.key(discordID)] -= amount
	return r.u.state.balances[r.key(discordID)], nil
}

func (r memoryBank) SetBalance(ctx context.Context, discordID int64, rawBalance int64) error {
	r.u.state.balances[r.key(discordID)] = rawBalance
	return nil
}

func (r memoryBank) Leaderboard(ctx context.Context, limit int) ([]*models.BankAccount, error) {
	var accounts []*models.BankAccount
	for k, raw := range r.u.state.balances {
		if k[0] == r.u.guildID {
			accounts = append(accounts, &models.BankAccount{GuildID: k[0], DiscordID: k[1], RawBalance: raw})
		}
	}
	slices.SortFunc(accounts, func(a, b *models.BankAccount) int {
		if a.RawBalance != b.RawBalance {
			return int(b.RawBalance - a.RawBalance)
		}
		return int(a.DiscordID - b.DiscordID)
	})
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

type memoryHistory struct{ u *memoryUnitOfWork }

func (r memoryHistory) Record(ctx context.Context, history *models.BalanceHistory) error {
	cp := *history
	cp.ID = int64(len(r.u.state.history) + 1)
	cp.CreatedAt = time.Now()
	r.u.state.history = append(r.u.state.history, &cp)
	history.ID = cp.ID
	return nil
}

func (r memoryHistory) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	var out []*models.BalanceHistory
	for i := len(r.u.state.history) - 1; i >= 0 && len(out) < limit; i-- {
		h := r.u.state.history[i]
		if h.GuildID == r.u.guildID && h.DiscordID == discordID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryPools struct{ u *memoryUnitOfWork }

func (r memoryPools) Create(ctx context.Context, pool *models.BetPool) error {
	r.u.state.nextPoolID++
	pool.ID = r.u.state.nextPoolID
	cp := *pool
	r.u.state.pools[pool.ID] = &cp
	return nil
}

func (r memoryPools) GetDetail(ctx context.Context, id int64) (*models.BetPoolDetail, error) {
	pool, ok := r.u.state.pools[id]
	if !ok || pool.GuildID != r.u.guildID {
		return nil, nil
	}
	cp := *pool
	detail := &models.BetPoolDetail{Pool: &cp}
	for _, o := range r.u.state.options[id] {
		oc := *o
		detail.Options = append(detail.Options, &oc)
	}
	for _, b := range r.u.state.betters[id] {
		bc := *b
		detail.Betters = append(detail.Betters, &bc)
	}
	return detail, nil
}

func (r memoryPools) List(ctx context.Context, states ...models.BetPoolState) ([]*models.BetPool, error) {
	var out []*models.BetPool
	for _, pool := range r.u.state.pools {
		if pool.GuildID != r.u.guildID {
			continue
		}
		if len(states) > 0 && !slices.Contains(states, pool.State) {
			continue
		}
		cp := *pool
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.BetPool) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r memoryPools) Update(ctx context.Context, pool *models.BetPool) error {
	cp := *pool
	r.u.state.pools[pool.ID] = &cp
	return nil
}

func (r memoryPools) ReplaceOptions(ctx context.Context, poolID int64, options []*models.BetPoolOption) error {
	copies := make([]*models.BetPoolOption, 0, len(options))
	for _, o := range options {
		oc := *o
		copies = append(copies, &oc)
	}
	r.u.state.options[poolID] = copies
	return nil
}

func (r memoryPools) SaveBetter(ctx context.Context, better *models.Better) error {
	cp := *better
	betters := slices.Clone(r.u.state.betters[better.PoolID])
	for i, b := range betters {
		if b.MemberID == better.MemberID {
			betters[i] = &cp
			r.u.state.betters[better.PoolID] = betters
			return nil
		}
	}
	r.u.state.betters[better.PoolID] = append(betters, &cp)
	return nil
}

type memoryClans struct{ u *memoryUnitOfWork }

func (r memoryClans) Get(ctx context.Context, id string) (*models.Clan, error) {
	clan, ok := r.u.state.clans[id]
	if !ok || clan.GuildID != r.u.guildID {
		return nil, nil
	}
	return clan.Clone(), nil
}

func (r memoryClans) List(ctx context.Context) ([]*models.Clan, error) {
	var out []*models.Clan
	for _, clan := range r.u.state.clans {
		if clan.GuildID == r.u.guildID {
			out = append(out, clan.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Clan) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r memoryClans) Save(ctx context.Context, clan *models.Clan) error {
	r.u.state.clans[clan.ID] = clan.Clone()
	return nil
}

type memoryRegistrants struct{ u *memoryUnitOfWork }

func (r memoryRegistrants) Get(ctx context.Context, id string) (*models.ClanRegistrant, error) {
	reg, ok := r.u.state.registrants[id]
	if !ok {
		return nil, nil
	}
	cp := *reg
	return &cp, nil
}

func (r memoryRegistrants) GetMany(ctx context.Context, ids []string) (map[string]*models.ClanRegistrant, error) {
	out := make(map[string]*models.ClanRegistrant, len(ids))
	for _, id := range ids {
		if reg, ok := r.u.state.registrants[id]; ok {
			cp := *reg
			out[id] = &cp
		}
	}
	return out, nil
}

func (r memoryRegistrants) ListByMember(ctx context.Context, memberID int64) ([]*models.ClanRegistrant, error) {
	var out []*models.ClanRegistrant
	for _, reg := range r.u.state.registrants {
		if reg.GuildID == r.u.guildID && reg.MemberID == memberID {
			cp := *reg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memoryRegistrants) ListAll(ctx context.Context) ([]*models.ClanRegistrant, error) {
	var out []*models.ClanRegistrant
	for _, reg := range r.u.state.registrants {
		if reg.GuildID == r.u.guildID {
			cp := *reg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memoryRegistrants) Save(ctx context.Context, registrant *models.ClanRegistrant) error {
	cp := *registrant
	r.u.state.registrants[registrant.ID] = &cp
	return nil
}

type memoryMembers struct{ u *memoryUnitOfWork }

func (r memoryMembers) Get(ctx context.Context, memberID int64) (*models.Member, error) {
	member, ok := r.u.state.members[[2]int64{r.u.guildID, memberID}]
	if !ok {
		return nil, nil
	}
	cp := *member
	cp.ClanRegistrantIDs = slices.Clone(member.ClanRegistrantIDs)
	return &cp, nil
}

func (r memoryMembers) Save(ctx context.Context, member *models.Member) error {
	cp := *member
	cp.ClanRegistrantIDs = slices.Clone(member.ClanRegistrantIDs)
	r.u.state.members[[2]int64{member.GuildID, member.MemberID}] = &cp
	return nil
}

type memoryDrafts struct{ u *memoryUnitOfWork }

func copyPendingClan(p *models.PendingClanDraft) *models.PendingClanDraft {
	cp := *p
	cp.Clan = p.Clan.Clone()
	return &cp
}

func (r memoryDrafts) GetClanDraft(ctx context.Context, clanID string) (*models.PendingClanDraft, error) {
	p, ok := r.u.state.clanDrafts[clanID]
	if !ok || p.Clan.GuildID != r.u.guildID {
		return nil, nil
	}
	return copyPendingClan(p), nil
}

func (r memoryDrafts) ListClanDrafts(ctx context.Context) ([]*models.PendingClanDraft, error) {
	var out []*models.PendingClanDraft
	for _, p := range r.u.state.clanDrafts {
		if p.Clan.GuildID == r.u.guildID {
			out = append(out, copyPendingClan(p))
		}
	}
	return out, nil
}

func (r memoryDrafts) SaveClanDraft(ctx context.Context, draft *models.PendingClanDraft) error {
	r.u.state.clanDrafts[draft.Clan.ID] = copyPendingClan(draft)
	return nil
}

func (r memoryDrafts) DeleteClanDraft(ctx context.Context, clanID string) error {
	delete(r.u.state.clanDrafts, clanID)
	return nil
}

func (r memoryDrafts) ListRegistrantDrafts(ctx context.Context, clanID string) ([]*models.PendingClanRegistrationDraft, error) {
	var out []*models.PendingClanRegistrationDraft
	for _, rd := range r.u.state.registrantDrafts[clanID] {
		reg := *rd.Registrant
		out = append(out, &models.PendingClanRegistrationDraft{Registrant: &reg, DraftCreatedAt: rd.DraftCreatedAt})
	}
	return out, nil
}

func (r memoryDrafts) SaveRegistrantDraft(ctx context.Context, draft *models.PendingClanRegistrationDraft) error {
	reg := *draft.Registrant
	clanID := reg.ClanID
	r.u.state.registrantDrafts[clanID] = append(slices.Clone(r.u.state.registrantDrafts[clanID]),
		&models.PendingClanRegistrationDraft{Registrant: &reg, DraftCreatedAt: draft.DraftCreatedAt})
	return nil
}

func (r memoryDrafts) DeleteRegistrantDrafts(ctx context.Context, clanID string) error {
	delete(r.u.state.registrantDrafts, clanID)
	return nil
}

type memoryRecords struct{ u *memoryUnitOfWork }

func copyRecord(rec *models.ClanBattleRecord) *models.ClanBattleRecord {
	cp := *rec
	if rec.WinnerID != nil {
		w := *rec.WinnerID
		cp.WinnerID = &w
	}
	return &cp
}

func (r memoryRecords) Create(ctx context.Context, record *models.ClanBattleRecord) error {
	r.u.state.records[record.ID] = copyRecord(record)
	return nil
}

func (r memoryRecords) Get(ctx context.Context, id string) (*models.ClanBattleRecord, error) {
	rec, ok := r.u.state.records[id]
	if !ok || rec.GuildID != r.u.guildID {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (r memoryRecords) Update(ctx context.Context, record *models.ClanBattleRecord) error {
	r.u.state.records[record.ID] = copyRecord(record)
	return nil
}

func (r memoryRecords) Delete(ctx context.Context, id string) error {
	delete(r.u.state.records, id)
	return nil
}

func (r memoryRecords) ListLocked(ctx context.Context, since time.Time) ([]*models.ClanBattleRecord, error) {
	var out []*models.ClanBattleRecord
	for _, rec := range r.u.state.records {
		if rec.GuildID == r.u.guildID && rec.IsLocked() && !rec.CreatedAt.Before(since) {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

type memoryAwards struct{ u *memoryUnitOfWork }

func (r memoryAwards) Create(ctx context.Context, award *models.ClanPointAward) error {
	cp := *award
	r.u.state.awards = append(r.u.state.awards, &cp)
	return nil
}

func (r memoryAwards) List(ctx context.Context, since time.Time) ([]*models.ClanPointAward, error) {
	var out []*models.ClanPointAward
	for _, a := range r.u.state.awards {
		if a.GuildID == r.u.guildID && !a.CreatedAt.Before(since) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryAnnouncements struct{ u *memoryUnitOfWork }

func (r memoryAnnouncements) Create(ctx context.Context, announcement *models.Announcement) error {
	r.u.state.nextAnnounceID++
	announcement.ID = r.u.state.nextAnnounceID
	announcement.CreatedAt = time.Now()
	cp := *announcement
	r.u.state.announcements[cp.ID] = &cp
	return nil
}

func (r memoryAnnouncements) Get(ctx context.Context, id int64) (*models.Announcement, error) {
	a, ok := r.u.state.announcements[id]
	if !ok || a.GuildID != r.u.guildID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r memoryAnnouncements) Delete(ctx context.Context, id int64) error {
	delete(r.u.state.announcements, id)
	return nil
}

func (r memoryAnnouncements) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	if a, ok := r.u.state.announcements[id]; ok {
		cp := *a
		cp.Enabled = enabled
		r.u.state.announcements[id] = &cp
	}
	return nil
}

func (r memoryAnnouncements) ListByGuild(ctx context.Context) ([]*models.Announcement, error) {
	var out []*models.Announcement
	for _, a := range r.u.state.announcements {
		if a.GuildID == r.u.guildID {
			cp := *a
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Announcement) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r memoryAnnouncements) ListEnabled(ctx context.Context) ([]*models.Announcement, error) {
	var out []*models.Announcement
	for _, a := range r.u.state.announcements {
		if a.Enabled {
			cp := *a
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Announcement) int { return int(a.ID - b.ID) })
	return out, nil
}
