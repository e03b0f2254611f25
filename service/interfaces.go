package service

import (
	"context"
	"encoding/json"
	"time"

	"guildcogs/events"
	"guildcogs/models"
)

// ConfigStore is the generic scoped key/value store behind settings and per-member state
type ConfigStore interface {
	// GetRaw returns the stored JSON value, or nil when the key is unset
	GetRaw(ctx context.Context, scope ConfigScope) (json.RawMessage, error)

	// SetRaw stores a JSON value
	SetRaw(ctx context.Context, scope ConfigScope, value json.RawMessage) error

	// ClearRaw removes a value, falling back to defaults on the next read
	ClearRaw(ctx context.Context, scope ConfigScope) error

	// Lock serializes read-modify-write cycles on one scope until the transaction ends
	Lock(ctx context.Context, scope ConfigScope) error
}

// BankRepository stores raw balances. Accounts are created at zero on first touch.
type BankRepository interface {
	// GetBalance returns the raw balance and locks the account row for the transaction
	GetBalance(ctx context.Context, discordID int64) (int64, error)

	// Deposit adds amount to the raw balance and returns the new raw balance
	Deposit(ctx context.Context, discordID int64, amount int64) (int64, error)

	// Withdraw subtracts amount from the raw balance and returns the new raw balance.
	// No floor is applied.
	Withdraw(ctx context.Context, discordID int64, amount int64) (int64, error)

	// SetBalance overwrites the raw balance
	SetBalance(ctx context.Context, discordID int64, rawBalance int64) error

	// Leaderboard returns the accounts with the highest raw balance
	Leaderboard(ctx context.Context, limit int) ([]*models.BankAccount, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a member
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error)
}

// BetPoolRepository defines the interface for bet pool data access
type BetPoolRepository interface {
	// Create inserts a pool and fills in its ID and timestamps
	Create(ctx context.Context, pool *models.BetPool) error

	// GetDetail returns a pool with options and betters, or nil when missing
	GetDetail(ctx context.Context, id int64) (*models.BetPoolDetail, error)

	// List returns pools in any of the given states, all pools when none are given
	List(ctx context.Context, states ...models.BetPoolState) ([]*models.BetPool, error)

	// Update writes every mutable pool column
	Update(ctx context.Context, pool *models.BetPool) error

	// ReplaceOptions swaps the option set of a pool
	ReplaceOptions(ctx context.Context, poolID int64, options []*models.BetPoolOption) error

	// SaveBetter inserts or updates a member's wager
	SaveBetter(ctx context.Context, better *models.Better) error
}

// ClanRepository defines the interface for live clan records
type ClanRepository interface {
	Get(ctx context.Context, id string) (*models.Clan, error)
	List(ctx context.Context) ([]*models.Clan, error)
	Save(ctx context.Context, clan *models.Clan) error
}

// ClanRegistrantRepository defines the interface for live registrant records
type ClanRegistrantRepository interface {
	Get(ctx context.Context, id string) (*models.ClanRegistrant, error)

	// GetMany returns the registrants found among ids, keyed by id
	GetMany(ctx context.Context, ids []string) (map[string]*models.ClanRegistrant, error)

	ListByMember(ctx context.Context, memberID int64) ([]*models.ClanRegistrant, error)
	ListAll(ctx context.Context) ([]*models.ClanRegistrant, error)
	Save(ctx context.Context, registrant *models.ClanRegistrant) error
}

// MemberRepository stores each member's registrant history
type MemberRepository interface {
	// Get returns nil when the member never joined a clan
	Get(ctx context.Context, memberID int64) (*models.Member, error)
	Save(ctx context.Context, member *models.Member) error
}

// PendingDraftRepository stores drafts awaiting approval
type PendingDraftRepository interface {
	GetClanDraft(ctx context.Context, clanID string) (*models.PendingClanDraft, error)
	ListClanDrafts(ctx context.Context) ([]*models.PendingClanDraft, error)
	SaveClanDraft(ctx context.Context, draft *models.PendingClanDraft) error
	DeleteClanDraft(ctx context.Context, clanID string) error

	ListRegistrantDrafts(ctx context.Context, clanID string) ([]*models.PendingClanRegistrationDraft, error)
	SaveRegistrantDraft(ctx context.Context, draft *models.PendingClanRegistrationDraft) error
	DeleteRegistrantDrafts(ctx context.Context, clanID string) error
}

// BattleRecordRepository defines the interface for battle record data access
type BattleRecordRepository interface {
	Create(ctx context.Context, record *models.ClanBattleRecord) error

	// Get returns nil when the record does not exist
	Get(ctx context.Context, id string) (*models.ClanBattleRecord, error)

	Update(ctx context.Context, record *models.ClanBattleRecord) error
	Delete(ctx context.Context, id string) error

	// ListLocked returns records verified by both players, created at or after since
	ListLocked(ctx context.Context, since time.Time) ([]*models.ClanBattleRecord, error)
}

// PointAwardRepository stores immutable point awards
type PointAwardRepository interface {
	Create(ctx context.Context, award *models.ClanPointAward) error
	List(ctx context.Context, since time.Time) ([]*models.ClanPointAward, error)
}

// AnnouncementRepository defines the interface for scheduled announcements
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	Get(ctx context.Context, id int64) (*models.Announcement, error)
	Delete(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	ListByGuild(ctx context.Context) ([]*models.Announcement, error)

	// ListEnabled ignores the guild scope and returns every enabled announcement
	ListEnabled(ctx context.Context) ([]*models.Announcement, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork is one guild-scoped transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// Lock takes a named lock held until Commit or Rollback
	Lock(ctx context.Context, key string) error

	ConfigStore() ConfigStore
	BankRepository() BankRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	BetPoolRepository() BetPoolRepository
	ClanRepository() ClanRepository
	ClanRegistrantRepository() ClanRegistrantRepository
	MemberRepository() MemberRepository
	PendingDraftRepository() PendingDraftRepository
	BattleRecordRepository() BattleRecordRepository
	PointAwardRepository() PointAwardRepository
	AnnouncementRepository() AnnouncementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates guild-scoped units of work
type UnitOfWorkFactory interface {
	CreateForGuild(guildID int64) UnitOfWork
}

// ClanPresenter posts and removes clan approval messages
type ClanPresenter interface {
	PostApproval(ctx context.Context, view *PendingClanView) (models.ApprovalMessageRef, error)
	DeleteApproval(ctx context.Context, ref models.ApprovalMessageRef) error
}

// RoleManager grants and revokes guild roles
type RoleManager interface {
	AddRole(ctx context.Context, guildID, memberID int64, roleID string) error
	RemoveRole(ctx context.Context, guildID, memberID int64, roleID string) error
}

// AnnouncementPoster delivers a scheduled announcement
type AnnouncementPoster interface {
	PostAnnouncement(ctx context.Context, channelID int64, message string) error
}

// JobScheduler registers recurring jobs
type JobScheduler interface {
	Validate(spec string) error
	Add(spec string, job func()) (int, error)
	Remove(id int)
}

// LedgerService defines the interface for balance operations.
// All amounts are effective balances, raw balance plus the guild offset.
type LedgerService interface {
	GetBalance(ctx context.Context, guildID, memberID int64) (int64, error)
	AddBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error)
	RemoveBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error)
	SetBalance(ctx context.Context, guildID, memberID, amount int64) (int64, error)
	Leaderboard(ctx context.Context, guildID int64, limit int) ([]*models.LeaderboardEntry, error)
	History(ctx context.Context, guildID, memberID int64, limit int) ([]*models.BalanceHistory, error)
	GetSettings(ctx context.Context, guildID int64) (*models.LedgerSettings, error)
	UpdateSettings(ctx context.Context, guildID int64, actor Actor, update func(*models.LedgerSettings)) (*models.LedgerSettings, error)
}

// PassiveIncomeService awards coins for chat activity
type PassiveIncomeService interface {
	// ProcessMessage returns nil when the message earned nothing
	ProcessMessage(ctx context.Context, guildID, memberID int64) (*PassiveIncomeAward, error)
}

// BetPoolService defines the interface for pari-mutuel pools
type BetPoolService interface {
	CreatePool(ctx context.Context, guildID int64, actor Actor, title string) (*models.BetPoolDetail, error)
	UpdateDetails(ctx context.Context, guildID, poolID int64, actor Actor, title, description string) (*models.BetPoolDetail, error)
	SetOptions(ctx context.Context, guildID, poolID int64, actor Actor, names []string) (*models.BetPoolDetail, error)
	SetMinimumBet(ctx context.Context, guildID, poolID int64, actor Actor, minimum int64) (*models.BetPoolDetail, error)
	ToggleOpen(ctx context.Context, guildID, poolID int64, actor Actor) (*models.BetPoolDetail, error)
	PlaceBet(ctx context.Context, guildID, poolID, memberID int64, optionID int, amount int64) (*models.BetPoolDetail, error)
	AdjustPool(ctx context.Context, guildID, poolID int64, actor Actor, amount int64) (int64, *models.BetPoolDetail, error)
	Resolve(ctx context.Context, guildID, poolID int64, actor Actor, winningOptionID int) (*models.BetPoolSettlement, error)
	Cancel(ctx context.Context, guildID, poolID int64, actor Actor) (*models.BetPoolSettlement, error)
	GetPool(ctx context.Context, guildID, poolID int64) (*models.BetPoolDetail, error)
	ListPools(ctx context.Context, guildID int64, states ...models.BetPoolState) ([]*models.BetPool, error)
	AttachMessage(ctx context.Context, guildID, poolID, messageID, channelID int64) error
}

// ClanService defines the interface for clan drafts and approvals
type ClanService interface {
	StartDraft(ctx context.Context, guildID int64, actor Actor, clanID string) (*ClanDraft, error)
	StartNewClanDraft(ctx context.Context, guildID int64, actor Actor) (*ClanDraft, error)
	SetDraftLeader(ctx context.Context, draft *ClanDraft, memberID int64) error
	SetDraftMembers(ctx context.Context, draft *ClanDraft, memberIDs []int64) error
	SaveDraft(ctx context.Context, actor Actor, draft *ClanDraft, channelID int64) (*PendingClanView, error)
	// Approve and Reject act only on the pending draft whose Version matches
	Approve(ctx context.Context, guildID int64, actor Actor, clanID string, version int64) (*ClanApprovalResult, error)
	Reject(ctx context.Context, guildID int64, actor Actor, clanID string, version int64) (*PendingClanView, error)
	PendingDrafts(ctx context.Context, guildID int64) ([]*PendingClanView, error)
	AttachApprovalMessage(ctx context.Context, guildID int64, clanID string, ref models.ApprovalMessageRef) error
	MarkApprovalMessageDeleted(ctx context.Context, guildID, messageID int64) error
	GetClan(ctx context.Context, guildID int64, clanID string) (*ClanView, error)
	ListClans(ctx context.Context, guildID int64) ([]*models.Clan, error)
	ActiveClanOf(ctx context.Context, guildID, memberID int64) (*ClanView, error)
}

// BattleRecordService defines the interface for two-party verified battle results
type BattleRecordService interface {
	Report(ctx context.Context, guildID int64, reporterID, opponentID int64) (*models.ClanBattleRecord, error)
	Get(ctx context.Context, guildID int64, recordID string) (*models.ClanBattleRecord, error)

	// GetView returns the record with both players resolved
	GetView(ctx context.Context, guildID int64, recordID string) (*BattleRecordView, error)

	SetWinner(ctx context.Context, guildID int64, recordID string, actor Actor, winnerRegistrantID string) (*models.ClanBattleRecord, error)
	SetCharacters(ctx context.Context, guildID int64, recordID string, actor Actor, player1Character, player2Character string) (*models.ClanBattleRecord, error)
	SetGamesWon(ctx context.Context, guildID int64, recordID string, actor Actor, player1Games, player2Games int) (*models.ClanBattleRecord, error)
	Verify(ctx context.Context, guildID int64, recordID string, actor Actor) (*models.ClanBattleRecord, error)
	Cancel(ctx context.Context, guildID int64, recordID string, actor Actor) (*BattleCancelResult, error)
	AttachMessage(ctx context.Context, guildID int64, recordID string, messageID, channelID int64) error
	AwardPoints(ctx context.Context, guildID int64, actor Actor, memberID int64, points int64, reason string) (*models.ClanPointAward, error)
}

// ScoreboardService defines the read-only scoreboard queries
type ScoreboardService interface {
	ClanStandings(ctx context.Context, guildID int64, period models.ScoreboardPeriod) ([]*models.ClanStanding, error)
	MemberStandings(ctx context.Context, guildID int64, period models.ScoreboardPeriod) ([]*models.MemberStanding, error)
	MemberProfile(ctx context.Context, guildID, memberID int64) (*models.MemberProfile, error)
}

// AnnouncementService defines the interface for scheduled announcements
type AnnouncementService interface {
	Create(ctx context.Context, guildID int64, actor Actor, channelID int64, cronSpec, message string) (*models.Announcement, error)
	Delete(ctx context.Context, guildID int64, actor Actor, id int64) error
	SetEnabled(ctx context.Context, guildID int64, actor Actor, id int64, enabled bool) error
	List(ctx context.Context, guildID int64) ([]*models.Announcement, error)
	LoadScheduled(ctx context.Context) (int, error)
}
