package service

import (
	"context"
	"encoding/json"

	"guildcogs/events"
	"guildcogs/models"

	"github.com/stretchr/testify/mock"
)

// MockConfigStore is a mock implementation of ConfigStore
type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) GetRaw(ctx context.Context, scope ConfigScope) (json.RawMessage, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockConfigStore) SetRaw(ctx context.Context, scope ConfigScope, value json.RawMessage) error {
	args := m.Called(ctx, scope, value)
	return args.Error(0)
}

func (m *MockConfigStore) ClearRaw(ctx context.Context, scope ConfigScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockConfigStore) Lock(ctx context.Context, scope ConfigScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

// MockBankRepository is a mock implementation of BankRepository
type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) GetBalance(ctx context.Context, discordID int64) (int64, error) {
	args := m.Called(ctx, discordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) Deposit(ctx context.Context, discordID int64, amount int64) (int64, error) {
	args := m.Called(ctx, discordID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) Withdraw(ctx context.Context, discordID int64, amount int64) (int64, error) {
	args := m.Called(ctx, discordID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) SetBalance(ctx context.Context, discordID int64, rawBalance int64) error {
	args := m.Called(ctx, discordID, rawBalance)
	return args.Error(0)
}

func (m *MockBankRepository) Leaderboard(ctx context.Context, limit int) ([]*models.BankAccount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BankAccount), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockAnnouncementRepository is a mock implementation of AnnouncementRepository
type MockAnnouncementRepository struct {
	mock.Mock
}

func (m *MockAnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	args := m.Called(ctx, announcement)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) Get(ctx context.Context, id int64) (*models.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) ListByGuild(ctx context.Context) ([]*models.Announcement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) ListEnabled(ctx context.Context) ([]*models.Announcement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Announcement), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repositories are plain fields set with SetRepositories; only the
// transaction methods record calls.
type MockUnitOfWork struct {
	mock.Mock

	configStore      ConfigStore
	bankRepo         BankRepository
	balanceHistory   BalanceHistoryRepository
	announcementRepo AnnouncementRepository
	eventBus         EventPublisher
}

// SetRepositories configures what the repository getters return
func (m *MockUnitOfWork) SetRepositories(configStore ConfigStore, bankRepo BankRepository, balanceHistory BalanceHistoryRepository, eventBus EventPublisher) {
	m.configStore = configStore
	m.bankRepo = bankRepo
	m.balanceHistory = balanceHistory
	m.eventBus = eventBus
}

// SetAnnouncementRepository configures the announcement repository
func (m *MockUnitOfWork) SetAnnouncementRepository(repo AnnouncementRepository) {
	m.announcementRepo = repo
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Lock(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockUnitOfWork) ConfigStore() ConfigStore                           { return m.configStore }
func (m *MockUnitOfWork) BankRepository() BankRepository                     { return m.bankRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository { return m.balanceHistory }
func (m *MockUnitOfWork) AnnouncementRepository() AnnouncementRepository     { return m.announcementRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                           { return m.eventBus }

func (m *MockUnitOfWork) BetPoolRepository() BetPoolRepository {
	panic("bet pool repository not configured on mock")
}

func (m *MockUnitOfWork) ClanRepository() ClanRepository {
	panic("clan repository not configured on mock")
}

func (m *MockUnitOfWork) ClanRegistrantRepository() ClanRegistrantRepository {
	panic("clan registrant repository not configured on mock")
}

func (m *MockUnitOfWork) MemberRepository() MemberRepository {
	panic("member repository not configured on mock")
}

func (m *MockUnitOfWork) PendingDraftRepository() PendingDraftRepository {
	panic("pending draft repository not configured on mock")
}

func (m *MockUnitOfWork) BattleRecordRepository() BattleRecordRepository {
	panic("battle record repository not configured on mock")
}

func (m *MockUnitOfWork) PointAwardRepository() PointAwardRepository {
	panic("point award repository not configured on mock")
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	args := m.Called(guildID)
	return args.Get(0).(UnitOfWork)
}

// MockClanPresenter is a mock implementation of ClanPresenter
type MockClanPresenter struct {
	mock.Mock
}

func (m *MockClanPresenter) PostApproval(ctx context.Context, view *PendingClanView) (models.ApprovalMessageRef, error) {
	args := m.Called(ctx, view)
	return args.Get(0).(models.ApprovalMessageRef), args.Error(1)
}

func (m *MockClanPresenter) DeleteApproval(ctx context.Context, ref models.ApprovalMessageRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MockRoleManager is a mock implementation of RoleManager
type MockRoleManager struct {
	mock.Mock
}

func (m *MockRoleManager) AddRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	args := m.Called(ctx, guildID, memberID, roleID)
	return args.Error(0)
}

func (m *MockRoleManager) RemoveRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	args := m.Called(ctx, guildID, memberID, roleID)
	return args.Error(0)
}

// MockAnnouncementPoster is a mock implementation of AnnouncementPoster
type MockAnnouncementPoster struct {
	mock.Mock
}

func (m *MockAnnouncementPoster) PostAnnouncement(ctx context.Context, channelID int64, message string) error {
	args := m.Called(ctx, channelID, message)
	return args.Error(0)
}

// MockJobScheduler is a mock implementation of JobScheduler
type MockJobScheduler struct {
	mock.Mock
}

func (m *MockJobScheduler) Validate(spec string) error {
	args := m.Called(spec)
	return args.Error(0)
}

func (m *MockJobScheduler) Add(spec string, job func()) (int, error) {
	args := m.Called(spec, job)
	return args.Int(0), args.Error(1)
}

func (m *MockJobScheduler) Remove(id int) {
	m.Called(id)
}
