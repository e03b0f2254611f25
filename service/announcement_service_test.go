package service

import (
	"context"
	"errors"
	"testing"

	"guildcogs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementService_CreateSchedulesJob(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	scheduler := new(MockJobScheduler)
	poster := new(MockAnnouncementPoster)
	svc := NewAnnouncementService(store, scheduler, poster)

	var job func()
	scheduler.On("Validate", "0 0 12 * * MON").Return(nil)
	scheduler.On("Add", "0 0 12 * * MON", mock.AnythingOfType("func()")).
		Run(func(args mock.Arguments) { job = args.Get(1).(func()) }).
		Return(7, nil)
	poster.On("PostAnnouncement", mock.Anything, int64(555), "Weekly reset!").Return(nil)

	announcement, err := svc.Create(ctx, testGuildID, moderator, 555, " 0 0 12 * * MON ", " Weekly reset! ")
	require.NoError(t, err)
	assert.Equal(t, "Weekly reset!", announcement.Message)
	assert.True(t, announcement.Enabled)

	require.NotNil(t, job)
	job()

	list, err := svc.List(ctx, testGuildID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	scheduler.AssertExpectations(t)
	poster.AssertExpectations(t)
}

func TestAnnouncementService_Validation(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	scheduler := new(MockJobScheduler)
	svc := NewAnnouncementService(store, scheduler, new(MockAnnouncementPoster))

	_, err := svc.Create(ctx, testGuildID, Actor{ID: 5}, 555, "@daily", "hi")
	assertPermissionError(t, err)

	scheduler.On("Validate", "bogus").Return(errors.New("expected 6 fields"))
	_, err = svc.Create(ctx, testGuildID, moderator, 555, "bogus", "hi")
	assertValidationError(t, err)

	scheduler.On("Validate", "@daily").Return(nil)
	_, err = svc.Create(ctx, testGuildID, moderator, 555, "@daily", "   ")
	assertValidationError(t, err)

	scheduler.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAnnouncementService_DisableAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	scheduler := new(MockJobScheduler)
	svc := NewAnnouncementService(store, scheduler, new(MockAnnouncementPoster))

	scheduler.On("Validate", "@hourly").Return(nil)
	scheduler.On("Add", "@hourly", mock.Anything).Return(1, nil).Once()
	scheduler.On("Add", "@hourly", mock.Anything).Return(2, nil).Once()
	scheduler.On("Remove", 1).Return().Once()
	scheduler.On("Remove", 2).Return().Once()

	announcement, err := svc.Create(ctx, testGuildID, moderator, 555, "@hourly", "ping")
	require.NoError(t, err)

	require.NoError(t, svc.SetEnabled(ctx, testGuildID, moderator, announcement.ID, false))
	list, err := svc.List(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Enabled)

	require.NoError(t, svc.SetEnabled(ctx, testGuildID, moderator, announcement.ID, true))
	require.NoError(t, svc.Delete(ctx, testGuildID, moderator, announcement.ID))

	list, err = svc.List(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.Delete(ctx, testGuildID, moderator, announcement.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	scheduler.AssertExpectations(t)
}

func TestAnnouncementService_LoadScheduled(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	scheduler := new(MockJobScheduler)
	svc := NewAnnouncementService(store, scheduler, new(MockAnnouncementPoster))

	scheduler.On("Validate", mock.Anything).Return(nil)
	scheduler.On("Add", "@daily", mock.Anything).Return(1, nil)
	scheduler.On("Add", "@weekly", mock.Anything).Return(2, nil)
	scheduler.On("Remove", mock.Anything).Return()

	daily, err := svc.Create(ctx, testGuildID, moderator, 1, "@daily", "a")
	require.NoError(t, err)
	_, err = svc.Create(ctx, testGuildID+1, moderator, 2, "@weekly", "b")
	require.NoError(t, err)
	disabled, err := svc.Create(ctx, testGuildID, moderator, 3, "@daily", "c")
	require.NoError(t, err)
	require.NoError(t, svc.SetEnabled(ctx, testGuildID, moderator, disabled.ID, false))

	// A fresh process reloads every enabled announcement across guilds
	restarted := new(MockJobScheduler)
	restarted.On("Add", "@daily", mock.Anything).Return(10, nil)
	restarted.On("Add", "@weekly", mock.Anything).Return(0, errors.New("scheduler stopped"))

	loaded, err := NewAnnouncementService(store, restarted, new(MockAnnouncementPoster)).LoadScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	restarted.AssertNumberOfCalls(t, "Add", 2)
	assert.NotZero(t, daily.ID)
}

func TestAnnouncementService_LoadScheduledSkipsInvalidSpecs(t *testing.T) {
	ctx := context.Background()
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRepo := new(MockAnnouncementRepository)
	mockUoW.SetAnnouncementRepository(mockRepo)
	scheduler := new(MockJobScheduler)
	svc := NewAnnouncementService(mockFactory, scheduler, new(MockAnnouncementPoster))

	mockFactory.On("CreateForGuild", int64(0)).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRepo.On("ListEnabled", ctx).Return([]*models.Announcement{
		{ID: 1, GuildID: testGuildID, ChannelID: 10, CronSpec: "0 9 * * *", Message: "morning", Enabled: true},
		{ID: 2, GuildID: testGuildID, ChannelID: 10, CronSpec: "whenever", Message: "broken", Enabled: true},
	}, nil)
	scheduler.On("Add", "0 9 * * *", mock.AnythingOfType("func()")).Return(3, nil)
	scheduler.On("Add", "whenever", mock.AnythingOfType("func()")).Return(0, errors.New("bad spec"))

	loaded, err := svc.LoadScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	mockUoW.AssertNotCalled(t, "Commit")
	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
	scheduler.AssertExpectations(t)
}

func TestAnnouncementService_DeleteUnknownAnnouncement(t *testing.T) {
	ctx := context.Background()
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRepo := new(MockAnnouncementRepository)
	mockUoW.SetAnnouncementRepository(mockRepo)
	scheduler := new(MockJobScheduler)
	svc := NewAnnouncementService(mockFactory, scheduler, new(MockAnnouncementPoster))

	mockFactory.On("CreateForGuild", testGuildID).Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRepo.On("Get", ctx, int64(99)).Return(nil, nil)

	err := svc.Delete(ctx, testGuildID, moderator, 99)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
	scheduler.AssertNotCalled(t, "Remove", mock.Anything)
	mockRepo.AssertExpectations(t)
}
