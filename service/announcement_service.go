package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"guildcogs/models"

	log "github.com/sirupsen/logrus"
)

const maxAnnouncementLength = 2000

type announcementService struct {
	uowFactory UnitOfWorkFactory
	scheduler  JobScheduler
	poster     AnnouncementPoster

	mu   sync.Mutex
	jobs map[int64]int
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(uowFactory UnitOfWorkFactory, scheduler JobScheduler, poster AnnouncementPoster) AnnouncementService {
	return &announcementService{
		uowFactory: uowFactory,
		scheduler:  scheduler,
		poster:     poster,
		jobs:       make(map[int64]int),
	}
}

func (s *announcementService) Create(ctx context.Context, guildID int64, actor Actor, channelID int64, cronSpec, message string) (*models.Announcement, error) {
	if !actor.Moderator {
		return nil, NewPermissionError("only moderators can schedule announcements")
	}
	cronSpec = strings.TrimSpace(cronSpec)
	message = strings.TrimSpace(message)
	if err := s.scheduler.Validate(cronSpec); err != nil {
		return nil, NewValidationError("invalid schedule %q: %v", cronSpec, err)
	}
	if message == "" {
		return nil, NewValidationError("message is required")
	}
	if len(message) > maxAnnouncementLength {
		return nil, NewValidationError("message must be at most %d characters", maxAnnouncementLength)
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	announcement := &models.Announcement{
		GuildID:   guildID,
		ChannelID: channelID,
		CronSpec:  cronSpec,
		Message:   message,
		Enabled:   true,
		CreatedBy: actor.ID,
	}
	if err := uow.AnnouncementRepository().Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.schedule(announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *announcementService) Delete(ctx context.Context, guildID int64, actor Actor, id int64) error {
	if !actor.Moderator {
		return NewPermissionError("only moderators can delete announcements")
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := getAnnouncement(ctx, uow, id); err != nil {
		return err
	}
	if err := uow.AnnouncementRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.unschedule(id)
	return nil
}

func (s *announcementService) SetEnabled(ctx context.Context, guildID int64, actor Actor, id int64, enabled bool) error {
	if !actor.Moderator {
		return NewPermissionError("only moderators can change announcements")
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	announcement, err := getAnnouncement(ctx, uow, id)
	if err != nil {
		return err
	}
	if err := uow.AnnouncementRepository().SetEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.unschedule(id)
	if enabled {
		announcement.Enabled = true
		return s.schedule(announcement)
	}
	return nil
}

func (s *announcementService) List(ctx context.Context, guildID int64) ([]*models.Announcement, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	announcements, err := uow.AnnouncementRepository().ListByGuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return announcements, nil
}

// LoadScheduled registers every enabled announcement with the scheduler
func (s *announcementService) LoadScheduled(ctx context.Context) (int, error) {
	uow := s.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	announcements, err := uow.AnnouncementRepository().ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list announcements: %w", err)
	}

	loaded := 0
	for _, announcement := range announcements {
		if err := s.schedule(announcement); err != nil {
			log.WithFields(log.Fields{
				"announcementID": announcement.ID,
				"cronSpec":       announcement.CronSpec,
			}).WithError(err).Warn("Skipping announcement with invalid schedule")
			continue
		}
		loaded++
	}
	return loaded, nil
}

func (s *announcementService) schedule(announcement *models.Announcement) error {
	channelID := announcement.ChannelID
	message := announcement.Message
	announcementID := announcement.ID

	jobID, err := s.scheduler.Add(announcement.CronSpec, func() {
		if err := s.poster.PostAnnouncement(context.Background(), channelID, message); err != nil {
			log.WithFields(log.Fields{
				"announcementID": announcementID,
				"channelID":      channelID,
			}).WithError(err).Error("Failed to post announcement")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule announcement %d: %w", announcementID, err)
	}

	s.mu.Lock()
	s.jobs[announcementID] = jobID
	s.mu.Unlock()
	return nil
}

func (s *announcementService) unschedule(id int64) {
	s.mu.Lock()
	jobID, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	if ok {
		s.scheduler.Remove(jobID)
	}
}

func getAnnouncement(ctx context.Context, uow UnitOfWork, id int64) (*models.Announcement, error) {
	announcement, err := uow.AnnouncementRepository().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}
	if announcement == nil {
		return nil, NewNotFoundError("announcement", id)
	}
	return announcement, nil
}
