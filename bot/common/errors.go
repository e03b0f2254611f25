package common

import (
	"errors"
	"fmt"

	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// UserMessage returns the text to show a user for err, and whether err was the user's fault
func UserMessage(err error, fallback string) (string, bool) {
	var validationErr *service.ValidationError
	var permissionErr *service.PermissionError
	var notFoundErr *service.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message, true
	case errors.As(err, &permissionErr):
		return permissionErr.Message, true
	case errors.As(err, &notFoundErr):
		return notFoundErr.Error(), true
	default:
		return fallback, false
	}
}

// ErrorReporter turns service errors into user responses and escalates invariant violations
type ErrorReporter struct {
	session           *discordgo.Session
	operatorChannelID string
}

// NewErrorReporter creates a reporter posting invariant violations to operatorChannelID.
// An empty channel only logs them.
func NewErrorReporter(session *discordgo.Session, operatorChannelID string) *ErrorReporter {
	return &ErrorReporter{session: session, operatorChannelID: operatorChannelID}
}

// Respond answers the interaction with an ephemeral error describing err
func (r *ErrorReporter) Respond(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	RespondWithError(s, i, r.message(i, err, fallback))
}

// FollowUp sends the error as a follow-up, for interactions already answered or deferred
func (r *ErrorReporter) FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	FollowUpWithError(s, i, r.message(i, err, fallback))
}

// Replace turns a prompt message into the error describing err
func (r *ErrorReporter) Replace(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	ReplacePrompt(s, i, "❌ "+r.message(i, err, fallback))
}

func (r *ErrorReporter) message(i *discordgo.InteractionCreate, err error, fallback string) string {
	msg, userFault := UserMessage(err, fallback)
	if userFault {
		return msg
	}

	fields := log.Fields{"guildID": i.GuildID}
	if user := InteractionUser(i); user != nil {
		fields["userID"] = user.ID
	}
	if service.IsInvariantError(err) {
		r.ReportInvariant(i.GuildID, err)
		return fallback + " An operator has been notified."
	}
	log.WithFields(fields).WithError(err).Error(fallback)
	return fallback
}

// ReportInvariant logs an invariant violation and posts it to the operator channel
func (r *ErrorReporter) ReportInvariant(guildID string, err error) {
	log.WithField("guildID", guildID).WithError(err).Error("Invariant violation")

	if r == nil || r.session == nil || r.operatorChannelID == "" {
		return
	}
	content := fmt.Sprintf("⚠️ Data problem detected in guild %s: %s", guildID, Truncate(err.Error(), 1800))
	if _, sendErr := r.session.ChannelMessageSend(r.operatorChannelID, content); sendErr != nil {
		log.WithError(sendErr).Error("Failed to report invariant violation to operators")
	}
}
