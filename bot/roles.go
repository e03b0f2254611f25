package bot

import (
	"context"
	"fmt"

	"guildcogs/bot/common"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// RoleManager grants and revokes guild roles through the Discord API
type RoleManager struct {
	session *discordgo.Session
}

func NewRoleManager(session *discordgo.Session) *RoleManager {
	return &RoleManager{session: session}
}

func (m *RoleManager) AddRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	if roleID == "" {
		return nil
	}
	err := m.session.GuildMemberRoleAdd(common.FormatID(guildID), common.FormatID(memberID), roleID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to add role %s to member %d: %w", roleID, memberID, err)
	}
	log.WithFields(log.Fields{"guildID": guildID, "memberID": memberID, "roleID": roleID}).Debug("Added role")
	return nil
}

func (m *RoleManager) RemoveRole(ctx context.Context, guildID, memberID int64, roleID string) error {
	if roleID == "" {
		return nil
	}
	err := m.session.GuildMemberRoleRemove(common.FormatID(guildID), common.FormatID(memberID), roleID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to remove role %s from member %d: %w", roleID, memberID, err)
	}
	log.WithFields(log.Fields{"guildID": guildID, "memberID": memberID, "roleID": roleID}).Debug("Removed role")
	return nil
}

var _ service.RoleManager = (*RoleManager)(nil)
