package common

import (
	"fmt"
	"strconv"

	"guildcogs/config"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

// ParseID converts a Discord snowflake to int64
func ParseID(id string) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return v, nil
}

// FormatID converts an int64 id back to a snowflake string
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// InteractionUser returns the invoking user, in guilds and DMs alike
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionIDs parses the guild and invoking user of an interaction
func InteractionIDs(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	guildID, err = ParseID(i.GuildID)
	if err != nil {
		return 0, 0, err
	}
	user := InteractionUser(i)
	if user == nil {
		return 0, 0, fmt.Errorf("interaction has no user")
	}
	userID, err = ParseID(user.ID)
	if err != nil {
		return 0, 0, err
	}
	return guildID, userID, nil
}

// IsModerator reports whether a guild member holds a moderator role or administrator permission
func IsModerator(cfg *config.Config, member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, roleID := range member.Roles {
		if cfg.IsModeratorRole(roleID) {
			return true
		}
	}
	return false
}

// ActorFromInteraction builds the service actor of an interaction
func ActorFromInteraction(cfg *config.Config, i *discordgo.InteractionCreate) (guildID int64, actor service.Actor, err error) {
	guildID, userID, err := InteractionIDs(i)
	if err != nil {
		return 0, service.Actor{}, err
	}
	return guildID, service.Actor{ID: userID, Moderator: IsModerator(cfg, i.Member)}, nil
}

// GetDisplayName returns the server-specific display name for a user.
// Falls back to the username, then to a mention.
func GetDisplayName(s *discordgo.Session, guildID, userID string) string {
	if member, err := s.State.Member(guildID, userID); err == nil && member != nil {
		if name := memberName(member); name != "" {
			return name
		}
	}

	member, err := s.GuildMember(guildID, userID)
	if err == nil && member != nil {
		if name := memberName(member); name != "" {
			return name
		}
	}

	return "<@" + userID + ">"
}

// GetDisplayNameInt64 is a convenience wrapper that accepts int64 user IDs
func GetDisplayNameInt64(s *discordgo.Session, guildID string, userID int64) string {
	return GetDisplayName(s, guildID, FormatID(userID))
}

func memberName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		if member.User.GlobalName != "" {
			return member.User.GlobalName
		}
		return member.User.Username
	}
	return ""
}

// Options indexes the options of a command or subcommand by name
func Options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// Subcommand returns the invoked subcommand and its options
func Subcommand(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return "", map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	}
	sub := data.Options[0]
	if sub.Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", Options(data.Options)
	}
	return sub.Name, Options(sub.Options)
}

// UserOption parses a user option, returning 0 when absent
func UserOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	opt, ok := opts[name]
	if !ok {
		return 0
	}
	id, err := ParseID(fmt.Sprint(opt.Value))
	if err != nil {
		return 0
	}
	return id
}

// ModalValues collects the text inputs of a submitted modal by custom id
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}
