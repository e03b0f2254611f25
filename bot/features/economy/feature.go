package economy

import (
	"guildcogs/bot/common"
	"guildcogs/config"
	"guildcogs/service"

	"github.com/bwmarrin/discordgo"
)

// Feature serves balances, the leaderboard, moderator bank adjustments and passive income
type Feature struct {
	cfg      *config.Config
	ledger   service.LedgerService
	passive  service.PassiveIncomeService
	reporter *common.ErrorReporter
}

func New(cfg *config.Config, ledger service.LedgerService, passive service.PassiveIncomeService, reporter *common.ErrorReporter) *Feature {
	return &Feature{
		cfg:      cfg,
		ledger:   ledger,
		passive:  passive,
		reporter: reporter,
	}
}

// HandleCommand routes /balance, /leaderboard, /bank and /economy
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "balance":
		f.handleBalance(s, i)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	case "bank":
		f.handleBank(s, i)
	case "economy":
		f.handleSettings(s, i)
	default:
		common.RespondWithError(s, i, "Unknown command.")
	}
}
