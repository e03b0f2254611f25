package economy

import (
	"fmt"
	"strconv"

	"guildcogs/models"
	"guildcogs/service"
)

// SettingNames lists the settings /economy set accepts, in display order
var SettingNames = []string{
	"offset",
	"max_balance",
	"passive_chance",
	"passive_amount",
	"passive_daily_cap",
	"bonus_chance",
	"bonus_multiplier",
	"jackpot_chance",
	"jackpot_multiplier",
	"passive_response",
}

// parseSetting turns a setting name and its text value into an update.
// Range checks are left to the ledger service.
func parseSetting(name, value string) (func(*models.LedgerSettings), error) {
	switch name {
	case "passive_response":
		return func(s *models.LedgerSettings) { s.PassiveResponse = value }, nil
	case "passive_chance", "bonus_chance", "jackpot_chance":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, service.NewValidationError("%s must be a number between 0 and 1", name)
		}
		return func(s *models.LedgerSettings) {
			switch name {
			case "passive_chance":
				s.PassiveChance = v
			case "bonus_chance":
				s.BonusChance = v
			default:
				s.JackpotChance = v
			}
		}, nil
	case "offset", "max_balance", "passive_amount", "passive_daily_cap", "bonus_multiplier", "jackpot_multiplier":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, service.NewValidationError("%s must be a whole number", name)
		}
		return func(s *models.LedgerSettings) {
			switch name {
			case "offset":
				s.Offset = v
			case "max_balance":
				s.MaxBalance = v
			case "passive_amount":
				s.PassiveAmount = v
			case "passive_daily_cap":
				s.PassiveDailyCap = int(v)
			case "bonus_multiplier":
				s.BonusMultiplier = v
			default:
				s.JackpotMultiplier = v
			}
		}, nil
	default:
		return nil, service.NewValidationError("unknown setting %q", name)
	}
}

func formatChance(chance float64) string {
	return fmt.Sprintf("%.2f%%", chance*100)
}
