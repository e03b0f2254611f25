package announcements

import (
	"testing"
	"time"

	"guildcogs/models"

	"github.com/stretchr/testify/assert"
)

func TestListEmbed(t *testing.T) {
	embed := listEmbed(nil)
	assert.Equal(t, "Nothing is scheduled.", embed.Description)

	embed = listEmbed([]*models.Announcement{
		{ID: 3, ChannelID: 55, CronSpec: "@daily", Message: "Good\nmorning", Enabled: true, CreatedAt: time.Now()},
		{ID: 4, ChannelID: 56, CronSpec: "0 0 12 * * MON", Message: "Weekly", Enabled: false},
	})
	assert.Contains(t, embed.Description, "🟢 `#3` `@daily` in <#55>\n> Good morning")
	assert.Contains(t, embed.Description, "⏸️ `#4`")
}
