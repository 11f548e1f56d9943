package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/utils"
)

const entriesPerPage = 10

var AllTime = discord.SlashCommandCreate{
	Name:        "alltime",
	Description: "Show the all-time Wordle rankings by average guesses",
}

func AllTimeHandler(b *woguri.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "The rankings only exist inside a server.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		entries := b.Aggregator.AllTime(ctx, *guildID)
		if len(entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, "No scores on record yet. Someone has to go first.")
		}

		totalPages := int(math.Ceil(float64(len(entries)) / float64(entriesPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * entriesPerPage
				endIdx := min(startIdx+entriesPerPage, len(entries))
				pageEntries := entries[startIdx:endIdx]

				var description strings.Builder
				medals := []string{"🥇", "🥈", "🥉"}
				for i, entry := range pageEntries {
					overall := startIdx + i
					rank := fmt.Sprintf("`#%d`", overall+1)
					if overall < len(medals) {
						rank = medals[overall]
					}
					description.WriteString(fmt.Sprintf("%s **%s** — %.2f avg (%d games)\n",
						rank, entry.Username, entry.Score, entry.GamesPlayed))
				}

				embed.
					SetTitle("All-Time Wordle Rankings").
					SetDescription(description.String()).
					SetColor(utils.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • Total Players: %d", page+1, totalPages, len(entries)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
