package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/utils"
)

var Stats = discord.SlashCommandCreate{
	Name:        "stats",
	Description: "Show all-time Wordle stats for a player",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Player to look up",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "name",
			Description: "Player name to look up (fuzzy matched)",
			Required:    false,
		},
	},
}

func StatsHandler(b *woguri.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "Stats only exist inside a server.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()

		if name, ok := data.OptString("name"); ok {
			matched, found := b.Aggregator.FindByName(ctx, *guildID, name)
			if !found {
				return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("No player on record matching \"%s\". Check your spelling, or their attendance.", name))
			}
			for _, entry := range b.Aggregator.AllTime(ctx, *guildID) {
				if entry.Username == matched {
					return utils.EH.CreateInfoEmbed(e, statsMessage(entry))
				}
			}
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("No scores recorded for %s.", matched))
		}

		target := e.User()
		if user, ok := data.OptUser("user"); ok {
			target = user
		}

		entry, found := b.Aggregator.UserStats(ctx, target.ID)
		if !found {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("No scores recorded for %s. They've been avoiding the puzzle, apparently.", target.Username))
		}
		return utils.EH.CreateInfoEmbed(e, statsMessage(entry))
	}
}

func statsMessage(entry *models.LeaderboardEntry) string {
	return fmt.Sprintf("**%s**\nAverage: %.2f guesses\nGames played: %d\nFailed puzzles count as 8. No exceptions.",
		entry.Username, entry.Score, entry.GamesPlayed)
}
