package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/leaderboard"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
	"github.com/ellavondegurechaff/woguri/woguri/utils"
)

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "Show this week's Wordle leaderboard (Sunday evenings only)",
}

var LeaderboardStatus = discord.SlashCommandCreate{
	Name:        "lbstatus",
	Description: "Check when the weekly leaderboard opens",
}

func LeaderboardHandler(b *woguri.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "The leaderboard only exists inside a server.")
		}

		if !b.Gate.Open() {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf(
				"Patience. The weekly results are revealed on Sunday evenings after 5 PM.\nNext reveal: <t:%d:F> (<t:%d:R>)",
				b.Gate.NextOpen().Unix(), b.Gate.NextOpen().Unix()))
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries := b.Aggregator.Weekly(ctx, *guildID)
		if len(entries) == 0 {
			_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
				Content: utils.Ptr("No scores on record this week. A whole week and nothing to show for it."),
			})
			return err
		}

		top := leaderboard.Top(entries, leaderboard.DisplayLimit)
		weekStart, weekEnd := leaderboard.WeekWindow(time.Now())
		subtitle := fmt.Sprintf("%s to %s • total guesses, fewest wins",
			weekStart.Format(scores.DateLayout), weekEnd.Format(scores.DateLayout))

		if b.ImageService != nil && b.ImageService.Available() {
			image, err := b.ImageService.GenerateWeeklyImage(ctx, "Weekly Wordle Championship", subtitle, top)
			if err == nil {
				content := fmt.Sprintf("This week's champion: **%s**. The rest of you, study their technique.", top[0].Username)
				if b.SpacesService != nil {
					if url, uerr := b.SpacesService.UploadSnapshot(ctx, guildID.String(), weekStart.Format(scores.DateLayout), image); uerr == nil {
						content += fmt.Sprintf("\nArchived: %s", url)
					}
				}
				_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
					Content: utils.Ptr(content),
					Files:   []*discord.File{discord.NewFile("leaderboard.png", "", bytes.NewReader(image))},
				})
				return err
			}
		}

		embed := discord.Embed{
			Title:       "Weekly Wordle Championship",
			Description: formatBoard(top, "pts"),
			Color:       utils.InfoColor,
			Footer:      &discord.EmbedFooter{Text: subtitle},
		}
		_, err := e.UpdateInteractionResponse(discord.MessageUpdate{Embeds: &[]discord.Embed{embed}})
		return err
	}
}

func LeaderboardStatusHandler(b *woguri.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if b.Gate.Open() {
			return utils.EH.CreateSuccessEmbed(e, "The weekly leaderboard is open. Run /leaderboard before midnight.")
		}
		next := b.Gate.NextOpen()
		return utils.EH.CreateInfoEmbed(e, fmt.Sprintf(
			"Closed. The board opens <t:%d:F>, which is <t:%d:R>.", next.Unix(), next.Unix()))
	}
}

func formatBoard(entries []*models.LeaderboardEntry, unit string) string {
	medals := []string{"🥇", "🥈", "🥉"}

	var sb strings.Builder
	for i, entry := range entries {
		rank := fmt.Sprintf("`#%d`", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s **%s** — %.2f %s (%d games)\n",
			rank, entry.Username, entry.Score, unit, entry.GamesPlayed))
	}
	return sb.String()
}
