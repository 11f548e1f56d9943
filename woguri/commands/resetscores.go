package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/utils"
)

var ResetScores = discord.SlashCommandCreate{
	Name:        "resetscores",
	Description: "Wipe recorded Wordle scores",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "scope",
			Description: "What to wipe",
			Required:    true,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "This server", Value: "guild"},
				{Name: "Everything", Value: "all"},
			},
		},
		discord.ApplicationCommandOptionString{
			Name:        "confirm",
			Description: "Type DELETE to confirm",
			Required:    true,
		},
	},
}

func ResetScoresHandler(b *woguri.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		scope := data.String("scope")

		if data.String("confirm") != "DELETE" {
			return utils.EH.CreateErrorEmbed(e, "Confirmation failed. Type DELETE if you actually mean it.")
		}

		guildID := ""
		if scope == "guild" {
			gid := e.GuildID()
			if gid == nil {
				return utils.EH.CreateErrorEmbed(e, "Guild scope only works inside a server.")
			}
			guildID = gid.String()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		removed, err := b.ScoreRepository.Clear(ctx, guildID)
		if err != nil {
			slog.Error("Failed to clear scores",
				slog.String("type", "db"),
				slog.String("scope", scope),
				slog.Any("error", err),
			)
			return utils.EH.CreateErrorEmbed(e, dbUnavailableMsg)
		}

		slog.Info("Scores cleared",
			slog.String("type", "cmd"),
			slog.String("scope", scope),
			slog.String("admin_id", e.User().ID.String()),
			slog.Int64("removed", removed),
		)

		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"The slate is clean. %d records erased.\nEveryone starts from zero. Try to be less disappointing this time.", removed))
	}
}
