package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/handlers"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
	"github.com/ellavondegurechaff/woguri/woguri/utils"
)

const dbUnavailableMsg = "The database is currently unavailable. Even champions need proper record-keeping systems."

var AddScore = discord.SlashCommandCreate{
	Name:        "addscore",
	Description: "Record Wordle scores for a specific date",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "date",
			Description: "Date of the scores (YYYY-MM-DD)",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "scores",
			Description: "Score entries, e.g. 3/6 or 3/6: @user 4/6: @other",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "report_message_id",
			Description: "ID of a report message these scores replace",
			Required:    false,
		},
	},
}

var FixScore = discord.SlashCommandCreate{
	Name:        "fixscore",
	Description: "Correct already-recorded Wordle scores for a date",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "date",
			Description: "Date of the scores (YYYY-MM-DD)",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "scores",
			Description: "Score entries, e.g. 3/6 or 3/6: @user 4/6: @other",
			Required:    true,
		},
	},
}

func AddScoreHandler(b *woguri.Bot) handler.CommandHandler {
	return manualScoreHandler(b, false)
}

func FixScoreHandler(b *woguri.Bot) handler.CommandHandler {
	return manualScoreHandler(b, true)
}

func manualScoreHandler(b *woguri.Bot, overwrite bool) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		date := strings.TrimSpace(data.String("date"))
		args := data.String("scores")

		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "Scores can only be recorded inside a server.")
		}

		resolver := handlers.NewGuildNameResolver(e.Client())

		var summary scores.Summary
		var err error
		if overwrite {
			summary, err = b.ScoreService.OverwriteManual(ctx, date, args, e.User().ID, *guildID, resolver)
		} else {
			summary, err = b.ScoreService.AddManual(ctx, date, args, e.User().ID, *guildID, resolver)
		}
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, parseErrorMessage(err))
		}

		if raw, ok := data.OptString("report_message_id"); ok {
			if messageID, perr := snowflake.Parse(strings.TrimSpace(raw)); perr == nil {
				b.ScoreService.Exclusions.Mark(messageID)
			}
		}

		if summary.Unavailable {
			return utils.EH.CreateErrorEmbed(e, dbUnavailableMsg)
		}

		return utils.EH.CreateSuccessEmbed(e, summaryMessage(date, summary, overwrite))
	}
}

func parseErrorMessage(err error) string {
	var invalid *scores.InvalidScoreError
	switch {
	case errors.Is(err, scores.ErrInvalidDate):
		return "Your date format is... inadequate. Use YYYY-MM-DD format. Precision matters. Zero-pad single digits."
	case errors.As(err, &invalid):
		return "❌ " + invalid.Error()
	case errors.Is(err, scores.ErrNoScoreFound):
		return "No valid score format found. Use formats like: 3/6, X/6, 3/6: @user, or just 3"
	default:
		return err.Error()
	}
}

func summaryMessage(date string, s scores.Summary, overwrite bool) string {
	var msg strings.Builder

	switch {
	case overwrite && s.Saved == 1:
		msg.WriteString(fmt.Sprintf("Previous record has been corrected and updated.\nDate: %s\nEntries modified: %d\nAccuracy is paramount.", date, s.Saved))
	case overwrite:
		msg.WriteString(fmt.Sprintf("Multiple records have been corrected.\nDate: %s\nEntries modified: %d\nPrecision maintained.", date, s.Saved))
	case s.Saved == 1:
		msg.WriteString(fmt.Sprintf("Score has been properly documented.\nDate: %s\nEntries processed: %d\nMaintaining accurate records is essential.", date, s.Saved))
	case s.Saved > 1:
		msg.WriteString(fmt.Sprintf("Multiple scores have been recorded.\nDate: %s\nEntries processed: %d\nEfficiency noted.", date, s.Saved))
	default:
		msg.WriteString(fmt.Sprintf("Nothing new was recorded for %s.", date))
	}

	if len(s.Duplicates) > 0 {
		msg.WriteString(fmt.Sprintf("\n\nAlready recorded for: %s", strings.Join(s.Duplicates, ", ")))
	}
	if list := s.ErrorList(); list != "" {
		msg.WriteString("\n\nRejected entries:\n" + list)
	}
	return msg.String()
}
