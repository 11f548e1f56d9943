package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
)

// GuildNameResolver resolves display names through the member cache, with
// a REST fallback for members the gateway never sent us.
type GuildNameResolver struct {
	client bot.Client
}

func NewGuildNameResolver(client bot.Client) *GuildNameResolver {
	return &GuildNameResolver{client: client}
}

func (r *GuildNameResolver) DisplayName(guildID snowflake.ID, userID snowflake.ID) (string, bool) {
	if member, ok := r.client.Caches().Member(guildID, userID); ok {
		return memberName(member), true
	}

	member, err := r.client.Rest().GetMember(guildID, userID)
	if err != nil {
		return "", false
	}
	return memberName(*member), true
}

func memberName(m discord.Member) string {
	if m.Nick != nil && *m.Nick != "" {
		return *m.Nick
	}
	if m.User.GlobalName != nil && *m.User.GlobalName != "" {
		return *m.User.GlobalName
	}
	return m.User.Username
}

// WordleListener watches every guild message for a daily results report
// and ingests the scores it carries. Reports posted by accounts other
// than the configured Wordle bot take the same path; the source only
// changes the log line.
func WordleListener(b *woguri.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.MessageCreate) {
		if e.Message.Author.ID == e.Client().ID() {
			return
		}
		if e.GuildID == nil {
			return
		}

		content := e.Message.Content
		if !scores.IsReport(content) {
			return
		}

		if b.ScoreService.Exclusions.Excluded(e.MessageID) {
			slog.Info("Skipping already-processed report",
				slog.String("type", "sys"),
				slog.String("message_id", e.MessageID.String()))
			return
		}

		simulated := e.Message.Author.ID != b.Cfg.Bot.WordleBotID
		if simulated {
			slog.Info("Processing simulated report",
				slog.String("type", "sys"),
				slog.String("author_id", e.Message.Author.ID.String()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		summary := b.ScoreService.IngestReport(ctx, content, *e.GuildID, NewGuildNameResolver(e.Client()))
		b.ScoreService.Exclusions.Mark(e.MessageID)

		reply := reportReply(summary)
		if reply == "" {
			return
		}

		if _, err := e.Client().Rest().CreateMessage(e.ChannelID, discord.NewMessageCreateBuilder().
			SetContent(reply).
			SetMessageReferenceByID(e.MessageID).
			Build()); err != nil {
			slog.Error("Failed to reply to report",
				slog.String("type", "sys"),
				slog.String("channel_id", e.ChannelID.String()),
				slog.Any("error", err))
		}
	})
}

func reportReply(s scores.Summary) string {
	if s.Unavailable {
		return "The database is currently unavailable. Even champions need proper record-keeping systems."
	}

	switch {
	case s.Saved > 0:
		reply := fmt.Sprintf("I've recorded the results for %d participants. Better not have cheated.", s.Saved)
		if len(s.Duplicates) > 0 {
			reply += fmt.Sprintf("\n%d of you tried to submit twice. I don't forget.", len(s.Duplicates))
		}
		return reply
	case len(s.Duplicates) > 0:
		return "Every one of these results is already on record. I keep better books than you do."
	default:
		return "I found nothing worth recording. Either the report is broken, or you've all collectively failed me."
	}
}
