package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
	"github.com/sahilm/fuzzy"
)

// DisplayLimit is how many entries the rendered boards show. The core
// always returns the full ranked list; callers truncate with Top.
const DisplayLimit = 10

// Aggregator answers read-only ranking queries over the score ledger.
// Store faults degrade to empty results: a leaderboard request never
// takes the bot down, it just comes back empty and gets logged.
type Aggregator struct {
	repo repositories.ScoreRepository
	now  func() time.Time
}

func NewAggregator(repo repositories.ScoreRepository) *Aggregator {
	return &Aggregator{repo: repo, now: time.Now}
}

// WeekWindow returns the Monday 00:00:00 and Sunday 23:59:59 bounding the
// week containing t, using the Monday=0 weekday convention.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	year, month, day := t.AddDate(0, 0, -offset).Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

// Weekly returns the current week's board ranked by total attempts.
// Weekly competition is cumulative, so the metric is SUM, not AVG.
func (a *Aggregator) Weekly(ctx context.Context, guildID snowflake.ID) []*models.LeaderboardEntry {
	start, end := WeekWindow(a.now())
	entries, err := a.repo.WeeklyTotals(ctx, guildID.String(),
		start.Format(scores.DateLayout), end.Format(scores.DateLayout))
	if err != nil {
		slog.Error("Weekly leaderboard query failed",
			slog.String("type", "db"),
			slog.String("guild_id", guildID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	Rank(entries)
	return entries
}

// AllTime returns the all-time board ranked by average attempts per game.
func (a *Aggregator) AllTime(ctx context.Context, guildID snowflake.ID) []*models.LeaderboardEntry {
	entries, err := a.repo.AllTimeAverages(ctx, guildID.String())
	if err != nil {
		slog.Error("All-time leaderboard query failed",
			slog.String("type", "db"),
			slog.String("guild_id", guildID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	Rank(entries)
	return entries
}

// UserStats returns one user's all-time average and game count. The
// second return is false when the user has no recorded scores.
func (a *Aggregator) UserStats(ctx context.Context, userID snowflake.ID) (*models.LeaderboardEntry, bool) {
	entry, err := a.repo.UserStats(ctx, userID.String())
	if err != nil {
		return nil, false
	}
	return entry, true
}

// FindByName fuzzy-matches a typed name against the guild's recorded
// display names and returns the best match.
func (a *Aggregator) FindByName(ctx context.Context, guildID snowflake.ID, name string) (string, bool) {
	names, err := a.repo.Usernames(ctx, guildID.String())
	if err != nil || len(names) == 0 {
		return "", false
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return "", false
	}
	return names[matches[0].Index], true
}

// Rank sorts entries into display order: ascending score (golf style,
// fewer attempts is better), then descending games played (more games on
// equal score ranks higher), then ascending username so ties are
// deterministic.
func Rank(entries []*models.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		if entries[i].GamesPlayed != entries[j].GamesPlayed {
			return entries[i].GamesPlayed > entries[j].GamesPlayed
		}
		return entries[i].Username < entries[j].Username
	})
}

// Top truncates a ranked list for display.
func Top(entries []*models.LeaderboardEntry, n int) []*models.LeaderboardEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
