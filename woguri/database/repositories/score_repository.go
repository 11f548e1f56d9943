package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/uptrace/bun"
)

var (
	// ErrDuplicateScore signals that a row for the (user, guild, date)
	// triple already exists and the add was rejected without touching it.
	ErrDuplicateScore = errors.New("score already recorded for this day")
	ErrScoreNotFound  = errors.New("no scores recorded for this user")
)

type ScoreRepository interface {
	// Add inserts a score and rejects duplicates atomically. The insert
	// carries ON CONFLICT DO NOTHING against the (user_id, guild_id, date)
	// unique index, so two racing adds for the same triple resolve inside
	// the database: exactly one row lands, the loser gets
	// ErrDuplicateScore. There is no separate check-then-insert step.
	Add(ctx context.Context, score *models.Score) error

	// Overwrite upserts unconditionally. Last write wins; no history kept.
	Overwrite(ctx context.Context, score *models.Score) error

	// HasScore reports whether a row exists for the triple. Read-only;
	// callers use it to report duplicates up front, never to guard Add.
	HasScore(ctx context.Context, userID, guildID, date string) (bool, error)

	// WeeklyTotals returns SUM(attempts) and games played per user for
	// dates in [start, end]. Dates are ISO strings so the BETWEEN is a
	// plain lexicographic range.
	WeeklyTotals(ctx context.Context, guildID, start, end string) ([]*models.LeaderboardEntry, error)

	// AllTimeAverages returns AVG(attempts) and games played per user.
	AllTimeAverages(ctx context.Context, guildID string) ([]*models.LeaderboardEntry, error)

	// UserStats returns the all-time average for one user, or
	// ErrScoreNotFound if they have no rows.
	UserStats(ctx context.Context, userID string) (*models.LeaderboardEntry, error)

	// Usernames returns the distinct display names recorded for a guild.
	Usernames(ctx context.Context, guildID string) ([]string, error)

	// Clear deletes every score, optionally scoped to one guild, and
	// returns the number of rows removed.
	Clear(ctx context.Context, guildID string) (int64, error)
}

type scoreRepository struct {
	db *bun.DB
}

func NewScoreRepository(db *bun.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) Add(ctx context.Context, score *models.Score) error {
	now := time.Now()
	score.CreatedAt = now
	score.UpdatedAt = now

	result, err := r.db.NewInsert().
		Model(score).
		On("CONFLICT (user_id, guild_id, date) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicateScore
	}
	return nil
}

func (r *scoreRepository) Overwrite(ctx context.Context, score *models.Score) error {
	now := time.Now()
	score.CreatedAt = now
	score.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(score).
		On("CONFLICT (user_id, guild_id, date) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("attempts = EXCLUDED.attempts").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to overwrite score: %w", err)
	}
	return nil
}

func (r *scoreRepository) HasScore(ctx context.Context, userID, guildID, date string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.Score)(nil)).
		Where("user_id = ?", userID).
		Where("guild_id = ?", guildID).
		Where("date = ?", date).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return exists, nil
}

func (r *scoreRepository) WeeklyTotals(ctx context.Context, guildID, start, end string) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	err := r.db.NewSelect().
		Model((*models.Score)(nil)).
		ColumnExpr("username").
		ColumnExpr("SUM(attempts) AS score").
		ColumnExpr("COUNT(*) AS games_played").
		Where("guild_id = ?", guildID).
		Where("date BETWEEN ? AND ?", start, end).
		GroupExpr("user_id, username").
		Scan(ctx, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly totals: %w", err)
	}
	return entries, nil
}

func (r *scoreRepository) AllTimeAverages(ctx context.Context, guildID string) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	err := r.db.NewSelect().
		Model((*models.Score)(nil)).
		ColumnExpr("username").
		ColumnExpr("AVG(attempts) AS score").
		ColumnExpr("COUNT(*) AS games_played").
		Where("guild_id = ?", guildID).
		GroupExpr("user_id, username").
		Scan(ctx, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to query all-time averages: %w", err)
	}
	return entries, nil
}

func (r *scoreRepository) UserStats(ctx context.Context, userID string) (*models.LeaderboardEntry, error) {
	entry := new(models.LeaderboardEntry)
	err := r.db.NewSelect().
		Model((*models.Score)(nil)).
		ColumnExpr("username").
		ColumnExpr("AVG(attempts) AS score").
		ColumnExpr("COUNT(*) AS games_played").
		Where("user_id = ?", userID).
		GroupExpr("user_id, username").
		Scan(ctx, entry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	return entry, nil
}

func (r *scoreRepository) Usernames(ctx context.Context, guildID string) ([]string, error) {
	var names []string
	err := r.db.NewSelect().
		Model((*models.Score)(nil)).
		ColumnExpr("DISTINCT username").
		Where("guild_id = ?", guildID).
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	return names, nil
}

func (r *scoreRepository) Clear(ctx context.Context, guildID string) (int64, error) {
	query := r.db.NewDelete().Model((*models.Score)(nil))
	if guildID != "" {
		query = query.Where("guild_id = ?", guildID)
	} else {
		query = query.Where("TRUE")
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear scores: %w", err)
	}
	return result.RowsAffected()
}
