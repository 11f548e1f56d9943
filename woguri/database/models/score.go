package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Score is one user's result for one processing day in one guild.
// The unique group over (user_id, guild_id, date) is the invariant the
// whole ledger depends on: at most one row per triple, enforced by the
// database, not by application-level checks.
type Score struct {
	bun.BaseModel `bun:"table:wordle_scores,alias:ws"`

	ID       int64  `bun:"id,pk,autoincrement"`
	UserID   string `bun:"user_id,notnull,unique:uq_score_user_guild_date"`
	GuildID  string `bun:"guild_id,notnull,unique:uq_score_user_guild_date"`
	Username string `bun:"username,notnull"`
	// Attempts is 1..6 for a solve, or the sentinel 8 for an X/6 failure,
	// which keeps failed puzzles strictly worse than any completed one in
	// both sum and average aggregates.
	Attempts int `bun:"attempts,notnull"`
	// Date is the processing day (YYYY-MM-DD), not the puzzle's own
	// calendar date. Reports arrive shortly after midnight.
	Date string `bun:"date,notnull,unique:uq_score_user_guild_date"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// LeaderboardEntry is a derived aggregate row, never persisted.
// Score carries SUM(attempts) for the weekly board and AVG(attempts) for
// the all-time board and per-user stats.
type LeaderboardEntry struct {
	Username    string  `bun:"username"`
	Score       float64 `bun:"score"`
	GamesPlayed int     `bun:"games_played"`
}
