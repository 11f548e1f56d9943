package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
)

type stubRepo struct {
	weekly    []*models.LeaderboardEntry
	allTime   []*models.LeaderboardEntry
	userStats *models.LeaderboardEntry
	usernames []string
	err       error

	weeklyStart string
	weeklyEnd   string
}

func (s *stubRepo) Add(context.Context, *models.Score) error       { return nil }
func (s *stubRepo) Overwrite(context.Context, *models.Score) error { return nil }
func (s *stubRepo) HasScore(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (s *stubRepo) WeeklyTotals(_ context.Context, _, start, end string) ([]*models.LeaderboardEntry, error) {
	s.weeklyStart, s.weeklyEnd = start, end
	return s.weekly, s.err
}

func (s *stubRepo) AllTimeAverages(context.Context, string) ([]*models.LeaderboardEntry, error) {
	return s.allTime, s.err
}

func (s *stubRepo) UserStats(context.Context, string) (*models.LeaderboardEntry, error) {
	if s.userStats == nil {
		return nil, repositories.ErrScoreNotFound
	}
	return s.userStats, nil
}

func (s *stubRepo) Usernames(context.Context, string) ([]string, error) {
	return s.usernames, s.err
}

func (s *stubRepo) Clear(context.Context, string) (int64, error) { return 0, nil }

func entry(name string, score float64, games int) *models.LeaderboardEntry {
	return &models.LeaderboardEntry{Username: name, Score: score, GamesPlayed: games}
}

func TestRankOrdering(t *testing.T) {
	tests := []struct {
		name    string
		entries []*models.LeaderboardEntry
		want    []string
	}{
		{
			name: "lower score wins, more games break ties",
			entries: []*models.LeaderboardEntry{
				entry("alice", 5, 3),
				entry("bob", 7, 3),
				entry("carol", 5, 2),
			},
			want: []string{"alice", "carol", "bob"},
		},
		{
			name: "username breaks full ties",
			entries: []*models.LeaderboardEntry{
				entry("zoe", 4, 2),
				entry("amy", 4, 2),
			},
			want: []string{"amy", "zoe"},
		},
		{
			name: "failed puzzles rank below six guess wins",
			entries: []*models.LeaderboardEntry{
				entry("failed", 8, 1),
				entry("barely", 6, 1),
			},
			want: []string{"barely", "failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Rank(tt.entries)
			for i, want := range tt.want {
				if tt.entries[i].Username != want {
					t.Errorf("rank %d = %s, want %s", i+1, tt.entries[i].Username, want)
				}
			}
		})
	}
}

func TestTopTruncates(t *testing.T) {
	entries := []*models.LeaderboardEntry{
		entry("a", 1, 1), entry("b", 2, 1), entry("c", 3, 1),
	}
	if got := Top(entries, 2); len(got) != 2 {
		t.Errorf("Top(2) returned %d entries", len(got))
	}
	if got := Top(entries, 10); len(got) != 3 {
		t.Errorf("Top(10) returned %d entries", len(got))
	}
}

func TestWeekWindow(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name      string
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek",
			at:        time.Date(2024, 6, 5, 14, 30, 0, 0, loc),
			wantStart: time.Date(2024, 6, 3, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 6, 9, 23, 59, 59, 0, loc),
		},
		{
			name:      "monday is its own start",
			at:        time.Date(2024, 6, 3, 0, 0, 0, 0, loc),
			wantStart: time.Date(2024, 6, 3, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 6, 9, 23, 59, 59, 0, loc),
		},
		{
			name:      "sunday belongs to the closing week",
			at:        time.Date(2024, 6, 9, 23, 0, 0, 0, loc),
			wantStart: time.Date(2024, 6, 3, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 6, 9, 23, 59, 59, 0, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.at)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestWeeklyQueriesCurrentWindowAndRanks(t *testing.T) {
	repo := &stubRepo{weekly: []*models.LeaderboardEntry{
		entry("bob", 12, 3),
		entry("alice", 9, 3),
	}}
	a := NewAggregator(repo)
	a.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }

	got := a.Weekly(context.Background(), snowflake.ID(42))
	if repo.weeklyStart != "2024-06-03" || repo.weeklyEnd != "2024-06-09" {
		t.Errorf("window = [%s, %s], want [2024-06-03, 2024-06-09]", repo.weeklyStart, repo.weeklyEnd)
	}
	if len(got) != 2 || got[0].Username != "alice" {
		t.Errorf("Weekly() = %v, want alice ranked first", got)
	}
}

func TestWeeklyAbsorbsStoreFault(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	a := NewAggregator(repo)

	if got := a.Weekly(context.Background(), snowflake.ID(42)); got != nil {
		t.Errorf("Weekly() = %v, want nil on store fault", got)
	}
	if got := a.AllTime(context.Background(), snowflake.ID(42)); got != nil {
		t.Errorf("AllTime() = %v, want nil on store fault", got)
	}
}

func TestUserStats(t *testing.T) {
	repo := &stubRepo{userStats: entry("oguri", 4.0, 2)}
	a := NewAggregator(repo)

	got, ok := a.UserStats(context.Background(), snowflake.ID(100))
	if !ok {
		t.Fatal("UserStats() ok = false, want true")
	}
	if got.Score != 4.0 || got.GamesPlayed != 2 {
		t.Errorf("UserStats() = %+v, want avg 4.0 over 2 games", got)
	}

	a = NewAggregator(&stubRepo{})
	if _, ok := a.UserStats(context.Background(), snowflake.ID(100)); ok {
		t.Error("UserStats() ok = true for unknown user")
	}
}

func TestFindByName(t *testing.T) {
	repo := &stubRepo{usernames: []string{"oguri", "tamamo", "goldship"}}
	a := NewAggregator(repo)

	name, ok := a.FindByName(context.Background(), snowflake.ID(42), "ogur")
	if !ok || name != "oguri" {
		t.Errorf("FindByName() = %q, %v, want oguri", name, ok)
	}

	if _, ok := a.FindByName(context.Background(), snowflake.ID(42), "zzzz"); ok {
		t.Error("FindByName() matched a name that does not exist")
	}
}
