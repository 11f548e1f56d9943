package scores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
)

// fakeScoreRepo mirrors the repository's conflict contract in memory:
// Add refuses to touch an existing (user, guild, date) row, Overwrite
// always lands.
type fakeScoreRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.Score
	addErr error
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{rows: make(map[string]*models.Score)}
}

func rowKey(userID, guildID, date string) string {
	return userID + "|" + guildID + "|" + date
}

func (f *fakeScoreRepo) Add(_ context.Context, score *models.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	key := rowKey(score.UserID, score.GuildID, score.Date)
	if _, exists := f.rows[key]; exists {
		return repositories.ErrDuplicateScore
	}
	f.rows[key] = score
	return nil
}

func (f *fakeScoreRepo) Overwrite(_ context.Context, score *models.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[rowKey(score.UserID, score.GuildID, score.Date)] = score
	return nil
}

func (f *fakeScoreRepo) HasScore(_ context.Context, userID, guildID, date string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.rows[rowKey(userID, guildID, date)]
	return exists, nil
}

func (f *fakeScoreRepo) WeeklyTotals(context.Context, string, string, string) ([]*models.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeScoreRepo) AllTimeAverages(context.Context, string) ([]*models.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeScoreRepo) UserStats(context.Context, string) (*models.LeaderboardEntry, error) {
	return nil, repositories.ErrScoreNotFound
}

func (f *fakeScoreRepo) Usernames(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeScoreRepo) Clear(context.Context, string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.rows))
	f.rows = make(map[string]*models.Score)
	return n, nil
}

type fakeResolver map[snowflake.ID]string

func (r fakeResolver) DisplayName(_ snowflake.ID, userID snowflake.ID) (string, bool) {
	name, ok := r[userID]
	return name, ok
}

const testGuild = snowflake.ID(42)

func TestAddManualRecordsScore(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)

	summary, err := svc.AddManual(context.Background(), "2024-06-01", "3/6", snowflake.ID(100), testGuild, fakeResolver{100: "oguri"})
	if err != nil {
		t.Fatalf("AddManual() error = %v", err)
	}
	if summary.Saved != 1 {
		t.Errorf("Saved = %d, want 1", summary.Saved)
	}

	row, ok := repo.rows[rowKey("100", "42", "2024-06-01")]
	if !ok {
		t.Fatal("expected row to be stored")
	}
	if row.Attempts != 3 || row.Username != "oguri" {
		t.Errorf("stored row = %+v", row)
	}
}

func TestAddManualRejectsDuplicate(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)
	ctx := context.Background()
	resolver := fakeResolver{100: "oguri"}

	if _, err := svc.AddManual(ctx, "2024-06-01", "3/6", snowflake.ID(100), testGuild, resolver); err != nil {
		t.Fatalf("first AddManual() error = %v", err)
	}

	summary, err := svc.AddManual(ctx, "2024-06-01", "5/6", snowflake.ID(100), testGuild, resolver)
	if err != nil {
		t.Fatalf("second AddManual() error = %v", err)
	}
	if summary.Saved != 0 {
		t.Errorf("Saved = %d, want 0", summary.Saved)
	}
	if len(summary.Duplicates) != 1 || summary.Duplicates[0] != "oguri" {
		t.Errorf("Duplicates = %v, want [oguri]", summary.Duplicates)
	}

	// The original attempts survive a rejected duplicate.
	if row := repo.rows[rowKey("100", "42", "2024-06-01")]; row.Attempts != 3 {
		t.Errorf("stored attempts = %d, want 3", row.Attempts)
	}
}

func TestOverwriteManualLastWriteWins(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)
	ctx := context.Background()
	resolver := fakeResolver{100: "oguri"}

	if _, err := svc.AddManual(ctx, "2024-06-01", "3/6", snowflake.ID(100), testGuild, resolver); err != nil {
		t.Fatalf("AddManual() error = %v", err)
	}

	summary, err := svc.OverwriteManual(ctx, "2024-06-01", "5/6", snowflake.ID(100), testGuild, resolver)
	if err != nil {
		t.Fatalf("OverwriteManual() error = %v", err)
	}
	if summary.Saved != 1 || len(summary.Duplicates) != 0 {
		t.Errorf("summary = %+v, want one save and no duplicates", summary)
	}

	if row := repo.rows[rowKey("100", "42", "2024-06-01")]; row.Attempts != 5 {
		t.Errorf("stored attempts = %d, want 5", row.Attempts)
	}
}

func TestAddManualRejectsBadDate(t *testing.T) {
	svc := NewService(newFakeScoreRepo())

	_, err := svc.AddManual(context.Background(), "2024-6-1", "3/6", snowflake.ID(100), testGuild, nil)
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("AddManual() error = %v, want ErrInvalidDate", err)
	}
}

func TestConcurrentAddsLandExactlyOnce(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)
	ctx := context.Background()
	resolver := fakeResolver{100: "oguri"}

	const attempts = 16
	results := make(chan Summary, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := svc.AddManual(ctx, "2024-06-01", "4/6", snowflake.ID(100), testGuild, resolver)
			if err != nil {
				t.Errorf("AddManual() error = %v", err)
				return
			}
			results <- summary
		}()
	}
	wg.Wait()
	close(results)

	var saved, duplicates int
	for summary := range results {
		saved += summary.Saved
		duplicates += len(summary.Duplicates)
	}
	if saved != 1 {
		t.Errorf("total saved = %d, want exactly 1", saved)
	}
	if duplicates != attempts-1 {
		t.Errorf("total duplicates = %d, want %d", duplicates, attempts-1)
	}
	if len(repo.rows) != 1 {
		t.Errorf("stored rows = %d, want 1", len(repo.rows))
	}
}

func TestStoreFaultDegradesToUnavailable(t *testing.T) {
	repo := newFakeScoreRepo()
	repo.addErr = errors.New("connection refused")
	svc := NewService(repo)

	summary, err := svc.AddManual(context.Background(), "2024-06-01", "3/6: <@100> 4/6: <@200>", snowflake.ID(1), testGuild, nil)
	if err != nil {
		t.Fatalf("AddManual() error = %v", err)
	}
	if !summary.Unavailable {
		t.Error("Unavailable = false, want true")
	}
	if summary.Saved != 0 {
		t.Errorf("Saved = %d, want 0", summary.Saved)
	}
}

func TestIngestReportUsesCurrentDate(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) }

	summary := svc.IngestReport(context.Background(), sampleReport, testGuild, fakeResolver{
		111: "alpha", 222: "beta", 333: "gamma", 444: "delta",
	})
	if summary.Saved != 4 {
		t.Fatalf("Saved = %d, want 4", summary.Saved)
	}
	for key := range repo.rows {
		if !strings.HasSuffix(key, "|2024-06-03") {
			t.Errorf("row %s stored under wrong date", key)
		}
	}
}

func TestUnresolvedNamesFallBack(t *testing.T) {
	repo := newFakeScoreRepo()
	svc := NewService(repo)

	summary, err := svc.AddManual(context.Background(), "2024-06-01", "3/6 <@777>", snowflake.ID(1), testGuild, fakeResolver{})
	if err != nil {
		t.Fatalf("AddManual() error = %v", err)
	}
	if summary.Saved != 1 {
		t.Fatalf("Saved = %d, want 1", summary.Saved)
	}
	if row := repo.rows[rowKey("777", "42", "2024-06-01")]; row.Username != "Unknown_777" {
		t.Errorf("username = %q, want Unknown_777", row.Username)
	}
}

func TestSummaryErrorListCapsOutput(t *testing.T) {
	var summary Summary
	for i := 0; i < 8; i++ {
		summary.Errors = append(summary.Errors, fmt.Sprintf("error %d", i))
	}

	list := summary.ErrorList()
	if !strings.Contains(list, "error 4") {
		t.Errorf("ErrorList() = %q, expected first five entries", list)
	}
	if strings.Contains(list, "error 5") {
		t.Errorf("ErrorList() = %q, entry past the cap leaked", list)
	}
	if !strings.Contains(list, "... and 3 more") {
		t.Errorf("ErrorList() = %q, missing overflow suffix", list)
	}
}
