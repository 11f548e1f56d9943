package scores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
	"golang.org/x/sync/errgroup"
)

// saveConcurrency bounds parallel writes for one report so a large batch
// cannot drain the connection pool.
const saveConcurrency = 4

// maxListedErrors caps how many individual failures a summary spells out.
const maxListedErrors = 5

// NameResolver resolves a member's display name within a guild. Lookups
// are best-effort: a miss never blocks ingestion.
type NameResolver interface {
	DisplayName(guildID snowflake.ID, userID snowflake.ID) (string, bool)
}

// Summary is the collapsed outcome of one ingestion batch. Duplicates and
// Errors are per-user; Unavailable is a single batch-wide signal that the
// store could not be reached.
type Summary struct {
	Saved       int
	Duplicates  []string
	Errors      []string
	Unavailable bool
}

// ErrorList renders the per-user errors, listing at most maxListedErrors
// and folding the rest into a count.
func (s Summary) ErrorList() string {
	if len(s.Errors) == 0 {
		return ""
	}
	shown := s.Errors
	var rest int
	if len(shown) > maxListedErrors {
		rest = len(shown) - maxListedErrors
		shown = shown[:maxListedErrors]
	}
	out := strings.Join(shown, "\n")
	if rest > 0 {
		out += fmt.Sprintf("\n... and %d more", rest)
	}
	return out
}

// Service turns parsed score events into ledger writes. All mutation goes
// through the repository's atomic Add/Overwrite; the service never reads
// then decides then writes.
type Service struct {
	repo       repositories.ScoreRepository
	Exclusions *ExclusionSet

	now func() time.Time
}

func NewService(repo repositories.ScoreRepository) *Service {
	return &Service{
		repo:       repo,
		Exclusions: NewExclusionSet(256, 10*time.Minute),
		now:        time.Now,
	}
}

// IngestReport extracts every score from an automated daily report and
// records them under today's processing date. Duplicate and failed events
// never abort the rest of the batch.
func (s *Service) IngestReport(ctx context.Context, content string, guildID snowflake.ID, resolver NameResolver) Summary {
	parsed := ParseReport(content)
	date := s.now().Format(DateLayout)

	summary := s.saveAll(ctx, parsed, guildID, date, resolver, false)

	slog.Info("Report ingested",
		slog.String("type", "sys"),
		slog.String("guild_id", guildID.String()),
		slog.String("date", date),
		slog.Int("saved", summary.Saved),
		slog.Int("duplicates", len(summary.Duplicates)),
	)
	return summary
}

// AddManual records scores from an admin command argument string for an
// explicit date, rejecting duplicates. The returned error is a parse or
// date validation failure; store-level outcomes live in the summary.
func (s *Service) AddManual(ctx context.Context, date, args string, invoker snowflake.ID, guildID snowflake.ID, resolver NameResolver) (Summary, error) {
	if err := ValidateDate(date); err != nil {
		return Summary{}, err
	}

	res, err := ParseManual(args, invoker)
	if err != nil {
		return Summary{}, err
	}

	summary := s.saveAll(ctx, res.Events, guildID, date, resolver, false)
	for _, perr := range res.Errors {
		summary.Errors = append(summary.Errors, perr.Error())
	}
	return summary, nil
}

// OverwriteManual force-upserts scores for an explicit date. Overwrite
// never reports duplicates: last write wins.
func (s *Service) OverwriteManual(ctx context.Context, date, args string, invoker snowflake.ID, guildID snowflake.ID, resolver NameResolver) (Summary, error) {
	if err := ValidateDate(date); err != nil {
		return Summary{}, err
	}

	res, err := ParseManual(args, invoker)
	if err != nil {
		return Summary{}, err
	}

	summary := s.saveAll(ctx, res.Events, guildID, date, resolver, true)
	for _, perr := range res.Errors {
		summary.Errors = append(summary.Errors, perr.Error())
	}
	return summary, nil
}

func (s *Service) saveAll(ctx context.Context, parsed []ParsedScore, guildID snowflake.ID, date string, resolver NameResolver, overwrite bool) Summary {
	var (
		mu      sync.Mutex
		summary Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(saveConcurrency)

	for _, event := range parsed {
		event := event
		g.Go(func() error {
			username := resolveName(resolver, guildID, event.UserID)
			score := &models.Score{
				UserID:   event.UserID.String(),
				GuildID:  guildID.String(),
				Username: username,
				Attempts: event.Attempts,
				Date:     date,
			}

			var err error
			if overwrite {
				err = s.repo.Overwrite(gctx, score)
			} else {
				err = s.repo.Add(gctx, score)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Saved++
			case errors.Is(err, repositories.ErrDuplicateScore):
				summary.Duplicates = append(summary.Duplicates, username)
			default:
				// Store faults are absorbed, not propagated: the rest of
				// the batch keeps going and the caller sees one
				// unavailable signal.
				summary.Unavailable = true
				slog.Error("Failed to save score",
					slog.String("type", "db"),
					slog.String("user_id", event.UserID.String()),
					slog.String("date", date),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
	return summary
}

func resolveName(resolver NameResolver, guildID, userID snowflake.ID) string {
	if resolver != nil {
		if name, ok := resolver.DisplayName(guildID, userID); ok {
			return name
		}
	}
	return fmt.Sprintf("Unknown_%s", userID)
}
