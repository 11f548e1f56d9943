package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/woguri/woguri/database/models"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Importer streams score documents out of the legacy Mongo archive into
// the Postgres ledger. Imports go through Overwrite, so re-running an
// import is safe: the archive is authoritative for the rows it covers.
type Importer struct {
	repo       repositories.ScoreRepository
	uri        string
	database   string
	collection string

	stats ImportStats
}

type ImportStats struct {
	Imported int
	Skipped  int
	Started  time.Time
}

// legacyScore mirrors the document shape the previous bot wrote.
type legacyScore struct {
	UserID   string `bson:"user_id"`
	GuildID  string `bson:"guild_id"`
	Username string `bson:"username"`
	Attempts int    `bson:"attempts"`
	Date     string `bson:"date"`
}

func NewImporter(repo repositories.ScoreRepository, uri, database, collection string) *Importer {
	return &Importer{
		repo:       repo,
		uri:        uri,
		database:   database,
		collection: collection,
	}
}

// Run performs the full import and returns the final statistics.
// Documents that fail validation are skipped and logged, never fatal.
func (i *Importer) Run(ctx context.Context) (ImportStats, error) {
	i.stats = ImportStats{Started: time.Now()}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(i.uri))
	if err != nil {
		return i.stats, fmt.Errorf("failed to connect to legacy archive: %w", err)
	}
	defer func() {
		if derr := client.Disconnect(context.Background()); derr != nil {
			slog.Error("Failed to disconnect from legacy archive", slog.Any("error", derr))
		}
	}()

	coll := client.Database(i.database).Collection(i.collection)
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return i.stats, fmt.Errorf("failed to query legacy scores: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc legacyScore
		if err := cursor.Decode(&doc); err != nil {
			i.skip("decode", err)
			continue
		}

		if err := i.validate(doc); err != nil {
			i.skip("validate", err)
			continue
		}

		score := &models.Score{
			UserID:   doc.UserID,
			GuildID:  doc.GuildID,
			Username: doc.Username,
			Attempts: doc.Attempts,
			Date:     doc.Date,
		}
		if err := i.repo.Overwrite(ctx, score); err != nil {
			i.skip("write", err)
			continue
		}
		i.stats.Imported++

		if i.stats.Imported%500 == 0 {
			slog.Info("Import progress",
				slog.String("type", "sys"),
				slog.Int("imported", i.stats.Imported),
				slog.Int("skipped", i.stats.Skipped),
			)
		}
	}
	if err := cursor.Err(); err != nil {
		return i.stats, fmt.Errorf("legacy cursor failed: %w", err)
	}

	slog.Info("Legacy import complete",
		slog.String("type", "sys"),
		slog.Int("imported", i.stats.Imported),
		slog.Int("skipped", i.stats.Skipped),
		slog.Duration("took", time.Since(i.stats.Started)),
	)
	return i.stats, nil
}

func (i *Importer) validate(doc legacyScore) error {
	if doc.UserID == "" || doc.GuildID == "" {
		return fmt.Errorf("missing user or guild id")
	}
	if err := scores.ValidateDate(doc.Date); err != nil {
		return fmt.Errorf("bad date %q", doc.Date)
	}
	if (doc.Attempts < 1 || doc.Attempts > 6) && doc.Attempts != scores.FailedAttempts {
		return fmt.Errorf("bad attempts %d", doc.Attempts)
	}
	return nil
}

func (i *Importer) skip(stage string, err error) {
	i.stats.Skipped++
	slog.Warn("Skipping legacy document",
		slog.String("type", "sys"),
		slog.String("stage", stage),
		slog.Any("error", err),
	)
}
