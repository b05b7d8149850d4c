package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/iboxtv/app/channel"
	"github.com/lysyi3m/iboxtv/app/database"
)

type MessageParser interface {
	Run(ctx context.Context, msg channel.Message) *database.Show
}

type Result struct {
	InsertedCount  int      `json:"inserted_count"`
	InsertedTitles []string `json:"inserted_titles"`
}

// Pipeline runs one ingestion cycle: fetch, parse, deduplicate and store.
// One bad record never fails the cycle.
type Pipeline struct {
	fetcher  channel.Fetcher
	parser   MessageParser
	showRepo database.ShowRepository
}

func NewPipeline(fetcher channel.Fetcher, parser MessageParser, showRepo database.ShowRepository) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		parser:   parser,
		showRepo: showRepo,
	}
}

// Run ingests up to limit recent messages. The returned error is non-nil only
// when ctx is cancelled; the partial result is still returned.
func (p *Pipeline) Run(ctx context.Context, limit int) (Result, error) {
	start := time.Now()
	result := Result{InsertedTitles: []string{}}

	messages := p.fetcher.FetchRecent(ctx, limit)

	var (
		parsed     int
		existing   int
		duplicates int
		failed     int
	)
	seen := make(map[string]struct{}, len(messages))

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		show := p.parser.Run(ctx, msg)
		if show == nil {
			continue
		}
		parsed++

		key := database.TitleKey(show.Title)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}

		exists, err := p.showRepo.Exists(ctx, show.Title)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			slog.Error("Database error", "operation", "exists", "title", show.Title, "error", err)
			failed++
			continue
		}
		if exists {
			existing++
			continue
		}

		stored, err := p.showRepo.Insert(ctx, show)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			if errors.Is(err, database.ErrConflict) {
				slog.Warn("Show inserted concurrently, skipping", "title", show.Title)
				existing++
			} else {
				slog.Error("Database error", "operation", "insert", "title", show.Title, "error", err)
				failed++
			}
			continue
		}

		result.InsertedCount++
		result.InsertedTitles = append(result.InsertedTitles, stored.Title)
	}

	slog.Info("Ingestion completed",
		"duration", time.Since(start),
		"fetched", len(messages),
		"parsed", parsed,
		"existing", existing,
		"duplicates", duplicates,
		"failed", failed,
		"new", result.InsertedCount)

	return result, nil
}

// RunIfEmpty runs an ingestion cycle only when the store holds no shows, so
// restarts do not re-ingest an already populated catalogue.
func (p *Pipeline) RunIfEmpty(ctx context.Context, limit int) (Result, error) {
	count, err := p.showRepo.Count(ctx)
	if err != nil {
		return Result{InsertedTitles: []string{}}, fmt.Errorf("failed to count shows: %w", err)
	}

	if count > 0 {
		slog.Info("Startup ingestion skipped", "shows", count)
		return Result{InsertedTitles: []string{}}, nil
	}

	return p.Run(ctx, limit)
}
