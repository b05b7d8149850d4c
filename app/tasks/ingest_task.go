package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type IngestTask struct {
	Task
	ingester Ingester
	limit    int
}

func NewIngestTask(ingester Ingester, limit int) *IngestTask {
	return &IngestTask{
		Task:     NewTask(TaskTypeIngest),
		ingester: ingester,
		limit:    limit,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.ingester.Run(ctx, t.limit)
	if err != nil {
		return fmt.Errorf("failed to ingest shows: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"limit", t.limit,
		"new", result.InsertedCount)

	return nil
}

// StartupIngestTask ingests once at process start, and only into an empty
// store.
type StartupIngestTask struct {
	Task
	ingester Ingester
	limit    int
}

func NewStartupIngestTask(ingester Ingester, limit int) *StartupIngestTask {
	return &StartupIngestTask{
		Task:     NewTask(TaskTypeStartupIngest),
		ingester: ingester,
		limit:    limit,
	}
}

func (t *StartupIngestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.ingester.RunIfEmpty(ctx, t.limit)
	if err != nil {
		return fmt.Errorf("failed to run startup ingestion: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"limit", t.limit,
		"new", result.InsertedCount)

	return nil
}
