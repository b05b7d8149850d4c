package tasks

import (
	"context"

	"github.com/lysyi3m/iboxtv/app/ingest"
)

// TaskSchedulerInterface is the background task queue used by main.
//
//	scheduler := NewScheduler(pipeline, interval, workerCount, fetchLimit)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Ingester is the part of the ingestion pipeline that tasks drive.
type Ingester interface {
	Run(ctx context.Context, limit int) (ingest.Result, error)
	RunIfEmpty(ctx context.Context, limit int) (ingest.Result, error)
}

var _ Ingester = (*ingest.Pipeline)(nil)
