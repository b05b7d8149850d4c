package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	taskQueueSize = 32
	taskTimeout   = 5 * time.Minute
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs ingestion tasks on a fixed worker pool. On start it queues
// the startup ingestion; with a positive interval it also queues a periodic
// ingestion on every tick. Failed tasks are logged and not retried, the next
// tick covers them.
type Scheduler struct {
	ingester    Ingester
	interval    time.Duration
	workerCount int
	fetchLimit  int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(ingester Ingester, interval time.Duration, workerCount, fetchLimit int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		ingester:    ingester,
		interval:    interval,
		workerCount: workerCount,
		fetchLimit:  fetchLimit,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.enqueueStartupTasks()

	if s.interval <= 0 {
		slog.Debug("Periodic ingestion disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers to exit. The queue
// is left open so a late EnqueueTask sees the cancelled context instead of
// a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	task := NewStartupIngestTask(s.ingester, s.fetchLimit)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue StartupIngestTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	task := NewIngestTask(s.ingester, s.fetchLimit)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue IngestTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"id", task.GetID(),
			"duration", task.GetDuration(),
			"error", err)
	}
}
