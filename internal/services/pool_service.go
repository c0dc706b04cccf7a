package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	model "taskhub.com/taskhub/internal/models"
	"taskhub.com/taskhub/internal/queue"
	"taskhub.com/taskhub/internal/registry"
)

// Downloader fetches the media behind a task and classifies the outcome.
// The real implementation lives outside this module; the pool only cares
// about the result.
type Downloader interface {
	Download(ctx context.Context, task *model.Task) (downloadType int, err error)
}

// PoolService drives the worker side of the hub: it polls for pending
// tasks, claims a global download slot per task, and records the outcome
// back through the hub. Several pool processes may run against the same
// table; the slot pool and the claim map keep them from over-downloading,
// and the hub's transitions keep the table consistent either way.
type PoolService struct {
	hub          *registry.Hub
	downloader   Downloader
	slots        queue.SlotManager
	tasks        chan int64
	claimed      sync.Map
	wg           sync.WaitGroup
	pollWG       sync.WaitGroup
	pollStop     chan struct{}
	pollInterval time.Duration
	batchSize    int
	runID        string
}

func NewPoolService(
	hub *registry.Hub,
	downloader Downloader,
	slots queue.SlotManager,
	workers int,
	queueSize int,
	pollInterval time.Duration,
	batchSize int,
) *PoolService {
	p := &PoolService{
		hub:          hub,
		downloader:   downloader,
		slots:        slots,
		tasks:        make(chan int64, queueSize),
		pollStop:     make(chan struct{}),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		runID:        uuid.NewString(),
	}

	p.pollWG.Add(1)
	go p.pollPendingLoop()

	for i := 1; i <= workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Enqueue hands a task id to the pool without waiting for the next poll
// tick. Returns false when the task is already claimed or the local queue
// is full; the poll loop will pick it up later in both cases.
func (p *PoolService) Enqueue(taskID int64) bool {
	ok, _ := p.enqueueIfNotPresent(taskID)
	return ok
}

func (p *PoolService) worker(workerID int) {
	defer p.wg.Done()

	log.Info().Int("worker", workerID).Str("run", p.runID).Msg("worker started")

	for taskID := range p.tasks {
		p.handleTask(workerID, taskID)
	}

	log.Info().Int("worker", workerID).Msg("worker stopped")
}

func (p *PoolService) handleTask(workerID int, taskID int64) {
	ctx := context.Background()
	defer p.untrackClaimed(taskID)

	if err := p.slots.AcquireSlot(ctx); err != nil {
		if errors.Is(err, queue.ErrNoSlotAvailable) {
			// Every slot is busy somewhere in the fleet. The task stays
			// pending and a later poll retries it.
			log.Debug().Int64("id", taskID).Msg("no download slot free, deferring task")
			return
		}
		log.Error().Err(err).Int64("id", taskID).Msg("slot acquire failed")
		return
	}
	defer p.releaseSlot(ctx, workerID)

	task, err := p.hub.TaskByID(ctx, taskID)
	if err != nil {
		log.Error().Err(err).Int64("id", taskID).Msg("task lookup failed")
		return
	}
	if task.Status != model.StatusPending {
		// Another process got here first.
		return
	}

	claimLog := fmt.Sprintf("processing by worker %d of run %s", workerID, p.runID)
	if ok, err := p.hub.MarkProcessing(ctx, taskID, claimLog); err != nil || !ok {
		log.Warn().Err(err).Int64("id", taskID).Msg("could not claim task")
		return
	}

	downloadType, err := p.downloader.Download(ctx, task)
	if err != nil {
		if _, markErr := p.hub.MarkFailed(ctx, taskID, err.Error()); markErr != nil {
			log.Error().Err(markErr).Int64("id", taskID).Msg("failed to record download failure")
		}
		log.Warn().Err(err).Int64("id", taskID).Str("url", task.URL).Msg("download failed")
		return
	}

	if _, err := p.hub.MarkSuccess(ctx, taskID, downloadType, ""); err != nil {
		log.Error().Err(err).Int64("id", taskID).Msg("failed to record download success")
		return
	}

	log.Info().Int64("id", taskID).Str("url", task.URL).Int("worker", workerID).Msg("task completed")
}

func (p *PoolService) releaseSlot(ctx context.Context, workerID int) {
	if err := p.slots.ReleaseSlot(ctx); err != nil {
		log.Error().Err(err).Int("worker", workerID).Msg("failed to release download slot")
	}
}

func (p *PoolService) pollPendingLoop() {
	defer p.pollWG.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pollPendingOnce()
		case <-p.pollStop:
			return
		}
	}
}

func (p *PoolService) pollPendingOnce() {
	ctx := context.Background()

	tasks, err := p.hub.Pending(ctx, p.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("poll: failed to list pending tasks")
		return
	}

	for _, task := range tasks {
		enqueued, queueFull := p.enqueueIfNotPresent(task.ID)
		if !enqueued && !queueFull {
			continue
		}
		if queueFull {
			return
		}
	}
}

func (p *PoolService) enqueueIfNotPresent(taskID int64) (bool, bool) {
	if !p.trackClaimed(taskID) {
		return false, false
	}

	select {
	case p.tasks <- taskID:
		return true, false
	default:
		p.untrackClaimed(taskID)
		return false, true
	}
}

func (p *PoolService) trackClaimed(taskID int64) bool {
	_, loaded := p.claimed.LoadOrStore(taskID, struct{}{})
	return !loaded
}

func (p *PoolService) untrackClaimed(taskID int64) {
	p.claimed.Delete(taskID)
}

func (p *PoolService) Shutdown(ctx context.Context) {
	close(p.pollStop)
	p.pollWG.Wait()
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("worker pool shut down cleanly")
	case <-ctx.Done():
		log.Warn().Msg("worker pool shutdown timed out")
	}
}

// SimulatedDownloader stands in for the real media fetcher during demos:
// it sleeps a few seconds and reports success with download type 0.
type SimulatedDownloader struct{}

func (SimulatedDownloader) Download(ctx context.Context, task *model.Task) (int, error) {
	duration := time.Duration(rand.Intn(5)+1) * time.Second
	select {
	case <-time.After(duration):
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
