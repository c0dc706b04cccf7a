package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "taskhub.com/taskhub/internal/models"
	"taskhub.com/taskhub/internal/queue"
	"taskhub.com/taskhub/internal/registry"
)

// mockSlotManager is a simple in-memory slot pool for testing
type mockSlotManager struct {
	mu    sync.Mutex
	slots int
}

func newMockSlotManager(capacity int) *mockSlotManager {
	return &mockSlotManager{slots: capacity}
}

func (m *mockSlotManager) AcquireSlot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots <= 0 {
		return queue.ErrNoSlotAvailable
	}
	m.slots--
	return nil
}

func (m *mockSlotManager) ReleaseSlot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots++
	return nil
}

func (m *mockSlotManager) InitializeSlots(ctx context.Context, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = count
	return nil
}

// stubDownloader finishes instantly with a fixed outcome.
type stubDownloader struct {
	downloadType int
	err          error
	calls        atomic.Int64
}

func (d *stubDownloader) Download(ctx context.Context, task *model.Task) (int, error) {
	d.calls.Add(1)
	return d.downloadType, d.err
}

var tableSeq atomic.Int64

func setupTestHub(t *testing.T) *registry.Hub {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	table := fmt.Sprintf("pool_tasks_test_%d", tableSeq.Add(1))
	if err := db.Table(table).AutoMigrate(&model.Task{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	hub, err := registry.New(db, table)
	if err != nil {
		t.Fatalf("failed to build hub: %v", err)
	}
	return hub
}

func waitForStatus(t *testing.T, hub *registry.Hub, id int64, want model.Status, timeout time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		task, err := hub.TaskByID(context.Background(), id)
		if err == nil && task.Status == want {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestPoolProcessesPendingTask(t *testing.T) {
	hub := setupTestHub(t)
	downloader := &stubDownloader{downloadType: 3}
	pool := NewPoolService(hub, downloader, newMockSlotManager(5), 2, 10, 30*time.Millisecond, 10)
	defer pool.Shutdown(context.Background())

	id, err := hub.Register(context.Background(), "https://example.com/v/pool-1", nil, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if !waitForStatus(t, hub, id, model.StatusSuccess, 5*time.Second) {
		t.Fatalf("task never reached success")
	}

	task, _ := hub.TaskByID(context.Background(), id)
	if task.DownloadType == nil || *task.DownloadType != 3 {
		t.Errorf("expected download_type 3, got %v", task.DownloadType)
	}
	if task.Log == nil || *task.Log != "download succeeded" {
		t.Errorf("expected default success log, got %v", task.Log)
	}
}

func TestPoolRecordsDownloadFailure(t *testing.T) {
	hub := setupTestHub(t)
	downloader := &stubDownloader{err: errors.New("connection reset by peer")}
	pool := NewPoolService(hub, downloader, newMockSlotManager(5), 1, 10, 30*time.Millisecond, 10)
	defer pool.Shutdown(context.Background())

	id, err := hub.Register(context.Background(), "https://example.com/v/pool-fail", nil, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if !waitForStatus(t, hub, id, model.StatusFailed, 5*time.Second) {
		t.Fatalf("task never reached failed")
	}

	task, _ := hub.TaskByID(context.Background(), id)
	if task.Log == nil || !strings.Contains(*task.Log, "connection reset") {
		t.Errorf("expected failure log with the downloader error, got %v", task.Log)
	}
	if task.DownloadType != nil {
		t.Errorf("failed task must keep download_type untouched, got %v", task.DownloadType)
	}
}

func TestPoolDefersWhenNoSlotFree(t *testing.T) {
	hub := setupTestHub(t)
	downloader := &stubDownloader{}
	pool := NewPoolService(hub, downloader, newMockSlotManager(0), 1, 10, 30*time.Millisecond, 10)
	defer pool.Shutdown(context.Background())

	id, err := hub.Register(context.Background(), "https://example.com/v/pool-starved", nil, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	time.Sleep(300 * time.Millisecond)

	task, err := hub.TaskByID(context.Background(), id)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if task.Status != model.StatusPending {
		t.Errorf("task must stay pending while no slot is free, got %d", task.Status)
	}
	if downloader.calls.Load() != 0 {
		t.Errorf("downloader must not run without a slot")
	}
}

func TestPoolSkipsTasksClaimedElsewhere(t *testing.T) {
	hub := setupTestHub(t)
	downloader := &stubDownloader{}
	pool := NewPoolService(hub, downloader, newMockSlotManager(5), 0, 10, time.Hour, 10)
	defer pool.Shutdown(context.Background())

	id, err := hub.Register(context.Background(), "https://example.com/v/pool-claimed", nil, nil)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Another process claims the task between poll and handling.
	if _, err := hub.MarkProcessing(context.Background(), id, "claimed by another run"); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}

	pool.handleTask(1, id)

	task, _ := hub.TaskByID(context.Background(), id)
	if task.Status != model.StatusProcessing {
		t.Errorf("pool must not touch a task claimed elsewhere, got status %d", task.Status)
	}
	if downloader.calls.Load() != 0 {
		t.Errorf("downloader must not run for a claimed task")
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	hub := setupTestHub(t)
	pool := NewPoolService(hub, &stubDownloader{}, newMockSlotManager(5), 0, 10, time.Hour, 10)
	defer pool.Shutdown(context.Background())

	if !pool.Enqueue(42) {
		t.Errorf("first enqueue must succeed")
	}
	if pool.Enqueue(42) {
		t.Errorf("second enqueue of the same id must be rejected")
	}
}
