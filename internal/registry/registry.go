// Package registry owns the canonical task table. Every operation is one
// store round trip or one transaction, so independent processes can share
// the same table without coordinating beyond the store itself.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	errs "taskhub.com/taskhub/internal/errors"
	model "taskhub.com/taskhub/internal/models"
)

const (
	defaultSuccessLog    = "download succeeded"
	defaultProcessingLog = "processing"
	defaultRestoreLog    = "restored"
)

// Table identifiers are interpolated into generated statements (they cannot
// be bound), so they are checked once at construction.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Hub is the task registry over one table. Safe for concurrent use; it
// holds no mutable state besides the db handle.
type Hub struct {
	db    *gorm.DB
	table string
}

// RegisterItem is one entry of a batch registration.
type RegisterItem struct {
	URL      string  `json:"url"`
	Title    *string `json:"title,omitempty"`
	Duration *int    `json:"duration,omitempty"`
}

func New(db *gorm.DB, table string) (*Hub, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsafeTableName, table)
	}
	return &Hub{db: db, table: table}, nil
}

// Table returns the table identifier the hub is bound to.
func (h *Hub) Table() string {
	return h.table
}

// Ping verifies store connectivity.
func (h *Hub) Ping(ctx context.Context) error {
	var one int
	return h.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// Register inserts url as a pending task and returns its id. If the url is
// already registered (any status, deleted included) the existing id is
// returned and the new title/duration are discarded: registration is
// idempotent. Uniqueness is enforced by the store's unique index, not by a
// pre-check, so concurrent registrations of the same url cannot race past
// each other.
func (h *Hub) Register(ctx context.Context, url string, title *string, duration *int) (int64, error) {
	if url == "" {
		return 0, errs.ErrURLRequired
	}

	now := time.Now().UTC()
	task := &model.Task{
		URL:        url,
		Title:      title,
		Duration:   duration,
		Status:     model.StatusPending,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err := h.db.WithContext(ctx).Table(h.table).Create(task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn().Str("url", url).Msg("task already registered")
			return h.IDByURL(ctx, url)
		}
		return 0, fmt.Errorf("register task: %w", err)
	}

	log.Info().Int64("id", task.ID).Str("url", url).Msg("task registered")
	return task.ID, nil
}

// BatchRegister registers every item inside one transaction. Duplicates and
// per-item failures are skipped, not fatal, and the returned ids cover only
// the rows this call inserted. Already-known urls are absent from the
// result, unlike Register.
func (h *Hub) BatchRegister(ctx context.Context, items []RegisterItem) ([]int64, error) {
	ids := make([]int64, 0, len(items))

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if item.URL == "" {
				log.Warn().Msg("batch register: skipping item without url")
				continue
			}

			now := time.Now().UTC()
			task := &model.Task{
				URL:        item.URL,
				Title:      item.Title,
				Duration:   item.Duration,
				Status:     model.StatusPending,
				CreatedAt:  now,
				ModifiedAt: now,
			}

			// Nested transaction (savepoint) so one bad row cannot
			// poison the rest of the batch.
			insertErr := tx.Transaction(func(itemTx *gorm.DB) error {
				return itemTx.Table(h.table).Create(task).Error
			})
			if insertErr != nil {
				if errors.Is(insertErr, gorm.ErrDuplicatedKey) {
					continue
				}
				log.Error().Err(insertErr).Str("url", item.URL).Msg("batch register: item failed")
				continue
			}

			ids = append(ids, task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch register: %w", err)
	}

	log.Info().Int("inserted", len(ids)).Int("submitted", len(items)).Msg("batch register finished")
	return ids, nil
}

// TaskByID returns the task regardless of status, deleted included.
func (h *Hub) TaskByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := h.db.WithContext(ctx).Table(h.table).Where("id = ?", id).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

// IDByURL resolves the natural key to the task id.
func (h *Hub) IDByURL(ctx context.Context, url string) (int64, error) {
	var task model.Task
	err := h.db.WithContext(ctx).Table(h.table).Select("id").Where("url = ?", url).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.ErrTaskNotFound
		}
		return 0, fmt.Errorf("get task id by url: %w", err)
	}
	return task.ID, nil
}

// Pending returns up to limit pending tasks, oldest first, so workers drain
// the backlog in FIFO order.
func (h *Hub) Pending(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, errs.ErrInvalidLimit
	}

	var tasks []model.Task
	err := h.db.WithContext(ctx).Table(h.table).
		Where("status = ?", model.StatusPending).
		Order("created_at asc").Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("get pending tasks: %w", err)
	}
	return tasks, nil
}

// ByStatus returns up to limit tasks in the given status, newest first. The
// status value is not restricted to the known codes: rows written by
// foreign processes are readable too.
func (h *Hub) ByStatus(ctx context.Context, status model.Status, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, errs.ErrInvalidLimit
	}

	var tasks []model.Task
	err := h.db.WithContext(ctx).Table(h.table).
		Where("status = ?", status).
		Order("created_at desc").Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("get tasks by status: %w", err)
	}
	return tasks, nil
}

// Deleted returns soft-deleted tasks, most recently deleted first.
func (h *Hub) Deleted(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, errs.ErrInvalidLimit
	}

	var tasks []model.Task
	err := h.db.WithContext(ctx).Table(h.table).
		Where("status = ?", model.StatusDeleted).
		Order("modified_at desc").Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("get deleted tasks: %w", err)
	}
	return tasks, nil
}

// Recent returns tasks created within the trailing window, newest first.
func (h *Hub) Recent(ctx context.Context, hours, limit int) ([]model.Task, error) {
	if hours <= 0 || limit <= 0 {
		return nil, errs.ErrInvalidLimit
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var tasks []model.Task
	err := h.db.WithContext(ctx).Table(h.table).
		Where("created_at >= ?", since).
		Order("created_at desc").Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("get recent tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus sets the status unconditionally and refreshes modified_at.
// downloadType and logMsg are merged only when supplied; nil leaves the
// stored value untouched. Reports whether the id matched a row. It enforces
// no transition guards; Delete and Restore layer those on top.
func (h *Hub) UpdateStatus(ctx context.Context, id int64, status model.Status, downloadType *int, logMsg *string) (bool, error) {
	if !status.Known() {
		log.Warn().Int64("id", id).Int("status", int(status)).Msg("writing unrecognized status code")
	}

	updates := map[string]interface{}{
		"status":      status,
		"modified_at": time.Now().UTC(),
	}
	if downloadType != nil {
		updates["download_type"] = *downloadType
	}
	if logMsg != nil {
		updates["log"] = *logMsg
	}

	res := h.db.WithContext(ctx).Table(h.table).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update task status: %w", res.Error)
	}

	ok := res.RowsAffected == 1
	if ok {
		log.Info().Int64("id", id).Int("status", int(status)).Msg("task status updated")
	} else {
		log.Warn().Int64("id", id).Msg("task status update matched no row")
	}
	return ok, nil
}

// MarkSuccess records a finished download. An empty logMsg falls back to the
// default success note.
func (h *Hub) MarkSuccess(ctx context.Context, id int64, downloadType int, logMsg string) (bool, error) {
	if logMsg == "" {
		logMsg = defaultSuccessLog
	}
	return h.UpdateStatus(ctx, id, model.StatusSuccess, &downloadType, &logMsg)
}

// MarkFailed records a failed download. The error log is required; the
// stored download_type is left untouched.
func (h *Hub) MarkFailed(ctx context.Context, id int64, errorLog string) (bool, error) {
	return h.UpdateStatus(ctx, id, model.StatusFailed, nil, &errorLog)
}

// MarkProcessing claims a task for a worker.
func (h *Hub) MarkProcessing(ctx context.Context, id int64, logMsg string) (bool, error) {
	if logMsg == "" {
		logMsg = defaultProcessingLog
	}
	return h.UpdateStatus(ctx, id, model.StatusProcessing, nil, &logMsg)
}

// Delete soft-deletes the task. The status read and the write share one
// transaction, so two concurrent deletes of the same id cannot both pass
// the guard. Returns ErrTaskNotFound or ErrTaskAlreadyDeleted when the
// precondition fails; the row is never removed.
func (h *Hub) Delete(ctx context.Context, id int64, reason string) error {
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status, err := currentStatus(tx, h.table, id)
		if err != nil {
			return err
		}
		if status == model.StatusDeleted {
			return errs.ErrTaskAlreadyDeleted
		}

		res := tx.Table(h.table).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      model.StatusDeleted,
			"log":         "deleted: " + reason,
			"modified_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errs.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrTaskNotFound) || errors.Is(err, errs.ErrTaskAlreadyDeleted) {
			log.Warn().Int64("id", id).Err(err).Msg("task delete refused")
			return err
		}
		return fmt.Errorf("delete task: %w", err)
	}

	log.Info().Int64("id", id).Str("reason", reason).Msg("task soft-deleted")
	return nil
}

// BatchDelete applies the delete guard to every id inside one transaction
// and reports the breakdown instead of failing the batch. The counters
// always sum to len(ids).
func (h *Hub) BatchDelete(ctx context.Context, ids []int64, reason string) (model.BatchDeleteResult, error) {
	var result model.BatchDeleteResult

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			status, err := currentStatus(tx, h.table, id)
			if errors.Is(err, errs.ErrTaskNotFound) {
				result.NotFound++
				continue
			}
			if err != nil {
				log.Error().Err(err).Int64("id", id).Msg("batch delete: status check failed")
				result.Failed++
				continue
			}
			if status == model.StatusDeleted {
				result.AlreadyDeleted++
				continue
			}

			res := tx.Table(h.table).Where("id = ?", id).Updates(map[string]interface{}{
				"status":      model.StatusDeleted,
				"log":         "deleted: " + reason,
				"modified_at": time.Now().UTC(),
			})
			if res.Error != nil {
				log.Error().Err(res.Error).Int64("id", id).Msg("batch delete: item failed")
				result.Failed++
				continue
			}
			if res.RowsAffected == 1 {
				result.Success++
			} else {
				result.Failed++
			}
		}
		return nil
	})
	if err != nil {
		return model.BatchDeleteResult{}, fmt.Errorf("batch delete: %w", err)
	}

	log.Info().
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("already_deleted", result.AlreadyDeleted).
		Int("not_found", result.NotFound).
		Msg("batch delete finished")
	return result, nil
}

// Restore moves a soft-deleted task back to newStatus (StatusPending for
// the usual case). It is the only operation that leaves StatusDeleted, and
// it refuses tasks that are not currently deleted.
func (h *Hub) Restore(ctx context.Context, id int64, newStatus model.Status, logMsg string) error {
	if logMsg == "" {
		logMsg = defaultRestoreLog
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status, err := currentStatus(tx, h.table, id)
		if err != nil {
			return err
		}
		if status != model.StatusDeleted {
			return errs.ErrTaskNotDeleted
		}

		res := tx.Table(h.table).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      newStatus,
			"log":         logMsg,
			"modified_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errs.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrTaskNotFound) || errors.Is(err, errs.ErrTaskNotDeleted) {
			log.Warn().Int64("id", id).Err(err).Msg("task restore refused")
			return err
		}
		return fmt.Errorf("restore task: %w", err)
	}

	log.Info().Int64("id", id).Int("status", int(newStatus)).Msg("task restored")
	return nil
}

// Statistics aggregates the whole table in a single query so the buckets
// come from one snapshot even under concurrent writes.
func (h *Hub) Statistics(ctx context.Context) (model.Statistics, error) {
	var stats model.Statistics

	err := h.db.WithContext(ctx).Table(h.table).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS success,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS processing,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS deleted,
			COALESCE(SUM(CASE WHEN status NOT IN (?, ?, ?, ?, ?) THEN 1 ELSE 0 END), 0) AS other`,
			model.StatusPending, model.StatusSuccess, model.StatusFailed,
			model.StatusProcessing, model.StatusDeleted,
			model.StatusPending, model.StatusSuccess, model.StatusFailed,
			model.StatusProcessing, model.StatusDeleted).
		Scan(&stats).Error
	if err != nil {
		return model.Statistics{}, fmt.Errorf("get statistics: %w", err)
	}

	stats.Active = stats.Total - stats.Deleted
	return stats, nil
}

// currentStatus reads the task's status inside the caller's transaction.
func currentStatus(tx *gorm.DB, table string, id int64) (model.Status, error) {
	var task model.Task
	err := tx.Table(table).Select("id", "status").Where("id = ?", id).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.ErrTaskNotFound
		}
		return 0, err
	}
	return task.Status, nil
}
