package model

import "time"

// Status is the lifecycle state of a task. Any other integer found in the
// table was written by a foreign process; queries tolerate it, the hub
// never produces it.
type Status int

const (
	StatusPending    Status = 0
	StatusSuccess    Status = 1
	StatusProcessing Status = 2
	StatusFailed     Status = -1
	StatusDeleted    Status = -99
)

// Known reports whether s is one of the statuses the hub itself writes.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusProcessing, StatusFailed, StatusDeleted:
		return true
	}
	return false
}

// Task is one media-download work item. The URL is the natural key and is
// unique across the whole table, soft-deleted rows included. Timestamps are
// managed by the hub, not by gorm hooks, because the table name is chosen
// at runtime.
type Task struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	URL          string    `gorm:"uniqueIndex;not null" json:"url"`
	Title        *string   `json:"title,omitempty"`
	Duration     *int      `json:"duration,omitempty"`
	Status       Status    `gorm:"not null;default:0" json:"status"`
	DownloadType *int      `json:"download_type,omitempty"`
	Log          *string   `json:"log,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	ModifiedAt   time.Time `gorm:"not null" json:"modified_at"`
}

// Statistics is a single-snapshot count of the whole table per status
// bucket. Other collects foreign status values; Active = Total - Deleted.
type Statistics struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Success    int64 `json:"success"`
	Failed     int64 `json:"failed"`
	Processing int64 `json:"processing"`
	Deleted    int64 `json:"deleted"`
	Other      int64 `json:"other"`
	Active     int64 `json:"active"`
}

// BatchDeleteResult breaks down a batch soft-delete per outcome. The four
// counters always sum to the number of ids submitted.
type BatchDeleteResult struct {
	Success        int `json:"success"`
	Failed         int `json:"failed"`
	AlreadyDeleted int `json:"already_deleted"`
	NotFound       int `json:"not_found"`
}
