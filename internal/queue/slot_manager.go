// Package queue bounds how many downloads run at once across every worker
// process sharing the hub. A slot is a token in a shared pool: acquire one
// before starting a download, release it when done.
package queue

import (
	"context"
	"errors"
)

type SlotManager interface {
	// AcquireSlot takes one download slot, failing with ErrNoSlotAvailable
	// when the pool is empty.
	AcquireSlot(ctx context.Context) error

	// ReleaseSlot returns a slot to the pool.
	ReleaseSlot(ctx context.Context) error

	// InitializeSlots resets the pool to exactly count slots.
	InitializeSlots(ctx context.Context, count int) error
}

var ErrNoSlotAvailable = errors.New("no download slot available")
