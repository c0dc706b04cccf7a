package registry

import (
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	errs "taskhub.com/taskhub/internal/errors"
)

// The store binding (connection + table) is fixed for the lifetime of the
// process. Init constructs the process-wide hub exactly once; later calls
// are no-ops that keep the original binding.
var (
	defaultMu  sync.Mutex
	defaultHub *Hub
)

// Init builds the shared hub on first call. A repeated Init warns and
// returns the existing hub unchanged: reconfiguring a live process is not
// supported, but it is not an error either.
func Init(db *gorm.DB, table string) (*Hub, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultHub != nil {
		log.Warn().Str("table", defaultHub.table).Msg("task hub already initialized, keeping existing binding")
		return defaultHub, nil
	}

	hub, err := New(db, table)
	if err != nil {
		return nil, err
	}

	defaultHub = hub
	log.Info().Str("table", table).Msg("task hub initialized")
	return hub, nil
}

// Default returns the shared hub, failing fast when Init has not run yet.
func Default() (*Hub, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultHub == nil {
		return nil, errs.ErrNotInitialized
	}
	return defaultHub, nil
}

// reset is a test hook.
func reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHub = nil
}
