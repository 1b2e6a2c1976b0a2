package engine

import (
	"time"

	"go.uber.org/zap"

	"skyops/internal/remote"
	"skyops/internal/repo"
)

// Engine performs deployment lifecycle, day-ledger, pay-log, pricing
// and invoicing operations against the remote store, keeping the
// repository's local copy reconciled with server truth.
type Engine struct {
	Store remote.Store
	Repo  *repo.Repository
	Log   *zap.Logger
	Now   func() time.Time

	// pricingSeq tags Calculate requests so responses arriving after a
	// newer request was issued can be discarded. Single caller, so a
	// plain counter is enough.
	pricingSeq uint64
}

func New(store remote.Store, r *repo.Repository, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Store: store,
		Repo:  r,
		Log:   log,
		Now:   time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
