package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Outcome records which sub-store served the most recent Save or Load, so
// callers and tests can observe that degradation actually happened rather
// than merely not crashing.
type Outcome struct {
	// Op is the operation the outcome describes ("save", "load").
	Op string

	// UsedFallback is true when the preferred store failed and the
	// fallback store served the operation.
	UsedFallback bool

	// PrimaryErr is the error from the preferred store, nil if it succeeded.
	PrimaryErr error
}

// FallbackStore is a composite that prefers one store and transparently
// degrades to another on failure.
//
// Save tries the preferred store first and falls back on any failure; it
// returns an error only when both stores fail. Load mirrors that order and
// returns (nil, nil) only when both stores yield nothing; sub-store read
// failures degrade to "nothing". Clear is best-effort on both stores and
// never returns an error: a failure to delete from one location must not
// block clearing the other.
type FallbackStore struct {
	preferred Store
	fallback  Store

	mu   sync.Mutex
	last Outcome
}

// Compile-time check to ensure FallbackStore implements Store
var _ Store = (*FallbackStore)(nil)

// NewFallbackStore creates a FallbackStore preferring the first store and
// degrading to the second.
func NewFallbackStore(preferred, fallback Store) (*FallbackStore, error) {
	if preferred == nil {
		return nil, fmt.Errorf("preferred store cannot be nil")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback store cannot be nil")
	}

	return &FallbackStore{
		preferred: preferred,
		fallback:  fallback,
	}, nil
}

// Save persists the record to the preferred store, degrading to the
// fallback store on any failure. Returns an error only when both fail.
func (s *FallbackStore) Save(ctx context.Context, record *Record) error {
	primaryErr := s.preferred.Save(ctx, record)
	if primaryErr == nil {
		s.setOutcome(Outcome{Op: "save"})
		return nil
	}

	slog.WarnContext(ctx, "preferred token store save failed, degrading to fallback", "error", primaryErr)

	if err := s.fallback.Save(ctx, record); err != nil {
		s.setOutcome(Outcome{Op: "save", UsedFallback: true, PrimaryErr: primaryErr})
		return fmt.Errorf("both token stores failed: %w", err)
	}

	s.setOutcome(Outcome{Op: "save", UsedFallback: true, PrimaryErr: primaryErr})
	return nil
}

// Load returns the record from the preferred store, trying the fallback
// store when the preferred one yields nothing or fails. Returns (nil, nil)
// only when both stores yield nothing.
func (s *FallbackStore) Load(ctx context.Context) (*Record, error) {
	record, primaryErr := s.preferred.Load(ctx)
	if primaryErr == nil && record != nil {
		s.setOutcome(Outcome{Op: "load"})
		return record, nil
	}
	if primaryErr != nil {
		slog.WarnContext(ctx, "preferred token store load failed, trying fallback", "error", primaryErr)
	}

	record, err := s.fallback.Load(ctx)
	if err != nil {
		// Best-effort read path: a broken fallback yields nothing
		slog.WarnContext(ctx, "fallback token store load failed", "error", err)
		s.setOutcome(Outcome{Op: "load", UsedFallback: true, PrimaryErr: primaryErr})
		return nil, nil
	}

	s.setOutcome(Outcome{Op: "load", UsedFallback: record != nil, PrimaryErr: primaryErr})
	return record, nil
}

// Clear removes the record from both stores unconditionally. Individual
// failures are logged and swallowed so one location can always be cleared.
func (s *FallbackStore) Clear(ctx context.Context) error {
	if err := s.preferred.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "preferred token store clear failed", "error", err)
	}
	if err := s.fallback.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "fallback token store clear failed", "error", err)
	}
	return nil
}

// LastOutcome returns the outcome of the most recent Save or Load.
func (s *FallbackStore) LastOutcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *FallbackStore) setOutcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = o
}
