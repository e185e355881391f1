package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxAge = 24 * time.Hour

	// bounds a shared fetch once it no longer follows any caller's context
	refreshTimeout = 2 * time.Minute

	// Around conjunction a new month may begin at any moment, so a cache is
	// never trusted while the moon is this young.
	youngMoonDays = 2.0
)

// Snapshot is one immutable view of the ledger
type Snapshot struct {
	Ledger     *Ledger
	Modified   time.Time
	AvivBarley *bool
	Cached     bool // false when only the compiled-in baseline is loaded
}

// Store holds the current snapshot and refreshes it from the feed.
// Readers never block on a refresh; concurrent refreshes share one fetch.
type Store struct {
	baseline *Ledger
	feed     Feed
	cache    SnapshotCache
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithMaxAge sets how long a snapshot stays fresh
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store seeded with the baseline. feed and cache may be nil.
func NewStore(baseline []MonthRecord, feed Feed, cache SnapshotCache, logger *zap.Logger, opts ...StoreOption) (*Store, error) {
	s := &Store{
		feed:   feed,
		cache:  cache,
		maxAge: defaultMaxAge,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	l, err := New(baseline...)
	if err != nil {
		return nil, fmt.Errorf("invalid baseline: %w", err)
	}
	for _, a := range l.Anomalies() {
		logger.Warn("Baseline month length anomaly",
			zap.String("month", a.Key.String()),
			zap.Int("days", a.Days))
	}
	s.baseline = l
	s.current.Store(&Snapshot{Ledger: l})

	return s, nil
}

// Load replaces the baseline snapshot with the persisted one, if any
func (s *Store) Load() error {
	if s.cache == nil {
		return nil
	}
	snapshot, err := s.cache.Load()
	if err != nil {
		return fmt.Errorf("failed to load ledger cache: %w", err)
	}
	if snapshot != nil {
		s.current.Store(snapshot)
	}
	return nil
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// IsStale reports whether the current snapshot should be refreshed, given the
// moon age in days at the moment of the check.
func (s *Store) IsStale(moonAge float64) bool {
	snapshot := s.Snapshot()
	switch {
	case snapshot == nil || !snapshot.Cached:
		return true
	case s.now().Sub(snapshot.Modified) > s.maxAge:
		return true
	case moonAge <= youngMoonDays:
		return true
	}
	return false
}

// Refresh fetches the feed and merges it onto the current ledger
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	return s.do(ctx, "refresh", func() (*Ledger, error) {
		return s.Snapshot().Ledger, nil
	})
}

// Rebuild fetches the feed and merges it onto the baseline, dropping any
// records previously merged from the feed
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	return s.do(ctx, "rebuild", func() (*Ledger, error) {
		return s.baseline, nil
	})
}

// EnsureFresh refreshes the snapshot if it is stale. When the refresh fails
// and a cached snapshot exists, that snapshot is returned with outdated set.
func (s *Store) EnsureFresh(ctx context.Context, moonAge float64) (snapshot *Snapshot, outdated bool, err error) {
	if !s.IsStale(moonAge) {
		return s.Snapshot(), false, nil
	}

	current := s.Snapshot()
	refresh := s.Refresh
	if !current.Cached {
		refresh = s.Rebuild
	}

	snapshot, err = refresh(ctx)
	if err == nil {
		return snapshot, false, nil
	}

	if current.Cached {
		s.logger.Warn("Ledger refresh failed, using cached data",
			zap.Time("cache_modified", current.Modified),
			zap.Error(err))
		return current, true, nil
	}

	return nil, false, err
}

func (s *Store) do(ctx context.Context, key string, base func() (*Ledger, error)) (*Snapshot, error) {
	if s.feed == nil {
		return nil, fmt.Errorf("%w: no feed configured", ErrDataUnavailable)
	}

	// The fetch is shared, so one caller giving up must not cancel it for
	// the others.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.fetchAndMerge(shared, base)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *Store) fetchAndMerge(ctx context.Context, base func() (*Ledger, error)) (*Snapshot, error) {
	data, err := s.feed.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	l, err := base()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare ledger: %w", err)
	}
	merged, err := l.Upsert(data.Records()...)
	if err != nil {
		return nil, fmt.Errorf("failed to merge feed records: %w", err)
	}

	for _, a := range merged.Anomalies() {
		s.logger.Warn("Month length anomaly",
			zap.String("month", a.Key.String()),
			zap.String("next", a.Next.String()),
			zap.Int("days", a.Days))
	}

	snapshot := &Snapshot{
		Ledger:     merged,
		Modified:   s.now(),
		AvivBarley: data.AvivBarley,
		Cached:     true,
	}

	if s.cache != nil {
		if err := s.cache.Save(snapshot); err != nil {
			s.logger.Warn("Failed to persist ledger cache", zap.Error(err))
		}
	}

	s.current.Store(snapshot)

	s.logger.Info("Ledger refreshed",
		zap.Int("months", merged.Len()),
		zap.String("last_known", data.LastKnown.Key.String()))

	return snapshot, nil
}
