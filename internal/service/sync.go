package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"hivelens/internal/config"
	"hivelens/internal/domain"
	"hivelens/internal/metadata"
)

const anonymousInitiator = "anonymous"

// SyncService orchestrates one fetch/validate/persist pass over a date
// window. Preconditions (quota, confirmation, mutual exclusion) surface as
// result variants; only truly unexpected faults take the error path, and
// nothing escapes Run as a panic or error.
type SyncService struct {
	source    PostSource
	store     ImageStore
	prober    Prober
	publisher Publisher
	locks     *LockRegistry
	logger    *slog.Logger
	config    config.SyncConfig
}

func NewSyncService(
	source PostSource,
	store ImageStore,
	prober Prober,
	publisher Publisher,
	locks *LockRegistry,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		store:     store,
		prober:    prober,
		publisher: publisher,
		locks:     locks,
		logger:    logger.With("component", "sync"),
		config:    cfg,
	}
}

// Estimate computes the user-facing cost of syncing [from, to). It is pure:
// callers may poll it (or an unconfirmed Run) repeatedly before committing.
func (s *SyncService) Estimate(from, to time.Time) domain.SyncEstimate {
	days := int(math.Ceil(to.Sub(from).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return domain.SyncEstimate{
		Days:             days,
		MinutesPerDay:    s.config.MinutesPerDay,
		TotalTimeMinutes: days * s.config.MinutesPerDay,
	}
}

// HasDataInRange reports whether the store already holds records for the
// window, so callers can warn before re-syncing it.
func (s *SyncService) HasDataInRange(ctx context.Context, from, to time.Time) (bool, error) {
	count, err := s.store.CountInRange(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("count in range: %w", err)
	}
	return count > 0, nil
}

// ActiveLock exposes the current lock state read-only for status reporting.
func (s *SyncService) ActiveLock() *domain.SyncLock {
	return s.locks.Current()
}

// Run executes the sync state machine for [from, to). The returned result is
// always non-nil and its Status selects the variant.
func (s *SyncService) Run(ctx context.Context, from, to time.Time, opts domain.SyncOptions) (result *domain.SyncResult) {
	size, err := s.store.CurrentSizeBytes(ctx)
	if err != nil {
		s.logger.Error("store size check failed", "error", err)
		return errorResult(fmt.Sprintf("store size check failed: %v", err), domain.SyncCounters{})
	}
	if size > s.config.MaxStoreBytes {
		s.logger.Warn("sync refused, store over quota",
			"store_bytes", size,
			"max_bytes", s.config.MaxStoreBytes,
		)
		return &domain.SyncResult{
			Status: domain.SyncStatusQuotaExceeded,
			Message: fmt.Sprintf("local store is %d bytes, over the %d byte limit; remove data before syncing",
				size, s.config.MaxStoreBytes),
			StoreSizeBytes: size,
			MaxStoreBytes:  s.config.MaxStoreBytes,
		}
	}

	estimate := s.Estimate(from, to)
	if !opts.Confirmed {
		return &domain.SyncResult{
			Status: domain.SyncStatusConfirmationRequired,
			Message: fmt.Sprintf("syncing %d day(s) takes an estimated %d minutes (~%d min/day); re-run confirmed to proceed",
				estimate.Days, estimate.TotalTimeMinutes, estimate.MinutesPerDay),
			Estimate: &estimate,
		}
	}

	initiator := opts.Initiator
	if initiator == "" {
		initiator = anonymousInitiator
	}

	now := time.Now().UTC()
	conflict, acquired := s.locks.TryAcquire(domain.SyncLock{
		Initiator:           initiator,
		AcquiredAt:          now,
		DateFrom:            from,
		DateTo:              to,
		EstimatedCompletion: now.Add(time.Duration(estimate.TotalTimeMinutes) * time.Minute),
	})
	if !acquired {
		s.logger.Warn("sync refused, another sync is running",
			"holder", conflict.Initiator,
			"since", conflict.AcquiredAt,
		)
		return &domain.SyncResult{
			Status: domain.SyncStatusInProgress,
			Message: fmt.Sprintf("a sync started by %q at %s is already running; estimated completion %s",
				conflict.Initiator,
				conflict.AcquiredAt.Format(time.RFC3339),
				conflict.EstimatedCompletion.Format(time.RFC3339)),
			Conflict: conflict,
		}
	}

	// The lock must clear on every exit path, including panics below.
	defer s.locks.Release()

	var counters domain.SyncCounters
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sync panicked", "panic", r)
			result = errorResult(fmt.Sprintf("unexpected failure: %v", r), counters)
		}
	}()

	s.logger.Info("starting sync",
		"initiator", initiator,
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"estimated_minutes", estimate.TotalTimeMinutes,
	)
	started := time.Now()

	sample, err := s.run(ctx, from, to, &counters)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		return errorResult(err.Error(), counters)
	}

	storeSize, err := s.store.CurrentSizeBytes(ctx)
	if err != nil {
		s.logger.Warn("store size re-check failed", "error", err)
	}

	s.logger.Info("sync completed",
		"new", counters.NewImagesAdded,
		"duplicates", counters.ExistingImagesSkipped,
		"invalid", counters.InvalidOrInaccessibleImagesSkipped,
		"persistence_errors", counters.PersistenceErrors,
		"duration", time.Since(started),
	)

	return &domain.SyncResult{
		Status: domain.SyncStatusSuccess,
		Message: fmt.Sprintf("sync complete: %d new images added, %d duplicates skipped, %d invalid or unreachable URLs skipped",
			counters.NewImagesAdded,
			counters.ExistingImagesSkipped,
			counters.InvalidOrInaccessibleImagesSkipped),
		Counters:       counters,
		Sample:         sample,
		StoreSizeBytes: storeSize,
	}
}

// run is the Running phase: fetch, then extract -> probe -> batch -> flush
// per post. Counters accumulate through the pointer so the error path keeps
// the partials.
func (s *SyncService) run(ctx context.Context, from, to time.Time, counters *domain.SyncCounters) ([]domain.ImageRecord, error) {
	posts, err := s.source.FetchPosts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	var (
		batch  []domain.ImageRecord
		sample []domain.ImageRecord
	)

	for _, post := range posts {
		meta := metadata.Extract(post.JSONMetadata)
		if len(meta.URLs) == 0 {
			continue
		}

		live, dead := s.prober.FilterReachable(ctx, meta.URLs)
		counters.InvalidOrInaccessibleImagesSkipped += len(dead)

		for _, url := range live {
			rec := domain.ImageRecord{
				ImageURL:  url,
				Author:    post.Author,
				Permlink:  post.Permlink,
				PostURL:   post.PostURL,
				Title:     post.Title,
				Timestamp: post.CreatedAt,
				Tags:      meta.Tags,
			}
			batch = append(batch, rec)
			if len(sample) < s.config.SampleLimit {
				sample = append(sample, rec)
			}

			if len(batch) >= s.config.BatchSize {
				s.flush(ctx, batch, counters)
				batch = nil
			}
		}
	}

	if len(batch) > 0 {
		s.flush(ctx, batch, counters)
	}

	return sample, nil
}

// flush persists one batch. A failed insert is recorded as a loss the size
// of the batch and the run moves on; there is no retry.
func (s *SyncService) flush(ctx context.Context, batch []domain.ImageRecord, counters *domain.SyncCounters) {
	added, err := s.store.InsertBatch(ctx, batch)
	if err != nil {
		s.logger.Error("batch insert failed", "size", len(batch), "error", err)
		counters.PersistenceErrors += len(batch)
		return
	}

	counters.NewImagesAdded += added
	counters.ExistingImagesSkipped += len(batch) - added

	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, batch); err != nil {
			s.logger.Warn("batch publish failed", "size", len(batch), "error", err)
		}
	}
}

func errorResult(message string, counters domain.SyncCounters) *domain.SyncResult {
	return &domain.SyncResult{
		Status:   domain.SyncStatusError,
		Message:  message,
		Counters: counters,
	}
}
