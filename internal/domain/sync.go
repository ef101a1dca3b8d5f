package domain

import "time"

// SyncStatus discriminates the mutually exclusive shapes of SyncResult.
type SyncStatus string

const (
	SyncStatusSuccess              SyncStatus = "success"
	SyncStatusConfirmationRequired SyncStatus = "confirmation_required"
	SyncStatusQuotaExceeded        SyncStatus = "quota_exceeded"
	SyncStatusInProgress           SyncStatus = "sync_in_progress"
	SyncStatusError                SyncStatus = "error"
)

// SyncOptions is the caller-supplied options bag for a sync run.
// Initiator is an unauthenticated free-text hint, not an identity.
type SyncOptions struct {
	Confirmed bool
	Initiator string
}

// SyncCounters aggregates per-item outcomes of a run. On the error path the
// values are best-effort partials accumulated before the failure.
type SyncCounters struct {
	NewImagesAdded                     int `json:"newImagesAdded"`
	ExistingImagesSkipped              int `json:"existingImagesSkipped"`
	InvalidOrInaccessibleImagesSkipped int `json:"invalidOrInaccessibleImagesSkipped"`
	PersistenceErrors                  int `json:"persistenceErrors"`
}

// SyncLock describes an in-flight sync run. At most one non-empty instance
// exists per registry at any time.
type SyncLock struct {
	Initiator           string    `json:"initiator"`
	AcquiredAt          time.Time `json:"acquiredAt"`
	DateFrom            time.Time `json:"dateFrom"`
	DateTo              time.Time `json:"dateTo"`
	EstimatedCompletion time.Time `json:"estimatedCompletion"`
}

// SyncEstimate is the user-facing cost estimate computed before a run is
// confirmed.
type SyncEstimate struct {
	Days             int `json:"estimatedDays"`
	MinutesPerDay    int `json:"minutesPerDay"`
	TotalTimeMinutes int `json:"totalEstimatedTimeMinutes"`
}

// SyncResult is the tagged result of one orchestrator invocation. Status
// selects which of the optional fields are meaningful.
type SyncResult struct {
	Status  SyncStatus `json:"status"`
	Message string     `json:"message"`

	// success / error
	Counters       SyncCounters  `json:"counters"`
	Sample         []ImageRecord `json:"sample,omitempty"`
	StoreSizeBytes int64         `json:"storeSizeBytes,omitempty"`

	// confirmation_required
	Estimate *SyncEstimate `json:"estimate,omitempty"`

	// quota_exceeded
	MaxStoreBytes int64 `json:"maxStoreBytes,omitempty"`

	// sync_in_progress
	Conflict *SyncLock `json:"conflict,omitempty"`
}
