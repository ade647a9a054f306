package storage

import (
	"bookverse/pkg/domain"
	"context"
	"time"
)

// EventUpdates describes a set of optional fields that can be applied to an
// existing event during an update. Only non-nil fields will be updated.
type EventUpdates struct {
	// Status is the new status to set for the event.
	Status domain.EventStatus
	// Summary, when provided, replaces the stored human-readable summary of the
	// event outcome (e.g. the rendered gate failure report).
	Summary *string
	// LastError, when provided, sets the last error text. An empty string value
	// indicates the error should be cleared (set to NULL).
	LastError *string
	// MaxAttempts, when provided alongside a Failed status, ensures that status
	// is only updated to Failed if the current attempts after increment would
	// reach this threshold. A value <= 0 disables this guard.
	MaxAttempts int
}

// EventPage groups a page of events together with an optional NextCursor used
// for pagination.
type EventPage struct {
	// Events contains the current page of event records.
	Events []domain.Event
	// NextCursor points to the timestamp to be used as the cursor for fetching
	// the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// EventStorage defines CRUD and query operations related to webhook events.
// Implementations should ensure idempotency and proper handling of
// soft-deletes where applicable.
type EventStorage interface {
	// StoreEvents inserts one or more events and returns the stored rows as
	// they exist in the database (including generated fields).
	StoreEvents(ctx context.Context, events ...domain.Event) ([]domain.Event, error)
	// UpdateEventByID updates a single event identified by its ID and returns
	// the updated row. The update ignores soft-deleted rows and sets
	// updated_at automatically. Only provided fields are changed.
	// Notes:
	// - Attempts is incremented by 1 on every update.
	// - If Status is Failed and MaxAttempts > 0, status is only set to Failed
	//   when the attempts after increment reach MaxAttempts; otherwise status
	//   remains unchanged (i.e., stays Pending).
	UpdateEventByID(ctx context.Context, ID domain.EventID, updates EventUpdates) (*domain.Event, error)
	// PendingEventCountByRepo returns the total number of pending events for
	// the given repository name. Soft-deleted records are excluded.
	PendingEventCountByRepo(ctx context.Context, repoName string) (int64, error)
	// ListEvents returns a page of events created before the optional cursor
	// time, limited by the given limit. If kind or status is non-empty,
	// results are filtered accordingly.
	ListEvents(ctx context.Context,
		kind domain.EventKind,
		status domain.EventStatus,
		cursor time.Time,
		limit uint) (EventPage, error)
	// EventByID fetches an event by its ID, excluding soft-deleted records.
	// Returns nil when not found.
	EventByID(ctx context.Context, ID domain.EventID) (*domain.Event, error)
	// DeleteEvent performs a soft delete for the given event ID and returns
	// the deleted event, or nil if it was not found.
	DeleteEvent(ctx context.Context, ID domain.EventID) (*domain.Event, error)
}
