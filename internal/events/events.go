// Package events records webhook deliveries from the platform and enqueues
// background jobs to process them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookverse/internal/config"
	"bookverse/pkg/domain"
	"bookverse/pkg/serrors"
	"bookverse/pkg/storage"

	"github.com/google/uuid"
)

// Options configure how event jobs are enqueued.
// These settings are typically derived from application configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts the background worker should
	// make when processing an event job before marking it failed.
	MaxAttempts int
	// DedupeWindow is the duration during which a repeated delivery for the
	// same kind and repository is recorded but not enqueued again.
	DedupeWindow time.Duration
	// MaxPendingPerRepo rejects new deliveries for a repository once this many
	// of its events are still pending. Zero disables the limit.
	MaxPendingPerRepo int64
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxAttempts:       cfg.Events.MaxAttempts,
		DedupeWindow:      cfg.Events.DedupeWindow,
		MaxPendingPerRepo: cfg.Events.MaxPendingPerRepo,
	}
}

// events is the concrete implementation of the Events interface.
// It coordinates persistence with the storage layer and job enqueueing.
type events struct {
	// options holds runtime configuration that affects enqueueing and dedupe.
	options Options
	// storage is the persistence layer used to store events and manage jobs.
	storage storage.Storage
}

// Ingest stores a new event and attempts to enqueue a background job to
// process it. When an identical job already exists within the dedupe window,
// the event is recorded with DUPLICATE status instead of being enqueued.
func (e events) Ingest(ctx context.Context,
	kind domain.EventKind,
	repoName string,
	applicationKey string,
	payload json.RawMessage) (*domain.Event, error) {
	if !kind.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "unknown event kind %q", kind)
	}
	if repoName == "" {
		return nil, serrors.With(serrors.ErrBadRequest, "repository name is required")
	}

	if e.options.MaxPendingPerRepo > 0 {
		pending, err := e.storage.PendingEventCountByRepo(ctx, repoName)
		if err != nil {
			return nil, fmt.Errorf("could not count pending events: %w", err)
		}
		if pending >= e.options.MaxPendingPerRepo {
			return nil, serrors.With(serrors.ErrRateLimited,
				"repository %q has %d unprocessed events", repoName, pending)
		}
	}

	var event *domain.Event

	if err := e.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreEvents(ctx, domain.Event{
			Kind:           kind,
			RepoName:       repoName,
			ApplicationKey: applicationKey,
			Payload:        payload,
			Status:         domain.EventStatusPending,
		})
		if err != nil {
			return fmt.Errorf("could not store event: %w", err)
		}
		event = &res[0]

		jobAdded, err := tx.AddJob(ctx, JobArgs{
			EventID:         uuid.UUID(event.ID),
			EventKind:       string(kind),
			RepoName:        repoName,
			maxAttempts:     e.options.MaxAttempts,
			uniqueJobPeriod: e.options.DedupeWindow,
		}, nil)
		if err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		// if a job was not added, another job already exists for this kind and
		// repository. river unique jobs prevent duplicate processing of the
		// same delivery; the event row stays around for audit with a
		// DUPLICATE status.
		if !jobAdded {
			updated, err := tx.UpdateEventByID(ctx, event.ID, storage.EventUpdates{
				Status: domain.EventStatusDuplicate,
			})
			if err != nil {
				return fmt.Errorf("could not update event: %w", err)
			}
			event = updated
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not ingest event: %w", err)
	}

	return event, nil
}

// List returns a page of events filtered by kind and status.
// It supports cursor-based pagination using an RFC3339 timestamp string and
// returns the next cursor when more results are available.
func (e events) List(ctx context.Context,
	kind domain.EventKind,
	status domain.EventStatus,
	cursor string,
	limit uint) ([]domain.Event, string, error) {
	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}

	page, err := e.storage.ListEvents(ctx, kind, status, cursorTime, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not list events: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.Format(time.RFC3339)
	}

	return page.Events, next, nil
}

// Get fetches a single event by ID. It returns a not-found error when no
// matching event exists.
func (e events) Get(ctx context.Context, eventID domain.EventID) (*domain.Event, error) {
	res, err := e.storage.EventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("could not get event: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "event not found")
	}

	return res, nil
}

// Delete removes an event. If the event does not exist, a not-found error is
// returned. Jobs are not cancelled here because the worker re-checks the
// event before processing.
func (e events) Delete(ctx context.Context, eventID domain.EventID) error {
	res, err := e.storage.DeleteEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("could not delete event: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "event not found")
	}

	return nil
}

// New creates a new Events instance backed by the provided storage and
// configured with the given options.
func New(storage storage.Storage, options Options) Events {
	return &events{
		options: options,
		storage: storage,
	}
}
