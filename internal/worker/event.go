package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookverse/internal/events"
	"bookverse/internal/gate"
	"bookverse/pkg/domain"
	"bookverse/pkg/github"
	"bookverse/pkg/logger"
	"bookverse/pkg/serrors"
	"bookverse/pkg/storage"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// rateLimitSnooze is how long a job sleeps when the upstream API reports rate
// limiting. GitHub does not expose a reset time on the dispatch endpoint, so a
// fixed backoff is used.
const rateLimitSnooze = 30 * time.Second

// EventWorkerOptions configure the event worker's external targets.
type EventWorkerOptions struct {
	// Owner is the GitHub organization or user receiving dispatch events.
	Owner string
	// Repo is the GitHub repository receiving dispatch events.
	Repo string
	// ProjectKey scopes the rendered promotion failure summaries.
	ProjectKey string
}

// EventWorker is a River worker that processes stored webhook events. A
// release_completed event triggers a repository_dispatch to the deployment
// repository; a promotion_failed event is rendered into a remediation summary
// and stored alongside the event.
//
// Error handling: unknown kinds and deleted events cancel the job. Rate
// limited dispatches are snoozed without touching the event row, so waiting
// out a 429 never counts toward failure. Any other error is recorded on the
// event and returned so River retries; the storage layer flips the event to
// FAILED once the attempt count reaches the job's maximum.
type EventWorker struct {
	river.WorkerDefaults[events.JobArgs]

	options EventWorkerOptions
	storage storage.Storage
	// dispatcher sends repository_dispatch events to GitHub.
	dispatcher github.Dispatcher
	// summarizer renders promotion failures into Markdown.
	summarizer *gate.Summarizer
}

// NewEventWorker constructs an EventWorker.
func NewEventWorker(strg storage.Storage, dispatcher github.Dispatcher, options EventWorkerOptions) *EventWorker {
	return &EventWorker{
		options:    options,
		storage:    strg,
		dispatcher: dispatcher,
		summarizer: gate.NewSummarizer(options.ProjectKey),
	}
}

// Work executes a single event processing job. It loads the event, routes it
// by kind, and records the outcome on the event row.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[events.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("kind", job.Args.EventKind),
		zap.String("repo", job.Args.RepoName))

	event, err := w.storage.EventByID(ctx, domain.EventID(job.Args.EventID))
	if err != nil {
		return fmt.Errorf("could not get event: %w", err)
	}
	if event == nil {
		// the event was deleted while the job was queued
		return river.JobCancel(serrors.With(serrors.ErrNotFound, "event no longer exists")) //nolint: wrapcheck
	}
	if event.Status != domain.EventStatusPending {
		logger.Info(ctx, "event already settled, skipping", zap.String("status", string(event.Status)))

		return nil
	}

	summary, err := w.process(ctx, event)
	if err != nil {
		// a snoozed job does not consume an attempt, so the event row is left
		// untouched and stays pending for the retry
		if errors.Is(err, serrors.ErrRateLimited) {
			logger.Info(ctx, "upstream rate limited, snoozing", zap.Duration("for", rateLimitSnooze))

			return river.JobSnooze(rateLimitSnooze) //nolint: wrapcheck
		}

		if recordErr := w.recordFailure(ctx, event, err, job.MaxAttempts); recordErr != nil {
			logger.Error(ctx, "could not record event failure", zap.Error(recordErr))
		}

		if errors.Is(err, serrors.ErrBadRequest) || errors.Is(err, serrors.ErrUnauthorized) {
			// retrying will not help
			return river.JobCancel(err) //nolint: wrapcheck
		}

		return fmt.Errorf("could not process event: %w", err)
	}

	updates := storage.EventUpdates{Status: domain.EventStatusProcessed}
	if summary != "" {
		updates.Summary = &summary
	}
	if _, err := w.storage.UpdateEventByID(ctx, event.ID, updates); err != nil {
		return fmt.Errorf("could not mark event processed: %w", err)
	}
	logger.Info(ctx, "event processed successfully")

	return nil
}

// process routes the event by kind and returns an optional summary to store.
func (w *EventWorker) process(ctx context.Context, event *domain.Event) (string, error) {
	switch event.Kind {
	case domain.EventReleaseCompleted:
		return "", w.dispatchRelease(ctx, event)
	case domain.EventPromotionFailed:
		return w.summarizeFailure(ctx, event)
	default:
		return "", serrors.With(serrors.ErrBadRequest, "unknown event kind %q", event.Kind)
	}
}

// dispatchRelease forwards a release_completed event to the deployment
// repository via repository_dispatch.
func (w *EventWorker) dispatchRelease(ctx context.Context, event *domain.Event) error {
	payload := map[string]any{
		"repository":      event.RepoName,
		"application_key": event.ApplicationKey,
	}
	if len(event.Payload) > 0 {
		var clientPayload map[string]any
		if err := json.Unmarshal(event.Payload, &clientPayload); err != nil {
			return serrors.Wrap(serrors.ErrBadRequest, err, "invalid event payload")
		}
		for k, v := range clientPayload {
			payload[k] = v
		}
	}

	if err := w.dispatcher.Dispatch(ctx, github.Dispatch{
		Owner:         w.options.Owner,
		Repo:          w.options.Repo,
		EventType:     string(domain.EventReleaseCompleted),
		ClientPayload: payload,
	}); err != nil {
		return fmt.Errorf("could not dispatch release event: %w", err)
	}

	return nil
}

// summarizeFailure renders a promotion failure payload into a remediation
// summary and pushes it to the CI step summary when running in CI.
func (w *EventWorker) summarizeFailure(ctx context.Context, event *domain.Event) (string, error) {
	failure, err := gate.ParseFailure(event.Payload)
	if err != nil {
		return "", fmt.Errorf("could not parse promotion failure: %w", err)
	}

	summary := w.summarizer.Render(failure)

	written, err := gate.WriteGitHubSummary(summary)
	if err != nil {
		logger.Warn(ctx, "could not write step summary", zap.Error(err))
	} else if written {
		logger.Debug(ctx, "wrote step summary")
	}

	return summary, nil
}

// recordFailure stores the error on the event. The MaxAttempts guard makes
// the status flip to FAILED only on the final attempt; permanent errors skip
// the guard since the job is canceled immediately.
func (w *EventWorker) recordFailure(ctx context.Context, event *domain.Event, procErr error, maxAttempts int) error {
	guard := maxAttempts
	if errors.Is(procErr, serrors.ErrBadRequest) || errors.Is(procErr, serrors.ErrUnauthorized) {
		guard = 0
	}

	msg := procErr.Error()
	_, err := w.storage.UpdateEventByID(ctx, event.ID, storage.EventUpdates{
		Status:      domain.EventStatusFailed,
		LastError:   &msg,
		MaxAttempts: guard,
	})

	return err
}
