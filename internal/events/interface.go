package events

import (
	"context"
	"encoding/json"

	"bookverse/pkg/domain"
)

// Events records webhook deliveries and exposes them for inspection.
type Events interface {
	Ingest(ctx context.Context,
		kind domain.EventKind,
		repoName string,
		applicationKey string,
		payload json.RawMessage) (*domain.Event, error)
	List(ctx context.Context,
		kind domain.EventKind,
		status domain.EventStatus,
		cursor string,
		limit uint) ([]domain.Event, string, error)
	Get(ctx context.Context, eventID domain.EventID) (*domain.Event, error)
	Delete(ctx context.Context, eventID domain.EventID) error
}
