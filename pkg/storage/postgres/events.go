package postgres

import (
	"bookverse/pkg/domain"
	"bookverse/pkg/storage"
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	eventsTable = "events"
)

func (p *PgSQL) StoreEvents(ctx context.Context, events ...domain.Event) ([]domain.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var result []PgEvent
	if err := p.Builder.Insert(eventsTable).
		Rows(domainEventsToPg(events)).
		Returning(&PgEvent{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store events into pg: %w", err)
	}

	return pgEventsToDomain(result), nil
}

// UpdateEventByID updates a single event by ID with the provided fields.
// Attempts is incremented by 1 and updated_at is set. When the target status
// is Failed and MaxAttempts > 0, the status only flips to Failed once the
// attempts after increment reach MaxAttempts; until then it stays Pending so
// the job system can retry.
func (p *PgSQL) UpdateEventByID(ctx context.Context,
	id domain.EventID,
	updates storage.EventUpdates) (*domain.Event, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"attempts":   goqu.L("attempts + 1"),
	}
	if updates.Status == domain.EventStatusFailed && updates.MaxAttempts > 0 {
		rec["status"] = goqu.L("CASE WHEN attempts + 1 >= ? THEN ? ELSE status END",
			updates.MaxAttempts,
			string(domain.EventStatusFailed))
	} else {
		rec["status"] = updates.Status
	}
	if updates.Summary != nil {
		if *updates.Summary == "" {
			rec["summary"] = goqu.L("NULL")
		} else {
			rec["summary"] = *updates.Summary
		}
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			// set to NULL when empty string provided
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgEvent
	found, err := p.Builder.Update(eventsTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgEvent{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update event in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// PendingEventCountByRepo counts pending events for a repository, excluding
// soft-deleted rows.
func (p *PgSQL) PendingEventCountByRepo(ctx context.Context, repoName string) (int64, error) {
	count, err := p.Builder.From(eventsTable).
		Where(
			goqu.I("repo_name").Eq(repoName),
			goqu.I("status").Eq(string(domain.EventStatusPending)),
			goqu.I("deleted_at").IsNull(),
		).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count pending events in pg: %w", err)
	}

	return count, nil
}

// ListEvents returns a page of events filtered by optional kind and status,
// created before the optional cursor and limited by limit. Results are ordered
// by created_at DESC, id DESC.
func (p *PgSQL) ListEvents(ctx context.Context,
	kind domain.EventKind,
	status domain.EventStatus,
	cursor time.Time,
	limit uint) (storage.EventPage, error) {
	w := []goqu.Expression{
		goqu.I("deleted_at").IsNull(),
	}
	if kind != "" {
		w = append(w, goqu.I("kind").Eq(string(kind)))
	}
	if status != "" {
		w = append(w, goqu.I("status").Eq(string(status)))
	}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	// fetch one extra to determine if there is a next page
	fetch := limit + 1
	ds := p.Builder.From(eventsTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgEvent
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.EventPage{}, fmt.Errorf("could not fetch events from pg: %w", err)
	}

	// if we fetched more than the limit, there is a next page
	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		trimmed := rows[:limit]
		nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		rows = trimmed
	}

	return storage.EventPage{
		Events:     pgEventsToDomain(rows),
		NextCursor: nextCursor,
	}, nil
}

// EventByID returns an event by its ID, excluding soft-deleted rows.
func (p *PgSQL) EventByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	var row PgEvent
	found, err := p.Builder.From(eventsTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch event by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// DeleteEvent performs a soft delete by setting deleted_at for the given
// event id, returning the deleted record.
func (p *PgSQL) DeleteEvent(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	var row PgEvent
	found, err := p.Builder.Update(eventsTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgEvent{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete event in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// Ensure PgSQL satisfies the storage interfaces at compile time.
var _ storage.Storage = (*PgSQL)(nil)
