package postgres

import (
	"bookverse/pkg/domain"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PgEvent struct {
	ID uuid.UUID `db:"id" goqu:"skipinsert"`

	Kind           string          `db:"kind"`
	RepoName       string          `db:"repo_name"`
	ApplicationKey sql.NullString  `db:"application_key"`
	Payload        json.RawMessage `db:"payload"`

	Status    string         `db:"status"     goqu:"skipinsert"`
	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`
	Summary   sql.NullString `db:"summary"    goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgEvent) ToDomain() *domain.Event {
	return &domain.Event{
		ID:             domain.EventID(p.ID),
		Kind:           domain.EventKind(p.Kind),
		RepoName:       p.RepoName,
		ApplicationKey: p.ApplicationKey.String,
		Payload:        p.Payload,
		Status:         domain.EventStatus(p.Status),
		Attempts:       p.Attempts,
		LastError:      p.LastError.String,
		Summary:        p.Summary.String,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt.Time,
		DeletedAt:      p.DeletedAt.Time,
	}
}

func (p *PgEvent) FromDomain(event domain.Event) {
	payload := event.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	*p = PgEvent{
		ID:       uuid.UUID(event.ID),
		Kind:     string(event.Kind),
		RepoName: event.RepoName,
		ApplicationKey: sql.NullString{
			String: event.ApplicationKey,
			Valid:  event.ApplicationKey != "",
		},
		Payload:  payload,
		Status:   string(event.Status),
		Attempts: event.Attempts,
		LastError: sql.NullString{
			String: event.LastError,
			Valid:  event.LastError != "",
		},
		Summary: sql.NullString{
			String: event.Summary,
			Valid:  event.Summary != "",
		},
		CreatedAt: event.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  event.UpdatedAt,
			Valid: !event.UpdatedAt.IsZero(),
		},
		DeletedAt: sql.NullTime{
			Time:  event.DeletedAt,
			Valid: !event.DeletedAt.IsZero(),
		},
	}
}

func domainEventsToPg(events []domain.Event) []PgEvent {
	out := make([]PgEvent, len(events))
	for i := range out {
		out[i].FromDomain(events[i])
	}

	return out
}

func pgEventsToDomain(events []PgEvent) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, event := range events {
		out = append(out, *event.ToDomain())
	}

	return out
}
