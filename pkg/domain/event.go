package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventID uniquely identifies a received webhook event.
// It wraps uuid.UUID to provide type safety at the domain layer.
type EventID uuid.UUID

// String returns the canonical UUID representation.
func (id EventID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes the ID as its canonical UUID string.
func (id EventID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

// UnmarshalText parses a canonical UUID string.
func (id *EventID) UnmarshalText(data []byte) error {
	parsed, err := uuid.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("could not parse event ID: %w", err)
	}
	*id = EventID(parsed)

	return nil
}

// EventKind classifies a webhook event delivered by the platform.
type EventKind string

const (
	// EventReleaseCompleted is emitted when an application version reaches
	// PROD; processing triggers a repository_dispatch to the deployment repo.
	EventReleaseCompleted EventKind = "release_completed"
	// EventPromotionFailed is emitted when a stage promotion is blocked by
	// policy evaluation; processing renders a remediation summary.
	EventPromotionFailed EventKind = "promotion_failed"
)

// KnownEventKinds lists the kinds the receiver accepts. Anything else is
// rejected at ingestion time.
var KnownEventKinds = []EventKind{EventReleaseCompleted, EventPromotionFailed}

// Valid reports whether the kind is one the receiver knows how to process.
func (k EventKind) Valid() bool {
	for _, known := range KnownEventKinds {
		if k == known {
			return true
		}
	}

	return false
}

// EventStatus represents the lifecycle state of a received event.
type EventStatus string

const (
	// EventStatusPending indicates the event has been recorded but not processed yet.
	EventStatusPending EventStatus = "PENDING"
	// EventStatusProcessed indicates processing finished successfully.
	EventStatusProcessed EventStatus = "PROCESSED"
	// EventStatusFailed indicates processing ended with an error; see LastError and Attempts.
	EventStatusFailed EventStatus = "FAILED"
	// EventStatusDuplicate indicates the event was recorded but its job was
	// skipped because an identical job already existed in the dedupe window.
	EventStatusDuplicate EventStatus = "DUPLICATE"
)

// Event represents a single webhook delivery and its processing state.
type Event struct {
	// ID is the unique identifier of the event.
	ID EventID `json:"id"`

	// Kind is the event type reported by the sender.
	Kind EventKind `json:"eventType"`
	// RepoName is the repository the event refers to.
	RepoName string `json:"repoName"`
	// ApplicationKey is the AppTrust application the event refers to, when known.
	ApplicationKey string `json:"applicationKey,omitempty"`
	// Payload is the raw client payload delivered alongside the event.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Status is the current lifecycle state of the event.
	Status EventStatus `json:"status"`
	// Attempts is the number of times the worker has tried to process this event.
	Attempts uint `json:"attempts"`
	// LastError stores the most recent processing error, if any.
	LastError string `json:"-"`
	// Summary holds the rendered remediation summary for promotion failures.
	Summary string `json:"summary,omitempty"`

	// CreatedAt is the time when the event was received.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time when the event was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt marks when the event was soft-deleted; zero value means not deleted.
	DeletedAt time.Time `json:"-"`
}
