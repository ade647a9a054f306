// Package github defines the interface used to notify GitHub repositories
// about platform events via the repository_dispatch API.
package github

import "context"

// Dispatch is a repository_dispatch event to be delivered to a repository.
type Dispatch struct {
	// Owner is the organization or user owning the repository.
	Owner string
	// Repo is the repository name.
	Repo string
	// EventType becomes the event_type field of the dispatch and selects
	// which workflows react to it.
	EventType string
	// ClientPayload is forwarded verbatim to the triggered workflows.
	ClientPayload map[string]any
	// DryRun marks the payload so receiving workflows validate the wiring
	// without acting on the event.
	DryRun bool
}

// Dispatcher delivers repository_dispatch events.
type Dispatcher interface {
	// Dispatch sends the event. It returns an error unless GitHub
	// acknowledges the dispatch.
	Dispatch(ctx context.Context, d Dispatch) error
}
