package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for an event processing job submitted to
// River. Kind and RepoName form the unique key so repeated webhook deliveries
// for the same repository collapse into one job within the dedupe window.
type JobArgs struct {
	// EventID identifies the stored event the worker should process. It is
	// excluded from uniqueness so a duplicate delivery still dedupes even
	// though it produced a new event row.
	EventID uuid.UUID `json:"event_id"`
	// EventKind is the event kind.
	EventKind string `json:"kind" river:"unique"`
	// RepoName is the repository the event refers to.
	RepoName string `json:"repo_name" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
	// uniqueJobPeriod defines the lookback window during which a job with the
	// same unique arguments is considered a duplicate across the specified states.
	uniqueJobPeriod time.Duration
}

// Kind returns the River job kind used to register and dispatch the event worker.
func (args JobArgs) Kind() string { return "ProcessEventJob" }

// InsertOpts returns the River options that control how the job is enqueued,
// including the maximum retry attempts and uniqueness constraints to prevent
// duplicate jobs for the same kind and repository across multiple job states.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		// make sure we only have one job per kind and repository in any state
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: args.uniqueJobPeriod,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCompleted,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
