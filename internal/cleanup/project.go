package cleanup

import (
	"context"
	"errors"
	"fmt"

	"bookverse/internal/provision"
	"bookverse/pkg/logger"
	"bookverse/pkg/platform"
	"bookverse/pkg/serrors"

	"go.uber.org/zap"
)

// ConfirmToken must be passed to Teardown.Run before anything is deleted.
const ConfirmToken = "DELETE"

// TeardownReport summarizes a project teardown.
type TeardownReport struct {
	// Mappings is the identity mapping cleanup outcome.
	Mappings provision.CleanupReport
	// Roles is the role cleanup outcome.
	Roles provision.CleanupReport
	// ProjectDeleted reports whether the project delete call succeeded.
	ProjectDeleted bool
	// Verified reports whether the project was confirmed gone afterwards.
	Verified bool
	// DryRun reports whether anything was actually mutated.
	DryRun bool
}

// Teardown deletes a project and everything that references it, in dependency
// order: identity mappings first, then roles, then the project itself,
// finally verifying the project is gone.
type Teardown struct {
	client     platform.Access
	reconciler *provision.Reconciler
	projectKey string
	dryRun     bool
}

// NewTeardown constructs a Teardown for the given project.
func NewTeardown(client platform.Access, projectKey string, dryRun bool) *Teardown {
	return &Teardown{
		client:     client,
		reconciler: provision.New(client, projectKey, dryRun),
		projectKey: projectKey,
		dryRun:     dryRun,
	}
}

// Run executes the teardown. The confirm argument must equal ConfirmToken;
// this guards against accidental invocation since project deletion is
// unrecoverable. Mapping and role cleanup errors are carried in the report
// but do not stop the project deletion.
func (t *Teardown) Run(ctx context.Context, confirm string) (TeardownReport, error) {
	report := TeardownReport{DryRun: t.dryRun}

	if confirm != ConfirmToken {
		return report, serrors.With(serrors.ErrBadRequest,
			"teardown not confirmed (expected %q)", ConfirmToken)
	}

	mappings, err := t.reconciler.CleanupMappings(ctx)
	if err != nil {
		return report, fmt.Errorf("identity mapping cleanup failed: %w", err)
	}
	report.Mappings = mappings

	roles, err := t.reconciler.CleanupRoles(ctx, "")
	if err != nil {
		return report, fmt.Errorf("role cleanup failed: %w", err)
	}
	report.Roles = roles

	if t.dryRun {
		logger.Info(ctx, "dry-run: would delete project", zap.String("project", t.projectKey))

		return report, nil
	}

	if err := t.client.DeleteProject(ctx, t.projectKey); err != nil {
		return report, fmt.Errorf("could not delete project: %w", err)
	}
	report.ProjectDeleted = true
	logger.Info(ctx, "deleted project", zap.String("project", t.projectKey))

	// the project must now be gone; anything else means the delete did not
	// take effect
	err = t.client.GetProject(ctx, t.projectKey)
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		report.Verified = true
	case err == nil:
		return report, serrors.With(serrors.ErrConflict, "project %q still exists after deletion", t.projectKey)
	default:
		return report, fmt.Errorf("could not verify project deletion: %w", err)
	}

	return report, nil
}
