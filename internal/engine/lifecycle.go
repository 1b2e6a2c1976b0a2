package engine

import (
	"context"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/remote"
	"skyops/internal/repo"
)

// transitions is the directed lifecycle table. Archived is terminal;
// cancelled and delayed are side states with no way back.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusDraft:     {domain.StatusScheduled, domain.StatusArchived},
	domain.StatusScheduled: {domain.StatusActive, domain.StatusCancelled, domain.StatusDelayed, domain.StatusDraft},
	domain.StatusActive:    {domain.StatusReview, domain.StatusCompleted, domain.StatusDelayed, domain.StatusCancelled},
	domain.StatusReview:    {domain.StatusCompleted, domain.StatusActive},
	domain.StatusCompleted: {domain.StatusArchived, domain.StatusReview},
	domain.StatusArchived:  {},
}

// NextAllowed returns the statuses reachable from the given one.
func NextAllowed(s domain.Status) []domain.Status {
	next, ok := transitions[s]
	if !ok || len(next) == 0 {
		return nil
	}
	out := make([]domain.Status, len(next))
	copy(out, next)
	return out
}

func transitionAllowed(from, to domain.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates the status change against the lifecycle table,
// commits it through the repository and reconciles to whatever status
// the server returned. The server remains the authority; the table is
// enforced here so shortcuts cannot skip states.
func (e *Engine) Transition(ctx context.Context, sess *repo.Session, next domain.Status) (domain.Deployment, error) {
	from := sess.Deployment.Status
	if !transitionAllowed(from, next) {
		return domain.Deployment{}, InvalidTransitionError{From: from, To: next}
	}
	d, err := e.Repo.Commit(ctx, sess.Deployment.ID, remote.DeploymentPatch{Status: &next})
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Log.Info("deployment status changed",
		zap.String("deployment_id", d.ID),
		zap.String("from", string(from)),
		zap.String("to", string(d.Status)),
	)
	return d, nil
}
