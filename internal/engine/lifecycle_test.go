package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/repo"
)

func newTestEngine(t *testing.T, store *fakeStore) (*Engine, *repo.Session) {
	t.Helper()
	r := repo.New(store, zap.NewNop())
	e := New(store, r, zap.NewNop())
	sess, err := r.Open(context.Background(), store.deployment.ID)
	require.NoError(t, err)
	return e, sess
}

func baseDeployment() domain.Deployment {
	return domain.Deployment{
		ID:         "dep-1",
		Title:      "Pipeline inspection",
		Type:       domain.TypeRoutine,
		Status:     domain.StatusDraft,
		Date:       "2024-03-01",
		DaysOnSite: 3,
		SiteID:     "site-1",
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to domain.Status
		ok       bool
	}{
		{domain.StatusDraft, domain.StatusScheduled, true},
		{domain.StatusDraft, domain.StatusArchived, true},
		{domain.StatusDraft, domain.StatusActive, false},
		{domain.StatusScheduled, domain.StatusActive, true},
		{domain.StatusScheduled, domain.StatusDraft, true},
		{domain.StatusScheduled, domain.StatusCancelled, true},
		{domain.StatusScheduled, domain.StatusDelayed, true},
		{domain.StatusScheduled, domain.StatusCompleted, false},
		{domain.StatusActive, domain.StatusReview, true},
		{domain.StatusActive, domain.StatusCompleted, true},
		{domain.StatusActive, domain.StatusDraft, false},
		{domain.StatusReview, domain.StatusCompleted, true},
		{domain.StatusReview, domain.StatusActive, true},
		{domain.StatusCompleted, domain.StatusArchived, true},
		{domain.StatusCompleted, domain.StatusReview, true},
		{domain.StatusCancelled, domain.StatusActive, false},
		{domain.StatusDelayed, domain.StatusScheduled, false},
	}
	for _, c := range cases {
		require.Equalf(t, c.ok, transitionAllowed(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionCommitsAndReconciles(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	store.deployment.DailyLogs = []domain.DailyLog{
		{ID: "log-existing", DeploymentID: "dep-1", TechnicianID: "tech-1", Date: "2024-03-01", DailyPay: 200},
	}
	e, sess := newTestEngine(t, store)

	d, err := e.Transition(context.Background(), sess, domain.StatusScheduled)
	require.NoError(t, err)
	require.Equal(t, domain.StatusScheduled, d.Status)
	require.Equal(t, domain.StatusScheduled, sess.Deployment.Status)
	// update responses carry no logs; the reconciled copy keeps them
	require.Len(t, sess.Deployment.DailyLogs, 1)
}

func TestTransitionRejectedLocally(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)

	_, err := e.Transition(context.Background(), sess, domain.StatusCompleted)
	var te InvalidTransitionError
	require.True(t, errors.As(err, &te))
	require.Equal(t, domain.StatusDraft, te.From)
	require.Equal(t, domain.StatusCompleted, te.To)
	// nothing reached the store
	require.Equal(t, domain.StatusDraft, store.deployment.Status)
}

func TestArchivedIsTerminal(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	store.deployment.Status = domain.StatusArchived
	e, sess := newTestEngine(t, store)

	for _, next := range []domain.Status{
		domain.StatusDraft, domain.StatusScheduled, domain.StatusActive,
		domain.StatusReview, domain.StatusCompleted, domain.StatusCancelled,
		domain.StatusDelayed,
	} {
		_, err := e.Transition(context.Background(), sess, next)
		require.Error(t, err, string(next))
	}
	require.Nil(t, NextAllowed(domain.StatusArchived))
}

func TestNextAllowedReturnsCopy(t *testing.T) {
	first := NextAllowed(domain.StatusDraft)
	first[0] = domain.StatusCancelled
	require.Equal(t, domain.StatusScheduled, NextAllowed(domain.StatusDraft)[0])

	require.Nil(t, NextAllowed(domain.StatusCancelled))
	require.Nil(t, NextAllowed(domain.StatusDelayed))
	require.Nil(t, NextAllowed(domain.Status("bogus")))
}
