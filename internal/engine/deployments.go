package engine

import (
	"context"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/repo"
)

// CreateDeployment validates locally, creates the deployment remotely
// and appends it to the cached list. New deployments start as drafts
// unless the caller set a status the server accepts.
func (e *Engine) CreateDeployment(ctx context.Context, d domain.Deployment) (domain.Deployment, error) {
	if d.Title == "" {
		return domain.Deployment{}, validationf("title is required")
	}
	if d.SiteID == "" {
		return domain.Deployment{}, validationf("site is required")
	}
	if d.Type == "" {
		d.Type = domain.TypeRoutine
	}
	if d.Status == "" {
		d.Status = domain.StatusDraft
	}
	if d.Date == "" {
		d.Date = e.now().Format(dayFormat)
	}
	if d.DaysOnSite < 1 {
		d.DaysOnSite = 1
	}
	created, err := e.Store.CreateDeployment(ctx, d)
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Repo.Add(created)
	e.Log.Info("deployment created",
		zap.String("deployment_id", created.ID),
		zap.String("title", created.Title),
	)
	return created, nil
}

// DeleteDeployment removes the deployment remotely and locally,
// closing the open session if it pointed at it.
func (e *Engine) DeleteDeployment(ctx context.Context, id string) error {
	if err := e.Store.DeleteDeployment(ctx, id); err != nil {
		return err
	}
	e.Repo.Remove(id)
	return nil
}

// AssignTechnician adds a crew member. TechnicianIDs is a set, so a
// duplicate assignment is rejected locally before any call.
func (e *Engine) AssignTechnician(ctx context.Context, sess *repo.Session, technicianID string) (domain.Deployment, error) {
	if technicianID == "" {
		return domain.Deployment{}, validationf("technician is required")
	}
	if sess.Deployment.HasTechnician(technicianID) {
		return domain.Deployment{}, validationf("technician %s is already assigned", technicianID)
	}
	d, err := e.Store.AssignPersonnel(ctx, sess.Deployment.ID, technicianID)
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Repo.Reconcile(d)
	return sess.Deployment, nil
}

// RemoveTechnician removes a crew member. Their pay logs stay; only
// the assignment goes away.
func (e *Engine) RemoveTechnician(ctx context.Context, sess *repo.Session, technicianID string) (domain.Deployment, error) {
	if !sess.Deployment.HasTechnician(technicianID) {
		return domain.Deployment{}, validationf("technician %s is not assigned", technicianID)
	}
	d, err := e.Store.RemovePersonnel(ctx, sess.Deployment.ID, technicianID)
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Repo.Reconcile(d)
	return sess.Deployment, nil
}

// AddMonitor adds a monitoring-team member, rejecting duplicates.
func (e *Engine) AddMonitor(ctx context.Context, sess *repo.Session, m domain.MonitoringMember) (domain.Deployment, error) {
	if m.ID == "" {
		return domain.Deployment{}, validationf("monitor id is required")
	}
	for _, existing := range sess.Deployment.MonitoringTeam {
		if existing.ID == m.ID {
			return domain.Deployment{}, validationf("monitor %s is already on the team", m.ID)
		}
	}
	d, err := e.Store.AddMonitoring(ctx, sess.Deployment.ID, m)
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Repo.Reconcile(d)
	return sess.Deployment, nil
}

// RemoveMonitor removes a monitoring-team member by user id.
func (e *Engine) RemoveMonitor(ctx context.Context, sess *repo.Session, userID string) (domain.Deployment, error) {
	d, err := e.Store.RemoveMonitoring(ctx, sess.Deployment.ID, userID)
	if err != nil {
		return domain.Deployment{}, err
	}
	e.Repo.Reconcile(d)
	return sess.Deployment, nil
}
