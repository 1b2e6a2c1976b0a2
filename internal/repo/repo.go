package repo

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/remote"
)

var ErrNotFound = errors.New("not found")

// Session is the working state for one open deployment. It is created
// by Open and discarded when another deployment is opened, taking any
// staged days and invoice selection with it.
type Session struct {
	Deployment domain.Deployment
	Files      []domain.File
	// StagedDays are extra schedule days added locally and not yet
	// backed by any persisted log.
	StagedDays map[string]bool
	// Selection is the invoice multi-select set.
	Selection map[string]bool
}

// StagedDayList returns the staged days as a slice, order unspecified.
func (s *Session) StagedDayList() []string {
	out := make([]string, 0, len(s.StagedDays))
	for d := range s.StagedDays {
		out = append(out, d)
	}
	return out
}

// Repository holds the authoritative local copy of deployments and the
// single open session. It serves one logical caller at a time; the
// engine has no concurrent multi-user access by design, so no locking
// happens here.
type Repository struct {
	store remote.Store
	log   *zap.Logger

	deployments []domain.Deployment
	open        *Session
}

func New(store remote.Store, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{store: store, log: log}
}

// List fetches the deployment list from the remote store and refreshes
// the local cache.
func (r *Repository) List(ctx context.Context, filter remote.DeploymentFilter) ([]domain.Deployment, error) {
	items, err := r.store.ListDeployments(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.deployments = items
	return items, nil
}

// Cached returns the last fetched list without a round-trip.
func (r *Repository) Cached() []domain.Deployment {
	return r.deployments
}

// Open fetches the full deployment plus its files and makes it the
// open session. The cached list entry is never trusted here because
// log and file sub-resources are not embedded in the list view. Any
// previously open session is discarded along with its staged days.
func (r *Repository) Open(ctx context.Context, id string) (*Session, error) {
	d, err := r.store.GetDeployment(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := r.store.GetDeploymentFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	d.FileCount = len(files)
	r.replaceListEntry(d)
	r.open = &Session{
		Deployment: d,
		Files:      files,
		StagedDays: map[string]bool{},
		Selection:  map[string]bool{},
	}
	r.log.Debug("deployment opened",
		zap.String("deployment_id", id),
		zap.Int("logs", len(d.DailyLogs)),
		zap.Int("files", len(files)),
	)
	return r.open, nil
}

// OpenSession returns the current session, or nil if none is open.
func (r *Repository) OpenSession() *Session {
	return r.open
}

// Refresh refetches the open deployment in place, keeping staged days
// and the invoice selection. Used after saves where the server merges
// fields the client did not send.
func (r *Repository) Refresh(ctx context.Context, sess *Session) error {
	d, err := r.store.GetDeployment(ctx, sess.Deployment.ID)
	if err != nil {
		return err
	}
	files, err := r.store.GetDeploymentFiles(ctx, sess.Deployment.ID)
	if err != nil {
		return err
	}
	d.FileCount = len(files)
	sess.Deployment = d
	sess.Files = files
	r.replaceListEntry(d)
	return nil
}

// ApplyLocal merges a patch optimistically into the cached list entry
// and, if it matches, the open session.
func (r *Repository) ApplyLocal(id string, patch remote.DeploymentPatch) {
	for i := range r.deployments {
		if r.deployments[i].ID == id {
			patch.Apply(&r.deployments[i])
			break
		}
	}
	if r.open != nil && r.open.Deployment.ID == id {
		patch.Apply(&r.open.Deployment)
	}
}

// Commit sends the patch to the remote store and reconciles local
// state with the authoritative response.
func (r *Repository) Commit(ctx context.Context, id string, patch remote.DeploymentPatch) (domain.Deployment, error) {
	d, err := r.store.UpdateDeployment(ctx, id, patch)
	if err != nil {
		return domain.Deployment{}, err
	}
	r.reconcile(d)
	return d, nil
}

// reconcile installs a server-returned deployment locally. Update and
// list responses do not embed sub-resources, so existing logs are kept
// when the response carries none.
func (r *Repository) reconcile(d domain.Deployment) {
	if r.open != nil && r.open.Deployment.ID == d.ID {
		if d.DailyLogs == nil {
			d.DailyLogs = r.open.Deployment.DailyLogs
		}
		if d.FileCount == 0 {
			d.FileCount = r.open.Deployment.FileCount
		}
		r.open.Deployment = d
	}
	r.replaceListEntry(d)
}

// Reconcile is the exported form used by engine operations whose
// remote calls return a full deployment (crew and monitoring changes).
func (r *Repository) Reconcile(d domain.Deployment) {
	r.reconcile(d)
}

func (r *Repository) replaceListEntry(d domain.Deployment) {
	for i := range r.deployments {
		if r.deployments[i].ID == d.ID {
			if d.DailyLogs == nil {
				d.DailyLogs = r.deployments[i].DailyLogs
			} else {
				// the list copy gets its own backing so in-place log
				// removals cannot alias the open session's slice
				d.DailyLogs = append([]domain.DailyLog(nil), d.DailyLogs...)
			}
			r.deployments[i] = d
			return
		}
	}
}

// Add appends a freshly created deployment to the cached list.
func (r *Repository) Add(d domain.Deployment) {
	r.deployments = append(r.deployments, d)
}

// Remove drops a deployment from the cache and closes its session if
// it was the open one.
func (r *Repository) Remove(id string) {
	for i := range r.deployments {
		if r.deployments[i].ID == id {
			r.deployments = append(r.deployments[:i], r.deployments[i+1:]...)
			break
		}
	}
	if r.open != nil && r.open.Deployment.ID == id {
		r.open = nil
	}
}

// AppendLog adds a server-returned log to the open session and the
// list-view copy.
func (r *Repository) AppendLog(l domain.DailyLog) {
	if r.open != nil && r.open.Deployment.ID == l.DeploymentID {
		r.open.Deployment.DailyLogs = append(r.open.Deployment.DailyLogs, l)
	}
	for i := range r.deployments {
		if r.deployments[i].ID == l.DeploymentID {
			r.deployments[i].DailyLogs = append(r.deployments[i].DailyLogs, l)
			return
		}
	}
}

// ReplaceLog swaps a log by id in the open session and the list copy.
func (r *Repository) ReplaceLog(l domain.DailyLog) {
	replace := func(logs []domain.DailyLog) {
		for i := range logs {
			if logs[i].ID == l.ID {
				logs[i] = l
				return
			}
		}
	}
	if r.open != nil && r.open.Deployment.ID == l.DeploymentID {
		replace(r.open.Deployment.DailyLogs)
	}
	for i := range r.deployments {
		if r.deployments[i].ID == l.DeploymentID {
			replace(r.deployments[i].DailyLogs)
			return
		}
	}
}

// RemoveLog drops a log by id from the open session and the list copy.
func (r *Repository) RemoveLog(deploymentID, logID string) {
	remove := func(logs []domain.DailyLog) []domain.DailyLog {
		for i := range logs {
			if logs[i].ID == logID {
				return append(logs[:i], logs[i+1:]...)
			}
		}
		return logs
	}
	if r.open != nil && r.open.Deployment.ID == deploymentID {
		r.open.Deployment.DailyLogs = remove(r.open.Deployment.DailyLogs)
	}
	for i := range r.deployments {
		if r.deployments[i].ID == deploymentID {
			r.deployments[i].DailyLogs = remove(r.deployments[i].DailyLogs)
			return
		}
	}
}
