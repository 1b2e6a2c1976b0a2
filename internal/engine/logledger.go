package engine

import (
	"context"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/remote"
	"skyops/internal/repo"
)

// AddEntry records one technician's pay for one day. Blank technician
// and zero daily pay are rejected before any network call, as is a
// second entry for the same technician and day.
func (e *Engine) AddEntry(ctx context.Context, sess *repo.Session, day, technicianID string, dailyPay, bonusPay float64, notes string) (domain.DailyLog, error) {
	if technicianID == "" {
		return domain.DailyLog{}, validationf("technician is required")
	}
	if dailyPay <= 0 {
		return domain.DailyLog{}, validationf("daily pay must be greater than zero")
	}
	if hasEntry(sess.Deployment, technicianID, day) {
		return domain.DailyLog{}, validationf("technician %s already has an entry for %s", technicianID, day)
	}
	l, err := e.Store.CreateDailyLog(ctx, sess.Deployment.ID, domain.DailyLog{
		DeploymentID: sess.Deployment.ID,
		TechnicianID: technicianID,
		Date:         day,
		DailyPay:     dailyPay,
		BonusPay:     bonusPay,
		Notes:        notes,
	})
	if err != nil {
		return domain.DailyLog{}, err
	}
	e.Repo.AppendLog(l)
	// a staged day is persisted once a log backs it
	delete(sess.StagedDays, domain.DayOf(day))
	return l, nil
}

// FillRemainingDays adds an entry for the technician on every ledger
// day that does not already have one, strictly sequentially so a
// failure leaves a well-defined committed prefix. No rollback; the
// caller should refetch after a partial failure.
func (e *Engine) FillRemainingDays(ctx context.Context, sess *repo.Session, technicianID string, dailyPay, bonusPay float64) (BatchResult[string, domain.DailyLog], error) {
	if technicianID == "" {
		return BatchResult[string, domain.DailyLog]{}, validationf("technician is required")
	}
	if dailyPay <= 0 {
		return BatchResult[string, domain.DailyLog]{}, validationf("daily pay must be greater than zero")
	}
	var remaining []string
	for _, day := range e.Days(sess) {
		if !hasEntry(sess.Deployment, technicianID, day) {
			remaining = append(remaining, day)
		}
	}
	res := runBatch(ctx, remaining, Sequential, func(ctx context.Context, day string) (domain.DailyLog, error) {
		l, err := e.Store.CreateDailyLog(ctx, sess.Deployment.ID, domain.DailyLog{
			DeploymentID: sess.Deployment.ID,
			TechnicianID: technicianID,
			Date:         day,
			DailyPay:     dailyPay,
			BonusPay:     bonusPay,
		})
		if err != nil {
			return domain.DailyLog{}, err
		}
		e.Repo.AppendLog(l)
		delete(sess.StagedDays, day)
		return l, nil
	})
	if err := res.Err("fill remaining days"); err != nil {
		e.Log.Warn("fill remaining days stopped early",
			zap.String("deployment_id", sess.Deployment.ID),
			zap.String("technician_id", technicianID),
			zap.Int("committed", len(res.Succeeded)),
		)
		return res, err
	}
	return res, nil
}

// EditEntry applies the patch optimistically, then commits. On failure
// the optimistic change is rolled back to the pre-edit snapshot.
func (e *Engine) EditEntry(ctx context.Context, sess *repo.Session, logID string, patch remote.LogPatch) (domain.DailyLog, error) {
	prev, ok := findLog(sess.Deployment, logID)
	if !ok {
		return domain.DailyLog{}, validationf("log %s not found on this deployment", logID)
	}
	if patch.DailyPay != nil && *patch.DailyPay <= 0 {
		return domain.DailyLog{}, validationf("daily pay must be greater than zero")
	}
	draft := prev
	patch.Apply(&draft)
	e.Repo.ReplaceLog(draft)

	l, err := e.Store.UpdateDailyLog(ctx, sess.Deployment.ID, logID, patch)
	if err != nil {
		e.Repo.ReplaceLog(prev)
		return domain.DailyLog{}, err
	}
	e.Repo.ReplaceLog(l)
	return l, nil
}

// DeleteEntry commits the delete, then removes the entry locally.
func (e *Engine) DeleteEntry(ctx context.Context, sess *repo.Session, logID string) error {
	if _, ok := findLog(sess.Deployment, logID); !ok {
		return validationf("log %s not found on this deployment", logID)
	}
	if err := e.Store.DeleteDailyLog(ctx, sess.Deployment.ID, logID); err != nil {
		return err
	}
	e.Repo.RemoveLog(sess.Deployment.ID, logID)
	return nil
}

// DeleteAllForDay deletes every log for the day with parallel requests.
// Deletes that reached the server before a failure are not rolled
// back, so the aggregate error tells the caller to resynchronize.
func (e *Engine) DeleteAllForDay(ctx context.Context, sess *repo.Session, day string) error {
	var ids []string
	for _, l := range logsForDay(sess.Deployment, day) {
		ids = append(ids, l.ID)
	}
	res := runBatch(ctx, ids, Parallel, func(ctx context.Context, logID string) (string, error) {
		if err := e.Store.DeleteDailyLog(ctx, sess.Deployment.ID, logID); err != nil {
			return "", err
		}
		return logID, nil
	})
	// local removal after the batch; the repository is not safe for
	// concurrent mutation
	for _, logID := range res.Succeeded {
		e.Repo.RemoveLog(sess.Deployment.ID, logID)
	}
	return res.Err("delete logs for day " + day)
}

// AssignablePersonnel filters people to those administratively
// assignable on the day: active, inactive or on leave, and without an
// existing entry for that exact day.
func (e *Engine) AssignablePersonnel(sess *repo.Session, people []domain.Personnel, day string) []domain.Personnel {
	var out []domain.Personnel
	for _, p := range people {
		if !p.Assignable() {
			continue
		}
		if hasEntry(sess.Deployment, p.ID, day) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasEntry(d domain.Deployment, technicianID, day string) bool {
	day = domain.DayOf(day)
	for _, l := range d.DailyLogs {
		if l.TechnicianID == technicianID && l.Day() == day {
			return true
		}
	}
	return false
}

func findLog(d domain.Deployment, logID string) (domain.DailyLog, bool) {
	for _, l := range d.DailyLogs {
		if l.ID == logID {
			return l, true
		}
	}
	return domain.DailyLog{}, false
}
