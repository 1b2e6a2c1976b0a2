package engine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/remote"
	"skyops/internal/repo"
)

// NotifyKind selects the audience of an assignment notification.
type NotifyKind string

const (
	NotifyCrew          NotifyKind = "crew"
	NotifyMonitor       NotifyKind = "monitor"
	NotifyClientContact NotifyKind = "client_contact"
)

// SendOptions tune a batch dispatch. NotifyPilots=false generates
// invoices without emailing them.
type SendOptions struct {
	NotifyPilots bool
	Note         string
}

// Earnings sums dailyPay+bonusPay recorded for one technician.
func Earnings(d domain.Deployment, technicianID string) float64 {
	var total float64
	for _, l := range d.DailyLogs {
		if l.TechnicianID == technicianID {
			total += l.DailyPay + l.BonusPay
		}
	}
	return total
}

// GenerateLink issues (or reissues) an invoice link for one
// technician. Regeneration is idempotent on the remote side; there is
// no need to look for an existing link first. The remote store rejects
// zero-earnings technicians, so that case is caught locally with a
// readable message before any call.
func (e *Engine) GenerateLink(ctx context.Context, sess *repo.Session, personnelID string, paymentTermsDays int) (remote.InvoiceLink, error) {
	if personnelID == "" {
		return remote.InvoiceLink{}, validationf("personnel is required")
	}
	if Earnings(sess.Deployment, personnelID) == 0 {
		return remote.InvoiceLink{}, validationf("technician %s has no recorded earnings on this deployment", personnelID)
	}
	link, err := e.Store.CreateInvoice(ctx, sess.Deployment.ID, personnelID, paymentTermsDays)
	if err != nil {
		return remote.InvoiceLink{}, err
	}
	e.Log.Info("invoice link generated",
		zap.String("deployment_id", sess.Deployment.ID),
		zap.String("personnel_id", personnelID),
		zap.Int("payment_terms_days", paymentTermsDays),
	)
	return link, nil
}

// SendBatch dispatches invoices. Selection precedence: an explicitly
// supplied id list wins over the session multi-select set, which wins
// over "everyone eligible" (an empty list sent to the store).
func (e *Engine) SendBatch(ctx context.Context, sess *repo.Session, personnelIDs []string, opts SendOptions) (remote.SendResult, error) {
	ids := personnelIDs
	if len(ids) == 0 && len(sess.Selection) > 0 {
		for id := range sess.Selection {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}
	res, err := e.Store.SendInvoices(ctx, sess.Deployment.ID, remote.SendInvoicesRequest{
		PersonnelIDs: ids,
		NotifyPilots: opts.NotifyPilots,
		Note:         opts.Note,
	})
	if err != nil {
		return remote.SendResult{}, err
	}
	e.Log.Info("invoices dispatched",
		zap.String("deployment_id", sess.Deployment.ID),
		zap.Int("explicit_recipients", len(ids)),
		zap.Bool("mock", res.Mock),
	)
	return res, nil
}

// NotifyAssignment sends a "you have been assigned" notification for
// one person. Mock transport is surfaced to the caller, not treated as
// failure.
func (e *Engine) NotifyAssignment(ctx context.Context, sess *repo.Session, personID string, kind NotifyKind, displayName string) (remote.SendResult, error) {
	switch kind {
	case NotifyCrew, NotifyMonitor, NotifyClientContact:
	default:
		return remote.SendResult{}, validationf("unknown notification kind %q", kind)
	}
	if personID == "" {
		return remote.SendResult{}, validationf("person is required")
	}
	return e.Store.NotifyAssignment(ctx, sess.Deployment.ID, remote.AssignmentNotice{
		PersonID:    personID,
		Type:        string(kind),
		DisplayName: displayName,
	})
}
