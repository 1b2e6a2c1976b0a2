package server

import (
	"skyops/internal/domain"
)

// CreateDeploymentRequest is the payload for creating a deployment.
type CreateDeploymentRequest struct {
	Title      string `json:"title"`
	Type       string `json:"type,omitempty" enum:"routine,emergency"`
	Date       string `json:"date" format:"date"`
	DaysOnSite int    `json:"days_on_site,omitempty"`
	SiteID     string `json:"site_id"`
	SiteName   string `json:"site_name,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
}

func (r CreateDeploymentRequest) toDomain() domain.Deployment {
	return domain.Deployment{
		Title:      r.Title,
		Type:       r.Type,
		Date:       r.Date,
		DaysOnSite: r.DaysOnSite,
		SiteID:     r.SiteID,
		SiteName:   r.SiteName,
		ClientID:   r.ClientID,
	}
}

// StatusChangeRequest asks for a lifecycle transition.
type StatusChangeRequest struct {
	Status domain.Status `json:"status" enum:"draft,scheduled,active,review,completed,archived,cancelled,delayed"`
}

// StatusResponse reports the authoritative status after a transition
// and the statuses reachable from it.
type StatusResponse struct {
	Status      domain.Status   `json:"status"`
	NextAllowed []domain.Status `json:"next_allowed,omitempty"`
}

// DayLedgerResponse is the reconciled schedule for a deployment.
type DayLedgerResponse struct {
	Days       []string `json:"days"`
	StagedDays []string `json:"staged_days,omitempty"`
}

// AddLogRequest records a pay entry for one technician on one day.
type AddLogRequest struct {
	Day          string  `json:"day" format:"date"`
	TechnicianID string  `json:"technician_id"`
	DailyPay     float64 `json:"daily_pay"`
	BonusPay     float64 `json:"bonus_pay,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// FillLogsRequest records entries for a technician on every remaining
// ledger day.
type FillLogsRequest struct {
	TechnicianID string  `json:"technician_id"`
	DailyPay     float64 `json:"daily_pay"`
	BonusPay     float64 `json:"bonus_pay,omitempty"`
}

// FillLogsResponse reports the committed prefix of a fill run.
type FillLogsResponse struct {
	Created []domain.DailyLog `json:"created"`
	Failed  []string          `json:"failed_days,omitempty"`
}

// EditLogRequest carries the editable fields of a log. Absent fields
// are untouched.
type EditLogRequest struct {
	DailyPay *float64 `json:"daily_pay,omitempty"`
	BonusPay *float64 `json:"bonus_pay,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// SendInvoicesBody selects recipients and dispatch options.
type SendInvoicesBody struct {
	PersonnelIDs []string `json:"personnel_ids,omitempty"`
	NotifyPilots *bool    `json:"notify_pilots,omitempty"`
	Note         string   `json:"note,omitempty"`
}

// NotifyBody asks for an assignment notification.
type NotifyBody struct {
	PersonID    string `json:"person_id"`
	Kind        string `json:"kind" enum:"crew,monitor,client_contact"`
	DisplayName string `json:"display_name,omitempty"`
}

// SavePricingBody persists a previously calculated snapshot.
type SavePricingBody struct {
	Snapshot domain.PricingSnapshot `json:"snapshot"`
}
