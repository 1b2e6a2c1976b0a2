package remote

import (
	"context"
	"fmt"

	"skyops/internal/domain"
)

// Store is the logical contract of the remote data store. The Client
// implements it over HTTP; tests substitute scripted fakes.
type Store interface {
	ListDeployments(ctx context.Context, filter DeploymentFilter) ([]domain.Deployment, error)
	GetDeployment(ctx context.Context, id string) (domain.Deployment, error)
	GetDeploymentFiles(ctx context.Context, id string) ([]domain.File, error)
	CreateDeployment(ctx context.Context, d domain.Deployment) (domain.Deployment, error)
	UpdateDeployment(ctx context.Context, id string, patch DeploymentPatch) (domain.Deployment, error)
	DeleteDeployment(ctx context.Context, id string) error

	CreateDailyLog(ctx context.Context, deploymentID string, l domain.DailyLog) (domain.DailyLog, error)
	UpdateDailyLog(ctx context.Context, deploymentID, logID string, patch LogPatch) (domain.DailyLog, error)
	DeleteDailyLog(ctx context.Context, deploymentID, logID string) error

	AssignPersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error)
	RemovePersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error)
	AddMonitoring(ctx context.Context, deploymentID string, m domain.MonitoringMember) (domain.Deployment, error)
	RemoveMonitoring(ctx context.Context, deploymentID, userID string) (domain.Deployment, error)
	ListPersonnel(ctx context.Context) ([]domain.Personnel, error)

	CalculatePricing(ctx context.Context, deploymentID string, markupOverride *int) (domain.PricingSnapshot, error)
	SavePricing(ctx context.Context, deploymentID string, patch PricingPatch) (domain.Deployment, error)

	CreateInvoice(ctx context.Context, deploymentID, personnelID string, paymentTermsDays int) (InvoiceLink, error)
	SendInvoices(ctx context.Context, deploymentID string, req SendInvoicesRequest) (SendResult, error)
	NotifyAssignment(ctx context.Context, deploymentID string, req AssignmentNotice) (SendResult, error)
}

// DeploymentFilter narrows list requests.
type DeploymentFilter struct {
	Status domain.Status `json:"status,omitempty"`
	Type   string        `json:"type,omitempty"`
}

// DeploymentPatch carries a partial update. Nil fields are untouched.
type DeploymentPatch struct {
	Title            *string        `json:"title,omitempty"`
	Type             *string        `json:"type,omitempty"`
	Status           *domain.Status `json:"status,omitempty"`
	Date             *string        `json:"date,omitempty"`
	DaysOnSite       *int           `json:"days_on_site,omitempty"`
	SiteID           *string        `json:"site_id,omitempty"`
	SiteName         *string        `json:"site_name,omitempty"`
	ClientID         *string        `json:"client_id,omitempty"`
	BaseCost         *float64       `json:"base_cost,omitempty"`
	MarkupPercentage *int           `json:"markup_percentage,omitempty"`
	ClientPrice      *float64       `json:"client_price,omitempty"`
	TravelCosts      *float64       `json:"travel_costs,omitempty"`
	EquipmentCosts   *float64       `json:"equipment_costs,omitempty"`
}

// Apply merges the patch into a deployment in place.
func (p DeploymentPatch) Apply(d *domain.Deployment) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.DaysOnSite != nil {
		d.DaysOnSite = *p.DaysOnSite
	}
	if p.SiteID != nil {
		d.SiteID = *p.SiteID
	}
	if p.SiteName != nil {
		d.SiteName = *p.SiteName
	}
	if p.ClientID != nil {
		d.ClientID = *p.ClientID
	}
	if p.BaseCost != nil {
		d.BaseCost = *p.BaseCost
	}
	if p.MarkupPercentage != nil {
		d.MarkupPercentage = *p.MarkupPercentage
	}
	if p.ClientPrice != nil {
		d.ClientPrice = *p.ClientPrice
	}
	if p.TravelCosts != nil {
		d.TravelCosts = *p.TravelCosts
	}
	if p.EquipmentCosts != nil {
		d.EquipmentCosts = *p.EquipmentCosts
	}
}

// LogPatch carries a partial daily log update.
type LogPatch struct {
	DailyPay *float64 `json:"daily_pay,omitempty"`
	BonusPay *float64 `json:"bonus_pay,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// Apply merges the patch into a log in place.
func (p LogPatch) Apply(l *domain.DailyLog) {
	if p.DailyPay != nil {
		l.DailyPay = *p.DailyPay
	}
	if p.BonusPay != nil {
		l.BonusPay = *p.BonusPay
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
}

// PricingPatch is the subset of deployment fields a pricing save writes.
type PricingPatch struct {
	BaseCost         float64 `json:"base_cost"`
	MarkupPercentage int     `json:"markup_percentage"`
	ClientPrice      float64 `json:"client_price"`
	TravelCosts      float64 `json:"travel_costs"`
	EquipmentCosts   float64 `json:"equipment_costs"`
}

// InvoiceLink is an opaque invoice artifact issued by the remote
// system, keyed by (deployment, personnel, payment terms). Regenerating
// for the same technician always returns a usable link.
type InvoiceLink struct {
	URL              string `json:"url"`
	DeploymentID     string `json:"deployment_id"`
	PersonnelID      string `json:"personnel_id"`
	PaymentTermsDays int    `json:"payment_terms_days"`
	IssuedAt         string `json:"issued_at,omitempty" format:"date-time"`
}

// SendInvoicesRequest dispatches invoices for a deployment. An empty
// PersonnelIDs list means "all eligible technicians".
type SendInvoicesRequest struct {
	PersonnelIDs []string `json:"personnel_ids,omitempty"`
	NotifyPilots bool     `json:"notify_pilots"`
	Note         string   `json:"note,omitempty"`
}

// AssignmentNotice asks the remote system to send an assignment
// notification to one audience kind.
type AssignmentNotice struct {
	PersonID    string `json:"person_id"`
	Type        string `json:"type" enum:"crew,monitor,client_contact"`
	DisplayName string `json:"display_name,omitempty"`
}

// SendResult reports the outcome of a notification or invoice send.
// Mock means the email transport is simulated (logged, not delivered);
// that is still success, not failure.
type SendResult struct {
	Message string `json:"message"`
	Mock    bool   `json:"mock,omitempty"`
}

// APIError wraps a non-success response from the remote store. Message
// is the store's human-readable explanation, propagated verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote store: status=%d message=%s", e.Status, e.Message)
}
