package domain

import "time"

// Status is the lifecycle state of a deployment.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusReview    Status = "review"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
	StatusCancelled Status = "cancelled"
	StatusDelayed   Status = "delayed"
)

// Deployment types.
const (
	TypeRoutine   = "routine"
	TypeEmergency = "emergency"
)

type Deployment struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Type             string             `json:"type" enum:"routine,emergency"`
	Status           Status             `json:"status" enum:"draft,scheduled,active,review,completed,archived,cancelled,delayed"`
	Date             string             `json:"date" format:"date"`
	DaysOnSite       int                `json:"days_on_site"`
	SiteID           string             `json:"site_id"`
	SiteName         string             `json:"site_name,omitempty"`
	ClientID         string             `json:"client_id,omitempty"`
	TechnicianIDs    []string           `json:"technician_ids,omitempty"`
	MonitoringTeam   []MonitoringMember `json:"monitoring_team,omitempty"`
	DailyLogs        []DailyLog         `json:"daily_logs,omitempty"`
	BaseCost         float64            `json:"base_cost,omitempty"`
	MarkupPercentage int                `json:"markup_percentage,omitempty"`
	ClientPrice      float64            `json:"client_price,omitempty"`
	TravelCosts      float64            `json:"travel_costs,omitempty"`
	EquipmentCosts   float64            `json:"equipment_costs,omitempty"`
	FileCount        int                `json:"file_count,omitempty"`
	PersonnelCount   int                `json:"personnel_count,omitempty"`
}

// HasTechnician reports whether the technician is already assigned.
// TechnicianIDs is a set; assignment must never duplicate.
func (d Deployment) HasTechnician(id string) bool {
	for _, t := range d.TechnicianIDs {
		if t == id {
			return true
		}
	}
	return false
}

// DailyLog is one technician's pay record for one calendar day.
type DailyLog struct {
	ID           string  `json:"id"`
	DeploymentID string  `json:"deployment_id"`
	TechnicianID string  `json:"technician_id"`
	Date         string  `json:"date"`
	DailyPay     float64 `json:"daily_pay"`
	BonusPay     float64 `json:"bonus_pay,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Day returns the log's calendar day normalized to YYYY-MM-DD,
// discarding any time-of-day the remote store kept with it.
func (l DailyLog) Day() string {
	return DayOf(l.Date)
}

// DayOf truncates a date or RFC3339 timestamp to its calendar day.
func DayOf(date string) string {
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format("2006-01-02")
	}
	if len(date) >= 10 {
		return date[:10]
	}
	return date
}

type MonitoringMember struct {
	ID          string `json:"id"`
	Role        string `json:"role,omitempty"`
	MissionRole string `json:"mission_role,omitempty"`
}

// Personnel statuses that count as administratively assignable.
const (
	PersonnelActive   = "Active"
	PersonnelInactive = "Inactive"
	PersonnelOnLeave  = "On Leave"
)

// Personnel is a crew member record, read-only to this engine.
// Banking fields are only consumed by invoice rendering downstream.
type Personnel struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Role         string  `json:"role,omitempty"`
	Status       string  `json:"status"`
	DailyPayRate float64 `json:"daily_pay_rate,omitempty"`
	BankName     string  `json:"bank_name,omitempty"`
	BankAccount  string  `json:"bank_account,omitempty"`
}

// Assignable reports whether the person can be scheduled onto a day.
// Inactive and On Leave crew stay assignable for back-dated records.
func (p Personnel) Assignable() bool {
	switch p.Status {
	case PersonnelActive, PersonnelInactive, PersonnelOnLeave:
		return true
	}
	return false
}

// PricingSnapshot is a derived cost breakdown. It is never persisted
// until an explicit save writes its summary fields onto the deployment.
type PricingSnapshot struct {
	LaborCost        float64 `json:"labor_cost"`
	LodgingCost      float64 `json:"lodging_cost"`
	TravelCost       float64 `json:"travel_cost"`
	EquipmentCost    float64 `json:"equipment_cost"`
	TotalBaseCost    float64 `json:"total_base_cost"`
	MarkupPercentage int     `json:"markup_percentage"`
	RecommendedPrice float64 `json:"recommended_price"`
	EstimatedMargin  float64 `json:"estimated_margin"`
	EstimatedProfit  float64 `json:"estimated_profit"`
}

// File is a deployment attachment reference. Upload and storage are
// handled elsewhere; the engine only tracks the count.
type File struct {
	ID           string `json:"id"`
	DeploymentID string `json:"deployment_id"`
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	UploadedAt   string `json:"uploaded_at,omitempty" format:"date-time"`
}
