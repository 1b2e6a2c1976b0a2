package engine

import (
	"context"
	"fmt"
	"sync"

	"skyops/internal/domain"
	"skyops/internal/remote"
)

// fakeStore is a scripted in-memory remote.Store. Failure hooks let a
// test fail specific sub-operations; everything else behaves like a
// well-behaved server holding a single deployment.
type fakeStore struct {
	mu sync.Mutex

	deployment domain.Deployment
	files      []domain.File
	people     []domain.Personnel
	pricing    domain.PricingSnapshot
	sendResult remote.SendResult

	nextLogID int

	createLogErr func(l domain.DailyLog) error
	deleteLogErr func(logID string) error
	updateLogErr error
	updateErr    error

	createdLogs []domain.DailyLog
	deletedLogs []string
	lastSend    remote.SendInvoicesRequest
	lastNotice  remote.AssignmentNotice
	lastPricing remote.PricingPatch
	// pricingHook runs inside CalculatePricing, before the response is
	// returned, so a test can interleave a newer request.
	pricingHook func()
}

func (s *fakeStore) ListDeployments(ctx context.Context, filter remote.DeploymentFilter) ([]domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.deployment
	d.DailyLogs = nil
	return []domain.Deployment{d}, nil
}

func (s *fakeStore) GetDeployment(ctx context.Context, id string) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.deployment.ID {
		return domain.Deployment{}, &remote.APIError{Status: 404, Message: "deployment not found"}
	}
	d := s.deployment
	d.DailyLogs = append([]domain.DailyLog(nil), s.deployment.DailyLogs...)
	return d, nil
}

func (s *fakeStore) GetDeploymentFiles(ctx context.Context, id string) ([]domain.File, error) {
	return s.files, nil
}

func (s *fakeStore) CreateDeployment(ctx context.Context, d domain.Deployment) (domain.Deployment, error) {
	if d.ID == "" {
		d.ID = "dep-created"
	}
	return d, nil
}

func (s *fakeStore) UpdateDeployment(ctx context.Context, id string, patch remote.DeploymentPatch) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return domain.Deployment{}, s.updateErr
	}
	patch.Apply(&s.deployment)
	// update responses carry no sub-resources
	d := s.deployment
	d.DailyLogs = nil
	return d, nil
}

func (s *fakeStore) DeleteDeployment(ctx context.Context, id string) error {
	return nil
}

func (s *fakeStore) CreateDailyLog(ctx context.Context, deploymentID string, l domain.DailyLog) (domain.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createLogErr != nil {
		if err := s.createLogErr(l); err != nil {
			return domain.DailyLog{}, err
		}
	}
	s.nextLogID++
	l.ID = fmt.Sprintf("log-%d", s.nextLogID)
	s.deployment.DailyLogs = append(s.deployment.DailyLogs, l)
	s.createdLogs = append(s.createdLogs, l)
	return l, nil
}

func (s *fakeStore) UpdateDailyLog(ctx context.Context, deploymentID, logID string, patch remote.LogPatch) (domain.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateLogErr != nil {
		return domain.DailyLog{}, s.updateLogErr
	}
	for i := range s.deployment.DailyLogs {
		if s.deployment.DailyLogs[i].ID == logID {
			patch.Apply(&s.deployment.DailyLogs[i])
			return s.deployment.DailyLogs[i], nil
		}
	}
	return domain.DailyLog{}, &remote.APIError{Status: 404, Message: "log not found"}
}

func (s *fakeStore) DeleteDailyLog(ctx context.Context, deploymentID, logID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteLogErr != nil {
		if err := s.deleteLogErr(logID); err != nil {
			return err
		}
	}
	for i := range s.deployment.DailyLogs {
		if s.deployment.DailyLogs[i].ID == logID {
			s.deployment.DailyLogs = append(s.deployment.DailyLogs[:i], s.deployment.DailyLogs[i+1:]...)
			break
		}
	}
	s.deletedLogs = append(s.deletedLogs, logID)
	return nil
}

func (s *fakeStore) AssignPersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployment.TechnicianIDs = append(s.deployment.TechnicianIDs, technicianID)
	return s.deployment, nil
}

func (s *fakeStore) RemovePersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.deployment.TechnicianIDs {
		if id == technicianID {
			s.deployment.TechnicianIDs = append(s.deployment.TechnicianIDs[:i], s.deployment.TechnicianIDs[i+1:]...)
			break
		}
	}
	return s.deployment, nil
}

func (s *fakeStore) AddMonitoring(ctx context.Context, deploymentID string, m domain.MonitoringMember) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployment.MonitoringTeam = append(s.deployment.MonitoringTeam, m)
	return s.deployment, nil
}

func (s *fakeStore) RemoveMonitoring(ctx context.Context, deploymentID, userID string) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.deployment.MonitoringTeam {
		if m.ID == userID {
			s.deployment.MonitoringTeam = append(s.deployment.MonitoringTeam[:i], s.deployment.MonitoringTeam[i+1:]...)
			break
		}
	}
	return s.deployment, nil
}

func (s *fakeStore) ListPersonnel(ctx context.Context) ([]domain.Personnel, error) {
	return s.people, nil
}

func (s *fakeStore) CalculatePricing(ctx context.Context, deploymentID string, markupOverride *int) (domain.PricingSnapshot, error) {
	snap := s.pricing
	if markupOverride != nil {
		snap.MarkupPercentage = *markupOverride
	}
	if s.pricingHook != nil {
		s.pricingHook()
	}
	return snap, nil
}

func (s *fakeStore) SavePricing(ctx context.Context, deploymentID string, patch remote.PricingPatch) (domain.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPricing = patch
	s.deployment.BaseCost = patch.BaseCost
	s.deployment.MarkupPercentage = patch.MarkupPercentage
	s.deployment.ClientPrice = patch.ClientPrice
	s.deployment.TravelCosts = patch.TravelCosts
	s.deployment.EquipmentCosts = patch.EquipmentCosts
	return s.deployment, nil
}

func (s *fakeStore) CreateInvoice(ctx context.Context, deploymentID, personnelID string, paymentTermsDays int) (remote.InvoiceLink, error) {
	return remote.InvoiceLink{
		URL:              "https://invoices.example/" + deploymentID + "/" + personnelID,
		DeploymentID:     deploymentID,
		PersonnelID:      personnelID,
		PaymentTermsDays: paymentTermsDays,
	}, nil
}

func (s *fakeStore) SendInvoices(ctx context.Context, deploymentID string, req remote.SendInvoicesRequest) (remote.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSend = req
	if s.sendResult == (remote.SendResult{}) {
		return remote.SendResult{Message: "sent"}, nil
	}
	return s.sendResult, nil
}

func (s *fakeStore) NotifyAssignment(ctx context.Context, deploymentID string, req remote.AssignmentNotice) (remote.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNotice = req
	return remote.SendResult{Message: "notified " + req.PersonID}, nil
}

var _ remote.Store = (*fakeStore)(nil)
