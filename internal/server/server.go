package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"skyops/internal/domain"
	"skyops/internal/engine"
	"skyops/internal/remote"
	"skyops/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"invalid status transition archived -> active"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the mission operations API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	hcfg := huma.DefaultConfig("Skyops API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerDeployments(group, cfg.Engine)
	registerDays(group, cfg.Engine)
	registerLogs(group, cfg.Engine)
	registerCrew(group, cfg.Engine)
	registerPricing(group, cfg.Engine)
	registerInvoices(group, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine and remote errors onto the API envelope. A
// remote rejection keeps its status and verbatim message.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", ve.Msg, nil)
	}
	var te engine.InvalidTransitionError
	if errors.As(err, &te) {
		return newAPIError(http.StatusConflict, "invalid_transition", te.Error(), map[string]any{
			"from": te.From,
			"to":   te.To,
		})
	}
	if errors.Is(err, engine.ErrStalePricing) {
		return newAPIError(http.StatusConflict, "stale_pricing", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var ae *remote.APIError
	if errors.As(err, &ae) {
		status := ae.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		return newAPIError(status, "remote_rejected", ae.Message, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// openFor returns the session for the deployment, opening it if it is
// not the current one. Opening another deployment discards the
// previous session's staged days and invoice selection.
func openFor(ctx context.Context, e *engine.Engine, id string) (*repo.Session, error) {
	if sess := e.Repo.OpenSession(); sess != nil && sess.Deployment.ID == id {
		return sess, nil
	}
	return e.Repo.Open(ctx, id)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerDeployments(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-deployments",
		Method:      http.MethodGet,
		Path:        "/deployments",
		Summary:     "List deployments",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
		Type   string `query:"type"`
	}) (*struct {
		Body []domain.Deployment `json:"body"`
	}, error) {
		items, err := e.Repo.List(ctx, remote.DeploymentFilter{
			Status: domain.Status(input.Status),
			Type:   input.Type,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Deployment `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-deployment",
		Method:        http.MethodPost,
		Path:          "/deployments",
		Summary:       "Create deployment",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateDeploymentRequest `json:"body"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		d, err := e.CreateDeployment(ctx, input.Body.toDomain())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-deployment",
		Method:      http.MethodGet,
		Path:        "/deployments/{deployment_id}",
		Summary:     "Open a deployment with logs and files",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := e.Repo.Open(ctx, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: sess.Deployment}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-deployment",
		Method:      http.MethodDelete,
		Path:        "/deployments/{deployment_id}",
		Summary:     "Delete deployment",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
	}) (*struct{}, error) {
		if err := e.DeleteDeployment(ctx, input.DeploymentID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-status",
		Method:      http.MethodPost,
		Path:        "/deployments/{deployment_id}/status",
		Summary:     "Apply a lifecycle transition",
	}, func(ctx context.Context, input *struct {
		DeploymentID string              `path:"deployment_id"`
		Body         StatusChangeRequest `json:"body"`
	}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		d, err := e.Transition(ctx, sess, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{Status: d.Status, NextAllowed: engine.NextAllowed(d.Status)}}, nil
	})
}

func registerDays(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-day-ledger",
		Method:      http.MethodGet,
		Path:        "/deployments/{deployment_id}/days",
		Summary:     "Reconciled day ledger",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
	}) (*struct {
		Body DayLedgerResponse `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DayLedgerResponse `json:"body"`
		}{Body: DayLedgerResponse{Days: e.Days(sess), StagedDays: sess.StagedDayList()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "stage-day",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/days",
		Summary:       "Stage an extra non-consecutive day",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		Body         struct {
			Day string `json:"day" format:"date"`
		} `json:"body"`
	}) (*struct {
		Body DayLedgerResponse `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.StageDay(sess, input.Body.Day); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DayLedgerResponse `json:"body"`
		}{Body: DayLedgerResponse{Days: e.Days(sess), StagedDays: sess.StagedDayList()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-day",
		Method:      http.MethodDelete,
		Path:        "/deployments/{deployment_id}/days/{day}",
		Summary:     "Delete a day and all of its logs",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		Day          string `path:"day"`
	}) (*struct {
		Body DayLedgerResponse `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.DeleteDay(ctx, sess, input.Day); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DayLedgerResponse `json:"body"`
		}{Body: DayLedgerResponse{Days: e.Days(sess), StagedDays: sess.StagedDayList()}}, nil
	})
}

func registerLogs(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-log",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/logs",
		Summary:       "Add a pay log entry",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string        `path:"deployment_id"`
		Body         AddLogRequest `json:"body"`
	}) (*struct {
		Body domain.DailyLog `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		l, err := e.AddEntry(ctx, sess, input.Body.Day, input.Body.TechnicianID, input.Body.DailyPay, input.Body.BonusPay, input.Body.Notes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DailyLog `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "fill-logs",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/logs/fill",
		Summary:       "Add entries for all remaining days",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string          `path:"deployment_id"`
		Body         FillLogsRequest `json:"body"`
	}) (*struct {
		Body FillLogsResponse `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.FillRemainingDays(ctx, sess, input.Body.TechnicianID, input.Body.DailyPay, input.Body.BonusPay)
		if err != nil {
			var ve engine.ValidationError
			if errors.As(err, &ve) {
				return nil, handleError(err)
			}
			// partial failure: the committed prefix is reported with
			// the failed days so the caller can resynchronize
			out := FillLogsResponse{Created: res.Succeeded}
			for _, f := range res.Failed {
				out.Failed = append(out.Failed, f.Item)
			}
			return nil, newAPIError(http.StatusConflict, "partial_failure", err.Error(), map[string]any{
				"created":     len(out.Created),
				"failed_days": out.Failed,
			})
		}
		return &struct {
			Body FillLogsResponse `json:"body"`
		}{Body: FillLogsResponse{Created: res.Succeeded}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-log",
		Method:      http.MethodPut,
		Path:        "/deployments/{deployment_id}/logs/{log_id}",
		Summary:     "Edit a pay log entry",
	}, func(ctx context.Context, input *struct {
		DeploymentID string         `path:"deployment_id"`
		LogID        string         `path:"log_id"`
		Body         EditLogRequest `json:"body"`
	}) (*struct {
		Body domain.DailyLog `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		l, err := e.EditEntry(ctx, sess, input.LogID, remote.LogPatch{
			DailyPay: input.Body.DailyPay,
			BonusPay: input.Body.BonusPay,
			Notes:    input.Body.Notes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DailyLog `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-log",
		Method:      http.MethodDelete,
		Path:        "/deployments/{deployment_id}/logs/{log_id}",
		Summary:     "Delete a pay log entry",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		LogID        string `path:"log_id"`
	}) (*struct{}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.DeleteEntry(ctx, sess, input.LogID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerCrew(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-technician",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/crew/{technician_id}",
		Summary:       "Assign a technician",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		TechnicianID string `path:"technician_id"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		d, err := e.AssignTechnician(ctx, sess, input.TechnicianID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-technician",
		Method:      http.MethodDelete,
		Path:        "/deployments/{deployment_id}/crew/{technician_id}",
		Summary:     "Remove a technician",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		TechnicianID string `path:"technician_id"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		d, err := e.RemoveTechnician(ctx, sess, input.TechnicianID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-monitor",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/monitoring",
		Summary:       "Add a monitoring team member",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string                  `path:"deployment_id"`
		Body         domain.MonitoringMember `json:"body"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		d, err := e.AddMonitor(ctx, sess, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-monitor",
		Method:      http.MethodDelete,
		Path:        "/deployments/{deployment_id}/monitoring/{user_id}",
		Summary:     "Remove a monitoring team member",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		UserID       string `path:"user_id"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		d, err := e.RemoveMonitor(ctx, sess, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: d}, nil
	})
}

func registerPricing(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "calculate-pricing",
		Method:      http.MethodGet,
		Path:        "/deployments/{deployment_id}/pricing",
		Summary:     "Calculate a pricing snapshot",
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		// -1 means no override supplied
		Markup int `query:"markup" default:"-1" minimum:"-1" maximum:"200"`
	}) (*struct {
		Body domain.PricingSnapshot `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		var override *int
		if input.Markup >= 0 {
			override = &input.Markup
		}
		snap, err := e.Calculate(ctx, sess, override)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.PricingSnapshot `json:"body"`
		}{Body: snap}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-pricing",
		Method:      http.MethodPut,
		Path:        "/deployments/{deployment_id}/pricing",
		Summary:     "Persist a pricing snapshot onto the deployment",
	}, func(ctx context.Context, input *struct {
		DeploymentID string          `path:"deployment_id"`
		Body         SavePricingBody `json:"body"`
	}) (*struct {
		Body domain.Deployment `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.SavePricing(ctx, sess, input.Body.Snapshot); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Deployment `json:"body"`
		}{Body: sess.Deployment}, nil
	})
}

func registerInvoices(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "generate-invoice-link",
		Method:        http.MethodPost,
		Path:          "/deployments/{deployment_id}/invoices/{personnel_id}",
		Summary:       "Generate an invoice link for one technician",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		DeploymentID string `path:"deployment_id"`
		PersonnelID  string `path:"personnel_id"`
		Body         struct {
			PaymentTermsDays int `json:"payment_terms_days"`
		} `json:"body"`
	}) (*struct {
		Body remote.InvoiceLink `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		link, err := e.GenerateLink(ctx, sess, input.PersonnelID, input.Body.PaymentTermsDays)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body remote.InvoiceLink `json:"body"`
		}{Body: link}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "send-invoices",
		Method:      http.MethodPost,
		Path:        "/deployments/{deployment_id}/invoices/send",
		Summary:     "Dispatch invoices to selected or all eligible technicians",
	}, func(ctx context.Context, input *struct {
		DeploymentID string           `path:"deployment_id"`
		Body         SendInvoicesBody `json:"body"`
	}) (*struct {
		Body remote.SendResult `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		notify := true
		if input.Body.NotifyPilots != nil {
			notify = *input.Body.NotifyPilots
		}
		res, err := e.SendBatch(ctx, sess, input.Body.PersonnelIDs, engine.SendOptions{
			NotifyPilots: notify,
			Note:         input.Body.Note,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body remote.SendResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "notify-assignment",
		Method:      http.MethodPost,
		Path:        "/deployments/{deployment_id}/notify",
		Summary:     "Send an assignment notification",
	}, func(ctx context.Context, input *struct {
		DeploymentID string     `path:"deployment_id"`
		Body         NotifyBody `json:"body"`
	}) (*struct {
		Body remote.SendResult `json:"body"`
	}, error) {
		sess, err := openFor(ctx, e, input.DeploymentID)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.NotifyAssignment(ctx, sess, input.Body.PersonID, engine.NotifyKind(input.Body.Kind), input.Body.DisplayName)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body remote.SendResult `json:"body"`
		}{Body: res}, nil
	})
}
