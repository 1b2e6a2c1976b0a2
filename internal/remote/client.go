package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"skyops/internal/domain"
)

// ClientConfig configures the HTTP client for the remote data store.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// Client talks to the remote data store over HTTP. Every response is
// wrapped in a {success, message, data} envelope.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

var _ Store = (*Client)(nil)

// NewClient creates a client with retries and timeouts applied.
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		hc.SetHeader("X-Api-Key", cfg.APIKey)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: hc, log: log}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	reqID := uuid.NewString()
	req := c.http.R().SetContext(ctx).SetHeader("X-Request-Id", reqID)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Error("remote call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
	}
	if !env.Success || resp.StatusCode() >= 300 {
		c.log.Warn("remote call rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", env.Message),
		)
		return &APIError{Status: resp.StatusCode(), Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) ListDeployments(ctx context.Context, filter DeploymentFilter) ([]domain.Deployment, error) {
	path := "/deployments"
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Deployment
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetDeployment(ctx context.Context, id string) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodGet, "/deployments/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) GetDeploymentFiles(ctx context.Context, id string) ([]domain.File, error) {
	var out []domain.File
	err := c.call(ctx, http.MethodGet, "/deployments/"+url.PathEscape(id)+"/files", nil, &out)
	return out, err
}

func (c *Client) CreateDeployment(ctx context.Context, d domain.Deployment) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodPost, "/deployments", d, &out)
	return out, err
}

func (c *Client) UpdateDeployment(ctx context.Context, id string, patch DeploymentPatch) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodPut, "/deployments/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) DeleteDeployment(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/deployments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateDailyLog(ctx context.Context, deploymentID string, l domain.DailyLog) (domain.DailyLog, error) {
	var out domain.DailyLog
	err := c.call(ctx, http.MethodPost, c.deploymentPath(deploymentID, "daily-logs"), l, &out)
	return out, err
}

func (c *Client) UpdateDailyLog(ctx context.Context, deploymentID, logID string, patch LogPatch) (domain.DailyLog, error) {
	var out domain.DailyLog
	err := c.call(ctx, http.MethodPut, c.deploymentPath(deploymentID, "daily-logs/"+url.PathEscape(logID)), patch, &out)
	return out, err
}

func (c *Client) DeleteDailyLog(ctx context.Context, deploymentID, logID string) error {
	return c.call(ctx, http.MethodDelete, c.deploymentPath(deploymentID, "daily-logs/"+url.PathEscape(logID)), nil, nil)
}

func (c *Client) AssignPersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodPost, c.deploymentPath(deploymentID, "personnel/"+url.PathEscape(technicianID)), nil, &out)
	return out, err
}

func (c *Client) RemovePersonnel(ctx context.Context, deploymentID, technicianID string) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodDelete, c.deploymentPath(deploymentID, "personnel/"+url.PathEscape(technicianID)), nil, &out)
	return out, err
}

func (c *Client) AddMonitoring(ctx context.Context, deploymentID string, m domain.MonitoringMember) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodPost, c.deploymentPath(deploymentID, "monitoring"), m, &out)
	return out, err
}

func (c *Client) RemoveMonitoring(ctx context.Context, deploymentID, userID string) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodDelete, c.deploymentPath(deploymentID, "monitoring/"+url.PathEscape(userID)), nil, &out)
	return out, err
}

func (c *Client) ListPersonnel(ctx context.Context) ([]domain.Personnel, error) {
	var out []domain.Personnel
	err := c.call(ctx, http.MethodGet, "/personnel", nil, &out)
	return out, err
}

func (c *Client) CalculatePricing(ctx context.Context, deploymentID string, markupOverride *int) (domain.PricingSnapshot, error) {
	body := map[string]any{"deployment_id": deploymentID}
	if markupOverride != nil {
		body["markup_override"] = *markupOverride
	}
	var out domain.PricingSnapshot
	err := c.call(ctx, http.MethodPost, "/pricing/calculate", body, &out)
	return out, err
}

func (c *Client) SavePricing(ctx context.Context, deploymentID string, patch PricingPatch) (domain.Deployment, error) {
	var out domain.Deployment
	err := c.call(ctx, http.MethodPut, c.deploymentPath(deploymentID, "pricing"), patch, &out)
	return out, err
}

func (c *Client) CreateInvoice(ctx context.Context, deploymentID, personnelID string, paymentTermsDays int) (InvoiceLink, error) {
	body := map[string]any{
		"deployment_id":      deploymentID,
		"personnel_id":       personnelID,
		"payment_terms_days": paymentTermsDays,
	}
	var out InvoiceLink
	err := c.call(ctx, http.MethodPost, "/invoices", body, &out)
	return out, err
}

func (c *Client) SendInvoices(ctx context.Context, deploymentID string, req SendInvoicesRequest) (SendResult, error) {
	var out SendResult
	err := c.call(ctx, http.MethodPost, c.deploymentPath(deploymentID, "invoices/send"), req, &out)
	return out, err
}

func (c *Client) NotifyAssignment(ctx context.Context, deploymentID string, req AssignmentNotice) (SendResult, error) {
	var out SendResult
	err := c.call(ctx, http.MethodPost, c.deploymentPath(deploymentID, "notify-assignment"), req, &out)
	return out, err
}

func (c *Client) deploymentPath(id, rest string) string {
	return "/deployments/" + url.PathEscape(id) + "/" + rest
}
