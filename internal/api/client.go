package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"procdeck/internal/domain"
)

// Client is a minimal JSON client for the process-tracking REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration

	tokens Tokens
	// OnTokens is invoked after a successful login or silent refresh so the
	// caller can persist the new pair.
	OnTokens func(Tokens)
}

// Tokens is the access/refresh pair issued by the auth endpoints.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// SetTokens installs a previously stored token pair.
func (c *Client) SetTokens(t Tokens) {
	c.tokens = t
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

func endpointFor(t domain.ProcessType) string {
	if t == domain.TypeScrum {
		return "scrum-processes"
	}
	return "pmbok-processes"
}

// ListProcesses fetches all base processes of one kind, with embedded
// customizations.
func (c *Client) ListProcesses(ctx context.Context, t domain.ProcessType) ([]domain.Process, error) {
	var resp []domain.Process
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/", endpointFor(t)), nil, &resp)
	if err != nil {
		return nil, err
	}
	for i := range resp {
		resp[i].Type = t
	}
	return resp, nil
}

// GetProcess fetches a single process detail.
func (c *Client) GetProcess(ctx context.Context, t domain.ProcessType, id int) (domain.Process, error) {
	var resp domain.Process
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d/", endpointFor(t), id), nil, &resp)
	resp.Type = t
	return resp, err
}

// UpdateKanbanStatus patches the base Kanban status of a process.
func (c *Client) UpdateKanbanStatus(ctx context.Context, t domain.ProcessType, id int, status domain.KanbanStatus) error {
	body := map[string]any{"kanban_status": status}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/%d/update-kanban-status/", endpointFor(t), id), body, nil)
}

// BulkUpdateKanbanStatus moves a batch of processes of one kind in a single
// call, used by sprint stage activation.
func (c *Client) BulkUpdateKanbanStatus(ctx context.Context, t domain.ProcessType, ids []int, status domain.KanbanStatus) error {
	body := map[string]any{"process_ids": ids, "kanban_status": status}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/bulk-update-kanban-status/", endpointFor(t)), body, nil)
}

// UpdateITTOs replaces one or more ITTO lists on the base process record.
func (c *Client) UpdateITTOs(ctx context.Context, t domain.ProcessType, id int, lists map[domain.Category][]domain.ITTOItem) error {
	body := make(map[string]any, len(lists))
	for cat, items := range lists {
		body[string(cat)] = items
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/%d/update-ittos/", endpointFor(t), id), body, nil)
}

// CustomizationUpsert is the create-or-update payload for POST /customizations/.
// The backend matches on (process_id, process_type, country_code).
type CustomizationUpsert struct {
	ProcessID    int                 `json:"process_id"`
	ProcessType  domain.ProcessType  `json:"process_type"`
	CountryCode  string              `json:"country_code"`
	Inputs       []domain.ITTOItem   `json:"inputs,omitempty"`
	Tools        []domain.ITTOItem   `json:"tools_and_techniques,omitempty"`
	Outputs      []domain.ITTOItem   `json:"outputs,omitempty"`
	KanbanStatus domain.KanbanStatus `json:"kanban_status,omitempty"`
	DepartmentID int                 `json:"department_id,omitempty"`
}

// UpsertCustomization creates or updates the country customization of a
// process and returns the stored record.
func (c *Client) UpsertCustomization(ctx context.Context, u CustomizationUpsert) (domain.Customization, error) {
	var resp domain.Customization
	err := c.do(ctx, http.MethodPost, "customizations/", u, &resp)
	return resp, err
}

// UpdateCustomizationKanban patches the Kanban status of a customization.
func (c *Client) UpdateCustomizationKanban(ctx context.Context, id int, status domain.KanbanStatus) (domain.Customization, error) {
	var resp domain.Customization
	body := map[string]any{"kanban_status": status}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("customizations/%d/update-kanban-status/", id), body, &resp)
	return resp, err
}

// Login exchanges credentials for a token pair and installs it.
func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	var resp Tokens
	body := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "token/", body, &resp); err != nil {
		return Tokens{}, err
	}
	c.tokens = resp
	if c.OnTokens != nil {
		c.OnTokens(resp)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens.Access != "" {
		token, err := c.freshAccessToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
