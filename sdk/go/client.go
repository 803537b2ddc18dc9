package fieldlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Fieldline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Report represents the API report model.
type Report struct {
	ID             int64   `json:"id"`
	ClientName     string  `json:"client_name"`
	Date           string  `json:"date"`
	Address        string  `json:"address"`
	Contact        string  `json:"contact"`
	Description    string  `json:"description"`
	Service        string  `json:"service"`
	Location       string  `json:"location"`
	Status         string  `json:"status"`
	WorkerID       *int64  `json:"worker_id,omitempty"`
	WorkerUsername *string `json:"worker_username,omitempty"`
	Proof          string  `json:"proof,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// Accomplishment represents a report's completion record.
type Accomplishment struct {
	ID             int64  `json:"id"`
	ReportID       int64  `json:"report_id"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	AccomplishDate string `json:"accomplish_date"`
	Proof          string `json:"proof,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ArchiveEntry represents an approved report snapshot.
type ArchiveEntry struct {
	ID              int64  `json:"id"`
	ClientName      string `json:"client_name"`
	Date            string `json:"date"`
	Address         string `json:"address"`
	Contact         string `json:"contact"`
	Description     string `json:"description"`
	Service         string `json:"service"`
	Location        string `json:"location"`
	Proof           string `json:"proof,omitempty"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	AccomplishDate  string `json:"accomplish_date"`
	AccomplishProof string `json:"accomplish_proof,omitempty"`
	WorkerName      string `json:"worker_name"`
	ApprovedAt      string `json:"approved_at"`
}

// Worker represents a field worker account.
type Worker struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is the login result.
type Session struct {
	Token  string `json:"token"`
	Worker Worker `json:"worker"`
}

// Location is a named establishment.
type Location struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Coords string `json:"coords"`
	Type   string `json:"type"`
}

// SubmitReportRequest carries the fields of a new report. Proof is raw
// image bytes; the server normalizes them.
type SubmitReportRequest struct {
	ClientName  string `json:"client_name"`
	Date        string `json:"date"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
	Service     string `json:"service"`
	Location    string `json:"location"`
	Proof       []byte `json:"proof,omitempty"`
	ProofType   string `json:"proof_type,omitempty"`
}

// AccomplishReportRequest carries completion details.
type AccomplishReportRequest struct {
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	AccomplishDate string `json:"accomplish_date"`
	Proof          []byte `json:"proof,omitempty"`
	ProofType      string `json:"proof_type,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges worker credentials for a token and stores it on the
// client for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password, role string) (Session, error) {
	body := map[string]any{
		"username": username,
		"password": password,
		"role":     role,
	}
	var resp Session
	if err := c.do(ctx, http.MethodPost, "v1/login", body, &resp); err != nil {
		return Session{}, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// SubmitReport files a new report.
func (c *Client) SubmitReport(ctx context.Context, req SubmitReportRequest) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, "v1/reports", req, &resp)
	return resp, err
}

// ListReports returns all reports with worker annotations.
func (c *Client) ListReports(ctx context.Context) ([]Report, error) {
	var resp []Report
	err := c.do(ctx, http.MethodGet, "v1/reports", nil, &resp)
	return resp, err
}

// GetReport fetches a report with its proof image inlined.
func (c *Client) GetReport(ctx context.Context, id int64) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v1/reports/%d", id), nil, &resp)
	return resp, err
}

// AcceptReport assigns a worker to a pending report. A zero workerID lets
// the server use the authenticated worker.
func (c *Client) AcceptReport(ctx context.Context, reportID, workerID int64) (Report, error) {
	body := map[string]any{}
	if workerID != 0 {
		body["worker_id"] = workerID
	}
	var resp Report
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v1/reports/%d/accept", reportID), body, &resp)
	return resp, err
}

// AccomplishReport records completion proof for a report.
func (c *Client) AccomplishReport(ctx context.Context, reportID int64, req AccomplishReportRequest) (Accomplishment, error) {
	var resp Accomplishment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v1/reports/%d/accomplish", reportID), req, &resp)
	return resp, err
}

// GetAccomplishment fetches a report's completion record.
func (c *Client) GetAccomplishment(ctx context.Context, reportID int64) (Accomplishment, error) {
	var resp Accomplishment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v1/reports/%d/accomplishment", reportID), nil, &resp)
	return resp, err
}

// ApproveReport archives a completed report.
func (c *Client) ApproveReport(ctx context.Context, reportID int64) (ArchiveEntry, error) {
	var resp ArchiveEntry
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v1/reports/%d/approve", reportID), nil, &resp)
	return resp, err
}

// ListArchive returns approved reports, newest first.
func (c *Client) ListArchive(ctx context.Context) ([]ArchiveEntry, error) {
	var resp []ArchiveEntry
	err := c.do(ctx, http.MethodGet, "v1/archive", nil, &resp)
	return resp, err
}

// GetWorker fetches a worker's public profile.
func (c *Client) GetWorker(ctx context.Context, id int64) (Worker, error) {
	var resp Worker
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v1/workers/%d", id), nil, &resp)
	return resp, err
}

// ListLocations returns known establishments.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var resp []Location
	err := c.do(ctx, http.MethodGet, "v1/locations", nil, &resp)
	return resp, err
}

// RoadGraph returns the weighted street graph for routing.
func (c *Client) RoadGraph(ctx context.Context) (map[string]map[string]float64, error) {
	var resp map[string]map[string]float64
	err := c.do(ctx, http.MethodGet, "v1/graph", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
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
