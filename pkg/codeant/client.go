package codeant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CodeAnt-AI/codeant-scripts/pkg/common"
	"github.com/ca-risken/common/pkg/logging"
	"golang.org/x/oauth2"
)

const (
	pathStartScan        = "/start"
	pathSecurityResults  = "/results"
	pathScaResults       = "/results/sca"
	pathCoveragePresign  = "/coverage/presign"
	pathCoverageComplete = "/coverage/complete"

	requestTimeout = 30 * time.Second

	// Response bodies embedded in error messages are truncated to this length.
	maxErrorBodyLen = 500
)

// ErrAuthentication is returned on HTTP 401. Authentication failure is
// assumed unrecoverable mid-session, so callers must abort instead of
// continuing to poll.
var ErrAuthentication = errors.New("authentication failed (status=401)")

// ResultKind selects which analysis results endpoint to query.
type ResultKind string

const (
	KindSecurity ResultKind = "security"
	KindSCA      ResultKind = "sca"
)

func (k ResultKind) endpoint() string {
	if k == KindSCA {
		return pathScaResults
	}
	return pathSecurityResults
}

// ListField is the kind-named list field checked by the extraction rules.
func (k ResultKind) ListField() string {
	if k == KindSCA {
		return "vulnerabilities"
	}
	return "issues"
}

// FetchOutcome classifies one result-fetch attempt.
type FetchOutcome int

const (
	OutcomeReady FetchOutcome = iota
	OutcomePending
	OutcomeNotFound
	OutcomeError
)

func (o FetchOutcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomePending:
		return "pending"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// FetchResult is produced once per fetch attempt. Data holds the parsed
// response body for ready results and the latest snapshot for pending ones.
type FetchResult struct {
	Outcome FetchOutcome
	Data    any
	Message string
}

// TriggerResult is the outcome of a single scan-trigger call. A failed
// trigger is not retried here; the caller decides whether to abort.
type TriggerResult struct {
	Success  bool   `json:"success"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client calls the remote analysis API. All requests are JSON POSTs
// authenticated with a bearer token; the token also travels in the request
// body per the API contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

func NewClient(ctx context.Context, baseURL, token string, l logging.Logger) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))
	httpClient.Timeout = requestTimeout
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     l,
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: path=%s, err=%w", path, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: path=%s, err=%w", path, err)
	}
	c.logger.Debugf(ctx, "API response: path=%s, status=%d", path, resp.StatusCode)
	return resp.StatusCode, respBody, nil
}

// StartScan performs one synchronous trigger call. HTTP 2xx yields success
// with the parsed body; any other status yields a failed TriggerResult with
// the raw body embedded in the error message. Transport failures are
// returned as errors.
func (c *Client) StartScan(ctx context.Context, req *ScanRequest) (*TriggerResult, error) {
	status, body, err := c.postJSON(ctx, pathStartScan, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return &TriggerResult{
			Success: false,
			Error:   fmt.Sprintf("scan trigger failed: status=%d, body=%s", status, common.CutString(string(body), maxErrorBodyLen)),
		}, nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Keep the raw body so the trigger confirmation is not lost.
		parsed = string(body)
	}
	return &TriggerResult{Success: true, Response: parsed}, nil
}

// FetchResult performs one synchronous fetch against the kind-specific
// results endpoint and classifies the response. Only HTTP 401 is fatal;
// transport errors and unexpected statuses come back as OutcomeError so the
// poll loop can keep going.
func (c *Client) FetchResult(ctx context.Context, req *ScanRequest, kind ResultKind) (*FetchResult, error) {
	status, body, err := c.postJSON(ctx, kind.endpoint(), req)
	if err != nil {
		return &FetchResult{Outcome: OutcomeError, Message: err.Error()}, nil
	}
	switch {
	case status == http.StatusUnauthorized:
		return nil, fmt.Errorf("failed to fetch %s results: %w", kind, ErrAuthentication)
	case status == http.StatusNotFound || status == http.StatusNoContent:
		return &FetchResult{Outcome: OutcomeNotFound}, nil
	case status >= 200 && status < 300:
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			c.logger.Warnf(ctx, "Unexpected %s results body, treating as empty: err=%+v", kind, err)
			return &FetchResult{Outcome: OutcomeReady}, nil
		}
		if m, ok := data.(map[string]any); ok {
			if s, ok := m["status"].(string); ok && s == "pending" {
				return &FetchResult{Outcome: OutcomePending, Data: data}, nil
			}
		}
		return &FetchResult{Outcome: OutcomeReady, Data: data}, nil
	default:
		return &FetchResult{
			Outcome: OutcomeError,
			Message: fmt.Sprintf("unexpected status fetching %s results: status=%d, body=%s", kind, status, common.CutString(string(body), maxErrorBodyLen)),
		}, nil
	}
}

// CoveragePresign requests a presigned upload URL for a coverage report.
func (c *Client) CoveragePresign(ctx context.Context, req *CoverageRequest) (int, []byte, error) {
	return c.postJSON(ctx, pathCoveragePresign, req)
}

// CoverageComplete notifies the API that the coverage file was uploaded.
func (c *Client) CoverageComplete(ctx context.Context, req *CoverageRequest) (int, []byte, error) {
	return c.postJSON(ctx, pathCoverageComplete, req)
}
