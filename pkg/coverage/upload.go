package coverage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/CodeAnt-AI/codeant-scripts/pkg/codeant"
	"github.com/CodeAnt-AI/codeant-scripts/pkg/common"
	"github.com/ca-risken/common/pkg/logging"
	"github.com/cenkalti/backoff/v4"
)

const RETRY_NUM uint64 = 3

// Process exit codes for failed upload steps.
const (
	ExitMissingFile      = 2
	ExitMalformedPresign = 3
	ExitCompleteFailed   = 4
)

const (
	uploadTimeout     = 5 * time.Minute
	maxErrorBodyLen   = 500
	uploadContentType = "application/octet-stream"
)

// ExitError carries the process exit code for a failed upload step so main
// can map errors to the documented codes.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

type presignClient interface {
	CoveragePresign(ctx context.Context, req *codeant.CoverageRequest) (int, []byte, error)
	CoverageComplete(ctx context.Context, req *codeant.CoverageRequest) (int, []byte, error)
}

// Uploader runs the two-phase coverage upload: presign, raw PUT of the file
// to the presigned URL, then the completion notification.
type Uploader struct {
	client     presignClient
	httpClient *http.Client
	retryer    backoff.BackOff
	logger     logging.Logger
}

func NewUploader(client presignClient, l logging.Logger) *Uploader {
	return &Uploader{
		client:     client,
		httpClient: &http.Client{Timeout: uploadTimeout},
		retryer:    backoff.WithMaxRetries(backoff.NewExponentialBackOff(), RETRY_NUM),
		logger:     l,
	}
}

func (u *Uploader) Upload(ctx context.Context, req *codeant.CoverageRequest, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return &ExitError{Code: ExitMissingFile, Err: fmt.Errorf("failed to read coverage file %s: %w", filePath, err)}
	}
	uploadURL, err := u.presign(ctx, req)
	if err != nil {
		return err
	}
	if err := u.putFile(ctx, uploadURL, data); err != nil {
		return err
	}
	return u.complete(ctx, req)
}

func (u *Uploader) presign(ctx context.Context, req *codeant.CoverageRequest) (string, error) {
	var body []byte
	operation := func() error {
		status, b, err := u.client.CoveragePresign(ctx, req)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return backoff.Permanent(codeant.ErrAuthentication)
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("unexpected presign status=%d, body=%s", status, common.CutString(string(b), maxErrorBodyLen))
		}
		body = b
		return nil
	}
	if err := backoff.RetryNotify(operation, u.retryer, u.newRetryLogger(ctx, "coverage presign")); err != nil {
		return "", fmt.Errorf("failed to get presigned upload URL: %w", err)
	}
	uploadURL, err := parsePresignURL(body)
	if err != nil {
		return "", &ExitError{Code: ExitMalformedPresign, Err: err}
	}
	return uploadURL, nil
}

// parsePresignURL accepts the URL under "url" or "upload_url", either at the
// top level or nested in a "data" object.
func parsePresignURL(body []byte) (string, error) {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed presign response: %w", err)
	}
	if u := presignURLField(parsed); u != "" {
		return u, nil
	}
	if data, ok := parsed["data"].(map[string]any); ok {
		if u := presignURLField(data); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("malformed presign response: no upload URL in %s", common.CutString(string(body), maxErrorBodyLen))
}

func presignURLField(m map[string]any) string {
	for _, key := range []string{"url", "upload_url"} {
		if u, ok := m[key].(string); ok && u != "" {
			return u
		}
	}
	return ""
}

func (u *Uploader) putFile(ctx context.Context, uploadURL string, data []byte) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", uploadContentType)
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected upload status=%d", resp.StatusCode)
		}
		return nil
	}
	if err := backoff.RetryNotify(operation, u.retryer, u.newRetryLogger(ctx, "coverage upload")); err != nil {
		return fmt.Errorf("failed to upload coverage file: %w", err)
	}
	return nil
}

func (u *Uploader) complete(ctx context.Context, req *codeant.CoverageRequest) error {
	status, body, err := u.client.CoverageComplete(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send completion notification: %w", err)
	}
	if status >= 400 {
		return &ExitError{
			Code: ExitCompleteFailed,
			Err:  fmt.Errorf("completion call failed: status=%d, body=%s", status, common.CutString(string(body), maxErrorBodyLen)),
		}
	}
	u.logger.Infof(ctx, "Coverage upload completed: repo=%s, commit=%s", req.Repo, req.CommitID)
	return nil
}

func (u *Uploader) newRetryLogger(ctx context.Context, funcName string) func(error, time.Duration) {
	return func(err error, t time.Duration) {
		u.logger.Warnf(ctx, "[RetryLogger] %s error: duration=%+v, err=%+v", funcName, t, err)
	}
}
