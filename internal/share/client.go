package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/report"
)

const userAgent = "maborbench"

// UploadResult describes a completed upload.
type UploadResult struct {
	ReportID string
	Records  int
}

// Client uploads flattened benchmark reports to the results service.
type Client struct {
	baseURL  string
	backends map[string]model.Backend
	client   *http.Client
	logger   *slog.Logger
}

// NewClient returns a Client for the given service. backends supplies the
// device class recorded in each upload row.
func NewClient(baseURL string, backends map[string]model.Backend, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		backends: backends,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// Upload posts every record of the report in a single request. An expired or
// missing token fails before any bytes are sent. Server rejection returns an
// *UploadError; the report is already in the local store, so the caller
// retries the upload rather than the run. There is no partial submission.
func (c *Client) Upload(ctx context.Context, rep *model.Report, tok *oauth2.Token) (*UploadResult, error) {
	if tok == nil || !tok.Valid() {
		return nil, &AuthError{Kind: AuthExpired, Detail: "token is expired, run auth login again"}
	}

	records := report.Flatten(rep, c.backends)
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/benchmarks", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	tok.SetAuthHeader(req)

	c.logger.Info("uploading report", "report_id", rep.ID, "records", len(records))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UploadError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Kind: AuthExpired, Detail: "server rejected credentials"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UploadError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	return &UploadResult{ReportID: rep.ID, Records: len(records)}, nil
}
