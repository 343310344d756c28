// internal/common/paperless/client.go
package paperless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paperless-workers/internal/common/config"
	apphttp "paperless-workers/internal/common/http"
	"paperless-workers/internal/common/metrics"
)

var (
	ErrNotFound      = errors.New("PAPERLESS_NOT_FOUND")
	ErrRequestFailed = errors.New("PAPERLESS_REQUEST_FAILED")
)

// Client talks to the Paperless-ngx REST API with token authentication.
type Client struct {
	baseURL    string
	ownerID    int
	httpClient *apphttp.Client
}

func NewClient(cfg config.PaperlessConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ownerID:    cfg.OwnerID,
		httpClient: apphttp.NewClient(timeout, apphttp.WithHeader("Authorization", "Token "+cfg.APIToken)),
	}
}

// ListDocumentIDs returns every document id known to Paperless.
func (c *Client) ListDocumentIDs(ctx context.Context) ([]int64, error) {
	var out documentListResponse
	if err := c.getJSON(ctx, "documents", "/api/documents/", &out); err != nil {
		return nil, err
	}
	return out.All, nil
}

func (c *Client) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	if err := c.getJSON(ctx, "document", fmt.Sprintf("/api/documents/%d/", id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetFulltext(ctx context.Context, id int64) (string, error) {
	doc, err := c.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// GetCorrespondent returns nil, nil for a document without correspondent.
func (c *Client) GetCorrespondent(ctx context.Context, id *int64) (*Correspondent, error) {
	if id == nil {
		return nil, nil
	}
	var out Correspondent
	if err := c.getJSON(ctx, "correspondent", fmt.Sprintf("/api/correspondents/%d/", *id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocumentType returns nil, nil for a document without type.
func (c *Client) GetDocumentType(ctx context.Context, id *int64) (*DocumentType, error) {
	if id == nil {
		return nil, nil
	}
	var out DocumentType
	if err := c.getJSON(ctx, "document_type", fmt.Sprintf("/api/document_types/%d/", *id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetThumbnail returns the preview image and its content type. An empty
// body yields nil data.
func (c *Client) GetThumbnail(ctx context.Context, id int64) ([]byte, string, error) {
	path := fmt.Sprintf("/api/documents/%d/thumb/", id)
	resp, err := c.do(ctx, "thumb", http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path, http.StatusOK); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: read body: %v", ErrRequestFailed, path, err)
	}
	if len(data) == 0 {
		return nil, "", nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// CreateCorrespondent registers name with matching disabled. Only 201
// counts as success.
func (c *Client) CreateCorrespondent(ctx context.Context, name string) (*Correspondent, error) {
	payload, err := json.Marshal(createCorrespondentRequest{
		Name:              name,
		Match:             "",
		MatchingAlgorithm: MatchNone,
		Owner:             c.ownerID,
		IsInsensitive:     false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal correspondent: %w", err)
	}

	const path = "/api/correspondents/"
	resp, err := c.do(ctx, "correspondents", http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path, http.StatusCreated); err != nil {
		return nil, err
	}

	var out Correspondent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrRequestFailed, path, err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	resp, err := c.do(ctx, endpoint, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path, http.StatusOK); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode: %v", ErrRequestFailed, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PaperlessRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrRequestFailed, path, err)
	}
	metrics.PaperlessRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func checkStatus(resp *http.Response, path string, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s: status %d: %s", ErrRequestFailed, path, resp.StatusCode, strings.TrimSpace(string(body)))
}
