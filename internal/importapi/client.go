package importapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/model"
)

const (
	defaultTimeout = 60 * time.Second
	defaultLimit   = 50
	maxErrorBody   = 4096
	apiKeyHeader   = "X-Api-Key"
)

const (
	opPreview      = "Import preview failed"
	opCommit       = "Import failed"
	opListImports  = "Failed to fetch imports"
	opGetImport    = "Failed to fetch import detail"
	opListJobs     = "Failed to fetch jobs"
	opRetryJob     = "Failed to retry job"
	opListOrders   = "Failed to fetch orders"
	opGetOrder     = "Failed to fetch order detail"
	formFieldHead  = "header"
	formFieldItems = "items"
	formFieldActor = "importedBy"
)

// File is one CSV payload passed through to the import service as-is.
type File struct {
	Name   string
	Reader io.Reader
}

type UploadPayload struct {
	Header     File
	Items      File
	ImportedBy string
}

type ImportQuery struct {
	JobID  int64
	Limit  int
	Offset int
}

type JobQuery struct {
	Status  string
	Type    string
	OrderID int64
	Limit   int
	Offset  int
}

type OrderQuery struct {
	Status  string
	Channel string
}

type Option func(c *Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// Client talks to the order import middleware.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Preview uploads both files for validation only. The service must not
// create any record for a preview.
func (c *Client) Preview(ctx context.Context, payload UploadPayload) (*model.PreviewResult, error) {
	out := &model.PreviewResult{}
	if err := c.upload(ctx, opPreview, "/imports/preview", payload, out); err != nil {
		return nil, err
	}
	if out.Issues == nil {
		out.Issues = []model.Issue{}
	}
	return out, nil
}

func (c *Client) Commit(ctx context.Context, payload UploadPayload) (*model.UploadResult, error) {
	out := &model.UploadResult{}
	if err := c.upload(ctx, opCommit, "/imports", payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListImports(ctx context.Context, q ImportQuery) (*model.ImportPage, error) {
	values := url.Values{}
	setInt64(values, "jobId", q.JobID)
	setInt(values, "limit", q.Limit)
	setInt(values, "offset", q.Offset)
	raw := listEnvelope{}
	if err := c.getJSON(ctx, opListImports, "/imports", values, &raw); err != nil {
		return nil, err
	}
	data := make([]model.ImportRecord, 0)
	if err := raw.decodeData(&data); err != nil {
		return nil, fmt.Errorf("decode imports: %w", err)
	}
	return &model.ImportPage{
		Data:       data,
		Pagination: raw.pagination(q.Limit, q.Offset, len(data)),
	}, nil
}

func (c *Client) GetImport(ctx context.Context, id int64) (*model.ImportDetail, error) {
	out := &model.ImportDetail{}
	if err := c.getJSON(ctx, opGetImport, "/imports/"+strconv.FormatInt(id, 10), nil, out); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		out.Orders = []model.ImportedOrder{}
	}
	return out, nil
}

func (c *Client) ListJobs(ctx context.Context, q JobQuery) (*model.JobPage, error) {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.Type != "" {
		values.Set("type", q.Type)
	}
	setInt64(values, "orderId", q.OrderID)
	setInt(values, "limit", q.Limit)
	setInt(values, "offset", q.Offset)
	raw := listEnvelope{}
	if err := c.getJSON(ctx, opListJobs, "/jobs", values, &raw); err != nil {
		return nil, err
	}
	data := make([]model.Job, 0)
	if err := raw.decodeData(&data); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return &model.JobPage{
		Data:       data,
		Pagination: raw.pagination(q.Limit, q.Offset, len(data)),
	}, nil
}

func (c *Client) RetryJob(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/jobs/"+strconv.FormatInt(id, 10)+"/retry", nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, opRetryJob, nil)
}

func (c *Client) ListOrders(ctx context.Context, q OrderQuery) ([]model.Order, error) {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.Channel != "" {
		values.Set("channel", q.Channel)
	}
	out := make([]model.Order, 0)
	if err := c.getJSON(ctx, opListOrders, "/orders", values, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	out := &model.OrderDetail{}
	if err := c.getJSON(ctx, opGetOrder, "/orders/"+strconv.FormatInt(id, 10), nil, out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []json.RawMessage{}
	}
	return out, nil
}

func (c *Client) upload(ctx context.Context, op, path string, payload UploadPayload, out interface{}) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writeFormFile(writer, formFieldHead, payload.Header); err != nil {
		return err
	}
	if err := writeFormFile(writer, formFieldItems, payload.Items); err != nil {
		return err
	}
	if err := writer.WriteField(formFieldActor, payload.ImportedBy); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, op, out)
}

func writeFormFile(w *multipart.Writer, field string, f File) error {
	if f.Reader == nil {
		return fmt.Errorf("%s file is required", field)
	}
	name := f.Name
	if name == "" {
		name = field + ".csv"
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f.Reader); err != nil {
		return fmt.Errorf("copy %s file: %w", field, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	logutil.GetLogger(req.Context()).Debug("import api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("cost", time.Since(start)),
	)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Op:         op,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func setInt(values url.Values, key string, v int) {
	if v > 0 {
		values.Set(key, strconv.Itoa(v))
	}
}

func setInt64(values url.Values, key string, v int64) {
	if v > 0 {
		values.Set(key, strconv.FormatInt(v, 10))
	}
}
