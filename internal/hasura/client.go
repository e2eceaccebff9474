package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// AdminSecretHeader carries the admin secret on every request
	AdminSecretHeader = "x-hasura-admin-secret"

	resultTypeTuplesOk = "TuplesOk"
	defaultTimeout     = 30 * time.Second
)

// Client talks to the administrative API of a Hasura GraphQL engine
type Client struct {
	endpoint    *url.URL
	adminSecret string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The HTTP client is copied so a
// client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithRateLimit caps the number of requests sent per second, run_sql and
// metadata alike. Zero disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a client for the given endpoint. The endpoint must be an
// absolute URL; an empty admin secret is sent as an empty header.
func NewClient(endpoint, adminSecret string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ConfigError{Endpoint: endpoint, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &ConfigError{Endpoint: endpoint, Err: errors.New("must be an absolute URL")}
	}

	c := &Client{
		endpoint:    u,
		adminSecret: adminSecret,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExecuteRaw runs a SQL statement through /v2/query and checks that the
// database returned tuples.
func (c *Client) ExecuteRaw(ctx context.Context, source, sql string) (*RunSQLResponse, error) {
	req := Request{
		Type: TypeRunSQL,
		Args: RunSQLArgs{SQL: sql, Source: source},
	}

	var wire struct {
		ResultType *string         `json:"result_type"`
		Result     json.RawMessage `json:"result"`
	}
	if err := c.send(ctx, c.endpoint.JoinPath("v2", "query"), req, &wire); err != nil {
		return nil, err
	}
	if wire.ResultType == nil || len(wire.Result) == 0 {
		return nil, &DecodeError{Err: errors.New("run_sql response must have result_type and result")}
	}

	resp := RunSQLResponse{ResultType: *wire.ResultType}
	if *wire.ResultType != resultTypeTuplesOk {
		return nil, &QueryError{ResultType: resp.ResultType, Body: string(wire.Result)}
	}
	if err := json.Unmarshal(wire.Result, &resp.Result); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("result: %w", err)}
	}
	return &resp, nil
}

// ExecuteMetadata posts a command (single or bulk) to /v1/metadata.
// Any well-formed JSON reply with status 200 is returned as is.
func (c *Client) ExecuteMetadata(ctx context.Context, cmd Request) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.send(ctx, c.endpoint.JoinPath("v1", "metadata"), cmd, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Tables runs the table discovery query against source
func (c *Client) Tables(ctx context.Context, source string) ([]TableInfo, error) {
	resp, err := c.ExecuteRaw(ctx, source, TableDiscoveryQuery())
	if err != nil {
		return nil, fmt.Errorf("finding tables from db failed: %w", err)
	}

	var tables []TableInfo
	if err := DecodeResult(resp, &tables); err != nil {
		return nil, fmt.Errorf("finding tables from db failed: %w", err)
	}
	return tables, nil
}

// ForeignKeys runs the foreign key discovery query against source
func (c *Client) ForeignKeys(ctx context.Context, source string, schemas []string, tables []TableInfo) ([]FKInfo, error) {
	resp, err := c.ExecuteRaw(ctx, source, ForeignKeyDiscoveryQuery(schemas, tables))
	if err != nil {
		return nil, fmt.Errorf("finding foreign keys from db failed: %w", err)
	}

	var fks []FKInfo
	if err := DecodeResult(resp, &fks); err != nil {
		return nil, fmt.Errorf("finding foreign keys from db failed: %w", err)
	}
	return fks, nil
}

// DecodeResult unpacks a run_sql result whose single cell holds a JSON document.
//
// result[0] is the header row and result[1] is a one-element row holding a
// JSON-encoded string; that string is decoded into out.
func DecodeResult(resp *RunSQLResponse, out any) error {
	if len(resp.Result) < 2 {
		return &DecodeError{Err: fmt.Errorf("expected header and data rows, got %d rows", len(resp.Result))}
	}

	var row []string
	if err := json.Unmarshal(resp.Result[1], &row); err != nil {
		return &DecodeError{Err: fmt.Errorf("data row: %w", err)}
	}
	if len(row) == 0 {
		return &DecodeError{Err: errors.New("data row is empty")}
	}

	return DecodeRecords([]byte(row[0]), out)
}

// DecodeRecords decodes the JSON document produced by the discovery queries
func DecodeRecords(payload []byte, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return &DecodeError{Err: fmt.Errorf("records: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, u *url.URL, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{URL: u.String(), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AdminSecretHeader, c.adminSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: u.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: u.String(), Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
