package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
	"github.com/felixgeelhaar/stayadmin/internal/version"
)

// Default endpoint paths on the booking API.
const (
	DefaultLoginPath   = "/api/admin/login"
	DefaultProfilePath = "/api/admin/profile"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 16 << 20

// Config configures a Client.
type Config struct {
	BaseURL     string
	LoginPath   string
	ProfilePath string
	Timeout     time.Duration
	// RetryMax bounds retries of idempotent requests after transport
	// failures and 5xx responses.
	RetryMax  int
	UserAgent string

	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Transport replaces the pooled default transport, mostly for tests.
	Transport http.RoundTripper
}

// Client is the booking API client
type Client struct {
	baseURL     string
	loginPath   string
	profilePath string
	userAgent   string

	retry   *retryablehttp.Client
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewClient creates a new booking API client
func NewClient(cfg Config) *Client {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = DefaultProfilePath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.GetInfo().UserAgent()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	base := cfg.Transport
	if base == nil {
		base = cleanhttp.DefaultPooledTransport()
	}

	logger := cfg.Logger.Component("platform")

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(base),
	}
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		loginPath:   cfg.LoginPath,
		profilePath: cfg.ProfilePath,
		userAgent:   cfg.UserAgent,
		retry:       rc,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// retryPolicy retries transport failures and 5xx answers. 4xx answers,
// 401 included, are final.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Request describes one call to the booking API.
type Request struct {
	// Operation labels the call in metrics and traces. Defaults to "request".
	Operation string
	Method    string
	// Path is appended to the base URL and may carry a query string.
	Path  string
	Token string
	// Body is sent as JSON. []byte and json.RawMessage are sent verbatim.
	Body any
}

// Response is a structurally valid JSON answer. Business status is not
// interpreted beyond 401-class detection; callers inspect Envelope.
type Response struct {
	StatusCode int
	Envelope   Envelope
	Body       json.RawMessage
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Field returns the raw value of a top-level field, or nil.
func (r *Response) Field(name string) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil
	}
	return fields[name]
}

// Do performs a request. It returns exactly one of a Response or an *Error.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	op := r.Operation
	if op == "" {
		op = "request"
	}

	ctx, span := telemetry.StartAPISpan(ctx, op, r.Method, r.Path)
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, r)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		telemetry.RecordError(span, err)
	} else {
		telemetry.RecordSuccess(span, attribute.Int("http.response.status_code", resp.StatusCode))
	}
	c.metrics.ObserveAPIRequest(op, r.Method, outcome, elapsed)
	c.logger.DebugContext(ctx, "api request",
		"operation", op, "method", r.Method, "path", r.Path,
		"outcome", outcome, "duration_ms", elapsed.Milliseconds())

	return resp, err
}

func (c *Client) do(ctx context.Context, r Request) (*Response, error) {
	fail := func(kind Kind, status int, msg string, cause error) (*Response, error) {
		return nil, &Error{Kind: kind, Method: r.Method, Path: r.Path, StatusCode: status, Message: msg, Cause: cause}
	}

	var payload []byte
	switch b := r.Body.(type) {
	case nil:
	case json.RawMessage:
		payload = b
	case []byte:
		payload = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return fail(KindRequest, 0, "failed to encode request body", err)
		}
		payload = encoded
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return fail(KindRequest, 0, "failed to create request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.Token)
	}

	var httpResp *http.Response
	if idempotent(r.Method) {
		rreq, err := retryablehttp.FromRequest(httpReq)
		if err != nil {
			return fail(KindRequest, 0, "failed to create request", err)
		}
		httpResp, err = c.retry.Do(rreq)
		if err != nil {
			return fail(KindTransport, 0, "", err)
		}
	} else {
		httpResp, err = c.retry.HTTPClient.Do(httpReq)
		if err != nil {
			return fail(KindTransport, 0, "", err)
		}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return fail(KindTransport, httpResp.StatusCode, "failed to read response body", err)
	}
	raw = bytes.TrimSpace(raw)

	if httpResp.StatusCode == http.StatusUnauthorized {
		return fail(KindUnauthorized, httpResp.StatusCode, parseEnvelope(raw).Message, nil)
	}

	if len(raw) == 0 {
		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			return &Response{StatusCode: httpResp.StatusCode}, nil
		}
		return fail(KindDecode, httpResp.StatusCode, "empty response body", nil)
	}
	if !json.Valid(raw) {
		return fail(KindDecode, httpResp.StatusCode, "response is not JSON", nil)
	}

	env := parseEnvelope(raw)
	if env.Unauthorized() {
		return fail(KindUnauthorized, httpResp.StatusCode, env.Message, nil)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Envelope:   env,
		Body:       json.RawMessage(raw),
	}, nil
}

// Identity calls the identity endpoint with token. Interpreting the
// envelope is left to the caller.
func (c *Client) Identity(ctx context.Context, token string) (*Response, error) {
	return c.Do(ctx, Request{
		Operation: "identity",
		Method:    http.MethodGet,
		Path:      c.profilePath,
		Token:     token,
	})
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return &Error{Kind: KindRequest, Method: http.MethodHead, Path: "/", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.retry.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Method: http.MethodHead, Path: "/", Cause: err}
	}
	resp.Body.Close()
	return nil
}
