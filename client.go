package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// UnauthorizedListener is notified whenever any endpoint answers 401/403,
// before the error reaches the caller. Listeners cannot be suppressed per
// call; the session controller uses one to tear the session down.
type UnauthorizedListener func(ctx context.Context, status int, path string)

// Gateway dispatches every API request: it attaches the bearer token when
// one is available, enforces the global 401/403 invalidation policy, and
// maps response statuses onto the error taxonomy. At-most-once delivery,
// no retries.
type Gateway struct {
	baseURL    string
	authScheme string
	client     *http.Client
	tokens     TokenSource
	logger     Logger

	mu        sync.Mutex
	listeners []UnauthorizedListener
}

type GatewayOption func(*Gateway)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithGatewayLogger overrides the gateway logger.
func WithGatewayLogger(logger Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway builds a gateway for the configured base URL. tokens may be
// nil; requests then go out unauthenticated and the server decides whether
// that is permitted.
func NewGateway(cfg Config, tokens TokenSource, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(cfg.GetBaseURL(), "/"),
		authScheme: cfg.GetAuthScheme(),
		client:     &http.Client{Timeout: cfg.GetRequestTimeout()},
		tokens:     tokens,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// OnUnauthorized registers a listener for the global 401/403 side effect.
func (g *Gateway) OnUnauthorized(listener UnauthorizedListener) {
	if listener == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, listener)
}

// Do issues a single JSON request. body is marshaled when non-nil, the
// response is unmarshaled into out when non-nil and the call succeeds.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return g.send(req, path, out)
}

// Upload posts a multipart form with a single file part plus optional extra
// fields, for POST /upload.
func (g *Gateway) Upload(ctx context.Context, path, field, filename string, file io.Reader, fields map[string]string, out any) error {
	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)

	part, err := form.CreateFormFile(field, filename)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build multipart form")
	}
	if _, err := io.Copy(part, file); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read upload payload")
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write form field")
		}
	}
	if err := form.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, buf)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return g.send(req, path, out)
}

func (g *Gateway) send(req *http.Request, path string, out any) error {
	if g.tokens != nil {
		if token := g.tokens(); token != "" {
			req.Header.Set("Authorization", g.authScheme+" "+token)
		}
	}

	res, err := g.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "request failed").
			WithMetadata(map[string]any{"path": path})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response").
			WithMetadata(map[string]any{"path": path})
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		g.notifyUnauthorized(req.Context(), res.StatusCode, path)
		return g.statusError(res.StatusCode, path, raw)
	}

	if res.StatusCode >= 400 {
		return g.statusError(res.StatusCode, path, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response").
				WithMetadata(map[string]any{"path": path})
		}
	}

	return nil
}

func (g *Gateway) notifyUnauthorized(ctx context.Context, status int, path string) {
	g.mu.Lock()
	listeners := make([]UnauthorizedListener, len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()

	g.logger.Info("session invalidated by server response: status=%d path=%s", status, path)

	for _, listener := range listeners {
		listener(ctx, status, path)
	}
}

// apiErrorBody is the error envelope the ResQLink API uses.
type apiErrorBody struct {
	Error  string            `json:"error,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (g *Gateway) statusError(status int, path string, raw []byte) error {
	body := apiErrorBody{}
	// tolerate non-JSON error bodies, the status code still classifies
	_ = json.Unmarshal(raw, &body)

	metadata := map[string]any{
		"path":   path,
		"status": status,
	}
	if body.Error != "" {
		metadata["server_message"] = body.Error
	}
	if len(body.Errors) > 0 {
		fields := make(map[string]any, len(body.Errors))
		for k, v := range body.Errors {
			fields[k] = v
		}
		metadata["fields"] = fields
	}

	message := body.Error
	if message == "" {
		message = fmt.Sprintf("request rejected with status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return goerrors.New(message, goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(TextCodeSessionInvalidated).
			WithMetadata(metadata)
	case status == http.StatusForbidden:
		return goerrors.New(message, goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden).
			WithTextCode(TextCodeSessionInvalidated).
			WithMetadata(metadata)
	case status == http.StatusNotFound:
		return goerrors.New(message, goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(metadata)
	case status == http.StatusConflict:
		return goerrors.New(message, goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(metadata)
	case status >= 400 && status < 500:
		return goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(metadata)
	default:
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithMetadata(metadata)
	}
}
