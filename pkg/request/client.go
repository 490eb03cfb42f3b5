// Package request is the single path through which the Brain Annex client
// talks to the server. It encodes parameter sets, performs the HTTP exchange
// and folds every outcome into one Completion.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Encoding selects how Params are serialized.
type Encoding int

const (
	// EncodingForm sends key=value pairs joined by &.
	EncodingForm Encoding = iota
	// EncodingJSON sends the parameters as a single JSON object.
	EncodingJSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingForm:
		return "form"
	case EncodingJSON:
		return "json"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding maps "form" or "json" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "form":
		return EncodingForm, nil
	case "json":
		return EncodingJSON, nil
	default:
		return 0, fmt.Errorf("%w: unknown encoding %q (use form or json)", ErrInvalidRequest, s)
	}
}

// File is an upload attachment. It is always sent under the field name "file".
type File struct {
	Name    string
	Content io.Reader
}

// Options describes a single call.
type Options struct {
	// Method is GET or POST. When empty it defaults to GET and becomes POST
	// as soon as params, a body or a file are supplied. A body or a file
	// always forces POST.
	Method   string
	Params   Params
	Encoding Encoding

	// Body is sent verbatim with ContentType. Params, if any, then go into
	// the query string.
	Body        []byte
	ContentType string

	// File turns the call into a multipart/form-data POST.
	File *File

	// OnComplete receives the outcome exactly once.
	OnComplete func(Completion)
	// Context is handed back untouched in Completion.Context.
	Context any
}

// Completion is the normalized outcome of a call.
type Completion struct {
	Success      bool
	Payload      json.RawMessage
	ErrorMessage string
	Context      any

	text bool
}

// Decode unmarshals the payload into v. Payloads of the legacy text protocol
// can be read into a *string directly.
func (c Completion) Decode(v any) error {
	if !c.Success {
		return &Failure{Message: c.ErrorMessage}
	}
	if s, ok := v.(*string); ok && c.text {
		*s = string(c.Payload)
		return nil
	}
	if err := json.Unmarshal(c.Payload, v); err != nil {
		return fmt.Errorf("unexpected payload: %w", err)
	}
	return nil
}

// Err returns nil on success and a *Failure otherwise.
func (c Completion) Err() error {
	if c.Success {
		return nil
	}
	return &Failure{Message: c.ErrorMessage}
}

// Failure carries the human-readable message of a failed call.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Client holds transport settings shared by all calls. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	// BaseURL is prepended verbatim to every endpoint.
	BaseURL    string
	HTTPClient *http.Client
	Protocol   Protocol

	Auth      Auth
	Limiter   *rate.Limiter
	Headers   map[string]string
	UserAgent string
	Logger    *zap.Logger
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Logger: zap.NewNop(),
	}
}

// prepared is a validated, fully encoded call.
type prepared struct {
	endpoint    string
	method      string
	url         string
	body        []byte
	contentType string
	encoding    string
}

// Send validates the call and performs it in the background. A non-nil
// error means the arguments were malformed and nothing was sent; otherwise
// opts.OnComplete is invoked exactly once.
func (c *Client) Send(ctx context.Context, endpoint string, opts Options) error {
	p, err := c.prepare(endpoint, opts)
	if err != nil {
		return err
	}

	go func() {
		comp := c.execute(ctx, p, opts.Context)
		if opts.OnComplete != nil {
			opts.OnComplete(comp)
		}
	}()
	return nil
}

// Do performs the call and waits for its outcome. opts.OnComplete, if set,
// is invoked before Do returns.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (Completion, error) {
	p, err := c.prepare(endpoint, opts)
	if err != nil {
		return Completion{}, err
	}

	comp := c.execute(ctx, p, opts.Context)
	if opts.OnComplete != nil {
		opts.OnComplete(comp)
	}
	return comp, nil
}

func (c *Client) prepare(endpoint string, opts Options) (*prepared, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidRequest)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.Encoding != EncodingForm && opts.Encoding != EncodingJSON {
		return nil, fmt.Errorf("%w: unsupported encoding %v", ErrInvalidRequest, opts.Encoding)
	}

	method := strings.ToUpper(opts.Method)
	switch method {
	case "":
		method = http.MethodGet
		if len(opts.Params) > 0 || len(opts.Body) > 0 || opts.File != nil {
			method = http.MethodPost
		}
	case http.MethodGet, http.MethodPost:
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, opts.Method)
	}
	if opts.File != nil || len(opts.Body) > 0 {
		method = http.MethodPost
	}

	target := c.BaseURL + endpoint
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", ErrInvalidRequest, err)
	}

	p := &prepared{endpoint: endpoint, method: method, url: target, encoding: opts.Encoding.String()}

	switch {
	case opts.File != nil:
		body, ct, err := multipartBody(opts.File, opts.Params)
		if err != nil {
			return nil, err
		}
		p.body, p.contentType, p.encoding = body, ct, "multipart"

	case len(opts.Body) > 0:
		p.body, p.contentType = opts.Body, opts.ContentType
		query, err := encodeParams(opts.Params, opts.Encoding, true)
		if err != nil {
			return nil, err
		}
		p.url = withQuery(p.url, query)

	case method == http.MethodGet:
		query, err := encodeParams(opts.Params, opts.Encoding, true)
		if err != nil {
			return nil, err
		}
		p.url = withQuery(p.url, query)

	default:
		body, err := encodeParams(opts.Params, opts.Encoding, false)
		if err != nil {
			return nil, err
		}
		p.body = []byte(body)
		if opts.Encoding == EncodingJSON {
			p.contentType = "application/json"
		} else {
			p.contentType = "application/x-www-form-urlencoded"
		}
	}

	return p, nil
}

// encodeParams renders params for a query string or a request body.
// JSON in a query string travels as the single parameter "json".
func encodeParams(params Params, enc Encoding, query bool) (string, error) {
	if enc == EncodingForm {
		return params.Encode()
	}
	if query && len(params) == 0 {
		return "", nil
	}
	blob, err := params.MarshalJSON()
	if err != nil {
		return "", err
	}
	if query {
		return "json=" + url.QueryEscape(string(blob)), nil
	}
	return string(blob), nil
}

func withQuery(target, query string) string {
	if query == "" {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + query
	}
	return target + "?" + query
}

// multipartBody writes the file under "file" followed by params as plain
// fields. The content type carries the boundary picked by the writer.
func multipartBody(f *File, params Params) ([]byte, string, error) {
	if f.Content == nil {
		return nil, "", fmt.Errorf("%w: upload has no content", ErrInvalidRequest)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	for _, kv := range params {
		val, keep, err := rawValue(kv.Value)
		if err != nil {
			return nil, "", fmt.Errorf("%w: parameter %q: %v", ErrInvalidRequest, kv.Key, err)
		}
		if !keep {
			continue
		}
		if err := w.WriteField(kv.Key, val); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", kv.Key, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// execute performs a prepared call and always returns a Completion.
func (c *Client) execute(ctx context.Context, p *prepared, token any) Completion {
	log := c.logger().With(
		zap.String("endpoint", p.endpoint),
		zap.String("method", p.method),
		zap.String("encoding", p.encoding),
	)
	log.Debug("sending request")

	start := time.Now()
	payload, err := c.roundTrip(ctx, p)
	elapsed := time.Since(start)

	comp := Completion{Context: token, text: c.Protocol == ProtocolLegacy}
	if err != nil {
		comp.ErrorMessage = err.Error()
		if comp.ErrorMessage == "" {
			comp.ErrorMessage = MsgNoErrorInfo
		}
		log.Warn("request failed",
			zap.String("kind", kindOf(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return comp
	}

	comp.Success = true
	comp.Payload = json.RawMessage(payload)
	log.Debug("request completed", zap.Duration("elapsed", elapsed), zap.Int("payload_bytes", len(payload)))
	return comp
}

func (c *Client) roundTrip(ctx context.Context, p *prepared) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	if c.Auth != nil {
		if err := c.Auth.Apply(ctx, req); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	return decodeBody(c.Protocol, data)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
