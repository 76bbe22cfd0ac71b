package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the field-services API. It never retries on its own:
// retrying is always a user decision.
type Client struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config, observer Observer) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// call describes one request. Route is the path template used for
// observability; Path is the concrete path.
type call struct {
	Method string
	Route  string
	Path   string
	Body   any
}

func newCall(method, route string, ids ...string) call {
	path := route
	for _, id := range ids {
		path = strings.Replace(path, ":id", url.PathEscape(id), 1)
	}
	return call{Method: method, Route: route, Path: path}
}

func (c call) with(body any) call {
	c.Body = body
	return c
}

// decoder consumes a 2xx body and reports how many listing records it
// dropped during validation.
type decoder func(body []byte) (rejected int, err error)

// into decodes a 2xx body straight into out.
func into(out any) decoder {
	return func(body []byte) (int, error) {
		if err := json.Unmarshal(body, out); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return 0, nil
	}
}

// ListMeta describes a listing beyond its records.
type ListMeta struct {
	// Rejected counts records dropped by payload validation.
	Rejected int
}

// do executes the call and hands a 2xx body to dec when dec is non-nil.
func (c *Client) do(ctx context.Context, cred Credential, req call, dec decoder) error {
	_, err := c.list(ctx, cred, req, dec)
	return err
}

// list is do for callers that surface dropped records.
func (c *Client) list(ctx context.Context, cred Credential, req call, dec decoder) (ListMeta, error) {
	if cred.Empty() {
		return ListMeta{}, ErrUnauthenticated
	}
	start := time.Now()
	status, rejected, err := c.roundTrip(ctx, cred, req, dec)
	c.observer.OnCallComplete(CallEvent{
		Method:    req.Method,
		Route:     req.Route,
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: ErrorCode(err),
		Rejected:  rejected,
	})
	return ListMeta{Rejected: rejected}, err
}

func (c *Client) roundTrip(ctx context.Context, cred Credential, req call, dec decoder) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.cfg.BaseURL+req.Path, body)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", cred.header())
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, 0, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, 0, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	status := httpResp.StatusCode
	if status < 200 || status > 299 {
		msg := serverMessage(respBody)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			if msg == "" {
				return status, 0, ErrUnauthenticated
			}
			return status, 0, fmt.Errorf("%w: %s", ErrUnauthenticated, msg)
		}
		if msg == "" {
			msg = genericFailure(status)
		}
		return status, 0, &RemoteError{Status: status, Message: msg}
	}

	if dec == nil {
		return status, 0, nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return status, 0, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	rejected, err := dec(respBody)
	return status, rejected, err
}

// serverMessage extracts the "error" field from a failure body. Bodies that
// are not JSON objects yield "".
func serverMessage(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return strings.TrimSpace(e.Error)
}

// IsTransport reports whether err means no response was received.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
