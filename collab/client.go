package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/balancer"
	apperrors "github.com/Purnavu-12/Gram-Sahayak-sub001/errors"
)

// Endpoint resolves a base URL per call. The release function must be
// called when the call finishes so connection accounting stays accurate.
type Endpoint interface {
	Acquire() (url string, release func(), err error)
}

// StaticEndpoint always returns the same base URL.
type StaticEndpoint string

func (e StaticEndpoint) Acquire() (string, func(), error) {
	return string(e), func() {}, nil
}

// BalancedEndpoint selects an instance from the load balancer per call.
type BalancedEndpoint struct {
	lb      *balancer.LoadBalancer
	service string
}

// NewBalancedEndpoint creates an endpoint backed by a balancer pool.
func NewBalancedEndpoint(lb *balancer.LoadBalancer, service string) *BalancedEndpoint {
	return &BalancedEndpoint{lb: lb, service: service}
}

func (e *BalancedEndpoint) Acquire() (string, func(), error) {
	inst, err := e.lb.Acquire(e.service)
	if err != nil {
		return "", nil, apperrors.ServiceUnavailable(e.service).WithCause(err)
	}
	return inst.URL, func() { e.lb.Release(inst) }, nil
}

// ClientConfig configures one collaborator HTTP client.
type ClientConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// httpClient is the shared JSON-over-HTTP plumbing for collaborator calls.
type httpClient struct {
	service  string
	endpoint Endpoint
	client   *http.Client
}

func newHTTPClient(service string, endpoint Endpoint, cfg ClientConfig) httpClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return httpClient{
		service:  service,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// postJSON sends a JSON body to path and decodes the JSON response into out.
func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// getJSON fetches path and decodes the JSON response into out.
func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	base, release, err := c.endpoint.Acquire()
	if err != nil {
		return err
	}
	defer release()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", c.service, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.service, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.ConnectionFailed(c.service).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		appErr := apperrors.ExternalServiceError(c.service,
			fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, payload))
		appErr.HTTPStatus = resp.StatusCode
		appErr.Retryable = resp.StatusCode >= 500
		return appErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", c.service, err)
	}
	return nil
}
