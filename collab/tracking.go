package collab

import "context"

// TrackingClient talks to the submission-tracking service.
type TrackingClient struct {
	http httpClient
}

// NewTrackingClient creates a client for the tracking service.
func NewTrackingClient(endpoint Endpoint, cfg ClientConfig) *TrackingClient {
	return &TrackingClient{http: newHTTPClient("tracking", endpoint, cfg)}
}

type submitRequest struct {
	FormSessionID string `json:"formSessionId"`
}

// Submit files a completed form as a scheme application.
func (c *TrackingClient) Submit(ctx context.Context, formSessionID string) (Application, error) {
	var out Application
	if err := c.http.postJSON(ctx, "/v1/applications", submitRequest{FormSessionID: formSessionID}, &out); err != nil {
		return Application{}, err
	}
	return out, nil
}

// Status answers a status query for a submitted application.
func (c *TrackingClient) Status(ctx context.Context, applicationID string) (Application, error) {
	var out Application
	if err := c.http.getJSON(ctx, "/v1/applications/"+applicationID, &out); err != nil {
		return Application{}, err
	}
	return out, nil
}

var _ SubmissionTracker = (*TrackingClient)(nil)
