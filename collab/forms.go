package collab

import "context"

// FormClient talks to the form-generation service.
type FormClient struct {
	http httpClient
}

// NewFormClient creates a client for the form service.
func NewFormClient(endpoint Endpoint, cfg ClientConfig) *FormClient {
	return &FormClient{http: newHTTPClient("forms", endpoint, cfg)}
}

type startSessionRequest struct {
	SchemeID string  `json:"schemeId"`
	Profile  Profile `json:"profile"`
}

// StartSession begins a form-filling session for a scheme.
func (c *FormClient) StartSession(ctx context.Context, schemeID string, profile Profile) (FormSession, error) {
	var out FormSession
	if err := c.http.postJSON(ctx, "/v1/sessions", startSessionRequest{SchemeID: schemeID, Profile: profile}, &out); err != nil {
		return FormSession{}, err
	}
	return out, nil
}

type continueSessionRequest struct {
	Input string `json:"input"`
}

// Continue feeds one user answer into an in-progress form session.
func (c *FormClient) Continue(ctx context.Context, sessionID, input string) (FormSession, error) {
	var out FormSession
	if err := c.http.postJSON(ctx, "/v1/sessions/"+sessionID, continueSessionRequest{Input: input}, &out); err != nil {
		return FormSession{}, err
	}
	return out, nil
}

var _ FormFiller = (*FormClient)(nil)
