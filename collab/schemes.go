package collab

import "context"

// SchemeClient talks to the scheme eligibility-matching service.
type SchemeClient struct {
	http httpClient
}

// NewSchemeClient creates a client for the scheme service.
func NewSchemeClient(endpoint Endpoint, cfg ClientConfig) *SchemeClient {
	return &SchemeClient{http: newHTTPClient("schemes", endpoint, cfg)}
}

type matchResponse struct {
	Schemes []Scheme `json:"schemes"`
}

// Match ranks eligible schemes for a citizen profile.
func (c *SchemeClient) Match(ctx context.Context, profile Profile) ([]Scheme, error) {
	var out matchResponse
	if err := c.http.postJSON(ctx, "/v1/match", profile, &out); err != nil {
		return nil, err
	}
	return out.Schemes, nil
}

var _ SchemeMatcher = (*SchemeClient)(nil)
