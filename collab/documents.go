package collab

import "context"

// DocumentClient talks to the document-guidance service.
type DocumentClient struct {
	http httpClient
}

// NewDocumentClient creates a client for the document service.
func NewDocumentClient(endpoint Endpoint, cfg ClientConfig) *DocumentClient {
	return &DocumentClient{http: newHTTPClient("documents", endpoint, cfg)}
}

type requirementsResponse struct {
	Requirements []DocumentRequirement `json:"requirements"`
}

// Requirements lists the documents needed to apply for a scheme.
func (c *DocumentClient) Requirements(ctx context.Context, schemeID string) ([]DocumentRequirement, error) {
	var out requirementsResponse
	if err := c.http.getJSON(ctx, "/v1/schemes/"+schemeID+"/requirements", &out); err != nil {
		return nil, err
	}
	return out.Requirements, nil
}

var _ DocumentGuide = (*DocumentClient)(nil)
