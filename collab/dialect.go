package collab

import "context"

// DialectClient talks to the dialect-detection service.
type DialectClient struct {
	http httpClient
}

// NewDialectClient creates a client for the dialect service.
func NewDialectClient(endpoint Endpoint, cfg ClientConfig) *DialectClient {
	return &DialectClient{http: newHTTPClient("dialect", endpoint, cfg)}
}

type detectRequest struct {
	Text string `json:"text"`
}

// Detect classifies the language and dialect of the given text.
func (c *DialectClient) Detect(ctx context.Context, text string) (Dialect, error) {
	var out Dialect
	if err := c.http.postJSON(ctx, "/v1/detect", detectRequest{Text: text}, &out); err != nil {
		return Dialect{}, err
	}
	return out, nil
}

var _ DialectDetector = (*DialectClient)(nil)
