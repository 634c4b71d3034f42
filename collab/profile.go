package collab

import "context"

// ProfileClient talks to the profile-storage service.
type ProfileClient struct {
	http httpClient
}

// NewProfileClient creates a client for the profile service.
func NewProfileClient(endpoint Endpoint, cfg ClientConfig) *ProfileClient {
	return &ProfileClient{http: newHTTPClient("profiles", endpoint, cfg)}
}

// Save stores a citizen profile.
func (c *ProfileClient) Save(ctx context.Context, profile Profile) error {
	return c.http.postJSON(ctx, "/v1/profiles", profile, nil)
}

// Load fetches a citizen profile by user id.
func (c *ProfileClient) Load(ctx context.Context, userID string) (Profile, error) {
	var out Profile
	if err := c.http.getJSON(ctx, "/v1/profiles/"+userID, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

var _ ProfileStore = (*ProfileClient)(nil)
