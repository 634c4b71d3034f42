package store

import (
	"context"
	"fmt"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/component"
)

// Component wraps Redis and implements component.Component for lifecycle
// management. The client itself connects lazily, so it can be constructed
// and wired before Start verifies connectivity.
type Component struct {
	store *Redis
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a lifecycle component over an existing Redis store.
func NewComponent(store *Redis) *Component {
	return &Component{store: store}
}

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("redis start ping: %w", err)
	}
	return nil
}

// Stop closes the Redis connection.
func (c *Component) Stop(_ context.Context) error {
	return c.store.Close()
}

// Health pings Redis and reports the result.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.store.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
