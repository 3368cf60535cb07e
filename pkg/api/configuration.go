package api

import "context"

type ConfigurationService struct {
	c *Client
}

// Get returns limits such as t.co URL length and media size caps.
func (s *ConfigurationService) Get(ctx context.Context) (*Configuration, error) {
	return get[Configuration](ctx, s.c, "help/configuration.json", nil)
}
