package api

import (
	"context"
	"errors"
	"net/url"
)

type CollectionsService struct {
	c *Client
}

type CollectionParams struct {
	Count       int
	MaxPosition int64
	MinPosition int64
}

// Collection fetches entries of the collection id ("custom-<n>").
func (s *CollectionsService) Collection(ctx context.Context, id string, p CollectionParams) (*Collection, error) {
	if id == "" {
		return nil, errors.New("api: collection id is required")
	}
	q := values{}
	q.setString("id", id)
	q.setInt("count", p.Count)
	q.setID("max_position", p.MaxPosition)
	q.setID("min_position", p.MinPosition)
	return get[Collection](ctx, s.c, "collections/entries.json", url.Values(q))
}
