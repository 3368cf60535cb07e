package api

import (
	"context"
	"net/url"
)

type FavoritesService struct {
	c *Client
}

type FavoritesListParams struct {
	UserID          int64
	ScreenName      string
	Count           int
	SinceID         int64
	MaxID           int64
	IncludeEntities *bool
}

// List returns tweets liked by a user, the authenticated one by default.
func (s *FavoritesService) List(ctx context.Context, p FavoritesListParams) ([]Tweet, error) {
	q := values{}
	q.setID("user_id", p.UserID)
	q.setString("screen_name", p.ScreenName)
	q.setInt("count", p.Count)
	q.setID("since_id", p.SinceID)
	q.setID("max_id", p.MaxID)
	q.setBool("include_entities", p.IncludeEntities)
	return timeline(ctx, s.c, "favorites/list.json", q)
}

func (s *FavoritesService) Create(ctx context.Context, id int64, includeEntities *bool) (*Tweet, error) {
	return s.toggle(ctx, "favorites/create.json", id, includeEntities)
}

func (s *FavoritesService) Destroy(ctx context.Context, id int64, includeEntities *bool) (*Tweet, error) {
	return s.toggle(ctx, "favorites/destroy.json", id, includeEntities)
}

func (s *FavoritesService) toggle(ctx context.Context, path string, id int64, includeEntities *bool) (*Tweet, error) {
	if id == 0 {
		return nil, ErrEmptyID
	}
	f := values{}
	f.setID("id", id)
	f.setBool("include_entities", includeEntities)
	return post[Tweet](ctx, s.c, path, url.Values(f))
}
