package api

import (
	"context"
	"errors"
)

type ListsService struct {
	c *Client
}

// ListStatusesParams identify a list either by ListID or by Slug plus an owner.
type ListStatusesParams struct {
	ListID          int64
	Slug            string
	OwnerScreenName string
	OwnerID         int64
	SinceID         int64
	MaxID           int64
	Count           int
	IncludeEntities *bool
	IncludeRetweets *bool
}

func (s *ListsService) Statuses(ctx context.Context, p ListStatusesParams) ([]Tweet, error) {
	if p.ListID == 0 && (p.Slug == "" || (p.OwnerScreenName == "" && p.OwnerID == 0)) {
		return nil, errors.New("api: list id or slug with owner is required")
	}
	q := values{}
	q.setID("list_id", p.ListID)
	q.setString("slug", p.Slug)
	q.setString("owner_screen_name", p.OwnerScreenName)
	q.setID("owner_id", p.OwnerID)
	q.setID("since_id", p.SinceID)
	q.setID("max_id", p.MaxID)
	q.setInt("count", p.Count)
	q.setBool("include_entities", p.IncludeEntities)
	q.setBool("include_rts", p.IncludeRetweets)
	return timeline(ctx, s.c, "lists/statuses.json", q)
}
