package api

import (
	"context"
	"errors"
	"net/url"
)

type SearchService struct {
	c *Client
}

// Result types accepted by SearchParams.ResultType.
const (
	ResultTypeMixed   = "mixed"
	ResultTypeRecent  = "recent"
	ResultTypePopular = "popular"
)

type SearchParams struct {
	Geocode    string
	Lang       string
	Locale     string
	ResultType string
	Count      int
	// Until is a YYYY-MM-DD date.
	Until           string
	SinceID         int64
	MaxID           int64
	IncludeEntities *bool
	TweetMode       string
}

func (s *SearchService) Tweets(ctx context.Context, query string, p SearchParams) (*Search, error) {
	if query == "" {
		return nil, errors.New("api: search query is required")
	}
	q := values{}
	q.setString("q", query)
	q.setString("geocode", p.Geocode)
	q.setString("lang", p.Lang)
	q.setString("locale", p.Locale)
	q.setString("result_type", p.ResultType)
	q.setInt("count", p.Count)
	q.setString("until", p.Until)
	q.setID("since_id", p.SinceID)
	q.setID("max_id", p.MaxID)
	q.setBool("include_entities", p.IncludeEntities)
	q.setString("tweet_mode", p.TweetMode)
	return get[Search](ctx, s.c, "search/tweets.json", url.Values(q))
}
