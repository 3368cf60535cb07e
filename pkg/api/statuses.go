package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

type StatusesService struct {
	c *Client
}

// TweetParams are the hydration flags shared by single tweet endpoints.
type TweetParams struct {
	TrimUser         *bool
	IncludeMyRetweet *bool
	IncludeEntities  *bool
	// TweetMode "extended" returns full_text instead of text.
	TweetMode string
}

func (p TweetParams) apply(q values) {
	q.setBool("trim_user", p.TrimUser)
	q.setBool("include_my_retweet", p.IncludeMyRetweet)
	q.setBool("include_entities", p.IncludeEntities)
	q.setString("tweet_mode", p.TweetMode)
}

// TimelineParams page through a timeline by id.
type TimelineParams struct {
	Count           int
	SinceID         int64
	MaxID           int64
	TrimUser        *bool
	ExcludeReplies  *bool
	IncludeEntities *bool
	TweetMode       string
}

func (p TimelineParams) apply(q values) {
	q.setInt("count", p.Count)
	q.setID("since_id", p.SinceID)
	q.setID("max_id", p.MaxID)
	q.setBool("trim_user", p.TrimUser)
	q.setBool("exclude_replies", p.ExcludeReplies)
	q.setBool("include_entities", p.IncludeEntities)
	q.setString("tweet_mode", p.TweetMode)
}

type UserTimelineParams struct {
	TimelineParams
	UserID             int64
	ScreenName         string
	ContributorDetails *bool
	IncludeRetweets    *bool
}

type UpdateParams struct {
	InReplyToStatusID  int64
	PossiblySensitive  *bool
	Lat                *float64
	Long               *float64
	PlaceID            string
	DisplayCoordinates *bool
	TrimUser           *bool
	MediaIDs           []int64
}

func (s *StatusesService) Show(ctx context.Context, id int64, p TweetParams) (*Tweet, error) {
	if id == 0 {
		return nil, ErrEmptyID
	}
	q := values{}
	q.setID("id", id)
	p.apply(q)
	return get[Tweet](ctx, s.c, "statuses/show.json", url.Values(q))
}

// Lookup returns up to 100 tweets per call. Ids that do not resolve are
// omitted from the result.
func (s *StatusesService) Lookup(ctx context.Context, ids []int64, p TweetParams) ([]Tweet, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyID
	}
	q := values{}
	q.setIDs("id", ids)
	p.apply(q)
	out, err := get[[]Tweet](ctx, s.c, "statuses/lookup.json", url.Values(q))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (s *StatusesService) UserTimeline(ctx context.Context, p UserTimelineParams) ([]Tweet, error) {
	q := values{}
	q.setID("user_id", p.UserID)
	q.setString("screen_name", p.ScreenName)
	q.setBool("contributor_details", p.ContributorDetails)
	q.setBool("include_rts", p.IncludeRetweets)
	p.TimelineParams.apply(q)
	return timeline(ctx, s.c, "statuses/user_timeline.json", q)
}

func (s *StatusesService) HomeTimeline(ctx context.Context, p TimelineParams) ([]Tweet, error) {
	q := values{}
	p.apply(q)
	return timeline(ctx, s.c, "statuses/home_timeline.json", q)
}

func (s *StatusesService) MentionsTimeline(ctx context.Context, p TimelineParams) ([]Tweet, error) {
	q := values{}
	p.apply(q)
	return timeline(ctx, s.c, "statuses/mentions_timeline.json", q)
}

// Update posts a new status. The text is sent in NFC form, which is what
// Twitter counts characters against.
func (s *StatusesService) Update(ctx context.Context, status string, p UpdateParams) (*Tweet, error) {
	status = norm.NFC.String(status)
	if status == "" && len(p.MediaIDs) == 0 {
		return nil, errors.New("api: status text or media is required")
	}
	f := values{}
	f.setString("status", status)
	f.setID("in_reply_to_status_id", p.InReplyToStatusID)
	f.setBool("possibly_sensitive", p.PossiblySensitive)
	f.setFloat("lat", p.Lat)
	f.setFloat("long", p.Long)
	f.setString("place_id", p.PlaceID)
	f.setBool("display_coordinates", p.DisplayCoordinates)
	f.setBool("trim_user", p.TrimUser)
	f.setIDs("media_ids", p.MediaIDs)
	return post[Tweet](ctx, s.c, "statuses/update.json", url.Values(f))
}

func (s *StatusesService) Destroy(ctx context.Context, id int64, trimUser *bool) (*Tweet, error) {
	return s.byID(ctx, "statuses/destroy/%s.json", id, trimUser)
}

func (s *StatusesService) Retweet(ctx context.Context, id int64, trimUser *bool) (*Tweet, error) {
	return s.byID(ctx, "statuses/retweet/%s.json", id, trimUser)
}

func (s *StatusesService) Unretweet(ctx context.Context, id int64, trimUser *bool) (*Tweet, error) {
	return s.byID(ctx, "statuses/unretweet/%s.json", id, trimUser)
}

func (s *StatusesService) byID(ctx context.Context, pathFmt string, id int64, trimUser *bool) (*Tweet, error) {
	if id == 0 {
		return nil, ErrEmptyID
	}
	f := values{}
	f.setBool("trim_user", trimUser)
	return post[Tweet](ctx, s.c, fmt.Sprintf(pathFmt, strconv.FormatInt(id, 10)), url.Values(f))
}

func timeline(ctx context.Context, c *Client, path string, q values) ([]Tweet, error) {
	out, err := get[[]Tweet](ctx, c, path, url.Values(q))
	if err != nil {
		return nil, err
	}
	return *out, nil
}
