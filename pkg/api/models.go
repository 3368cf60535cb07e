package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// CreatedAtLayout is the timestamp format used by v1.1 payloads.
const CreatedAtLayout = time.RubyDate

type Tweet struct {
	ID                  int64        `json:"id"`
	IDStr               string       `json:"id_str"`
	CreatedAt           string       `json:"created_at"`
	Text                string       `json:"text,omitempty"`
	FullText            string       `json:"full_text,omitempty"`
	DisplayTextRange    []int        `json:"display_text_range,omitempty"`
	Truncated           bool         `json:"truncated"`
	Source              string       `json:"source,omitempty"`
	Lang                string       `json:"lang,omitempty"`
	User                *User        `json:"user,omitempty"`
	Entities            *Entities    `json:"entities,omitempty"`
	ExtendedEntities    *Entities    `json:"extended_entities,omitempty"`
	InReplyToStatusID   int64        `json:"in_reply_to_status_id,omitempty"`
	InReplyToUserID     int64        `json:"in_reply_to_user_id,omitempty"`
	InReplyToScreenName string       `json:"in_reply_to_screen_name,omitempty"`
	QuotedStatusID      int64        `json:"quoted_status_id,omitempty"`
	QuotedStatus        *Tweet       `json:"quoted_status,omitempty"`
	RetweetedStatus     *Tweet       `json:"retweeted_status,omitempty"`
	FavoriteCount       int          `json:"favorite_count"`
	Favorited           bool         `json:"favorited"`
	RetweetCount        int          `json:"retweet_count"`
	Retweeted           bool         `json:"retweeted"`
	PossiblySensitive   bool         `json:"possibly_sensitive,omitempty"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Place               *Place       `json:"place,omitempty"`
	WithheldCopyright   bool         `json:"withheld_copyright,omitempty"`
	WithheldInCountries []string     `json:"withheld_in_countries,omitempty"`
	WithheldScope       string       `json:"withheld_scope,omitempty"`
}

// CreatedTime parses CreatedAt; it returns the zero time when CreatedAt is
// missing or malformed.
func (t Tweet) CreatedTime() time.Time {
	ts, err := time.Parse(CreatedAtLayout, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Content returns the full text when the API sent extended mode text.
func (t Tweet) Content() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

type User struct {
	ID                   int64         `json:"id"`
	IDStr                string        `json:"id_str"`
	Name                 string        `json:"name"`
	ScreenName           string        `json:"screen_name"`
	Email                string        `json:"email,omitempty"`
	Location             string        `json:"location,omitempty"`
	Description          string        `json:"description,omitempty"`
	URL                  string        `json:"url,omitempty"`
	Entities             *UserEntities `json:"entities,omitempty"`
	Protected            bool          `json:"protected"`
	Verified             bool          `json:"verified"`
	FollowersCount       int           `json:"followers_count"`
	FriendsCount         int           `json:"friends_count"`
	ListedCount          int           `json:"listed_count"`
	FavouritesCount      int           `json:"favourites_count"`
	StatusesCount        int           `json:"statuses_count"`
	CreatedAt            string        `json:"created_at"`
	Lang                 string        `json:"lang,omitempty"`
	ProfileImageURLHTTPS string        `json:"profile_image_url_https,omitempty"`
	ProfileBannerURL     string        `json:"profile_banner_url,omitempty"`
	DefaultProfileImage  bool          `json:"default_profile_image"`
	Status               *Tweet        `json:"status,omitempty"`
	WithheldInCountries  []string      `json:"withheld_in_countries,omitempty"`
}

type UserEntities struct {
	URL         *Entities `json:"url,omitempty"`
	Description *Entities `json:"description,omitempty"`
}

type Entities struct {
	Hashtags     []HashtagEntity `json:"hashtags,omitempty"`
	Symbols      []HashtagEntity `json:"symbols,omitempty"`
	UserMentions []MentionEntity `json:"user_mentions,omitempty"`
	URLs         []URLEntity     `json:"urls,omitempty"`
	Media        []MediaEntity   `json:"media,omitempty"`
}

// Indices is the [start, end) code point range of an entity in the text.
type Indices []int

type HashtagEntity struct {
	Text    string  `json:"text"`
	Indices Indices `json:"indices"`
}

type MentionEntity struct {
	ID         int64   `json:"id"`
	IDStr      string  `json:"id_str"`
	Name       string  `json:"name"`
	ScreenName string  `json:"screen_name"`
	Indices    Indices `json:"indices"`
}

type URLEntity struct {
	URL         string  `json:"url"`
	ExpandedURL string  `json:"expanded_url"`
	DisplayURL  string  `json:"display_url"`
	Indices     Indices `json:"indices"`
}

type MediaEntity struct {
	URLEntity
	ID             int64      `json:"id"`
	IDStr          string     `json:"id_str"`
	MediaURL       string     `json:"media_url"`
	MediaURLHTTPS  string     `json:"media_url_https"`
	Type           string     `json:"type"`
	Sizes          MediaSizes `json:"sizes"`
	SourceStatusID int64      `json:"source_status_id,omitempty"`
	VideoInfo      *VideoInfo `json:"video_info,omitempty"`
	ExtAltText     string     `json:"ext_alt_text,omitempty"`
}

type MediaSizes struct {
	Thumb  MediaSize `json:"thumb"`
	Small  MediaSize `json:"small"`
	Medium MediaSize `json:"medium"`
	Large  MediaSize `json:"large"`
}

type MediaSize struct {
	W      int    `json:"w"`
	H      int    `json:"h"`
	Resize string `json:"resize"`
}

type VideoInfo struct {
	AspectRatio    []int          `json:"aspect_ratio"`
	DurationMillis int64          `json:"duration_millis"`
	Variants       []VideoVariant `json:"variants"`
}

type VideoVariant struct {
	Bitrate     int64  `json:"bitrate,omitempty"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type Coordinates struct {
	// Coordinates is [longitude, latitude].
	Coordinates []float64 `json:"coordinates"`
	Type        string    `json:"type"`
}

type Place struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	PlaceType   string            `json:"place_type"`
	Name        string            `json:"name"`
	FullName    string            `json:"full_name"`
	CountryCode string            `json:"country_code"`
	Country     string            `json:"country"`
	BoundingBox *BoundingBox      `json:"bounding_box,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type BoundingBox struct {
	Coordinates [][][]float64 `json:"coordinates"`
	Type        string        `json:"type"`
}

type Search struct {
	Statuses       []Tweet        `json:"statuses"`
	SearchMetadata SearchMetadata `json:"search_metadata"`
}

type SearchMetadata struct {
	MaxID       int64   `json:"max_id"`
	MaxIDStr    string  `json:"max_id_str"`
	SinceID     int64   `json:"since_id"`
	SinceIDStr  string  `json:"since_id_str"`
	RefreshURL  string  `json:"refresh_url"`
	NextResults string  `json:"next_results"`
	Count       int     `json:"count"`
	CompletedIn float64 `json:"completed_in"`
	Query       string  `json:"query"`
}

type Configuration struct {
	DMTextCharacterLimit       int        `json:"dm_text_character_limit"`
	CharactersReservedPerMedia int        `json:"characters_reserved_per_media"`
	MaxMediaPerUpload          int        `json:"max_media_per_upload"`
	NonUsernamePaths           []string   `json:"non_username_paths"`
	PhotoSizeLimit             int64      `json:"photo_size_limit"`
	PhotoSizes                 MediaSizes `json:"photo_sizes"`
	ShortURLLength             int        `json:"short_url_length"`
	ShortURLLengthHTTPS        int        `json:"short_url_length_https"`
}

// Collection is a curated timeline. Tweets and users are sent once in Objects
// and referenced by id from the timeline.
type Collection struct {
	Objects  CollectionObjects  `json:"objects"`
	Response CollectionResponse `json:"response"`
}

type CollectionObjects struct {
	Tweets map[int64]Tweet `json:"tweets"`
	Users  map[int64]User  `json:"users"`
}

type CollectionResponse struct {
	TimelineID string             `json:"timeline_id"`
	Timeline   []CollectionItem   `json:"timeline"`
	Position   CollectionPosition `json:"position"`
}

type CollectionItem struct {
	Tweet struct {
		ID        int64   `json:"id"`
		SortIndex FlexInt `json:"sort_index"`
	} `json:"tweet"`
}

type CollectionPosition struct {
	MaxPosition  FlexInt `json:"max_position"`
	MinPosition  FlexInt `json:"min_position"`
	WasTruncated bool    `json:"was_truncated"`
}

// Tweets resolves the timeline against Objects in timeline order. Each tweet's
// author is filled in from the users map; unknown ids are skipped.
func (c *Collection) Tweets() []Tweet {
	out := make([]Tweet, 0, len(c.Response.Timeline))
	for _, item := range c.Response.Timeline {
		tw, ok := c.Objects.Tweets[item.Tweet.ID]
		if !ok {
			continue
		}
		if tw.User != nil {
			if u, ok := c.Objects.Users[tw.User.ID]; ok {
				tw.User = &u
			}
		}
		out = append(out, tw)
	}
	return out
}

// FlexInt decodes an int64 sent either as a JSON number or a quoted string.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(f), 10))
}
