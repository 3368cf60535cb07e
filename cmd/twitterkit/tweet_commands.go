package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/twitterkit/pkg/api"
)

func timeline(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	s, err := activeSession(c, core)
	if err != nil {
		return err
	}
	client, err := core.APIClientFor(s)
	if err != nil {
		return err
	}
	tweets, err := client.Statuses().HomeTimeline(c.Context, api.TimelineParams{
		Count:     c.Int(flagCount),
		TweetMode: "extended",
	})
	if err != nil {
		return err
	}
	if len(tweets) == 0 {
		fmt.Println("No tweets found.")
		return nil
	}
	return render(os.Stdout, output, tweets, tweetRows(tweets))
}

func search(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("search requires a QUERY argument")
	}
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	client, err := core.APIClient(c.Context)
	if err != nil {
		return err
	}
	res, err := client.Search().Tweets(c.Context, strings.Join(c.Args().Slice(), " "), api.SearchParams{
		Count:      c.Int(flagCount),
		ResultType: api.ResultTypeRecent,
		TweetMode:  "extended",
	})
	if err != nil {
		return err
	}
	if len(res.Statuses) == 0 {
		fmt.Println("No tweets found.")
		return nil
	}
	return render(os.Stdout, output, res.Statuses, tweetRows(res.Statuses))
}

func tweetShow(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("tweet show requires one argument: TWEET_ID")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tweet id %q", c.Args().First())
	}
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	tw, err := core.GuestAPIClient().Statuses().Show(c.Context, id, api.TweetParams{TweetMode: "extended"})
	if err != nil {
		return err
	}
	return render(os.Stdout, output, tw, tweetRows([]api.Tweet{*tw}))
}

func tweetPost(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("tweet post requires a TEXT argument")
	}
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	s, err := activeSession(c, core)
	if err != nil {
		return err
	}
	client, err := core.APIClientFor(s)
	if err != nil {
		return err
	}
	tw, err := client.Statuses().Update(c.Context, strings.Join(c.Args().Slice(), " "), api.UpdateParams{
		InReplyToStatusID: c.Int64(flagReply),
	})
	if err != nil {
		return err
	}
	return render(os.Stdout, output, tw, tweetRows([]api.Tweet{*tw}))
}
