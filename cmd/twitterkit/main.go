package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/twitterkit"
)

func main() {
	app := cli.NewApp()
	app.Name = "twitterkit"
	app.Usage = "Sign in to Twitter and call the REST API from the terminal"
	app.Version = twitterkit.Version
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "Log debug output to stderr",
		},
		&cli.StringSliceFlag{
			Name:  flagEnvFile,
			Usage: "Dotenv file to read before the environment",
			Value: cli.NewStringSlice(".env"),
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:  "login",
			Usage: "Sign in with a Twitter account",
			Description: "By default, starts a local callback server and waits for " +
				"Twitter to redirect back to it. With --pin, uses the out-of-band " +
				"flow and asks for the PIN Twitter shows instead.",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    flagBrowse,
					Aliases: []string{"b"},
					Usage:   "Open the authorization page in the default browser",
				},
				&cli.BoolFlag{
					Name:  flagPIN,
					Usage: "Use PIN based authorization",
				},
				&cli.BoolFlag{
					Name:  flagQR,
					Usage: "With --pin, also print the authorization URL as a QR code",
				},
				&cli.DurationFlag{
					Name:  flagTimeout,
					Usage: "Give up when sign-in takes longer than this",
					Value: 5 * time.Minute,
				},
			},
			Action: login,
		},
		{
			Name:   "logout",
			Usage:  "Forget the active session",
			Action: logout,
		},
		{
			Name:   "whoami",
			Usage:  "Show the signed in user",
			Flags:  []cli.Flag{cliFlagOutput},
			Action: whoami,
		},
		{
			Name:   "email",
			Usage:  "Show the email of the signed in user",
			Action: email,
		},
		{
			Name:   "status",
			Usage:  "Check the session store and show who is signed in",
			Action: status,
		},
		{
			Name:   "sessions",
			Usage:  "List stored sessions",
			Flags:  []cli.Flag{cliFlagOutput},
			Action: sessions,
		},
		{
			Name:  "timeline",
			Usage: "Show the home timeline of the signed in user",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.IntFlag{
					Name:    flagCount,
					Aliases: []string{"n"},
					Usage:   "Number of tweets to fetch",
					Value:   20,
				},
			},
			Action: timeline,
		},
		{
			Name:      "search",
			Usage:     "Search recent tweets",
			ArgsUsage: "QUERY",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.IntFlag{
					Name:    flagCount,
					Aliases: []string{"n"},
					Usage:   "Number of tweets to fetch",
					Value:   15,
				},
			},
			Action: search,
		},
		{
			Name:  "tweet",
			Usage: "Read and post tweets",
			Subcommands: []*cli.Command{
				{
					Name:      "show",
					Usage:     "Show a tweet using guest authentication",
					ArgsUsage: "TWEET_ID",
					Flags:     []cli.Flag{cliFlagOutput},
					Action:    tweetShow,
				},
				{
					Name:      "post",
					Usage:     "Post a tweet as the signed in user",
					ArgsUsage: "TEXT",
					Flags: []cli.Flag{
						cliFlagOutput,
						&cli.Int64Flag{
							Name:  flagReply,
							Usage: "Id of the tweet to reply to",
						},
					},
					Action: tweetPost,
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", err)
		stop()
		os.Exit(1)
	}
}
