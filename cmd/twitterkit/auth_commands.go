package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/gosuri/uitable"
	skipqrcode "github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/twitterkit/pkg/api"
	"github.com/dmitrymomot/twitterkit/pkg/async"
	"github.com/dmitrymomot/twitterkit/pkg/identity"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

func login(c *cli.Context) error {
	if c.Args().Len() != 0 {
		return errors.New("login requires no arguments")
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	var open func(string) error
	if c.Bool(flagBrowse) {
		open = identity.OpenBrowser
	}

	var authorizer identity.Authorizer
	if c.Bool(flagPIN) {
		authorizer = identity.NewPINAuthorizer(surveyPrompter(c.Bool(flagQR)), open)
	} else {
		opts := []identity.CallbackOption{identity.WithOutput(os.Stdout)}
		if open != nil {
			opts = append(opts, identity.WithBrowser(open))
		}
		authorizer = core.CallbackAuthorizer(opts...)
	}

	s, err := awaitLogin(c.Context, core.AuthClient(), authorizer, c.Duration(flagTimeout))
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as @%s (%d).\n", s.UserName, s.ID)
	return nil
}

// awaitLogin runs the flow in the background and cancels it once timeout
// passes. A zero timeout waits until the flow ends.
func awaitLogin(ctx context.Context, auth *identity.AuthClient, a identity.Authorizer, timeout time.Duration) (*session.Session, error) {
	fut := auth.AuthorizeAsync(ctx, a)
	var (
		s   *session.Session
		err error
	)
	if timeout > 0 {
		s, err = fut.AwaitWithTimeout(timeout)
	} else {
		s, err = fut.Await()
	}
	if errors.Is(err, async.ErrTimeout) {
		auth.CancelAuthorize()
		_, _ = fut.Await()
		return nil, fmt.Errorf("login timed out after %s", timeout)
	}
	if oauth.IsCanceled(err) || errors.Is(err, context.Canceled) {
		return nil, errors.New("login canceled")
	}
	return s, err
}

// surveyPrompter asks for the PIN. Ctrl-C at the prompt cancels sign-in.
// With qr set the authorize URL is also drawn as a QR code, so it can be
// approved from a phone.
func surveyPrompter(qr bool) identity.Prompter {
	return func(_ context.Context, authorizeURL string) (string, error) {
		fmt.Printf("Open this URL to authorize the application:\n\n  %s\n\n", authorizeURL)
		if qr {
			code, err := renderQRCode(authorizeURL)
			if err != nil {
				return "", err
			}
			fmt.Println(code)
		}
		var pin string
		err := survey.AskOne(&survey.Input{Message: "PIN:"}, &pin)
		if errors.Is(err, terminal.InterruptErr) {
			return "", oauth.ErrCanceled
		}
		return pin, err
	}
}

// renderQRCode draws content with block characters for a terminal.
func renderQRCode(content string) (string, error) {
	q, err := skipqrcode.New(content, skipqrcode.Low)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return q.ToString(false), nil
}

func logout(c *cli.Context) error {
	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	s, err := core.SessionManager().ActiveSession(c.Context)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := core.SessionManager().ClearSession(c.Context, s.ID); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	fmt.Printf("Signed out @%s.\n", s.UserName)
	return nil
}

func whoami(c *cli.Context) error {
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
	u, err := client.Accounts().VerifyCredentials(c.Context, api.VerifyCredentialsParams{
		IncludeEntities: api.Bool(false),
		SkipStatus:      api.Bool(true),
	})
	if err != nil {
		return err
	}
	return render(os.Stdout, output, u, func(table *uitable.Table) {
		table.AddRow("ID", "SCREEN NAME", "NAME", "FOLLOWERS", "FOLLOWING")
		table.AddRow(u.ID, "@"+u.ScreenName, u.Name, u.FollowersCount, u.FriendsCount)
	})
}

func email(c *cli.Context) error {
	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	s, err := activeSession(c, core)
	if err != nil {
		return err
	}
	addr, err := core.AuthClient().RequestEmail(c.Context, s)
	if err != nil {
		return err
	}
	if addr == "" {
		fmt.Println("No email available. The app may lack the email permission.")
		return nil
	}
	fmt.Println(addr)
	return nil
}

func status(c *cli.Context) error {
	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	store := core.Config().Store
	if store == "" {
		store = "file"
	}
	health := "ok"
	if err := core.Healthcheck(c.Context); err != nil {
		health = err.Error()
	}
	user := "signed out"
	if s, err := core.SessionManager().ActiveSession(c.Context); err == nil && s != nil {
		user = "@" + s.UserName
	}

	table := uitable.New()
	table.AddRow("STORE", "HEALTH", "USER")
	table.AddRow(store, health, user)
	fmt.Println(table)
	return nil
}

type sessionRow struct {
	ID       int64  `json:"id"`
	UserName string `json:"user_name"`
	Active   bool   `json:"active"`
}

func sessions(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	core, err := getCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	all, err := core.SessionManager().Sessions(c.Context)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	active, err := core.SessionManager().ActiveSession(c.Context)
	if err != nil {
		return err
	}
	rows := sessionRows(all, active)
	return render(os.Stdout, output, rows, func(table *uitable.Table) {
		table.AddRow("ID", "USER", "ACTIVE")
		for _, r := range rows {
			mark := ""
			if r.Active {
				mark = "*"
			}
			table.AddRow(r.ID, "@"+r.UserName, mark)
		}
	})
}

func sessionRows(all map[int64]*session.Session, active *session.Session) []sessionRow {
	rows := make([]sessionRow, 0, len(all))
	for id, s := range all {
		rows = append(rows, sessionRow{ID: id, UserName: s.UserName, Active: active != nil && active.ID == id})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}
