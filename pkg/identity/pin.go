package identity

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrymomot/twitterkit/pkg/oauth"
)

// Prompter asks the user for the PIN shown after approving the app.
type Prompter func(ctx context.Context, authorizeURL string) (string, error)

// PINAuthorizer runs the out-of-band flow: the user opens the URL and types
// the PIN back.
type PINAuthorizer struct {
	prompt Prompter
	open   func(string) error
}

var _ Authorizer = (*PINAuthorizer)(nil)

// NewPINAuthorizer uses prompt to read the PIN. open may be nil.
func NewPINAuthorizer(prompt Prompter, open func(string) error) *PINAuthorizer {
	return &PINAuthorizer{prompt: prompt, open: open}
}

// ReaderPrompter prints the URL to out and reads one line from in.
func ReaderPrompter(in io.Reader, out io.Writer) Prompter {
	br := bufio.NewReader(in)
	return func(ctx context.Context, authorizeURL string) (string, error) {
		fmt.Fprintf(out, "Open this URL to authorize the application:\n\n  %s\n\nPIN: ", authorizeURL)

		type line struct {
			s   string
			err error
		}
		ch := make(chan line, 1)
		go func() {
			s, err := br.ReadString('\n')
			ch <- line{s, err}
		}()
		select {
		case <-ctx.Done():
			return "", oauth.ErrCanceled
		case l := <-ch:
			if l.err != nil && (!errors.Is(l.err, io.EOF) || strings.TrimSpace(l.s) == "") {
				return "", fmt.Errorf("identity: read pin: %w", l.err)
			}
			return l.s, nil
		}
	}
}

func (p *PINAuthorizer) Callback(context.Context) (string, error) {
	return oauth.OutOfBandCallback, nil
}

// Authorize returns the trimmed PIN; an empty answer counts as canceled.
func (p *PINAuthorizer) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	if p.open != nil {
		_ = p.open(req.URL)
	}
	pin, err := p.prompt(ctx, req.URL)
	if err != nil {
		return "", err
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return "", oauth.ErrCanceled
	}
	return pin, nil
}
