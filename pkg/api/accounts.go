package api

import (
	"context"
	"net/url"
)

type AccountService struct {
	c *Client
}

type VerifyCredentialsParams struct {
	IncludeEntities *bool
	SkipStatus      *bool
	IncludeEmail    *bool
}

// VerifyCredentials returns the user the request is authenticated as.
func (s *AccountService) VerifyCredentials(ctx context.Context, p VerifyCredentialsParams) (*User, error) {
	q := values{}
	q.setBool("include_entities", p.IncludeEntities)
	q.setBool("skip_status", p.SkipStatus)
	q.setBool("include_email", p.IncludeEmail)
	return get[User](ctx, s.c, "account/verify_credentials.json", url.Values(q))
}
