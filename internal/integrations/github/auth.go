package github

import (
	"context"
	"net/http"
	"time"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every API call made by the client.
const DefaultTimeout = 10 * time.Second

// NewClient creates a new GitHub client using the provided token.
// If token is empty, it returns an unauthenticated client.
func NewClient(ctx context.Context, token string) *Client {
	var tc *http.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(ctx, ts)
	}

	client := gh.NewClient(tc)

	return &Client{
		client:  client,
		timeout: DefaultTimeout,
	}
}

// WithTimeout sets a custom per-call timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}
