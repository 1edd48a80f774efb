package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// Approve adds the account as an approved submitter on the community
// subreddit. This is the upstream side effect of a moderator approval and
// must succeed before the local record is marked Approved.
func (c *Client) Approve(ctx context.Context, username string) error {
	form := url.Values{
		"api_type": {"json"},
		"name":     {username},
		"type":     {"contributor"},
	}
	path := fmt.Sprintf("/r/%s/api/friend", url.PathEscape(c.subreddit))
	if err := c.do(ctx, http.MethodPost, path, form, nil); err != nil {
		return fmt.Errorf("approve %s: %w", username, err)
	}
	log.Info().Str("username", username).Str("subreddit", c.subreddit).Msg("approved submitter upstream")
	return nil
}

// Compose sends a private message to the account.
func (c *Client) Compose(ctx context.Context, to, subject, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"to":       {to},
		"subject":  {subject},
		"text":     {body},
	}
	if err := c.do(ctx, http.MethodPost, "/api/compose", form, nil); err != nil {
		return fmt.Errorf("compose to %s: %w", to, err)
	}
	return nil
}
