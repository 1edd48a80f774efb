package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/redditnobility/backend/internal/domain"
)

const listingLimit = 25

// About fetches the public profile of a Reddit account.
func (c *Client) About(ctx context.Context, username string) (domain.RedditProfile, error) {
	var body struct {
		Data struct {
			Name         string  `json:"name"`
			IconImg      string  `json:"icon_img"`
			CommentKarma int64   `json:"comment_karma"`
			TotalKarma   int64   `json:"total_karma"`
			CreatedUTC   float64 `json:"created_utc"`
			IsSuspended  bool    `json:"is_suspended"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/user/%s/about?raw_json=1", url.PathEscape(username))
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return domain.RedditProfile{}, err
	}
	return domain.RedditProfile{
		Name:         body.Data.Name,
		Avatar:       body.Data.IconImg,
		CommentKarma: body.Data.CommentKarma,
		TotalKarma:   body.Data.TotalKarma,
		Created:      int64(body.Data.CreatedUTC),
		Suspended:    body.Data.IsSuspended,
	}, nil
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Subreddit string  `json:"subreddit"`
				Permalink string  `json:"permalink"`
				ID        string  `json:"id"`
				Title     string  `json:"title"`
				Selftext  string  `json:"selftext"`
				URL       string  `json:"url"`
				Over18    bool    `json:"over_18"`
				LinkTitle string  `json:"link_title"`
				Body      string  `json:"body"`
				Score     float64 `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Submissions fetches the account's most recent posts.
func (c *Client) Submissions(ctx context.Context, username string) ([]domain.RedditPost, error) {
	var body listing
	path := fmt.Sprintf("/user/%s/submitted?raw_json=1&limit=%d", url.PathEscape(username), listingLimit)
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	posts := make([]domain.RedditPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		post := domain.RedditPost{
			Subreddit: d.Subreddit,
			URL:       "https://reddit.com" + d.Permalink,
			ID:        d.ID,
			Title:     d.Title,
			Over18:    d.Over18,
			Score:     int64(d.Score),
		}
		// Self posts carry their text, link posts only the target URL.
		if d.Selftext != "" {
			post.Content = d.Selftext
		} else {
			post.LinkURL = d.URL
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Comments fetches the account's most recent comments.
func (c *Client) Comments(ctx context.Context, username string) ([]domain.RedditComment, error) {
	var body listing
	path := fmt.Sprintf("/user/%s/comments?raw_json=1&limit=%d", url.PathEscape(username), listingLimit)
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	comments := make([]domain.RedditComment, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		comments = append(comments, domain.RedditComment{
			Subreddit: d.Subreddit,
			URL:       "https://reddit.com" + d.Permalink,
			ID:        d.ID,
			PostTitle: d.LinkTitle,
			Content:   d.Body,
			Score:     int64(d.Score),
		})
	}
	return comments, nil
}
