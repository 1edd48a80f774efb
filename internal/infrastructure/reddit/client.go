package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redditnobility/backend/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	authBaseURL = "https://www.reddit.com"
	apiBaseURL  = "https://oauth.reddit.com"
)

// ErrNotFound means Reddit confirmed the resource does not exist (HTTP 404).
// This is a permanent condition, unlike transport or rate-limit failures,
// which come back as plain wrapped errors.
var ErrNotFound = errors.New("reddit: not found")

// Client is a script-app Reddit API client using the OAuth2 password grant.
// All calls pass a shared rate limiter before touching the network; the
// access token is refreshed lazily under a mutex when it nears expiry.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	clientID     string
	clientSecret string
	username     string
	password     string
	userAgent    string
	subreddit    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(cfg.Reddit.RatePerSec), cfg.Reddit.RateBurst),
		clientID:     cfg.Reddit.ClientID,
		clientSecret: cfg.Reddit.ClientSecret,
		username:     cfg.Reddit.Username,
		password:     cfg.Reddit.Password,
		userAgent:    cfg.Reddit.UserAgent,
		subreddit:    cfg.Reddit.Subreddit,
	}
}

// Subreddit returns the community subreddit this client operates on.
func (c *Client) Subreddit() string { return c.subreddit }

// token returns a valid access token, fetching a fresh one when the cached
// token is within a minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		authBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit: fetch access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit: access token request returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reddit: decode access token: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("reddit: empty access token")
	}

	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	log.Debug().Time("expiry", c.tokenExpiry).Msg("refreshed reddit access token")
	return c.accessToken, nil
}

// do performs an authenticated API call and decodes the JSON response into
// out (skipped when out is nil). 404 maps to ErrNotFound; every other
// non-2xx status is a transient failure.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reddit: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("reddit: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("reddit: decode %s: %w", path, err)
	}
	return nil
}
