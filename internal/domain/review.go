package domain

// RedditProfile is the subset of a Reddit account's about data shown to
// reviewers.
type RedditProfile struct {
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	CommentKarma int64  `json:"comment_karma"`
	TotalKarma   int64  `json:"total_karma"`
	Created      int64  `json:"created"`
	Suspended    bool   `json:"suspended"`
}

// RedditPost is a submission summary for the review view.
type RedditPost struct {
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	LinkURL   string `json:"link_url,omitempty"`
	Over18    bool   `json:"over_18"`
	Score     int64  `json:"score"`
}

// RedditComment is a comment summary for the review view.
type RedditComment struct {
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
	ID        string `json:"id"`
	PostTitle string `json:"og_post_title"`
	Content   string `json:"content"`
	Score     int64  `json:"score"`
}

// ProfileSnapshot is the external half of a review view: the Reddit profile
// plus recent activity. Posts and Comments are empty for suspended accounts.
type ProfileSnapshot struct {
	Profile  RedditProfile   `json:"profile"`
	Posts    []RedditPost    `json:"top_posts"`
	Comments []RedditComment `json:"top_comments"`
}

// ReviewCandidate is the combined local + external view handed to a reviewer.
type ReviewCandidate struct {
	User *User `json:"user"`
	ProfileSnapshot
}

// ReviewStats are discovery/review counters, total and for the current
// calendar month.
type ReviewStats struct {
	UsersDiscovered          int64 `json:"users_discovered"`
	UsersDiscoveredThisMonth int64 `json:"users_discovered_this_month"`
	UsersReviewed            int64 `json:"users_reviewed"`
	UsersReviewedThisMonth   int64 `json:"users_reviewed_this_month"`
}
