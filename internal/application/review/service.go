package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/redditnobility/backend/internal/infrastructure/reddit"
	"github.com/rs/zerolog/log"
)

// NextCandidate is the sentinel username that asks for the oldest unleased
// Found user instead of a specific one.
const NextCandidate = "next"

type Service interface {
	Candidate(ctx context.Context, username string) (*domain.ReviewCandidate, error)
	Decide(ctx context.Context, req DecideRequest) error
	Stats(ctx context.Context) (*domain.ReviewStats, error)
}

// DecideRequest records a moderator's verdict on a candidate.
type DecideRequest struct {
	Username string
	Decision string
	Reviewer string
	Title    *string
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.User, error)
	UpdateStatus(ctx context.Context, userID int64, status domain.Status, reviewer string, at time.Time) error
	UpdateTitle(ctx context.Context, userID int64, title string) error
	Delete(ctx context.Context, userID int64) error
	CountDiscovered(ctx context.Context, discoverer string, since time.Time) (int64, error)
	CountReviewed(ctx context.Context, reviewer string, since time.Time) (int64, error)
}

type redditClient interface {
	About(ctx context.Context, username string) (domain.RedditProfile, error)
	Submissions(ctx context.Context, username string) ([]domain.RedditPost, error)
	Comments(ctx context.Context, username string) ([]domain.RedditComment, error)
	Approve(ctx context.Context, username string) error
}

type profileCache interface {
	Get(ctx context.Context, username string) (*domain.ProfileSnapshot, error)
	Set(ctx context.Context, username string, snap *domain.ProfileSnapshot) error
	Invalidate(ctx context.Context, username string) error
}

type statsCache interface {
	Get(ctx context.Context) (*domain.ReviewStats, error)
	Set(ctx context.Context, stats *domain.ReviewStats) error
}

type service struct {
	repo     userStore
	reddit   redditClient
	leases   *LeaseTable
	profiles profileCache
	stats    statsCache
}

type ServiceDeps struct {
	UserRepo     userStore
	Reddit       redditClient
	Leases       *LeaseTable
	ProfileCache profileCache
	StatsCache   statsCache
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		reddit:   deps.Reddit,
		leases:   deps.Leases,
		profiles: deps.ProfileCache,
		stats:    deps.StatsCache,
	}
}

// Candidate selects a user for review, leases them for the duration of the
// call and returns the combined local + Reddit view. When the account no
// longer exists upstream the stale local record is deleted and
// domain.ErrIdentityGone is returned so the caller can just retry.
func (s *service) Candidate(ctx context.Context, username string) (*domain.ReviewCandidate, error) {
	u, err := s.selectAndLease(ctx, username)
	if err != nil {
		return nil, err
	}
	// Scoped release: every exit path below gives the lease back. The TTL
	// sweeper only covers requests that never got this far, e.g. a crashed
	// process.
	defer s.leases.Release(u.ID)

	snap, err := s.profiles.Get(ctx, u.Username)
	if err != nil {
		log.Warn().Err(err).Str("username", u.Username).Msg("profile cache read failed")
		snap = nil
	}
	if snap == nil {
		snap, err = s.fetchSnapshot(ctx, u.Username)
		if err != nil {
			if errors.Is(err, reddit.ErrNotFound) {
				return nil, s.reconcileGone(ctx, u)
			}
			// Transient upstream failure: propagate untouched, the lease is
			// released by the deferred call and the caller may retry.
			return nil, err
		}
		if cacheErr := s.profiles.Set(ctx, u.Username, snap); cacheErr != nil {
			log.Warn().Err(cacheErr).Str("username", u.Username).Msg("profile cache write failed")
		}
	}

	return &domain.ReviewCandidate{User: u, ProfileSnapshot: *snap}, nil
}

// selectAndLease resolves the target user and acquires their lease. For
// "next", selection and acquisition are fused: the first Found user whose
// TryAcquire succeeds wins, so a racing reviewer simply gets the next one.
func (s *service) selectAndLease(ctx context.Context, username string) (*domain.User, error) {
	if username == NextCandidate {
		found, err := s.repo.ListByStatus(ctx, domain.StatusFound)
		if err != nil {
			return nil, err
		}
		for i := range found {
			if s.leases.TryAcquire(found[i].ID) {
				return &found[i], nil
			}
		}
		return nil, domain.ErrNoCandidates
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.leases.TryAcquire(u.ID) {
		// Someone else holds the lease. Retryable, not a hard failure.
		return nil, fmt.Errorf("user %q is already being reviewed: %w", username, domain.ErrNoCandidates)
	}
	return u, nil
}

// fetchSnapshot pulls the live profile and, unless the account is suspended,
// its recent activity.
func (s *service) fetchSnapshot(ctx context.Context, username string) (*domain.ProfileSnapshot, error) {
	profile, err := s.reddit.About(ctx, username)
	if err != nil {
		return nil, err
	}
	snap := &domain.ProfileSnapshot{Profile: profile}
	if profile.Suspended {
		return snap, nil
	}
	if snap.Posts, err = s.reddit.Submissions(ctx, username); err != nil {
		return nil, err
	}
	if snap.Comments, err = s.reddit.Comments(ctx, username); err != nil {
		return nil, err
	}
	return snap, nil
}

// reconcileGone deletes a local record whose Reddit account is confirmed
// absent. Store failure during the delete surfaces as a plain error; a
// successful delete comes back as ErrIdentityGone, which handlers translate
// into a "fixed, please retry" response.
func (s *service) reconcileGone(ctx context.Context, u *domain.User) error {
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete vanished user %q: %w", u.Username, err)
	}
	if err := s.profiles.Invalidate(ctx, u.Username); err != nil {
		log.Warn().Err(err).Str("username", u.Username).Msg("profile cache invalidation failed")
	}
	log.Info().Str("username", u.Username).Int64("user_id", u.ID).Msg("deleted user, account gone upstream")
	return fmt.Errorf("user %q: %w", u.Username, domain.ErrIdentityGone)
}

// Decide validates and persists a review verdict. For approvals the upstream
// side effect runs first; if it fails the local status is left untouched so
// the two systems cannot diverge.
func (s *service) Decide(ctx context.Context, req DecideRequest) error {
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		return err
	}
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return err
	}

	if decision == domain.StatusApproved {
		if err := s.reddit.Approve(ctx, u.Username); err != nil {
			return fmt.Errorf("upstream approval for %q failed: %w", u.Username, err)
		}
	}

	if req.Title != nil {
		if err := s.repo.UpdateTitle(ctx, u.ID, *req.Title); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateStatus(ctx, u.ID, decision, req.Reviewer, time.Now().UTC()); err != nil {
		return err
	}
	log.Info().
		Str("username", u.Username).
		Str("decision", string(decision)).
		Str("reviewer", req.Reviewer).
		Msg("recorded review decision")
	return nil
}

// Stats returns system-wide discovery/review counters, served from cache
// when fresh.
func (s *service) Stats(ctx context.Context) (*domain.ReviewStats, error) {
	if cached, err := s.stats.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("stats cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	monthStart := startOfMonth(time.Now().UTC())
	stats := &domain.ReviewStats{}
	var err error
	if stats.UsersDiscovered, err = s.repo.CountDiscovered(ctx, "", time.Time{}); err != nil {
		return nil, err
	}
	if stats.UsersDiscoveredThisMonth, err = s.repo.CountDiscovered(ctx, "", monthStart); err != nil {
		return nil, err
	}
	if stats.UsersReviewed, err = s.repo.CountReviewed(ctx, "", time.Time{}); err != nil {
		return nil, err
	}
	if stats.UsersReviewedThisMonth, err = s.repo.CountReviewed(ctx, "", monthStart); err != nil {
		return nil, err
	}

	if cacheErr := s.stats.Set(ctx, stats); cacheErr != nil {
		log.Warn().Err(cacheErr).Msg("stats cache write failed")
	}
	return stats, nil
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
