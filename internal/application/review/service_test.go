package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/redditnobility/backend/internal/infrastructure/reddit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) ListByStatus(ctx context.Context, status domain.Status) ([]domain.User, error) {
	args := m.Called(ctx, status)
	if us, _ := args.Get(0).([]domain.User); us != nil {
		return us, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) UpdateStatus(ctx context.Context, userID int64, status domain.Status, reviewer string, at time.Time) error {
	return m.Called(ctx, userID, status, reviewer, at).Error(0)
}
func (m *mockUserStore) UpdateTitle(ctx context.Context, userID int64, title string) error {
	return m.Called(ctx, userID, title).Error(0)
}
func (m *mockUserStore) Delete(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockUserStore) CountDiscovered(ctx context.Context, discoverer string, since time.Time) (int64, error) {
	args := m.Called(ctx, discoverer, since)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockUserStore) CountReviewed(ctx context.Context, reviewer string, since time.Time) (int64, error) {
	args := m.Called(ctx, reviewer, since)
	return args.Get(0).(int64), args.Error(1)
}

type mockReddit struct{ mock.Mock }

func (m *mockReddit) About(ctx context.Context, username string) (domain.RedditProfile, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.RedditProfile), args.Error(1)
}
func (m *mockReddit) Submissions(ctx context.Context, username string) ([]domain.RedditPost, error) {
	args := m.Called(ctx, username)
	if p, _ := args.Get(0).([]domain.RedditPost); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockReddit) Comments(ctx context.Context, username string) ([]domain.RedditComment, error) {
	args := m.Called(ctx, username)
	if c, _ := args.Get(0).([]domain.RedditComment); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockReddit) Approve(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

type mockProfileCache struct{ mock.Mock }

func (m *mockProfileCache) Get(ctx context.Context, username string) (*domain.ProfileSnapshot, error) {
	args := m.Called(ctx, username)
	if s, _ := args.Get(0).(*domain.ProfileSnapshot); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileCache) Set(ctx context.Context, username string, snap *domain.ProfileSnapshot) error {
	return m.Called(ctx, username, snap).Error(0)
}
func (m *mockProfileCache) Invalidate(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

type mockStatsCache struct{ mock.Mock }

func (m *mockStatsCache) Get(ctx context.Context) (*domain.ReviewStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.ReviewStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStatsCache) Set(ctx context.Context, stats *domain.ReviewStats) error {
	return m.Called(ctx, stats).Error(0)
}

// --- helpers ---

type fixture struct {
	repo     *mockUserStore
	reddit   *mockReddit
	profiles *mockProfileCache
	stats    *mockStatsCache
	leases   *LeaseTable
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &mockUserStore{},
		reddit:   &mockReddit{},
		profiles: &mockProfileCache{},
		stats:    &mockStatsCache{},
		leases:   NewLeaseTable(time.Minute),
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:     f.repo,
		Reddit:       f.reddit,
		Leases:       f.leases,
		ProfileCache: f.profiles,
		StatsCache:   f.stats,
	})
	return f
}

func foundUser(id int64, username string) domain.User {
	return domain.User{
		ID:       id,
		Username: username,
		Status:   domain.StatusFound,
		Created:  time.Now().UTC(),
	}
}

func stubSnapshot(f *fixture, username string) {
	f.profiles.On("Get", mock.Anything, username).Return(nil, nil)
	f.reddit.On("About", mock.Anything, username).Return(domain.RedditProfile{Name: username}, nil)
	f.reddit.On("Submissions", mock.Anything, username).Return([]domain.RedditPost{}, nil)
	f.reddit.On("Comments", mock.Anything, username).Return([]domain.RedditComment{}, nil)
	f.profiles.On("Set", mock.Anything, username, mock.AnythingOfType("*domain.ProfileSnapshot")).Return(nil)
}

// --- Candidate tests ---

func TestCandidate_Next_PicksOldestFound(t *testing.T) {
	f := newFixture()
	f.repo.On("ListByStatus", mock.Anything, domain.StatusFound).
		Return([]domain.User{foundUser(1, "oldest"), foundUser(2, "newer")}, nil)
	stubSnapshot(f, "oldest")

	c, err := f.svc.Candidate(context.Background(), NextCandidate)

	require.NoError(t, err)
	assert.Equal(t, "oldest", c.User.Username)
	assert.Equal(t, "oldest", c.Profile.Name)
}

func TestCandidate_Next_SkipsLeasedUsers(t *testing.T) {
	f := newFixture()
	f.leases.TryAcquire(1) // someone else is reviewing user 1
	f.repo.On("ListByStatus", mock.Anything, domain.StatusFound).
		Return([]domain.User{foundUser(1, "taken"), foundUser(2, "free")}, nil)
	stubSnapshot(f, "free")

	c, err := f.svc.Candidate(context.Background(), NextCandidate)

	require.NoError(t, err)
	assert.Equal(t, "free", c.User.Username)
}

func TestCandidate_Next_NoCandidates(t *testing.T) {
	f := newFixture()
	f.repo.On("ListByStatus", mock.Anything, domain.StatusFound).Return([]domain.User{}, nil)

	_, err := f.svc.Candidate(context.Background(), NextCandidate)

	assert.True(t, errors.Is(err, domain.ErrNoCandidates))
}

func TestCandidate_Next_AllLeased(t *testing.T) {
	f := newFixture()
	f.leases.TryAcquire(1)
	f.leases.TryAcquire(2)
	f.repo.On("ListByStatus", mock.Anything, domain.StatusFound).
		Return([]domain.User{foundUser(1, "a"), foundUser(2, "b")}, nil)

	_, err := f.svc.Candidate(context.Background(), NextCandidate)

	assert.True(t, errors.Is(err, domain.ErrNoCandidates))
}

func TestCandidate_SpecificUser(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	stubSnapshot(f, "target")

	c, err := f.svc.Candidate(context.Background(), "target")

	require.NoError(t, err)
	assert.Equal(t, int64(5), c.User.ID)
}

func TestCandidate_SpecificUser_AlreadyLeased(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.leases.TryAcquire(5)
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)

	_, err := f.svc.Candidate(context.Background(), "target")

	assert.True(t, errors.Is(err, domain.ErrNoCandidates))
	f.reddit.AssertNotCalled(t, "About", mock.Anything, mock.Anything)
}

func TestCandidate_ReleasesLeaseOnSuccess(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	stubSnapshot(f, "target")

	_, err := f.svc.Candidate(context.Background(), "target")

	require.NoError(t, err)
	assert.False(t, f.leases.Leased(5), "lease must be released when the call returns")
}

func TestCandidate_ReleasesLeaseOnTransientUpstreamError(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	f.profiles.On("Get", mock.Anything, "target").Return(nil, nil)
	f.reddit.On("About", mock.Anything, "target").
		Return(domain.RedditProfile{}, errors.New("reddit: status 503"))

	_, err := f.svc.Candidate(context.Background(), "target")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrIdentityGone))
	assert.False(t, f.leases.Leased(5), "lease must be released on failure too")
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCandidate_UpstreamGone_DeletesRecord(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "vanished")
	f.repo.On("GetByUsername", mock.Anything, "vanished").Return(&u, nil)
	f.profiles.On("Get", mock.Anything, "vanished").Return(nil, nil)
	f.reddit.On("About", mock.Anything, "vanished").
		Return(domain.RedditProfile{}, reddit.ErrNotFound)
	f.repo.On("Delete", mock.Anything, int64(5)).Return(nil)
	f.profiles.On("Invalidate", mock.Anything, "vanished").Return(nil)

	_, err := f.svc.Candidate(context.Background(), "vanished")

	assert.True(t, errors.Is(err, domain.ErrIdentityGone))
	f.repo.AssertCalled(t, "Delete", mock.Anything, int64(5))
	assert.False(t, f.leases.Leased(5))
}

func TestCandidate_UpstreamGone_DeleteFails(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "vanished")
	f.repo.On("GetByUsername", mock.Anything, "vanished").Return(&u, nil)
	f.profiles.On("Get", mock.Anything, "vanished").Return(nil, nil)
	f.reddit.On("About", mock.Anything, "vanished").
		Return(domain.RedditProfile{}, reddit.ErrNotFound)
	f.repo.On("Delete", mock.Anything, int64(5)).Return(errors.New("dynamo down"))

	_, err := f.svc.Candidate(context.Background(), "vanished")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrIdentityGone), "a failed delete is not a completed fix")
}

func TestCandidate_CacheHit_SkipsReddit(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "cached")
	snap := &domain.ProfileSnapshot{Profile: domain.RedditProfile{Name: "cached"}}
	f.repo.On("GetByUsername", mock.Anything, "cached").Return(&u, nil)
	f.profiles.On("Get", mock.Anything, "cached").Return(snap, nil)

	c, err := f.svc.Candidate(context.Background(), "cached")

	require.NoError(t, err)
	assert.Equal(t, "cached", c.Profile.Name)
	f.reddit.AssertNotCalled(t, "About", mock.Anything, mock.Anything)
}

func TestCandidate_SuspendedProfile_SkipsActivity(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "suspended")
	f.repo.On("GetByUsername", mock.Anything, "suspended").Return(&u, nil)
	f.profiles.On("Get", mock.Anything, "suspended").Return(nil, nil)
	f.reddit.On("About", mock.Anything, "suspended").
		Return(domain.RedditProfile{Name: "suspended", Suspended: true}, nil)
	f.profiles.On("Set", mock.Anything, "suspended", mock.AnythingOfType("*domain.ProfileSnapshot")).Return(nil)

	c, err := f.svc.Candidate(context.Background(), "suspended")

	require.NoError(t, err)
	assert.Empty(t, c.Posts)
	f.reddit.AssertNotCalled(t, "Submissions", mock.Anything, mock.Anything)
	f.reddit.AssertNotCalled(t, "Comments", mock.Anything, mock.Anything)
}

// --- Decide tests ---

func TestDecide_Approved_UpstreamFirst(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	f.reddit.On("Approve", mock.Anything, "target").Return(nil)
	f.repo.On("UpdateStatus", mock.Anything, int64(5), domain.StatusApproved, "mod", mock.AnythingOfType("time.Time")).Return(nil)

	err := f.svc.Decide(context.Background(), DecideRequest{
		Username: "target", Decision: "Approved", Reviewer: "mod",
	})

	require.NoError(t, err)
	f.reddit.AssertCalled(t, "Approve", mock.Anything, "target")
}

func TestDecide_Approved_UpstreamFailure_LeavesStatusUntouched(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	f.reddit.On("Approve", mock.Anything, "target").Return(errors.New("reddit: status 500"))

	err := f.svc.Decide(context.Background(), DecideRequest{
		Username: "target", Decision: "Approved", Reviewer: "mod",
	})

	require.Error(t, err)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_Denied_NoUpstreamCall(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	f.repo.On("UpdateStatus", mock.Anything, int64(5), domain.StatusDenied, "mod", mock.AnythingOfType("time.Time")).Return(nil)

	err := f.svc.Decide(context.Background(), DecideRequest{
		Username: "target", Decision: "Denied", Reviewer: "mod",
	})

	require.NoError(t, err)
	f.reddit.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}

func TestDecide_InvalidDecision(t *testing.T) {
	f := newFixture()

	err := f.svc.Decide(context.Background(), DecideRequest{
		Username: "target", Decision: "Maybe", Reviewer: "mod",
	})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.repo.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

func TestDecide_WithTitle(t *testing.T) {
	f := newFixture()
	u := foundUser(5, "target")
	title := "Duke of Dunedin"
	f.repo.On("GetByUsername", mock.Anything, "target").Return(&u, nil)
	f.repo.On("UpdateTitle", mock.Anything, int64(5), title).Return(nil)
	f.repo.On("UpdateStatus", mock.Anything, int64(5), domain.StatusDenied, "mod", mock.AnythingOfType("time.Time")).Return(nil)

	err := f.svc.Decide(context.Background(), DecideRequest{
		Username: "target", Decision: "Denied", Reviewer: "mod", Title: &title,
	})

	require.NoError(t, err)
	f.repo.AssertCalled(t, "UpdateTitle", mock.Anything, int64(5), title)
}

// --- Stats tests ---

func TestStats_CacheHit(t *testing.T) {
	f := newFixture()
	cached := &domain.ReviewStats{UsersDiscovered: 100}
	f.stats.On("Get", mock.Anything).Return(cached, nil)

	got, err := f.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(100), got.UsersDiscovered)
	f.repo.AssertNotCalled(t, "CountDiscovered", mock.Anything, mock.Anything, mock.Anything)
}

func TestStats_CacheMiss_CountsAndCaches(t *testing.T) {
	f := newFixture()
	f.stats.On("Get", mock.Anything).Return(nil, nil)
	f.repo.On("CountDiscovered", mock.Anything, "", time.Time{}).Return(int64(10), nil)
	f.repo.On("CountDiscovered", mock.Anything, "", mock.AnythingOfType("time.Time")).Return(int64(3), nil)
	f.repo.On("CountReviewed", mock.Anything, "", time.Time{}).Return(int64(8), nil)
	f.repo.On("CountReviewed", mock.Anything, "", mock.AnythingOfType("time.Time")).Return(int64(2), nil)
	f.stats.On("Set", mock.Anything, mock.AnythingOfType("*domain.ReviewStats")).Return(nil)

	got, err := f.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(10), got.UsersDiscovered)
	assert.Equal(t, int64(8), got.UsersReviewed)
	f.stats.AssertCalled(t, "Set", mock.Anything, mock.AnythingOfType("*domain.ReviewStats"))
}
