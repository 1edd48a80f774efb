package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
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
func (m *mockUserStore) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) UpdateProperties(ctx context.Context, userID int64, props domain.UserProperties) error {
	return m.Called(ctx, userID, props).Error(0)
}
func (m *mockUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}
func (m *mockUserStore) CountDiscovered(ctx context.Context, discoverer string, since time.Time) (int64, error) {
	args := m.Called(ctx, discoverer, since)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockUserStore) CountReviewed(ctx context.Context, reviewer string, since time.Time) (int64, error) {
	args := m.Called(ctx, reviewer, since)
	return args.Get(0).(int64), args.Error(1)
}

// --- Submit tests ---

func TestSubmit_NewUser(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "newbie").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := NewService(repo).Submit(context.Background(), "newbie", "scout")

	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "newbie", u.Username)
	assert.Equal(t, domain.StatusFound, u.Status)
	assert.Equal(t, "scout", u.Discoverer)
	assert.True(t, u.Permissions.Submit)
	assert.True(t, u.Permissions.Login)
	assert.False(t, u.Permissions.Moderator)
}

func TestSubmit_ExistingUser_Idempotent(t *testing.T) {
	repo := &mockUserStore{}
	existing := &domain.User{ID: 1, Username: "known", Status: domain.StatusApproved}
	repo.On("GetByUsername", mock.Anything, "known").Return(existing, nil)

	u, err := NewService(repo).Submit(context.Background(), "known", "scout")

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSubmit_StoreFailure(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "newbie").Return(nil, errors.New("dynamo down"))

	_, err := NewService(repo).Submit(context.Background(), "newbie", "scout")

	require.Error(t, err)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- UpdateProperty tests ---

func TestUpdateProperty_Avatar(t *testing.T) {
	repo := &mockUserStore{}
	u := &domain.User{ID: 1, Username: "alice"}
	repo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	repo.On("UpdateProperties", mock.Anything, int64(1), domain.UserProperties{Avatar: "https://img/a.png"}).Return(nil)

	got, err := NewService(repo).UpdateProperty(context.Background(), "alice", PropertyAvatar, "https://img/a.png")

	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", got.Properties.Avatar)
}

func TestUpdateProperty_UnknownKey(t *testing.T) {
	repo := &mockUserStore{}
	u := &domain.User{ID: 1, Username: "alice"}
	repo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	_, err := NewService(repo).UpdateProperty(context.Background(), "alice", "status", "Approved")

	assert.True(t, errors.Is(err, domain.ErrBadRequest), "only profile properties may be changed this way")
	repo.AssertNotCalled(t, "UpdateProperties", mock.Anything, mock.Anything, mock.Anything)
}

// --- ChangePassword tests ---

func TestChangePassword_Success(t *testing.T) {
	repo := &mockUserStore{}
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	u := &domain.User{ID: 1, Username: "alice", PasswordHash: string(hash)}
	repo.On("GetByID", mock.Anything, int64(1)).Return(u, nil)
	repo.On("UpdatePassword", mock.Anything, int64(1), mock.AnythingOfType("string")).Return(nil)

	err := NewService(repo).ChangePassword(context.Background(), 1, "old-pass", "new-pass-123")

	require.NoError(t, err)
	repo.AssertCalled(t, "UpdatePassword", mock.Anything, int64(1), mock.AnythingOfType("string"))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := &mockUserStore{}
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	u := &domain.User{ID: 1, Username: "alice", PasswordHash: string(hash)}
	repo.On("GetByID", mock.Anything, int64(1)).Return(u, nil)

	err := NewService(repo).ChangePassword(context.Background(), 1, "wrong", "new-pass-123")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_NoExistingHash(t *testing.T) {
	repo := &mockUserStore{}
	u := &domain.User{ID: 1, Username: "alice"} // OTP-only account so far
	repo.On("GetByID", mock.Anything, int64(1)).Return(u, nil)
	repo.On("UpdatePassword", mock.Anything, int64(1), mock.AnythingOfType("string")).Return(nil)

	err := NewService(repo).ChangePassword(context.Background(), 1, "", "first-pass-123")

	require.NoError(t, err)
}

// --- Stats tests ---

func TestStats_PerUserCounts(t *testing.T) {
	repo := &mockUserStore{}
	u := &domain.User{ID: 1, Username: "alice"}
	repo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	repo.On("CountDiscovered", mock.Anything, "alice", time.Time{}).Return(int64(12), nil)
	repo.On("CountDiscovered", mock.Anything, "alice", mock.AnythingOfType("time.Time")).Return(int64(4), nil)
	repo.On("CountReviewed", mock.Anything, "alice", time.Time{}).Return(int64(30), nil)
	repo.On("CountReviewed", mock.Anything, "alice", mock.AnythingOfType("time.Time")).Return(int64(9), nil)

	stats, err := NewService(repo).Stats(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.UsersDiscovered)
	assert.Equal(t, int64(30), stats.UsersReviewed)
}

func TestStats_UnknownUser(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := NewService(repo).Stats(context.Background(), "ghost")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
