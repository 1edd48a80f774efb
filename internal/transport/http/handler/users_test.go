package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redditnobility/backend/internal/domain"
	"github.com/redditnobility/backend/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Get(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) Submit(ctx context.Context, username, discoverer string) (*domain.User, error) {
	args := m.Called(ctx, username, discoverer)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) UpdateProperty(ctx context.Context, username, key, value string) (*domain.User, error) {
	args := m.Called(ctx, username, key, value)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	return m.Called(ctx, userID, current, newPassword).Error(0)
}
func (m *mockUserService) Stats(ctx context.Context, username string) (*domain.ReviewStats, error) {
	args := m.Called(ctx, username)
	if s, _ := args.Get(0).(*domain.ReviewStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// newStatsRouter mounts the stats endpoint the way the real router does: past
// Auth, with no permission middleware — the handler enforces self-or-moderator.
func newStatsRouter(svc *mockUserService, caller *domain.User) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.ContextWithUser(req.Context(), caller)))
		})
	})
	r.Get("/users/{username}/stats", h.Stats)
	return r
}

func member(username string) *domain.User {
	return &domain.User{
		ID:          7,
		Username:    username,
		Status:      domain.StatusApproved,
		Permissions: domain.UserPermissions{Login: true, Submit: true},
		Created:     time.Now().UTC(),
	}
}

func TestUserStats_SelfAllowedWithoutModeratorFlag(t *testing.T) {
	svc := &mockUserService{}
	svc.On("Stats", mock.Anything, "alice").Return(&domain.ReviewStats{UsersDiscovered: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/stats", nil)
	rr := httptest.NewRecorder()
	newStatsRouter(svc, member("alice")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"users_discovered":3`)
}

func TestUserStats_OtherUser_NonModeratorForbidden(t *testing.T) {
	svc := &mockUserService{}

	req := httptest.NewRequest(http.MethodGet, "/users/bob/stats", nil)
	rr := httptest.NewRecorder()
	newStatsRouter(svc, member("alice")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
}

func TestUserStats_OtherUser_ModeratorAllowed(t *testing.T) {
	svc := &mockUserService{}
	svc.On("Stats", mock.Anything, "bob").Return(&domain.ReviewStats{}, nil)

	caller := member("alice")
	caller.Permissions.Moderator = true

	req := httptest.NewRequest(http.MethodGet, "/users/bob/stats", nil)
	rr := httptest.NewRecorder()
	newStatsRouter(svc, caller).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUserStats_OtherUser_AdminAllowed(t *testing.T) {
	svc := &mockUserService{}
	svc.On("Stats", mock.Anything, "bob").Return(&domain.ReviewStats{}, nil)

	caller := member("alice")
	caller.Permissions.Admin = true

	req := httptest.NewRequest(http.MethodGet, "/users/bob/stats", nil)
	rr := httptest.NewRecorder()
	newStatsRouter(svc, caller).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
