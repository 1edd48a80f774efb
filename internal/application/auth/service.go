package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	pkgtoken "github.com/redditnobility/backend/internal/pkg/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL         = 15 * time.Minute
	otpMaxAttempts = 5
	otpSubject     = "Your login code"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Username string `json:"username" validate:"required"`
}

type OTPLoginRequest struct {
	Username string `json:"username" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
}

// LoginResult carries the signed bearer and the authenticated user.
type LoginResult struct {
	Bearer string
	User   *domain.User
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	RequestOTP(ctx context.Context, req OTPRequest) error
	LoginWithOTP(ctx context.Context, req OTPLoginRequest) (*LoginResult, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
}

type otpStore interface {
	Put(ctx context.Context, otp *domain.OTP) error
	GetByCode(ctx context.Context, code string) (*domain.OTP, error)
	Delete(ctx context.Context, code string) error
}

type messenger interface {
	Compose(ctx context.Context, to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID int64, username string) (string, error)
}

type service struct {
	repo        userStore
	otpRepo     otpStore
	messenger   messenger
	jwtProvider jwtSigner
}

type ServiceDeps struct {
	UserRepo    userStore
	OTPRepo     otpStore
	Messenger   messenger
	JWTProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		otpRepo:     deps.OTPRepo,
		messenger:   deps.Messenger,
		jwtProvider: deps.JWTProvider,
	}
}

// Login authenticates with username and password. Every failure mode comes
// back as the same ErrUnauthorized so callers cannot probe which usernames
// exist or are approved.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := loginable(u); err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.issue(u)
}

// RequestOTP generates a single-use code and delivers it to the user's
// Reddit inbox.
func (s *service) RequestOTP(ctx context.Context, req OTPRequest) error {
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return err
	}
	if err := loginable(u); err != nil {
		return err
	}

	code, err := s.freshCode(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	otp := &domain.OTP{
		Code:      code,
		UserID:    u.ID,
		ExpiresAt: now.Add(otpTTL).Unix(),
		Created:   now,
	}
	if err := s.otpRepo.Put(ctx, otp); err != nil {
		return err
	}

	body := fmt.Sprintf("Your one-time login code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes()))
	if err := s.messenger.Compose(ctx, u.Username, otpSubject, body); err != nil {
		return fmt.Errorf("deliver otp to %q: %w", u.Username, err)
	}
	log.Info().Str("username", u.Username).Msg("issued login otp")
	return nil
}

// LoginWithOTP redeems a code. Codes are single use: the row is deleted
// before the bearer is issued.
func (s *service) LoginWithOTP(ctx context.Context, req OTPLoginRequest) (*LoginResult, error) {
	otp, err := s.otpRepo.GetByCode(ctx, req.OTP)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if time.Now().Unix() > otp.ExpiresAt {
		_ = s.otpRepo.Delete(ctx, otp.Code)
		return nil, fmt.Errorf("expired code: %w", domain.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, otp.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if u.Username != req.Username {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if err := loginable(u); err != nil {
		return nil, err
	}

	if err := s.otpRepo.Delete(ctx, otp.Code); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *service) issue(u *domain.User) (*LoginResult, error) {
	bearer, err := s.jwtProvider.Sign(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: u}, nil
}

// freshCode generates a code not currently in use. Collisions on a 6-char
// random code are rare; a handful of attempts is plenty.
func (s *service) freshCode(ctx context.Context) (string, error) {
	for i := 0; i < otpMaxAttempts; i++ {
		code, err := pkgtoken.NewOTP()
		if err != nil {
			return "", err
		}
		_, err = s.otpRepo.GetByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique otp")
}

// loginable gates authentication: only Approved members with the login flag
// may hold a session. The message matches the bad-credentials one so a caller
// cannot tell which usernames are approved.
func loginable(u *domain.User) error {
	if u.Status != domain.StatusApproved || !u.Permissions.Login {
		return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return nil
}
