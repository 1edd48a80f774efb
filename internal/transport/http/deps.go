package http

import (
	"github.com/redditnobility/backend/internal/application/review"
	"github.com/redditnobility/backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/redditnobility/backend/internal/infrastructure/jwt"
	"github.com/redditnobility/backend/internal/infrastructure/reddit"
	"github.com/redditnobility/backend/internal/infrastructure/rediscache"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	OTPRepo      *dynamo.OTPRepo
	Reddit       *reddit.Client
	ProfileCache *rediscache.ProfileCache
	StatsCache   *rediscache.StatsCache
	Leases       *review.LeaseTable
	JWTProvider  *jwtinfra.Provider
}
