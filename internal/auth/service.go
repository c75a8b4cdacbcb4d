package auth

import (
	"context"
	"errors"
	"time"

	"github.com/davidgq/ecom-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountInactive    = errors.New("account inactive")
)

// Identity is the authenticated subject of a request.
type Identity struct {
	UserID string
	Role   user.Role
}

type Service struct {
	users  user.Repository
	secret []byte
}

func NewService(users user.Repository, secret string) *Service {
	return &Service{users: users, secret: []byte(secret)}
}

// Authenticate verifies username+password against the stored hash. The
// error never reveals whether the user exists, is inactive, or the
// password mismatched.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !CheckPassword(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken signs a bearer token for u. ttl <= 0 uses the package
// default of 15 minutes.
func (s *Service) IssueToken(u *user.User, ttl time.Duration) (string, error) {
	return signToken(s.secret, u.ID, ttl, time.Now())
}

// ResolveToken maps a bearer token back to an Identity. A valid token
// whose subject has been deactivated fails with ErrAccountInactive; all
// other failures are ErrInvalidToken.
func (s *Service) ResolveToken(ctx context.Context, token string) (Identity, error) {
	sub, err := parseToken(s.secret, token)
	if err != nil {
		return Identity{}, err
	}
	u, err := s.users.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}
	if !u.IsActive {
		return Identity{}, ErrAccountInactive
	}
	return Identity{UserID: u.ID, Role: u.Role}, nil
}
