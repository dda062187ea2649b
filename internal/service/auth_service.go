package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "recipebox-api"
	TokenAudience = "recipebox-client"

	// InvalidCredentialsMessage is the only message a failed sign-in ever produces.
	InvalidCredentialsMessage = "Invalid email or password"
)

var errInvalidToken = errors.New("invalid session token")

// AuthConfig configures session signing and password hashing.
type AuthConfig struct {
	Secret     string
	MaxAge     time.Duration
	BcryptCost int
}

// AuthService checks credentials and issues, verifies and revokes session tokens.
type AuthService struct {
	users repository.UserRepository
	redis *redis.Client
	cfg   AuthConfig

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService returns an AuthService. rdb may be nil, in which case sign-out cannot revoke tokens.
func NewAuthService(users repository.UserRepository, rdb *redis.Client, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}
	return &AuthService{users: users, redis: rdb, cfg: cfg}
}

// MaxAge is the lifetime of an issued session.
func (s *AuthService) MaxAge() time.Duration {
	return s.cfg.MaxAge
}

// SessionClaims are the JWT claims of a session token. The subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Register creates an account after validating the registration form.
func (s *AuthService) Register(ctx context.Context, in validation.RegistrationInput) (*models.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.ValidateRegistration(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authorize checks an email and password. Every failure, including malformed input,
// yields the same unauthorized error. Unknown emails still pay for a bcrypt comparison.
func (s *AuthService) Authorize(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateCredentials(email, password); err != nil {
		s.compareDummy(password)
		return nil, models.NewUnauthorizedError(InvalidCredentialsMessage)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.compareDummy(password)
		return nil, models.NewUnauthorizedError(InvalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(InvalidCredentialsMessage)
	}
	return user, nil
}

func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	if s.cfg.Secret == "" {
		return "", time.Time{}, models.NewInternalError(errors.New("JWT secret not configured"))
	}

	now := time.Now()
	expires := now.Add(s.cfg.MaxAge)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, models.NewInternalError(err)
	}
	return signed, expires, nil
}

// SignIn authorizes the credentials and issues a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.Authorize(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, expires, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		User:    models.SessionUser{ID: user.ID, Email: user.Email},
		Expires: expires,
		Token:   token,
	}, nil
}

func (s *AuthService) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ParseToken verifies a session token's signature, claims and revocation status.
// Revocation is only checked when Redis is reachable.
func (s *AuthService) ParseToken(ctx context.Context, token string) (*SessionClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired session")
	}
	if s.redis != nil && claims.ID != "" {
		n, err := s.redis.Exists(ctx, cache.RevokedTokenKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, models.NewUnauthorizedError("Session has been revoked")
		}
	}
	return claims, nil
}

// VerifySession resolves a session token to its user id.
func (s *AuthService) VerifySession(ctx context.Context, token string) (string, error) {
	claims, err := s.ParseToken(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Session returns the session for token, or nil when the token is missing or no longer valid.
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.ParseToken(ctx, token)
	if err != nil {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &models.Session{
		User:    models.SessionUser{ID: user.ID, Email: user.Email},
		Expires: claims.ExpiresAt.Time,
	}, nil
}

// Revoke blacklists the token's id until it would have expired.
// Invalid tokens are already unusable and are ignored.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if s.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, cache.RevokedTokenKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(fmt.Errorf("revoke session: %w", err))
	}
	return nil
}
