// Package auth issues and verifies the signed credentials used by the API:
// access and refresh JWTs and single-purpose safe tokens for account
// verification and password reset.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/models"
)

const (
	DefaultAccessTTL  = 1440 * time.Minute
	DefaultRefreshTTL = 10080 * time.Minute
	// MaxRevocationTTL caps how long a revoked jti is remembered.
	MaxRevocationTTL = 864000 * time.Second
)

// Safe token purposes.
const (
	PurposeVerify = "verify"
	PurposeReset  = "reset"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrRevokedToken = errors.New("token revoked")
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// UserClaims is the identity embedded in access and refresh tokens.
type UserClaims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type Claims struct {
	User    UserClaims `json:"user"`
	Refresh bool       `json:"refresh"`
	jwt.RegisteredClaims
}

type safeClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Principal is an authenticated caller.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
	Refresh   bool
}

// Revoker remembers revoked token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Options struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
}

// TokenManager signs and parses HS256 tokens.
type TokenManager struct {
	secret []byte
	opts   Options
	now    func() time.Time
}

func NewTokenManager(opts Options) *TokenManager {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.VerifyTTL <= 0 {
		opts.VerifyTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &TokenManager{secret: []byte(opts.Secret), opts: opts, now: time.Now}
}

// IssuePair returns a fresh access token and refresh token for user.
func (m *TokenManager) IssuePair(user *models.User) (access, refresh string, err error) {
	uc := UserClaims{Email: user.Email, UserID: user.ID.String(), Role: string(user.Role)}
	if access, err = m.issue(uc, false, m.opts.AccessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = m.issue(uc, true, m.opts.RefreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueAccess returns an access token for the identity of p.
func (m *TokenManager) IssueAccess(p *Principal) (string, error) {
	return m.issue(UserClaims{Email: p.Email, UserID: p.UserID.String(), Role: string(p.Role)}, false, m.opts.AccessTTL)
}

func (m *TokenManager) issue(uc UserClaims, refresh bool, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		User:    uc,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.opts.Issuer,
			Subject:   uc.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the caller.
func (m *TokenManager) Parse(token string) (*Principal, error) {
	var claims Claims
	if err := m.parse(token, &claims); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.User.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, err := models.ParseRole(claims.User.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}
	p := &Principal{
		UserID:  userID,
		Email:   claims.User.Email,
		Role:    role,
		TokenID: claims.ID,
		Refresh: claims.Refresh,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// IssueSafe returns a token proving control of email for one purpose.
func (m *TokenManager) IssueSafe(email, purpose string) (string, error) {
	ttl := m.opts.VerifyTTL
	if purpose == PurposeReset {
		ttl = m.opts.ResetTTL
	}
	now := m.now()
	claims := safeClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign safe token")
	}
	return signed, nil
}

// ParseSafe returns the e-mail carried by a safe token issued for purpose.
func (m *TokenManager) ParseSafe(token, purpose string) (string, error) {
	var claims safeClaims
	if err := m.parse(token, &claims); err != nil {
		return "", err
	}
	if claims.Purpose != purpose {
		return "", ErrWrongPurpose
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}
}

// RevocationTTL is how long a token's jti must stay blacklisted.
func RevocationTTL(p *Principal, now time.Time) time.Duration {
	ttl := p.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return time.Minute
	}
	if ttl > MaxRevocationTTL {
		return MaxRevocationTTL
	}
	return ttl
}
