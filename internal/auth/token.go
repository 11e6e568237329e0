package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// TokenTTL is the lifetime of every access token.
const TokenTTL = 30 * time.Minute

// AuthoritiesClaim is the payload key holding the authority names.
const AuthoritiesClaim = "authorities"

// FailureReason classifies why a presented token was rejected.
type FailureReason string

const (
	ReasonMalformed        FailureReason = "malformed"
	ReasonInvalidSignature FailureReason = "invalid_signature"
	ReasonExpired          FailureReason = "expired"
	ReasonInvalidClaims    FailureReason = "invalid_claims"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenClaimsInvalid    = errors.New("token claims invalid")
)

// TokenError is returned by ParseToken for every rejected token.
type TokenError struct {
	Reason FailureReason
	Err    error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Claims describes the JWT payload.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// DecodedToken is the verified content of an access token.
type DecodedToken struct {
	ID          string
	Subject     string
	Authorities domain.AuthoritySet
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenManager issues and verifies HS512-signed access tokens.
// The key is fixed for the lifetime of the manager.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a manager around the process signing secret.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt signing secret is required")
	}
	tm := &TokenManager{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// GenerateToken builds and signs a JWT for the subject. Empty authority
// entries are dropped and duplicates collapse.
func (tm *TokenManager) GenerateToken(subject int64, authorities []domain.Authority) (string, time.Time, error) {
	issuedAt := tm.now().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(tm.ttl)

	claims := &Claims{
		Authorities: domain.NewAuthoritySet(authorities...).Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(subject, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ParseToken verifies the signature and expiry and returns the decoded payload.
// Any failure is a *TokenError.
func (tm *TokenManager) ParseToken(tokenStr string) (*DecodedToken, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, &TokenError{Reason: ReasonInvalidClaims, Err: ErrTokenClaimsInvalid}
	}
	if claims.Subject == "" {
		return nil, &TokenError{Reason: ReasonInvalidClaims, Err: fmt.Errorf("%w: missing subject", ErrTokenClaimsInvalid)}
	}

	decoded := &DecodedToken{
		ID:          claims.ID,
		Subject:     claims.Subject,
		Authorities: domain.AuthoritySetFromStrings(claims.Authorities),
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	return decoded, nil
}

func classifyParseError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Reason: ReasonMalformed, Err: fmt.Errorf("%w: %w", ErrTokenMalformed, err)}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Reason: ReasonInvalidSignature, Err: fmt.Errorf("%w: %w", ErrTokenSignatureInvalid, err)}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Reason: ReasonExpired, Err: fmt.Errorf("%w: %w", ErrTokenExpired, err)}
	default:
		return &TokenError{Reason: ReasonInvalidClaims, Err: fmt.Errorf("%w: %w", ErrTokenClaimsInvalid, err)}
	}
}
