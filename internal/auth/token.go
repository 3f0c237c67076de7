package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/account-service/internal/domain"
)

var errTokenRevoked = errors.New("token revoked")

// Claims describes the JWT payload for an authenticated account. UserID
// redundantly carries the subject id under a fixed name for convenient
// extraction.
type Claims struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates signed session tokens. Issuance and
// validation only read immutable signing configuration, so a single manager
// is safe for unlimited concurrent use; revocation state lives in the shared
// Blacklist handed in at construction.
type TokenManager struct {
	secret    []byte
	issuer    string
	audience  string
	ttl       time.Duration
	blacklist *Blacklist
	now       func() time.Time
}

// NewTokenManager builds a manager bound to the given signing configuration
// and revocation registry.
func NewTokenManager(secret, issuer, audience string, expirationHours int, blacklist *Blacklist) *TokenManager {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &TokenManager{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		ttl:       time.Duration(expirationHours) * time.Hour,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Issue builds and signs a token for the user. The claim payload is fixed at
// issuance; only the token's validity state changes afterwards.
func (tm *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	subject := strconv.FormatInt(user.ID, 10)

	claims := &Claims{
		Name:   user.Username,
		Email:  user.Email,
		Role:   user.Role.String(),
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{tm.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the token end to end and returns its claims. Revocation is
// checked before the signature so a revoked token never reaches the parser.
// Issuer, audience and lifetime are validated with zero leeway.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	if tm.blacklist != nil && tm.blacklist.IsRevoked(tokenStr) {
		return nil, errTokenRevoked
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(tm.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Validate reports whether the token is currently acceptable: not revoked,
// signature intact, issuer and audience matching, and inside its lifetime.
// Every parse or verification failure collapses to false.
func (tm *TokenManager) Validate(tokenStr string) bool {
	_, err := tm.Parse(tokenStr)
	return err == nil
}

// ExtractUserID reads the userId claim without verifying the signature. This
// is a structural read used where a near-expired token must still identify
// its subject; authorization decisions must go through Validate.
func (tm *TokenManager) ExtractUserID(tokenStr string) (int64, bool) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
