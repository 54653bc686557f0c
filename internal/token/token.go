// Package token issues and verifies the signed credentials used by the core:
// access and refresh session tokens, and short-lived operation-bound step-up
// tokens for sensitive operations. Signing is HS256 via golang-jwt; the
// Issuer is the only place that touches the secret.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the claims. A refresh token can never be used as an
// access token and vice versa; a step-up token is valid for nothing but its
// bound operation.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeStepUp  = "stepup"
)

var (
	// ErrInvalidToken covers every access/refresh verification failure.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrStepUpInvalid is the single error for every step-up verification
	// failure. Which sub-check failed (signature, identity, operation, age)
	// is deliberately not distinguishable from the outside.
	ErrStepUpInvalid = errors.New("invalid or expired step-up credential")
)

// Claims are the custom claims embedded in every token this core issues.
type Claims struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	TokenType    string `json:"token_type"`
	// Operation is set only on step-up tokens and binds the token to one
	// sensitive operation name.
	Operation string `json:"operation,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the subset of user state that goes into token claims.
type Identity struct {
	ID           uuid.UUID
	Username     string
	Role         string
	RestaurantID *uuid.UUID
}

// Issuer signs and verifies all tokens. now is injectable for tests.
type Issuer struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	stepUpWindow time.Duration
	now          func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL, stepUpWindow time.Duration) *Issuer {
	return &Issuer{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		stepUpWindow: stepUpWindow,
		now:          time.Now,
	}
}

// WithClock overrides the issuer's clock. Tests only.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// StepUpWindow exposes the configured step-up validity window.
func (i *Issuer) StepUpWindow() time.Duration { return i.stepUpWindow }

func (i *Issuer) sign(id Identity, tokenType, operation string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    id.ID.String(),
		Username:  id.Username,
		Role:      id.Role,
		TokenType: tokenType,
		Operation: operation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.RestaurantID != nil {
		claims.RestaurantID = id.RestaurantID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// IssueAccess mints a session access token.
func (i *Issuer) IssueAccess(id Identity) (string, error) {
	return i.sign(id, TypeAccess, "", i.accessTTL)
}

// IssueRefresh mints a refresh token.
func (i *Issuer) IssueRefresh(id Identity) (string, error) {
	return i.sign(id, TypeRefresh, "", i.refreshTTL)
}

// IssueStepUp mints a step-up token bound to one operation for one identity.
func (i *Issuer) IssueStepUp(id Identity, operation string) (string, error) {
	return i.sign(id, TypeStepUp, operation, i.stepUpWindow)
}

// parse verifies the signature and standard expiry and returns the claims.
func (i *Issuer) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess verifies a session access token.
func (i *Issuer) VerifyAccess(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh verifies a refresh token.
func (i *Issuer) VerifyRefresh(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyStepUp verifies a step-up token for the given caller and operation.
// Check order: signature/validity, bound identity, bound operation, age.
// Every failure collapses into ErrStepUpInvalid so callers cannot probe which
// sub-check rejected the credential.
func (i *Issuer) VerifyStepUp(tokenStr string, userID uuid.UUID, operation string) error {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return ErrStepUpInvalid
	}
	if claims.TokenType != TypeStepUp {
		return ErrStepUpInvalid
	}
	if claims.UserID != userID.String() {
		return ErrStepUpInvalid
	}
	if claims.Operation != operation {
		return ErrStepUpInvalid
	}
	if claims.IssuedAt == nil {
		return ErrStepUpInvalid
	}
	if i.now().Sub(claims.IssuedAt.Time) > i.stepUpWindow {
		return ErrStepUpInvalid
	}
	return nil
}
