package security

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenAuth signs and verifies session tokens.
type TokenAuth struct {
	JWT *jwtauth.JWTAuth
	exp time.Duration
}

func NewTokenAuth(key []byte, exp time.Duration) *TokenAuth {
	return &TokenAuth{JWT: jwtauth.New("HS256", key, nil), exp: exp}
}

// Session is an issued token together with the claims the guard relies on.
type Session struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

func (a *TokenAuth) GenerateToken(userID string, isAdmin bool) (*Session, error) {
	role := RoleUser
	if isAdmin {
		role = RoleAdmin
	}
	now := time.Now()
	expiresAt := now.Add(a.exp)
	tokenID := uuid.NewString()
	claims := map[string]interface{}{
		"user_id": userID,
		"role":    role,
		"jti":     tokenID,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := a.JWT.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tokenString, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// Decode verifies tokenString and returns its claims.
func (a *TokenAuth) Decode(tokenString string) (jwt.MapClaims, error) {
	token, err := jwtauth.VerifyToken(a.JWT, tokenString)
	if err != nil {
		return nil, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetTokenIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["jti"].(string)
	if !ok || id == "" {
		return "", errors.New("jti claim is missing or not a string")
	}
	return id, nil
}

// GetExpiryFromClaims reads "exp", which jwx decodes as a time.Time.
func GetExpiryFromClaims(claims jwt.MapClaims) (time.Time, error) {
	switch v := claims["exp"].(type) {
	case time.Time:
		return v, nil
	case float64:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	}
	return time.Time{}, errors.New("exp claim is missing")
}
