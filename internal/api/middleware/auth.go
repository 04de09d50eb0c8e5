package middleware

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/common/security"
	"assignment_desk/internal/domain/model"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserIDCtxKey contextKey = "userID"

// SessionChecker resolves what the guard needs beyond the token signature.
type SessionChecker interface {
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// SessionGuard rejects requests without a valid, unrevoked session token for
// an existing user, and attaches the caller's id otherwise. It
// expects jwtauth.Verify to run first.
func SessionGuard(sessions SessionChecker, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) || (token == nil && err == nil) {
					common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - No Token Provided")
					return
				}
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - Invalid Token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - Invalid Token")
				return
			}
			tokenID, err := security.GetTokenIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - Invalid Token")
				return
			}

			revoked, err := sessions.IsSessionRevoked(r.Context(), tokenID)
			if err != nil {
				common.RespondWithInternalError(w, "session guard", err, debug)
				return
			}
			if revoked {
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - Session Ended")
				return
			}

			user, err := sessions.CurrentUser(r.Context(), userID)
			if err != nil {
				common.RespondWithServiceError(w, "session guard", err, debug)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok && userID != ""
}
