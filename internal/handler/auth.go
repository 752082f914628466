package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userContextKey contextKey = "authenticated_user"

// AuthUser is the identity extracted from a validated bearer token. Session
// issuance belongs to the external auth provider; we only validate what it
// signed.
type AuthUser struct {
	ID    string
	Name  string
	Email string
	Image string
}

// authClaims is the claim set the auth provider puts in its tokens.
type authClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Authorization bearer token against the shared
// auth secret and injects the user identity into the request context.
func AuthMiddleware(authSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header {
				writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
				return
			}

			claims := &authClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(authSecret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized or missing user ID")
				return
			}

			user := &AuthUser{
				ID:    claims.Subject,
				Name:  claims.Name,
				Email: claims.Email,
				Image: claims.Picture,
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func withUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// userFromContext returns the authenticated user, or nil outside the auth
// middleware.
func userFromContext(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(userContextKey).(*AuthUser)
	return user
}

// domainUser converts the token identity into the persisted mirror row.
func (u *AuthUser) domainUser() *domain.User {
	var image *string
	if u.Image != "" {
		image = &u.Image
	}
	return &domain.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Image: image,
	}
}
