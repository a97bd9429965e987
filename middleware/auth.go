package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"summarymaker/pkg/apperr"
	"summarymaker/pkg/logger"
	"summarymaker/pkg/response"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"

// WithUser adds a user ID to the context
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserID returns the authenticated caller, or "" when there is none.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Middleware validates the bearer token and stores the caller's user ID in the
// request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		// Browsers cannot set headers on websocket requests.
		if tokenString == "" && isWebsocket(r) {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			unauthenticated(w, "No authorization token was found")
			return
		}

		userID, err := a.Verify(tokenString)
		if err != nil {
			logger.Sugar.Debugf("Rejected token from %s: %v", r.RemoteAddr, err)
			unauthenticated(w, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// Verify checks an HMAC-signed token and returns the user ID carried in its
// sub claim. Subjects of the form "provider|id" yield the id.
func (a *Auth) Verify(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, _ := claims["sub"].(string)
	parts := strings.Split(sub, "|")
	userID := parts[len(parts)-1]
	if userID == "" {
		return "", fmt.Errorf("sub claim is missing or invalid")
	}
	return userID, nil
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func unauthenticated(w http.ResponseWriter, msg string) {
	response.Error(w, &apperr.DomainError{Status: http.StatusUnauthorized, Code: apperr.CodeForbidden, Message: msg})
}
