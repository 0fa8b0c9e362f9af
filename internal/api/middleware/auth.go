package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phrazzld/clipflow-api/internal/api/shared"
	"github.com/phrazzld/clipflow-api/internal/redact"
)

// AuthMiddleware validates bearer tokens on mutating routes. Tokens are
// HS256 JWTs signed with the shared secret handed to operator clients;
// the subject claim identifies the calling client.
type AuthMiddleware struct {
	secret []byte
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware using the given shared secret.
func NewAuthMiddleware(secret string, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		secret: []byte(secret),
		logger: logger.With("component", "auth_middleware"),
	}
}

// Authenticate validates the JWT from the Authorization header and adds
// the client name to the request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		client, err := m.validateToken(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, jwt.ErrTokenMalformed),
				errors.Is(err, jwt.ErrTokenSignatureInvalid),
				errors.Is(err, jwt.ErrTokenNotValidYet),
				errors.Is(err, errMissingSubject):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				m.logger.Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.ClientKey, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errMissingSubject = errors.New("token has no subject claim")

// validateToken parses and verifies the token, returning the subject claim.
func (m *AuthMiddleware) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errMissingSubject
	}
	return subject, nil
}
