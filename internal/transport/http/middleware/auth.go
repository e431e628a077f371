package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a bearer token to an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

func Auth(authn Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				AuthFailed(w, r, log, err)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: user.ID, Email: user.Email, Name: user.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthFailed writes the response for a failed Authenticate call. Token
// problems are 401; a failing user store is logged and reported as 500.
func AuthFailed(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if service.KindOf(err) == service.KindInternal {
		log.ErrorContext(r.Context(), "authenticating request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
}

// WriteError writes the JSON error body shared by every endpoint.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"message": message,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the caller set by Auth.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// GetUserID extracts user ID from request context. Only valid behind Auth.
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := GetIdentity(ctx)
	return id.UserID
}
