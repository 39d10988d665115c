package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/plugfox/addonhub/api"
	"github.com/plugfox/addonhub/internal/auth"
	apperrors "github.com/plugfox/addonhub/internal/errors"
	"github.com/plugfox/addonhub/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// Authorizer resolves a bearer token to a user, implemented by auth.Service.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*model.User, error)
}

// userFromContext - the user stored by middlewareAuthentication
func userFromContext(ctx context.Context) (*model.User, error) {
	value := ctx.Value(userContextKey)
	if value == nil {
		return nil, apperrors.WrapMissingContextValue(string(userContextKey))
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil, apperrors.WrapUnexpectedType("*model.User", value)
	}
	return user, nil
}

// middlewareAuthentication checks the Bearer token and the bans of its owner on every request.
func middlewareAuthentication(authorizer Authorizer, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			// Check if the Authorization header is missing
			if authHeader == "" {
				api.NewResponse().SetError("unauthorized", "Authorization header is required").Unauthorized(w)
				return
			}

			// Check if the Authorization header is not a Bearer token
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				api.NewResponse().SetError("unauthorized", "Bearer token is required").Unauthorized(w)
				return
			}

			user, err := authorizer.Authorize(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrInvalidToken):
				api.NewResponse().SetError("unauthorized", "Invalid Bearer token").Unauthorized(w)
				return
			case errors.Is(err, auth.ErrBanned):
				api.NewResponse().SetError("banned", "Account is banned or inactive").Forbidden(w)
				return
			default:
				logger.ErrorContext(r.Context(), "authorization failed", slog.String("error", err.Error()))
				api.NewResponse().InternalServerError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
		})
	}
}

// middlewareStaffOnly must run after middlewareAuthentication.
func middlewareStaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil || !user.IsStaff {
			api.NewResponse().SetError("forbidden", "Staff only").Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// middlewareErrorRecoverer is a middleware function that recovers from panics and returns an error response.
func middlewareErrorRecoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
						// the response to the client is aborted, this should not be logged
						panic(err)
					}

					logger.ErrorContext(r.Context(), "Recovered from panic",
						slog.String("error", fmt.Sprintf("%v", err)),
						slog.String("stack", string(debug.Stack())))

					api.NewResponse().SetError("internal_server_error", "Internal Server Error").InternalServerError(w)
				}
			}()

			// Call the next handler
			next.ServeHTTP(w, r)
		})
	}
}
