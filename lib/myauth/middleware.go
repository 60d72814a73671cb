package myauth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/basketworks/basketapi/lib/mycontext"
	"github.com/basketworks/basketapi/lib/myerrors"
	"github.com/basketworks/basketapi/lib/myhttp"
	"github.com/basketworks/basketapi/lib/mylog"
)

// Authenticate verifies the bearer token and stores the principal's
// user id in the request context. Requests without a usable identity
// are rejected with 401 before any handler runs.
func Authenticate(verifier TokenVerifier, logger mylog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := mycontext.ContextFromHTTPRequest(r)
			errorWriter := myhttp.NewWriter(logger)

			tokenValue, found := bearerToken(r)
			if !found {
				errorWriter.WriteError(c, w, 1, myerrors.NewUnauthenticatedError(
					fmt.Errorf("no bearer token provided")))
				return
			}

			userUID, err := verifier.Verify(tokenValue)
			if err != nil {
				logger.Log(c, "", mylog.SeverityWarn, "Token rejected: %s", err)
				errorWriter.WriteError(c, w, 1, myerrors.NewUnauthenticatedError(
					fmt.Errorf("invalid bearer token")))
				return
			}

			ctx := mycontext.WithAuthenticatedUserID(r.Context(), userUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireResourceOwner confines each principal to its own user-scoped
// resources: the {userId} path segment must equal the authenticated
// user id. A mismatch is forbidden, never not-found, so the two failure
// causes stay distinguishable. Pure gate, no side effects.
func RequireResourceOwner(logger mylog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := mycontext.ContextFromHTTPRequest(r)
			errorWriter := myhttp.NewWriter(logger)

			resourceUserUID, addressed := mux.Vars(r)["userUID"]
			if !addressed {
				next.ServeHTTP(w, r)
				return
			}

			authenticatedUserUID, found := mycontext.AuthenticatedUserID(c)
			if !found {
				errorWriter.WriteError(c, w, 1, myerrors.NewUnauthenticatedError(
					fmt.Errorf("no authenticated principal")))
				return
			}

			if resourceUserUID != authenticatedUserUID {
				errorWriter.WriteError(c, w, 1, myerrors.NewNotPermittedError(
					fmt.Errorf("user %s is not permitted to access resources of user %s",
						authenticatedUserUID, resourceUserUID)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}

	return token, true
}
