package identity

import (
	"context"
	"net/http"
	"strings"

	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/resp"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ExtractorMiddleware verifies the Bearer token on API requests and stashes
// the resulting Identity in the request context.
func ExtractorMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotAuthenticated))
				return
			}

			ident, err := VerifyToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				logx.Warn("API request rejected: identity token invalid", "path", r.URL.Path)
				resp.RespondError(w, r, errs.NewError(errs.ErrIdentityTokenInvalid))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the verified Identity for the request, or nil when the
// extractor middleware did not run.
func FromContext(r *http.Request) *Identity {
	ident, _ := r.Context().Value(identityContextKey).(*Identity)
	return ident
}
