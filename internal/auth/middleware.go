package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (Principal, error)
}

// Authenticate resolves the bearer token into a Principal. Requests without an Authorization
// header continue anonymously; a header that does not verify ends the request with 401.
func Authenticate(tokens TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			p, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				if logger != nil {
					logger.Info("reject bearer token", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}
