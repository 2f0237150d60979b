package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Credentials is the persisted session state the interceptors read and invalidate.
type Credentials interface {
	// Token returns the persisted token, or "" when there is none.
	Token(ctx context.Context) (string, error)
	// Clear erases the persisted token and identity snapshot.
	Clear(ctx context.Context) error
}

// RequestIDHeader carries a unique id per outbound call.
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with a fresh UUID so client and backend logs can be joined.
func RequestID() RequestInterceptor {
	return func(ctx context.Context, req *http.Request) {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
	}
}

// BearerAuth attaches the persisted token, when there is one, as a bearer credential.
// A failure to read the token is logged and the request goes out unauthenticated.
func BearerAuth(creds Credentials, logger *slog.Logger) RequestInterceptor {
	return func(ctx context.Context, req *http.Request) {
		token, err := creds.Token(ctx)
		if err != nil {
			logger.Error("Failed to read credential token", "error", err)
			return
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// InvalidateOnUnauthorized erases the persisted credentials whenever the backend answers 401,
// whichever service made the call.
func InvalidateOnUnauthorized(creds Credentials, logger *slog.Logger) ResponseInterceptor {
	return func(ctx context.Context, req *http.Request, resp *http.Response) {
		if resp.StatusCode != http.StatusUnauthorized {
			return
		}
		logger.Warn("Backend rejected credentials, clearing session",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", req.Header.Get(RequestIDHeader),
		)
		if err := creds.Clear(ctx); err != nil {
			logger.Error("Failed to clear credentials", "error", err)
		}
	}
}
