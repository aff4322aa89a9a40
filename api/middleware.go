package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/innopark/rma-engine/rma"
)

// Identity headers set by the gateway in front of this service.
const (
	HeaderUserID     = "X-User-ID"
	HeaderUserRole   = "X-User-Role"
	HeaderUserCenter = "X-User-Center"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   rma.Role
	Center rma.Center
}

type actorKey struct{}

// actorFrom returns the caller stored by Identify.
func actorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Identify reads the identity headers and rejects requests without a
// usable identity.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := Actor{
			UserID: r.Header.Get(HeaderUserID),
			Role:   rma.Role(r.Header.Get(HeaderUserRole)),
			Center: rma.Center(r.Header.Get(HeaderUserCenter)),
		}
		switch {
		case a.UserID == "":
			writeError(w, http.StatusUnauthorized, "Missing identity", nil)
			return
		case a.Role != rma.RoleParticipant && a.Role != rma.RoleStaff && a.Role != rma.RoleAdmin:
			writeError(w, http.StatusUnauthorized, "Unknown role", nil)
			return
		case a.Role == rma.RoleStaff && !a.Center.Valid():
			writeError(w, http.StatusUnauthorized, "Center staff without a center", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, a)))
	})
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
