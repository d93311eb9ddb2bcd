package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"invofin-backend/internal/logger"
	"invofin-backend/internal/security"
)

const correlationHeader = "X-Correlation-ID"

// AuthMiddleware authenticates requests and enforces the role policy before a
// handler runs.
type AuthMiddleware struct {
	tokens security.TokenManager
	policy *security.RolePolicy
}

func NewAuthMiddleware(tokens security.TokenManager, policy *security.RolePolicy) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, policy: policy}
}

// Wrap validates the bearer token and stamps the request context with the
// actor and the request metadata every audit event records. Requests without
// a correlation ID get a fresh one, echoed back in the response.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(correlationHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(correlationHeader, correlationID)

		claims, err := m.authenticate(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Kind: "unauthenticated"})
			return
		}

		ctx := security.WithActor(r.Context(), security.Actor{
			ID:    claims.ActorID,
			Email: claims.Email,
			Roles: claims.Roles,
		})
		ctx = security.WithRequestMeta(ctx, security.RequestMeta{
			IP:            clientIP(r),
			UserAgent:     r.UserAgent(),
			CorrelationID: correlationID,
		})

		logger.WithCorrelation(correlationID).Debug("Authenticated request", "actor_id", claims.ActorID, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require gates a handler behind a policy action. Denials are logged with the
// policy's reason.
func (m *AuthMiddleware) Require(action string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := security.ActorFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing actor", Kind: "unauthenticated"})
			return
		}
		decision := m.policy.Authorize(actor, action)
		if !decision.Allowed {
			logger.Warn("Authorization denied", "actor_id", actor.ID, "action", action, "reason", decision.Reason)
			writeJSON(w, http.StatusForbidden, errorResponse{Error: decision.Reason, Kind: "unauthorized"})
			return
		}
		h(w, r)
	}
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*security.ActorClaims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, security.ErrInvalidToken
	}
	claims, err := m.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, err
	}
	if claims.Type != security.TokenTypeAccess {
		return nil, security.ErrInvalidToken
	}
	return claims, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
