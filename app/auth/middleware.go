package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/almaty-bakery/bakery-api/app/httpx"
)

// Identity is the authenticated caller. CafeID scopes every downstream read
// and write to the caller's tenant.
type Identity struct {
	ID      uint   `json:"id"`
	CafeID  uint   `json:"cafe_id"`
	Login   string `json:"login"`
	IsAdmin bool   `json:"is_admin"`
}

type identityKey struct{}

// WithIdentity stores the caller in the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Middleware validates the bearer token and resolves the caller before any
// tenant-scoped handler runs.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "bearer "
		header := r.Header.Get("Authorization")
		if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			httpx.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := h.tokens.Parse(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "token expired"
			}
			httpx.Error(w, http.StatusUnauthorized, msg)
			return
		}
		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "user not found")
			return
		}
		identity := Identity{
			ID:      user.ID,
			CafeID:  user.CafeID,
			Login:   user.Login,
			IsAdmin: user.IsAdmin,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
