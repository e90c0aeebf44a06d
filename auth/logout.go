package auth

import (
	"log/slog"
	"net/http"
	"time"

	"wanderplan/middleware"
	"wanderplan/utils"
)

// logoutHandler revokes the presented token until it would have expired anyway.
func (h *Handlers) logoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.ID == "" {
		utils.SendError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl > 0 {
		if err := h.Revoked.Set(r.Context(), middleware.RevokedKey(claims.ID), claims.UserID, ttl); err != nil {
			slog.Error("revoke token failed", "userid", claims.UserID, "error", err)
			utils.SendError(w, http.StatusInternalServerError, "Failed to invalidate session")
			return
		}
	}
	utils.SendResponse(w, http.StatusOK, nil, "Logged out successfully")
}
