package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// requireRoomToken enforces a bearer token whose roomId claim matches the
// room named in the path.
func (h *Handler) requireRoomToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		roomID, err := h.issuer.Verify(tokenString)
		if err != nil {
			log.Warn().Err(err).Msg("token verification failed")
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		if pathRoomID := r.PathValue("roomId"); roomID != pathRoomID {
			writeError(w, http.StatusForbidden, "token not valid for this room")
			return
		}

		next(w, r)
	}
}
