package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/svattam/sewer-server/internal/session"
)

const sessionCookie = "session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies operator credentials and issues a session cookie:
// POST /api/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "missing")
		return
	}

	if !h.checkCredentials(req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.sessions.Create(r.Context(), req.Username)
	if err != nil {
		log.Printf("Session create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLogout destroys the caller's session: POST /api/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			log.Printf("Session destroy failed: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkCredentials compares against the bcrypt hash when one is configured,
// falling back to a constant-time plain comparison otherwise.
func (h *Handler) checkCredentials(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(h.auth.AdminUser)) != 1 {
		return false
	}

	if h.auth.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.auth.AdminPasswordHash), []byte(password)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(h.auth.AdminPassword)) == 1
}

// RequireSession guards operator-only endpoints behind a live session.
func (h *Handler) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if _, err := h.sessions.Get(r.Context(), cookie.Value); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			log.Printf("Session lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "session store unavailable")
			return
		}

		next.ServeHTTP(w, r)
	}
}
