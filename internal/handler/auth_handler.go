package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/caselane/docforge/internal/auth"
)

// AuthHandler mints service tokens for clients that present the shared
// secret. There is no user store; auth here is a thin gate in front of
// the job API.
type AuthHandler struct {
	secret string
}

func NewAuthHandler(secret string) *AuthHandler {
	return &AuthHandler{secret: secret}
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Secret   string `json:"secret"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}

	token, err := auth.GenerateToken(h.secret, req.ClientID, "service")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
