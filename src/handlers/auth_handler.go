package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/security"
	"github.com/username/capgains/backend/src/utils"
)

type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenRequest struct {
	AccessKey string `json:"access_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HandleToken exchanges the configured access key for a bearer token.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccessKey == "" {
		utils.SendJSONError(w, "access_key is required", http.StatusBadRequest)
		return
	}

	if err := h.authService.VerifyAccessKey(req.AccessKey); err != nil {
		logger.L.Warn("Access key verification failed", "remoteAddr", r.RemoteAddr)
		utils.SendJSONError(w, "Invalid access key", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken()
	if err != nil {
		logger.L.Error("Error generating token", "error", err)
		utils.SendJSONError(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tokenResponse{Token: token}); err != nil {
		logger.L.Error("Error encoding token response", "error", err)
	}
}
