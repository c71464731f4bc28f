package handlers

import (
	"encoding/json"
	"net/http"

	"task-management/backend/apperrors"
	"task-management/backend/models"
	"task-management/backend/services"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validationf("invalid request payload"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperrors.Validationf("email and password are required"))
		return
	}

	user, token, err := h.service.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// UserLogin accepts either an email or a login handle; the form sends one of
// the two fields depending on whether the identifier contains "@".
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		UserID   string `json:"userid"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validationf("invalid request payload"))
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.UserID
	}
	if identifier == "" || req.Password == "" {
		writeError(w, apperrors.Validationf("identifier and password are required"))
		return
	}

	user, token, err := h.service.LoginUser(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
