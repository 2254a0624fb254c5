package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	stderrors "errors"

	"github.com/avekens/threadlens/internal/infrastructure/auth"
	service "github.com/avekens/threadlens/internal/services"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/gorilla/mux"
)

type Handler struct {
	service service.AuthService
}

func NewHandler(s service.AuthService) *Handler {
	return &Handler{service: s}
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// WriteError maps core sentinels to stable machine-readable codes. Anything
// unrecognized is an infrastructure fault and comes back as server_error.
func WriteError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "server_error"
	msg := "Oops! Something went wrong"

	switch {
	case stderrors.Is(err, pkgerrors.ErrInvalidToken):
		status, code, msg = http.StatusUnauthorized, "invalid_token", "Token is invalid or expired"
	case stderrors.Is(err, pkgerrors.ErrAccessTokenRequired):
		status, code, msg = http.StatusUnauthorized, "access_token_required", "Please provide a valid access token"
	case stderrors.Is(err, pkgerrors.ErrRefreshTokenRequired):
		status, code, msg = http.StatusUnauthorized, "refresh_token_required", "Please provide a valid refresh token"
	case stderrors.Is(err, pkgerrors.ErrUserNotFound):
		status, code, msg = http.StatusNotFound, "user_not_found", "User not found"
	case stderrors.Is(err, pkgerrors.ErrAccountNotVerified):
		status, code, msg = http.StatusForbidden, "account_not_verified", "Account not verified"
	case stderrors.Is(err, pkgerrors.ErrInsufficientPermission):
		status, code, msg = http.StatusForbidden, "insufficient_permission", "You do not have permission to perform this action"
	case stderrors.Is(err, pkgerrors.ErrInvalidCredentials):
		status, code, msg = http.StatusForbidden, "invalid_credentials", "Invalid credentials"
	case stderrors.Is(err, pkgerrors.ErrUserAlreadyExists):
		status, code, msg = http.StatusBadRequest, "user_exists", "User with this email already exists"
	case stderrors.Is(err, pkgerrors.ErrAlreadyVerified):
		status, code, msg = http.StatusMethodNotAllowed, "already_verified", "You are already verified"
	case stderrors.Is(err, pkgerrors.ErrCooldownActive):
		status, code, msg = http.StatusTooManyRequests, "cooldown_active", "Please wait before resending"
	case stderrors.Is(err, pkgerrors.ErrInvalidLinkToken):
		status, code, msg = http.StatusBadRequest, "invalid_link_token", "Link is invalid or expired"
	case stderrors.Is(err, pkgerrors.ErrPasswordMismatch):
		status, code, msg = http.StatusBadRequest, "password_mismatch", "Passwords do not match"
	case stderrors.Is(err, pkgerrors.ErrInvalidState):
		status, code, msg = http.StatusBadRequest, "invalid_state", "Invalid or expired state"
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{ErrorCode: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/signup", h.Signup).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/verify/{token}", h.VerifyAccount).Methods("POST")
	r.HandleFunc("/password_reset", h.PasswordReset).Methods("POST")
	r.HandleFunc("/password_reset_confirm/{token}", h.PasswordResetConfirm).Methods("POST")
	r.HandleFunc("/google/login", h.GoogleLogin).Methods("GET")
	r.HandleFunc("/google/callback", h.GoogleCallback).Methods("GET")
	r.HandleFunc("/oauth/tokens", h.OAuthTokens).Methods("GET")
}

func (h *Handler) RegisterAccessRoutes(r *mux.Router, accessGuard *auth.Guard) {
	r.Handle("/me", accessGuard.Middleware(
		auth.RequireRoles(WriteError, "user", "admin")(http.HandlerFunc(h.Me)),
	)).Methods("POST")
	r.Handle("/resend_verification", accessGuard.Middleware(http.HandlerFunc(h.ResendVerification))).Methods("POST")
}

func (h *Handler) RegisterRefreshRoutes(r *mux.Router, refreshGuard *auth.Guard) {
	r.Handle("/refresh_token", refreshGuard.Middleware(http.HandlerFunc(h.Refresh))).Methods("POST")
	r.Handle("/logout", refreshGuard.Middleware(http.HandlerFunc(h.Logout))).Methods("POST")
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password, req.RedirectURI); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Account created! Email sent successfully",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Login successful",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	user, ok2 := auth.UserFromContext(r.Context())
	if !ok || !ok2 {
		WriteError(w, pkgerrors.ErrInvalidToken)
		return
	}
	pair, err := h.service.Refresh(r.Context(), user, claims)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	user, ok2 := auth.UserFromContext(r.Context())
	if !ok || !ok2 {
		WriteError(w, pkgerrors.ErrInvalidToken)
		return
	}
	if err := h.service.Logout(r.Context(), user, claims); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		WriteError(w, pkgerrors.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.Safe()})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, pkgerrors.ErrInvalidToken)
		return
	}
	redirectURI := r.URL.Query().Get("redirect_uri")
	remaining, err := h.service.ResendVerification(r.Context(), claims.User.Email, redirectURI)
	if err != nil {
		writeCooldownOrError(w, remaining, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if err := h.service.VerifyAccount(r.Context(), token); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account verified successfully"})
}

func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	remaining, err := h.service.RequestPasswordReset(r.Context(), req.Email, req.RedirectURI)
	if err != nil {
		writeCooldownOrError(w, remaining, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

func (h *Handler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var req struct {
		NewPassword        string `json:"new_password"`
		ConfirmNewPassword string `json:"confirm_new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := h.service.ConfirmPasswordReset(r.Context(), token, req.NewPassword, req.ConfirmNewPassword); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "redirect_uri is required", http.StatusBadRequest)
		return
	}
	url, err := h.service.GoogleLoginURL(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	redirect, err := h.service.GoogleCallback(r.Context(), state, code)
	if err != nil {
		WriteError(w, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

func (h *Handler) OAuthTokens(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	pair, err := h.service.TakeOAuthTokens(r.Context(), state)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

func writeCooldownOrError(w http.ResponseWriter, remaining time.Duration, err error) {
	if stderrors.Is(err, pkgerrors.ErrCooldownActive) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			ErrorCode: "cooldown_active",
			Message:   fmt.Sprintf("Please wait %d seconds before resending.", int(remaining.Seconds())),
		})
		return
	}
	WriteError(w, err)
}
